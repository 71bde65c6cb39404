// Package graph publishes scrub run provenance to the knowledge graph.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/semscrub/pipeline"
	"github.com/c360studio/semscrub/vocabulary/scrub"
)

// runSource tags every triple a run publishes.
const runSource = "semscrub.scrub"

// PublishRun publishes a scrub run summary as a graph entity.
func PublishRun(ctx context.Context, nc *natsclient.Client, summary *pipeline.Summary, dataDir string) error {
	if nc == nil {
		return nil // Skip publishing if no NATS client (graceful degradation)
	}

	entityID := RunEntityID(summary.RunID)
	now := time.Now()

	triples := []message.Triple{
		{
			Subject:    entityID,
			Predicate:  scrub.RunID,
			Object:     summary.RunID,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunPolicy,
			Object:     summary.Policy,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunDataDir,
			Object:     dataDir,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunStartedAt,
			Object:     summary.Started.Format(time.RFC3339),
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunFinishedAt,
			Object:     summary.Finished.Format(time.RFC3339),
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunFilesRead,
			Object:     summary.FilesRead,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunFilesRepaired,
			Object:     summary.FilesRepaired,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunFilesDeleted,
			Object:     summary.FilesDeleted,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunFilesRewritten,
			Object:     summary.FilesRewritten,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunFilesErrored,
			Object:     summary.FilesErrored,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunDefinedTerms,
			Object:     summary.DefinedTerms,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
		{
			Subject:    entityID,
			Predicate:  scrub.RunUnusedTerms,
			Object:     summary.UnusedTerms,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		},
	}

	if len(summary.MissingTerms) > 0 {
		triples = append(triples, message.Triple{
			Subject:    entityID,
			Predicate:  scrub.RunMissingTerms,
			Object:     summary.MissingTerms,
			Source:     runSource,
			Timestamp:  now,
			Confidence: 1.0,
		})
	}

	msg := EntityIngestMessage{
		ID:        entityID,
		Triples:   triples,
		UpdatedAt: now,
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("run entity invalid: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal run entity: %w", err)
	}

	if err := nc.PublishToStream(ctx, GraphIngestSubject, data); err != nil {
		return fmt.Errorf("publish run entity: %w", err)
	}

	return nil
}

// RunEntityID generates a consistent entity ID for a scrub run.
// Format: semscrub.local.scrub.run.<id>
func RunEntityID(id string) string {
	return fmt.Sprintf("semscrub.local.scrub.run.%s", id)
}
