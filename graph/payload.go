package graph

import (
	"errors"
	"time"

	"github.com/c360studio/semstreams/message"
)

// GraphIngestSubject is the stream subject entities are published to.
const GraphIngestSubject = "graph.ingest.entity"

// EntityIngestMessage is the wire format for graph ingestion. The shape
// matches what the semstreams graph consumers decode, so runs published
// here land in the same knowledge graph as every other component.
type EntityIngestMessage struct {
	ID        string           `json:"id"`
	Triples   []message.Triple `json:"triples"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (m *EntityIngestMessage) Validate() error {
	if m.ID == "" {
		return errors.New("entity ID is required")
	}
	if len(m.Triples) == 0 {
		return errors.New("at least one triple is required")
	}
	return nil
}
