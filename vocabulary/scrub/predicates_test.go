package scrub_test

import (
	"testing"

	"github.com/c360studio/semstreams/vocabulary"

	"github.com/c360studio/semscrub/vocabulary/scrub"
)

func TestPredicatesRegistered(t *testing.T) {
	predicates := []string{
		scrub.RunID,
		scrub.RunPolicy,
		scrub.RunDataDir,
		scrub.RunStartedAt,
		scrub.RunFinishedAt,
		scrub.RunFilesRead,
		scrub.RunFilesRepaired,
		scrub.RunFilesDeleted,
		scrub.RunFilesRewritten,
		scrub.RunFilesErrored,
		scrub.RunDefinedTerms,
		scrub.RunMissingTerms,
		scrub.RunUnusedTerms,
	}

	for _, predicate := range predicates {
		t.Run(predicate, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(predicate)
			if meta == nil {
				t.Errorf("predicate %q not registered", predicate)
				return
			}
			if meta.Description == "" {
				t.Errorf("predicate %q has no description", predicate)
			}
			if meta.DataType == "" {
				t.Errorf("predicate %q has no data type", predicate)
			}
		})
	}
}

func TestPredicateIRIMappings(t *testing.T) {
	tests := []struct {
		predicate string
		wantIRI   string
	}{
		{scrub.RunPolicy, scrub.PropPolicy},
		{scrub.RunDataDir, scrub.PropDataDir},
		{scrub.RunMissingTerms, scrub.PropMissingTerms},
		{scrub.RunStartedAt, scrub.ProvStartedAt},
		{scrub.RunFinishedAt, scrub.ProvEndedAt},
	}

	for _, tc := range tests {
		t.Run(tc.predicate, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(tc.predicate)
			if meta == nil {
				t.Fatalf("predicate %q not registered", tc.predicate)
			}
			if meta.StandardIRI != tc.wantIRI {
				t.Errorf("got IRI %q, want %q", meta.StandardIRI, tc.wantIRI)
			}
		})
	}
}

func TestPredicateDataTypes(t *testing.T) {
	tests := []struct {
		predicate string
		wantType  string
	}{
		{scrub.RunID, "string"},
		{scrub.RunPolicy, "string"},
		{scrub.RunDataDir, "string"},
		{scrub.RunStartedAt, "datetime"},
		{scrub.RunFinishedAt, "datetime"},
		{scrub.RunFilesRead, "int"},
		{scrub.RunFilesRepaired, "int"},
		{scrub.RunFilesDeleted, "int"},
		{scrub.RunFilesRewritten, "int"},
		{scrub.RunFilesErrored, "int"},
		{scrub.RunDefinedTerms, "int"},
		{scrub.RunMissingTerms, "array"},
		{scrub.RunUnusedTerms, "int"},
	}

	for _, tc := range tests {
		t.Run(tc.predicate, func(t *testing.T) {
			meta := vocabulary.GetPredicateMetadata(tc.predicate)
			if meta == nil {
				t.Fatalf("predicate %q not registered", tc.predicate)
			}
			if meta.DataType != tc.wantType {
				t.Errorf("got data type %q, want %q", meta.DataType, tc.wantType)
			}
		})
	}
}

func TestClassIRIs(t *testing.T) {
	if scrub.ClassRun != scrub.Namespace+"ScrubRun" {
		t.Errorf("ClassRun: got %q, want %q", scrub.ClassRun, scrub.Namespace+"ScrubRun")
	}
}
