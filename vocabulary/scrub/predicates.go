package scrub

import "github.com/c360studio/semstreams/vocabulary"

// Run identity predicates.
const (
	// RunID is the unique identifier of a scrub run.
	RunID = "scrub.run.id"

	// RunPolicy is the missing-term policy applied.
	// Values: "prune", "stub"
	RunPolicy = "scrub.run.policy"

	// RunDataDir is the corpus root the run operated on.
	RunDataDir = "scrub.run.data_dir"

	// RunStartedAt is when the run started (RFC3339).
	RunStartedAt = "scrub.run.started_at"

	// RunFinishedAt is when the run finished (RFC3339).
	RunFinishedAt = "scrub.run.finished_at"
)

// Run outcome predicates, one per summary counter.
const (
	// RunFilesRead is the number of candidate files discovered.
	RunFilesRead = "scrub.run.files_read"

	// RunFilesRepaired is the number of files changed by repair.
	RunFilesRepaired = "scrub.run.files_repaired"

	// RunFilesDeleted is the number of files removed as empty.
	RunFilesDeleted = "scrub.run.files_deleted"

	// RunFilesRewritten is the number of files changed by pruning.
	RunFilesRewritten = "scrub.run.files_rewritten"

	// RunFilesErrored is the number of files skipped with errors.
	RunFilesErrored = "scrub.run.files_errored"
)

// Run vocabulary predicates.
const (
	// RunDefinedTerms is the vocabulary size the run audited against.
	RunDefinedTerms = "scrub.run.defined_terms"

	// RunMissingTerms lists the undefined terms the run found, in
	// first-encounter order.
	RunMissingTerms = "scrub.run.missing_terms"

	// RunUnusedTerms is the number of defined terms never referenced.
	RunUnusedTerms = "scrub.run.unused_terms"
)

func init() {
	// Register run identity predicates
	vocabulary.Register(RunID,
		vocabulary.WithDescription("Unique identifier of a scrub run"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"runID"))

	vocabulary.Register(RunPolicy,
		vocabulary.WithDescription("Missing-term policy applied: prune or stub"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropPolicy))

	vocabulary.Register(RunDataDir,
		vocabulary.WithDescription("Corpus root the run operated on"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropDataDir))

	vocabulary.Register(RunStartedAt,
		vocabulary.WithDescription("Run start timestamp (RFC3339)"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(ProvStartedAt))

	vocabulary.Register(RunFinishedAt,
		vocabulary.WithDescription("Run finish timestamp (RFC3339)"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(ProvEndedAt))

	// Register run outcome predicates
	vocabulary.Register(RunFilesRead,
		vocabulary.WithDescription("Number of candidate files discovered"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"filesRead"))

	vocabulary.Register(RunFilesRepaired,
		vocabulary.WithDescription("Number of files changed by repair"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"filesRepaired"))

	vocabulary.Register(RunFilesDeleted,
		vocabulary.WithDescription("Number of files removed as empty"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"filesDeleted"))

	vocabulary.Register(RunFilesRewritten,
		vocabulary.WithDescription("Number of files changed by pruning"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"filesRewritten"))

	vocabulary.Register(RunFilesErrored,
		vocabulary.WithDescription("Number of files skipped with errors"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"filesErrored"))

	// Register run vocabulary predicates
	vocabulary.Register(RunDefinedTerms,
		vocabulary.WithDescription("Vocabulary size the run audited against"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"definedTerms"))

	vocabulary.Register(RunMissingTerms,
		vocabulary.WithDescription("Undefined terms found, in first-encounter order"),
		vocabulary.WithDataType("array"),
		vocabulary.WithIRI(PropMissingTerms))

	vocabulary.Register(RunUnusedTerms,
		vocabulary.WithDescription("Number of defined terms never referenced"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(Namespace+"unusedTerms"))
}
