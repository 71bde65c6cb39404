package scrub

// Namespace is the base IRI prefix for scrub vocabulary terms.
const Namespace = "https://semscrub.dev/ontology/scrub/"

// EntityNamespace is the base IRI for scrub run entity instances.
const EntityNamespace = "https://semscrub.dev/entity/scrub/"

// Standard ontology IRI constants for mappings.
const (
	// ProvStartedAt is the PROV-O activity start time property.
	ProvStartedAt = "http://www.w3.org/ns/prov#startedAtTime"

	// ProvEndedAt is the PROV-O activity end time property.
	ProvEndedAt = "http://www.w3.org/ns/prov#endedAtTime"
)

// Class IRIs define the types of scrub entities.
const (
	// ClassRun represents one scrub pass over a candidate corpus.
	// Extends: prov:Activity
	ClassRun = Namespace + "ScrubRun"
)

// Data Property IRIs define literal-valued attributes.
const (
	// PropPolicy is the missing-term policy applied by the run.
	PropPolicy = Namespace + "policy"

	// PropDataDir is the corpus root the run operated on.
	PropDataDir = Namespace + "dataDir"

	// PropMissingTerms lists the vocabulary terms the run found missing.
	PropMissingTerms = Namespace + "missingTerms"
)
