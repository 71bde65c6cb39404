// Package scrub provides vocabulary predicates for scrub run provenance.
//
// A scrub run is the activity that repairs, audits, and prunes one candidate
// corpus. Publishing runs as entities keeps a queryable history of what was
// cleaned, when, and how much was cut.
//
// Import this package to auto-register predicates:
//
//	import _ "github.com/c360studio/semscrub/vocabulary/scrub"
package scrub
