package prune

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/semscrub/audit"
)

// Fallback binding when the configured prefix map carries no rdfs entry.
const rdfsNamespace = "http://www.w3.org/2000/01/rdf-schema#"

// DefaultStubLanguages are the label languages stub definitions carry when
// none are configured.
var DefaultStubLanguages = []string{"en", "vi"}

// StubBuilder renders placeholder vocabulary definitions for missing terms,
// the alternative policy to pruning them out of the data.
type StubBuilder struct {
	prefixes *audit.Prefixes
	langs    []string
}

func NewStubBuilder(prefixes *audit.Prefixes, langs []string) *StubBuilder {
	if len(langs) == 0 {
		langs = DefaultStubLanguages
	}
	return &StubBuilder{prefixes: prefixes, langs: langs}
}

// Append returns base with a stub definition added for every record, most
// used first. An empty base gets a prefix header first so the result loads
// on its own. Missing terms are by definition absent from the existing stub
// file, so appending never duplicates an entry.
func (b *StubBuilder) Append(base string, records []audit.TermRecord) string {
	if len(records) == 0 {
		return base
	}
	ordered := make([]audit.TermRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Count > ordered[j].Count
	})

	var sb strings.Builder
	base = strings.TrimRight(base, "\n")
	if base == "" {
		sb.WriteString(b.header(ordered))
	} else {
		sb.WriteString(base)
		sb.WriteString("\n")
	}
	for _, rec := range ordered {
		sb.WriteString("\n")
		sb.WriteString(b.entry(rec))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (b *StubBuilder) header(records []audit.TermRecord) string {
	seen := make(map[string]bool)
	var prefixes []string
	for _, rec := range records {
		prefix, _, ok := strings.Cut(rec.Name, ":")
		if !ok || seen[prefix] {
			continue
		}
		seen[prefix] = true
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)

	var sb strings.Builder
	for _, prefix := range prefixes {
		iri, ok := b.prefixes.IRI(prefix)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "@prefix %s: <%s> .\n", prefix, iri)
	}
	rdfs := rdfsNamespace
	if iri, ok := b.prefixes.IRI("rdfs"); ok {
		rdfs = iri
	}
	fmt.Fprintf(&sb, "@prefix rdfs: <%s> .\n", rdfs)
	return sb.String()
}

func (b *StubBuilder) entry(rec audit.TermRecord) string {
	local := rec.Name
	if _, rest, ok := strings.Cut(rec.Name, ":"); ok {
		local = rest
	}
	labels := make([]string, len(b.langs))
	for i, lang := range b.langs {
		labels[i] = fmt.Sprintf("%q@%s", local, lang)
	}
	comment := fmt.Sprintf("Used %d times in data", rec.Count)
	return fmt.Sprintf("%s rdfs:label %s ;\n  rdfs:comment %q@en .",
		rec.Name, strings.Join(labels, " , "), comment)
}
