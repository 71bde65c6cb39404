package prune

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/c360studio/semscrub/audit"
)

func testStubPrefixes() *audit.Prefixes {
	return audit.NewPrefixes([]string{"kg"}, map[string]string{
		"kg":   "https://semscrub.dev/ontology#",
		"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
	})
}

func TestStubBuilder_FreshFile(t *testing.T) {
	b := NewStubBuilder(testStubPrefixes(), nil)
	records := []audit.TermRecord{
		{Name: "kg:foo", Count: 3},
		{Name: "kg:Bar", Count: 1},
	}

	out := b.Append("", records)

	want := "@prefix kg: <https://semscrub.dev/ontology#> .\n" +
		"@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .\n" +
		"\n" +
		"kg:foo rdfs:label \"foo\"@en , \"foo\"@vi ;\n" +
		"  rdfs:comment \"Used 3 times in data\"@en .\n" +
		"\n" +
		"kg:Bar rdfs:label \"Bar\"@en , \"Bar\"@vi ;\n" +
		"  rdfs:comment \"Used 1 times in data\"@en .\n"
	assert.Equal(t, want, out)
}

func TestStubBuilder_AppendKeepsExistingEntries(t *testing.T) {
	b := NewStubBuilder(testStubPrefixes(), nil)
	base := "@prefix kg: <https://semscrub.dev/ontology#> .\n" +
		"@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .\n" +
		"\n" +
		"kg:old rdfs:label \"old\"@en , \"old\"@vi ;\n" +
		"  rdfs:comment \"Used 2 times in data\"@en .\n"

	out := b.Append(base, []audit.TermRecord{{Name: "kg:fresh", Count: 5}})

	want := base +
		"\n" +
		"kg:fresh rdfs:label \"fresh\"@en , \"fresh\"@vi ;\n" +
		"  rdfs:comment \"Used 5 times in data\"@en .\n"
	assert.Equal(t, want, out)
	assert.NotContains(t, out[len(base):], "@prefix", "header is only written once")
}

func TestStubBuilder_MostUsedFirst(t *testing.T) {
	b := NewStubBuilder(testStubPrefixes(), nil)
	records := []audit.TermRecord{
		{Name: "kg:rare", Count: 1},
		{Name: "kg:popular", Count: 9},
	}

	out := b.Append("", records)

	assert.Less(t, strings.Index(out, "kg:popular"), strings.Index(out, "kg:rare"))
}

func TestStubBuilder_NoRecordsNoChange(t *testing.T) {
	b := NewStubBuilder(testStubPrefixes(), nil)

	assert.Equal(t, "existing\n", b.Append("existing\n", nil))
	assert.Equal(t, "", b.Append("", nil))
}

func TestStubBuilder_CustomLanguages(t *testing.T) {
	b := NewStubBuilder(testStubPrefixes(), []string{"en"})

	out := b.Append("", []audit.TermRecord{{Name: "kg:solo", Count: 1}})

	assert.Contains(t, out, "kg:solo rdfs:label \"solo\"@en ;\n")
	assert.NotContains(t, out, "@vi")
}

func TestStubBuilder_StubFileDefinesItsTerms(t *testing.T) {
	prefixes := testStubPrefixes()
	b := NewStubBuilder(prefixes, nil)

	out := b.Append("", []audit.TermRecord{{Name: "kg:foo", Count: 3}})
	defined := audit.ScanDefined(out, prefixes)

	assert.True(t, defined["kg:foo"], "a stubbed term counts as defined on the next run")
}
