package prune

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semscrub/audit"
)

// testPruner builds a frozen table in which every name in used is counted
// once, so undefined used names are missing at the default threshold.
func testPruner(t *testing.T, defined []string, used []string) *Pruner {
	t.Helper()
	prefixes := audit.NewPrefixes([]string{"kg"}, map[string]string{
		"kg":  "https://semscrub.dev/ontology#",
		"res": "https://semscrub.dev/resource/",
	})
	def := make(map[string]bool, len(defined))
	for _, name := range defined {
		def[name] = true
	}
	table := audit.NewTable(def, 1)
	usage := &audit.Usage{File: "a.ttl", Counts: make(map[string]int)}
	for _, name := range used {
		if usage.Counts[name] == 0 {
			usage.Order = append(usage.Order, name)
		}
		usage.Counts[name]++
	}
	table.MergeUsage(usage)
	table.Freeze()
	return NewPruner(prefixes, table)
}

func TestPruneStatement_ObjectItemAndClauseRemoved(t *testing.T) {
	p := testPruner(t,
		[]string{"kg:sameName", "kg:realPred"},
		[]string{"kg:undefinedPred", "kg:UndefinedThing"})

	out, keep := p.PruneStatement(`kg:sameName kg:undefinedPred "X" ; kg:realPred res:Foo , kg:UndefinedThing .`, true)

	require.True(t, keep)
	assert.Equal(t, "kg:sameName kg:realPred res:Foo .", out)
}

func TestPruneStatement_MissingSubjectDropsStatement(t *testing.T) {
	p := testPruner(t, []string{"kg:realPred"}, []string{"kg:ghost"})

	_, keep := p.PruneStatement("kg:ghost kg:realPred res:Foo .", true)

	assert.False(t, keep)
}

func TestPruneStatement_EmptyObjectListDropsStatement(t *testing.T) {
	p := testPruner(t, []string{"kg:goodPred"}, []string{"kg:gone"})

	_, keep := p.PruneStatement("res:x kg:goodPred kg:gone .", true)

	assert.False(t, keep)
}

func TestPruneStatement_UntouchedStatementVerbatim(t *testing.T) {
	p := testPruner(t, []string{"kg:realPred"}, nil)
	in := "res:x  kg:realPred   res:y ."

	out, keep := p.PruneStatement(in, true)

	require.True(t, keep)
	assert.Equal(t, in, out, "statements with nothing to prune keep their original spacing")
}

func TestPruneStatement_MultiClauseReassembly(t *testing.T) {
	p := testPruner(t, []string{"kg:a", "kg:b", "kg:c"}, []string{"kg:gone"})
	in := "res:x kg:a res:p ;\n    kg:b res:q , kg:gone ;\n    kg:c \"lit\" ."

	out, keep := p.PruneStatement(in, true)

	require.True(t, keep)
	assert.Equal(t, "res:x kg:a res:p ;\n    kg:b res:q ;\n    kg:c \"lit\" .", out)

	again, keepAgain := p.PruneStatement(out, true)
	require.True(t, keepAgain)
	assert.Equal(t, out, again, "pruned output is already canonical")
}

func TestPruneStatement_LiteralSeparatorsPreserved(t *testing.T) {
	p := testPruner(t, []string{"kg:note"}, []string{"kg:gone"})
	in := `res:x kg:note "a ; b , c. end" ; kg:gone res:y .`

	out, keep := p.PruneStatement(in, true)

	require.True(t, keep)
	assert.Equal(t, `res:x kg:note "a ; b , c. end" .`, out)
}

func TestPruneStatement_UnterminatedTailClosed(t *testing.T) {
	p := testPruner(t, []string{"kg:name"}, nil)

	out, keep := p.PruneStatement(`res:x kg:name "Y"`, false)

	require.True(t, keep)
	assert.Equal(t, `res:x kg:name "Y" .`, out)
}

func TestPruneStatement_BarePredicateTailDropped(t *testing.T) {
	p := testPruner(t, []string{"kg:name"}, nil)

	_, keep := p.PruneStatement("res:x kg:name", false)

	assert.False(t, keep, "a clause with no object cannot be closed into a valid statement")
}

func TestPruneStatement_TrailingClauseSeparatorCleaned(t *testing.T) {
	p := testPruner(t, []string{"kg:a"}, nil)

	out, keep := p.PruneStatement("res:x kg:a res:y ; .", true)

	require.True(t, keep)
	assert.Equal(t, "res:x kg:a res:y .", out)
}

func TestPruneStatement_DatatypeLiteralOpaque(t *testing.T) {
	p := testPruner(t, []string{"kg:count"}, []string{"kg:gone"})
	in := `res:x kg:count "12"^^kg:gone .`

	out, keep := p.PruneStatement(in, true)

	require.True(t, keep)
	assert.Equal(t, in, out, "a literal with its datatype is one object item")
}

func TestPruneStatement_BracketedIRIObjectPruned(t *testing.T) {
	p := testPruner(t, []string{"kg:a"}, []string{"kg:gone"})

	_, keep := p.PruneStatement("res:x kg:a <https://semscrub.dev/ontology#gone> .", true)

	assert.False(t, keep, "full IRIs compact to the same term the audit counted")
}

func TestPruneStatement_TypeClauseKept(t *testing.T) {
	p := testPruner(t, []string{"kg:Player"}, nil)
	in := "res:x a kg:Player ."

	out, keep := p.PruneStatement(in, true)

	require.True(t, keep)
	assert.Equal(t, in, out)
}

func TestRewrite_PassesThroughDirectivesAndComments(t *testing.T) {
	p := testPruner(t, []string{"kg:team"}, []string{"kg:gone"})
	in := "@prefix kg: <https://semscrub.dev/ontology#> .\n" +
		"# extracted 2024-05-01\n" +
		"res:x kg:team res:y .\n" +
		"res:z kg:gone res:w .\n"

	out, changed := p.Rewrite(in)

	require.True(t, changed)
	assert.Equal(t, "@prefix kg: <https://semscrub.dev/ontology#> .\n"+
		"# extracted 2024-05-01\n"+
		"res:x kg:team res:y .\n", out)
}

func TestRewrite_NoChangeReturnsInputExactly(t *testing.T) {
	p := testPruner(t, []string{"kg:team"}, nil)
	in := "res:x kg:team res:y .\n"

	out, changed := p.Rewrite(in)

	assert.False(t, changed)
	assert.Equal(t, in, out)
}

func TestNewPruner_RequiresFrozenTable(t *testing.T) {
	prefixes := audit.NewPrefixes([]string{"kg"}, nil)
	table := audit.NewTable(nil, 1)

	require.Panics(t, func() {
		NewPruner(prefixes, table)
	})
}
