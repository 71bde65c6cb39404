// Package prune rewrites statements against a frozen audit table, removing
// subjects, clauses, and object items that reference missing vocabulary
// terms.
package prune

import (
	"strings"

	"github.com/c360studio/semscrub/audit"
	"github.com/c360studio/semscrub/turtle"
)

// Pruner applies position-specific removal rules to statement segments. A
// term's missing status depends on its usage count across the whole corpus,
// so a Pruner can only be built once the table is merged and frozen.
type Pruner struct {
	prefixes *audit.Prefixes
	table    *audit.Table
}

// NewPruner panics when the table is still accepting merges.
func NewPruner(prefixes *audit.Prefixes, table *audit.Table) *Pruner {
	if !table.Frozen() {
		panic("prune: table must be frozen before pruning")
	}
	return &Pruner{prefixes: prefixes, table: table}
}

// Rewrite prunes every statement in text. Directive, comment, and blank
// segments pass through in their original order. The returned flag reports
// whether the output differs from the input.
func (p *Pruner) Rewrite(text string) (string, bool) {
	segs := turtle.Segments(text)
	kept := make([]turtle.Segment, 0, len(segs))
	changed := false
	for _, seg := range segs {
		if seg.Kind != turtle.KindStatement {
			kept = append(kept, seg)
			continue
		}
		pruned, keep := p.PruneStatement(seg.Text, seg.Terminated)
		if !keep {
			changed = true
			continue
		}
		if pruned != seg.Text {
			changed = true
		}
		kept = append(kept, turtle.Segment{Kind: turtle.KindStatement, Text: pruned, Terminated: true})
	}
	if !changed {
		return text, false
	}
	return turtle.Render(kept), true
}

// PruneStatement rewrites a single statement: a missing subject drops the
// statement, a missing predicate drops its clause, a missing object drops
// that item, and a clause whose object list empties is dropped with it. The
// second return is false when no clause survives. Statements that arrive
// unterminated are closed. Untouched statements are returned verbatim;
// anything else is reassembled in canonical form, one clause per line.
func (p *Pruner) PruneStatement(text string, terminated bool) (string, bool) {
	body := strings.TrimRight(text, " \t\r\n")
	if terminated {
		body = strings.TrimSuffix(body, string(turtle.Terminator))
		body = strings.TrimRight(body, " \t\r\n")
	}
	if body == "" {
		return "", false
	}

	clauses := turtle.SplitOutside(body, turtle.ClauseSeparator)
	subject, rest := splitToken(strings.TrimSpace(clauses[0]))
	if subject == "" || p.missing(subject) {
		return "", false
	}

	changed := !terminated
	var keptClauses []string
	for i, raw := range clauses {
		clause := strings.TrimSpace(raw)
		if i == 0 {
			clause = strings.TrimSpace(rest)
		}
		if clause == "" {
			changed = true
			continue
		}
		predicate, objects := splitToken(clause)
		if p.missing(predicate) {
			changed = true
			continue
		}
		var keptItems []string
		for _, item := range turtle.SplitOutside(objects, turtle.ListSeparator) {
			item = strings.TrimSpace(item)
			if item == "" || p.missing(item) {
				changed = true
				continue
			}
			keptItems = append(keptItems, item)
		}
		if len(keptItems) == 0 {
			changed = true
			continue
		}
		keptClauses = append(keptClauses, predicate+" "+strings.Join(keptItems, " , "))
	}
	if len(keptClauses) == 0 {
		return "", false
	}
	if !changed {
		return text, true
	}
	return assemble(subject, keptClauses), true
}

func (p *Pruner) missing(token string) bool {
	name, ok := p.prefixes.Normalize(token)
	if !ok {
		return false
	}
	return p.table.IsMissing(name)
}

// splitToken separates the first whitespace-delimited token from the rest.
func splitToken(s string) (string, string) {
	i := strings.IndexAny(s, " \t\r\n")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

func assemble(subject string, clauses []string) string {
	var b strings.Builder
	b.WriteString(subject)
	b.WriteByte(' ')
	b.WriteString(clauses[0])
	for _, clause := range clauses[1:] {
		b.WriteString(" ;\n    ")
		b.WriteString(clause)
	}
	b.WriteString(" .")
	return b.String()
}
