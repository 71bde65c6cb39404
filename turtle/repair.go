package turtle

import (
	"errors"
	"regexp"
	"strings"
)

// Placeholder values appended by the completion rules.
const (
	// PlaceholderLiteral stands in for a missing object.
	PlaceholderLiteral = `"UNKNOWN"`

	// PlaceholderType is the generic type local name appended after a
	// dangling type assertion.
	PlaceholderType = "Thing"
)

// Repairer applies a small table of completion rules to truncated statement
// lines. Repair is local and best-effort: each rule looks at a single line,
// never at surrounding statements, and unmatched lines pass through
// unchanged.
type Repairer struct {
	rules []repairRule
}

type repairRule struct {
	pattern *regexp.Regexp
	suffix  string
}

// NewRepairer compiles the rule table for the given vocabulary and resource
// prefixes. Checked in order, first match wins:
//
//  1. subject + predicate, no object  → append placeholder literal + terminator
//  2. subject + "a", no type          → append generic type + terminator
//  3. predicate + resource reference  → append terminator only
//
// Lines already ending in the terminator or clause separator are never
// touched. The rules only ever match bare prefixed tokens, so a line
// containing a quoted literal can never be rewritten by them.
func NewRepairer(vocabPrefixes, resourcePrefixes []string) (*Repairer, error) {
	if len(vocabPrefixes) == 0 {
		return nil, errors.New("at least one vocabulary prefix is required")
	}

	voc := prefixAlternation(vocabPrefixes)
	subj := voc
	if len(resourcePrefixes) > 0 {
		subj = prefixAlternation(append(append([]string{}, vocabPrefixes...), resourcePrefixes...))
	}

	genericType := " " + vocabPrefixes[0] + ":" + PlaceholderType + " ."

	rules := []repairRule{
		{
			pattern: regexp.MustCompile(`^\s*` + subj + `:\w+\s+` + voc + `:\w+$`),
			suffix:  " " + PlaceholderLiteral + " .",
		},
	}
	if len(resourcePrefixes) > 0 {
		res := prefixAlternation(resourcePrefixes)
		rules = append(rules,
			repairRule{
				pattern: regexp.MustCompile(`^\s*` + res + `:\w+\s+a$`),
				suffix:  genericType,
			},
			repairRule{
				pattern: regexp.MustCompile(`^\s*` + voc + `:\w+\s+` + res + `:\w+$`),
				suffix:  " .",
			},
		)
	}

	return &Repairer{rules: rules}, nil
}

// RepairLine applies the rule table to a single line, returning the repaired
// line and whether a rule fired. The caller must only pass lines that start
// outside a quoted literal.
func (r *Repairer) RepairLine(line string) (string, bool) {
	stripped := strings.TrimRight(line, " \t\r")
	if stripped == "" {
		return line, false
	}
	switch stripped[len(stripped)-1] {
	case Terminator, ClauseSeparator:
		return line, false
	}
	for _, rule := range r.rules {
		if rule.pattern.MatchString(stripped) {
			return stripped + rule.suffix, true
		}
	}
	return line, false
}

// RepairText runs the rule table across every line of text, skipping lines
// that begin inside a literal left open by an earlier line. Returns the
// repaired text and the number of lines changed.
func (r *Repairer) RepairText(text string) (string, int) {
	var tracker QuoteTracker
	lines := strings.Split(text, "\n")
	repaired := 0

	for i, line := range lines {
		if !tracker.InLiteral() {
			if fixed, ok := r.RepairLine(line); ok {
				lines[i] = fixed
				line = fixed
				repaired++
			}
		}
		tracker.Feed(line)
		tracker.feedByte('\n')
	}

	if repaired == 0 {
		return text, 0
	}
	return strings.Join(lines, "\n"), repaired
}

func prefixAlternation(prefixes []string) string {
	quoted := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		quoted = append(quoted, regexp.QuoteMeta(p))
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}
