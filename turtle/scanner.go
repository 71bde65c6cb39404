// Package turtle provides lenient scanning, segmentation, and repair for
// Turtle-style triple text. It implements only the subset needed to recover
// malformed machine-generated files: quoted literals with escapes, statement
// terminators, clause and object-list separators, comments, and prefix
// directives. It is deliberately not a grammar-complete parser.
package turtle

import "strings"

// Structural characters of the statement syntax.
const (
	// Terminator closes a statement.
	Terminator = '.'

	// ClauseSeparator separates (predicate, object-list) clauses.
	ClauseSeparator = ';'

	// ListSeparator separates items within an object list.
	ListSeparator = ','

	// CommentMarker starts a comment when outside a literal.
	CommentMarker = '#'

	quoteChar  = '"'
	escapeChar = '\\'
)

// QuoteTracker is a two-state scanner that reports whether the cursor is
// inside a quoted literal. Escape pairs inside a literal (\", \\ and any
// other \x) are consumed atomically and never toggle the state.
//
// State carries across Feed calls, so a literal left open at the end of one
// line stays open on the next. Only double quotes delimit literals; single
// quotes in malformed tokens must not swallow the rest of the file.
type QuoteTracker struct {
	inLiteral bool
	// pendingEscape is set when the last fed byte was a backslash inside a
	// literal, so the next byte is the escape target.
	pendingEscape bool
}

// Feed advances the tracker across text.
func (t *QuoteTracker) Feed(text string) {
	for i := 0; i < len(text); i++ {
		t.feedByte(text[i])
	}
}

func (t *QuoteTracker) feedByte(b byte) {
	if t.pendingEscape {
		t.pendingEscape = false
		return
	}
	if t.inLiteral {
		switch b {
		case escapeChar:
			t.pendingEscape = true
		case quoteChar:
			t.inLiteral = false
		}
		return
	}
	if b == quoteChar {
		t.inLiteral = true
	}
}

// InLiteral reports whether the cursor is currently inside a quoted literal.
// A pending escape counts as inside: the literal cannot have closed yet.
func (t *QuoteTracker) InLiteral() bool {
	return t.inLiteral || t.pendingEscape
}

// Reset returns the tracker to the outside-literal state.
func (t *QuoteTracker) Reset() {
	*t = QuoteTracker{}
}

// CommentStart returns the index where a trailing comment begins, scanning
// from the tracker's current state, or -1. A comment marker only counts when
// it falls outside any literal and either starts the line or follows
// whitespace: the fragment separator inside a bracketed IRI never opens a
// comment. The receiver is not advanced.
func (t QuoteTracker) CommentStart(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == CommentMarker && !t.InLiteral() &&
			(i == 0 || line[i-1] == ' ' || line[i-1] == '\t') {
			return i
		}
		t.feedByte(line[i])
	}
	return -1
}

// CommentStart returns the index where a comment begins on a line scanned
// from the outside-literal state, or -1.
func CommentStart(line string) int {
	var t QuoteTracker
	return t.CommentStart(line)
}

// SplitOutside splits s on every occurrence of sep that falls outside a
// quoted literal. Separators inside literals are preserved verbatim. The
// separator itself is not included in any part.
func SplitOutside(s string, sep byte) []string {
	var t QuoteTracker
	parts := make([]string, 0, 4)
	start := 0
	for i := 0; i < len(s); i++ {
		if !t.InLiteral() && s[i] == sep {
			parts = append(parts, s[start:i])
			start = i + 1
			continue
		}
		t.feedByte(s[i])
	}
	return append(parts, s[start:])
}

// terminatesOutside reports whether line, ignoring trailing whitespace, ends
// with the statement terminator while the tracker (advanced through the
// line) is outside any literal. The receiver is not advanced.
func (t QuoteTracker) terminatesOutside(line string) bool {
	stripped := strings.TrimRight(line, " \t\r")
	if !strings.HasSuffix(stripped, string(Terminator)) {
		return false
	}
	t.Feed(stripped)
	return !t.InLiteral()
}
