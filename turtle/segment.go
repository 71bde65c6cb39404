package turtle

import "strings"

// SegmentKind classifies one segment of a candidate file.
type SegmentKind string

// Segment kinds. Blank, comment, and directive segments pass through the
// pipeline verbatim; only statements are repaired, audited, and pruned.
const (
	KindBlank     SegmentKind = "blank"
	KindComment   SegmentKind = "comment"
	KindDirective SegmentKind = "directive"
	KindStatement SegmentKind = "statement"
)

// Segment is one ordered piece of a segmented file.
type Segment struct {
	// Kind tags how the segment is handled downstream.
	Kind SegmentKind

	// Text is the segment content without a trailing newline. Statement
	// segments may span multiple lines joined with \n.
	Text string

	// Terminated reports whether a statement segment closed with the
	// terminator. False marks a malformed tail.
	Terminated bool
}

// Segments groups file text into an ordered sequence of blank, comment,
// directive, and statement segments.
//
// Statement lines accumulate into a buffer that closes when a line ends
// (ignoring trailing whitespace) with the terminator while outside any
// quoted literal. Quote state carries across lines, so a literal spanning
// lines never closes a statement early. Blank, comment, and directive lines
// emit immediately as their own segments, even while a statement buffer is
// open; trailing inline comments are stripped first (a marker inside a
// literal or glued to a token is not a comment). A buffer still open at end
// of input becomes an unterminated statement segment.
func Segments(text string) []Segment {
	lines := strings.Split(text, "\n")
	// A trailing newline yields one empty artifact line, not a blank segment.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var (
		segs    []Segment
		tracker QuoteTracker
		buf     []string
	)

	flush := func(terminated bool) {
		if len(buf) == 0 {
			return
		}
		segs = append(segs, Segment{
			Kind:       KindStatement,
			Text:       strings.Join(buf, "\n"),
			Terminated: terminated,
		})
		buf = nil
	}

	for _, line := range lines {
		if tracker.InLiteral() {
			// Continuation of an open literal: accumulate unconditionally.
			// The literal may still close mid-line, so comment stripping
			// and the terminator check run from the carried state.
			if idx := tracker.CommentStart(line); idx >= 0 {
				line = strings.TrimRight(line[:idx], " \t")
			}
			buf = append(buf, line)
			if tracker.terminatesOutside(line) {
				flush(true)
				tracker.Reset()
			} else {
				tracker.Feed(line)
				tracker.feedByte('\n')
			}
			continue
		}

		if idx := tracker.CommentStart(line); idx >= 0 {
			if strings.TrimSpace(line[:idx]) == "" {
				segs = append(segs, Segment{Kind: KindComment, Text: line})
				continue
			}
			line = strings.TrimRight(line[:idx], " \t")
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			segs = append(segs, Segment{Kind: KindBlank, Text: line})

		case isDirective(trimmed):
			segs = append(segs, Segment{Kind: KindDirective, Text: line})

		default:
			buf = append(buf, line)
			if tracker.terminatesOutside(line) {
				flush(true)
				tracker.Reset()
			} else {
				tracker.Feed(line)
				tracker.feedByte('\n')
			}
		}
	}

	flush(false)
	return segs
}

// Render joins segments back into file text with a trailing newline.
func Render(segs []Segment) string {
	if len(segs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// IsEmpty reports whether the segments contribute zero terminated
// statements. Files that are empty in this sense carry only directives,
// comments, blanks, or an unrepairable tail.
func IsEmpty(segs []Segment) bool {
	for _, seg := range segs {
		if seg.Kind == KindStatement && seg.Terminated {
			return false
		}
	}
	return true
}

// directiveKeywords open prefix or base declarations. The @-forms are
// Turtle, the bare forms are the SPARQL spellings, matched
// case-insensitively when followed by whitespace.
var directiveKeywords = []string{"@prefix", "@base", "prefix", "base"}

// isDirective reports whether a trimmed line opens a directive.
func isDirective(trimmed string) bool {
	lower := strings.ToLower(trimmed)
	for _, kw := range directiveKeywords {
		if !strings.HasPrefix(lower, kw) {
			continue
		}
		rest := lower[len(kw):]
		if rest == "" || rest[0] == ' ' || rest[0] == '\t' {
			return true
		}
	}
	return false
}
