package audit

import (
	"strings"

	"github.com/c360studio/semscrub/turtle"
)

// Usage is one file's usage-scan partial: term counts plus the order in
// which terms were first encountered within the file. Partials are merged
// into a Table after all workers finish.
type Usage struct {
	File   string
	Counts map[string]int
	Order  []string
}

// ScanDefined records every qualified name that opens a line of the trusted
// corpus at column zero, followed by whitespace. Definition is a syntactic
// position, not a type assertion: subjects sit at column zero, continuation
// lines are indented. Lines that begin inside a literal left open by an
// earlier line are skipped.
func ScanDefined(text string, prefixes *Prefixes) map[string]bool {
	defined := make(map[string]bool)
	var tracker turtle.QuoteTracker

	for _, line := range strings.Split(text, "\n") {
		open := tracker.InLiteral()
		tracker.Feed(line)
		tracker.Feed("\n")
		if open || line == "" || line[0] == ' ' || line[0] == '\t' {
			continue
		}

		token := line
		if i := strings.IndexAny(line, " \t"); i >= 0 {
			token = line[:i]
		}
		if name, ok := vocabularyQName(token, prefixes); ok {
			defined[name] = true
		}
	}
	return defined
}

// ScanUsage counts every vocabulary-namespace reference in text that falls
// outside a quoted literal: qualified names at word boundaries and full
// bracketed references that compact into an audited namespace. Subject,
// predicate, and object positions are not distinguished.
func ScanUsage(file, text string, prefixes *Prefixes) *Usage {
	u := &Usage{File: file, Counts: make(map[string]int)}

	i := 0
	for i < len(text) {
		b := text[i]
		switch {
		case b == '"':
			i = skipLiteral(text, i+1)

		case b == '<':
			end := strings.IndexAny(text[i:], ">\n")
			if end < 0 || text[i+end] != '>' {
				i++
				continue
			}
			if name, ok := prefixes.Normalize(text[i : i+end+1]); ok {
				u.record(name)
			}
			i += end + 1

		case isWordByte(b) && (i == 0 || !isWordByte(text[i-1])):
			j := i
			for j < len(text) && isWordByte(text[j]) {
				j++
			}
			if j >= len(text) || text[j] != ':' || !prefixes.IsVocabulary(text[i:j]) {
				i = j
				continue
			}
			k := j + 1
			for k < len(text) && isWordByte(text[k]) {
				k++
			}
			if k == j+1 {
				i = j
				continue
			}
			u.record(text[i:k])
			i = k

		default:
			i++
		}
	}
	return u
}

func (u *Usage) record(name string) {
	u.Counts[name]++
	if u.Counts[name] == 1 {
		u.Order = append(u.Order, name)
	}
}

// skipLiteral advances past a quoted literal opened just before i, honoring
// escape pairs, and returns the index after the closing quote.
func skipLiteral(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case '\\':
			i += 2
		case '"':
			return i + 1
		default:
			i++
		}
	}
	return i
}

// vocabularyQName parses token as prefix:local with a word-only local name
// under an audited namespace.
func vocabularyQName(token string, prefixes *Prefixes) (string, bool) {
	i := strings.IndexByte(token, ':')
	if i <= 0 {
		return "", false
	}
	prefix, local := token[:i], token[i+1:]
	if !prefixes.IsVocabulary(prefix) || !isWordRun(local) {
		return "", false
	}
	return token, true
}

func isWordRun(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isWordByte(s[i]) {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
