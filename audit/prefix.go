// Package audit builds the frozen vocabulary view that pruning decisions
// read: which qualified names the trusted corpus defines, and how often the
// candidate corpus uses them. The defined scan and the usage scan are
// independent, quote-aware passes; their merged result is an immutable
// TermRecord table.
package audit

import "strings"

// Prefixes maps short namespace prefixes to their IRIs and knows which
// namespaces carry audited vocabulary terms. References under any other
// prefix (standard ontologies, resource entities) are never audit
// candidates and are never pruned.
type Prefixes struct {
	vocabulary map[string]bool
	bindings   map[string]string
}

// NewPrefixes builds a prefix table. vocabulary lists the audited namespace
// prefixes; bindings maps every known prefix to its IRI and is used to
// compact full references back to qualified names.
func NewPrefixes(vocabulary []string, bindings map[string]string) *Prefixes {
	vocab := make(map[string]bool, len(vocabulary))
	for _, p := range vocabulary {
		vocab[p] = true
	}
	bound := make(map[string]string, len(bindings))
	for prefix, iri := range bindings {
		bound[prefix] = iri
	}
	return &Prefixes{vocabulary: vocab, bindings: bound}
}

// IsVocabulary reports whether prefix names an audited namespace.
func (p *Prefixes) IsVocabulary(prefix string) bool {
	return p.vocabulary[prefix]
}

// Vocabulary returns the audited namespace prefixes.
func (p *Prefixes) Vocabulary() []string {
	out := make([]string, 0, len(p.vocabulary))
	for prefix := range p.vocabulary {
		out = append(out, prefix)
	}
	return out
}

// IRI returns the bound IRI for a prefix.
func (p *Prefixes) IRI(prefix string) (string, bool) {
	iri, ok := p.bindings[prefix]
	return iri, ok
}

// Compact reduces a full IRI to its ns:local form when it extends a bound
// namespace IRI with a non-empty local part.
func (p *Prefixes) Compact(iri string) (string, bool) {
	for prefix, base := range p.bindings {
		if base == "" || !strings.HasPrefix(iri, base) {
			continue
		}
		local := iri[len(base):]
		if local == "" {
			continue
		}
		return prefix + ":" + local, true
	}
	return "", false
}

// Normalize resolves a raw token to its audited qualified name. Trailing
// statement punctuation is dropped, angle brackets are stripped, and full
// IRIs are compacted through the bindings. Returns false for literals,
// resource references, standard-prefix references, and anything else
// outside the audited namespaces.
func (p *Prefixes) Normalize(token string) (string, bool) {
	tok := strings.TrimSpace(token)
	tok = strings.TrimRight(tok, ".;,")
	tok = strings.TrimSpace(tok)
	if tok == "" || tok[0] == '"' {
		return "", false
	}

	if strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">") {
		tok = tok[1 : len(tok)-1]
	}
	if strings.Contains(tok, "://") {
		qname, ok := p.Compact(tok)
		if !ok {
			return "", false
		}
		tok = qname
	}

	i := strings.IndexByte(tok, ':')
	if i <= 0 {
		return "", false
	}
	prefix, local := tok[:i], tok[i+1:]
	if local == "" || !p.IsVocabulary(prefix) {
		return "", false
	}
	return prefix + ":" + local, true
}
