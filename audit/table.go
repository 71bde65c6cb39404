package audit

import (
	"sort"
	"sync"
)

// TermRecord is one qualified name's audit view: whether the trusted corpus
// defines it, how often the candidate corpus uses it, and in which files.
type TermRecord struct {
	Name    string
	Defined bool
	Count   int
	Files   map[string]bool
}

// Table holds the merged audit result keyed by qualified name. Usage
// partials are merged in before Freeze; after Freeze the table is
// immutable and safe for concurrent readers during pruning. Merging is
// commutative and associative over counts and file sets (sum, union), so
// worker completion order never changes the result; first-encounter order
// follows merge call order, which callers keep deterministic.
type Table struct {
	mu       sync.RWMutex
	records  map[string]*TermRecord
	order    []string
	minUsage int
	frozen   bool
}

// NewTable creates a table seeded with the defined-term set. minUsage is
// the pruning threshold: undefined terms used fewer times are noise, left
// alone and unreported.
func NewTable(defined map[string]bool, minUsage int) *Table {
	records := make(map[string]*TermRecord, len(defined))
	for name := range defined {
		records[name] = &TermRecord{Name: name, Defined: true, Files: make(map[string]bool)}
	}
	return &Table{records: records, minUsage: minUsage}
}

// MergeUsage folds one file partial into the table. Calling it after Freeze
// is a programming error.
func (t *Table) MergeUsage(u *Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		panic("audit: MergeUsage on frozen table")
	}

	for _, name := range u.Order {
		rec, ok := t.records[name]
		if !ok {
			rec = &TermRecord{Name: name, Files: make(map[string]bool)}
			t.records[name] = rec
		}
		if rec.Count == 0 {
			t.order = append(t.order, name)
		}
		rec.Count += u.Counts[name]
		if u.File != "" {
			rec.Files[u.File] = true
		}
	}
}

// Freeze marks the table immutable. Pruning must only ever read a frozen
// table.
func (t *Table) Freeze() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frozen = true
}

// Frozen reports whether Freeze has been called.
func (t *Table) Frozen() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.frozen
}

// IsMissing reports whether name is an undefined term used at or above the
// threshold.
func (t *Table) IsMissing(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[name]
	return ok && !rec.Defined && rec.Count >= t.minUsage
}

// Missing returns every missing term in first-encountered order.
func (t *Table) Missing() []string {
	recs := t.MissingRecords()
	names := make([]string, len(recs))
	for i, rec := range recs {
		names[i] = rec.Name
	}
	return names
}

// MissingRecords returns copies of the missing term records in
// first-encountered order.
func (t *Table) MissingRecords() []TermRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []TermRecord
	for _, name := range t.order {
		rec := t.records[name]
		if rec.Defined || rec.Count < t.minUsage {
			continue
		}
		out = append(out, copyRecord(rec))
	}
	return out
}

// Unused returns defined terms with zero candidate usage, sorted by name.
func (t *Table) Unused() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []string
	for name, rec := range t.records {
		if rec.Defined && rec.Count == 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Record returns a copy of the record for name.
func (t *Table) Record(name string) (TermRecord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[name]
	if !ok {
		return TermRecord{}, false
	}
	return copyRecord(rec), true
}

// DefinedCount returns the number of defined terms.
func (t *Table) DefinedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, rec := range t.records {
		if rec.Defined {
			n++
		}
	}
	return n
}

// MinUsage returns the configured pruning threshold.
func (t *Table) MinUsage() int {
	return t.minUsage
}

func copyRecord(rec *TermRecord) TermRecord {
	files := make(map[string]bool, len(rec.Files))
	for f := range rec.Files {
		files[f] = true
	}
	return TermRecord{Name: rec.Name, Defined: rec.Defined, Count: rec.Count, Files: files}
}
