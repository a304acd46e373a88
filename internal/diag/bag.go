package diag

import "sort"

// Bag accumulates Diagnostics up to a fixed capacity (--max-diagnostics).
type Bag struct {
	items []Diagnostic
	max   uint16
}

// NewBag constructs an empty Bag with room for max diagnostics.
func NewBag(max int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, max),
		max:   uint16(max),
	}
}

// Add appends d unless the bag is already at capacity, returning whether it
// was added.
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Cap returns the bag's capacity.
func (b *Bag) Cap() uint16 { return b.max }

// Len returns the number of diagnostics currently held.
func (b *Bag) Len() int { return len(b.items) }

// HasErrors reports whether any diagnostic is at least SevError.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether any diagnostic is at least SevWarning.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// Items returns the held diagnostics. The caller must not mutate the
// returned slice; it aliases the Bag's backing array.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends another bag's diagnostics, growing capacity if needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	newTotal := len(b.items) + len(other.items)
	if uint16(newTotal) > b.max {
		b.max = uint16(newTotal)
	}
	b.items = append(b.items, other.items...)
}

// Sort orders diagnostics deterministically: file, start, end, severity
// (descending), then kind — so two runs over the same input always print
// diagnostics in the same order (§5: the compiler is deterministic).
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		pi, pj := posOrZero(di.Pos), posOrZero(dj.Pos)
		if pi.File != pj.File {
			return pi.File < pj.File
		}
		if pi.Start != pj.Start {
			return pi.Start < pj.Start
		}
		if pi.End != pj.End {
			return pi.End < pj.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Kind < dj.Kind
	})
}

// Dedup removes diagnostics that repeat an earlier one's (Kind, Pos, Message).
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := make([]Diagnostic, 0, len(b.items))
	for _, d := range b.items {
		key := dedupKeyOf(d)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
