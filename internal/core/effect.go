package core

// EffectName is one of the three algebraic effects this language supports.
type EffectName uint8

const (
	EffReader EffectName = iota
	EffWriter
	EffState
)

func (e EffectName) String() string {
	switch e {
	case EffReader:
		return "Reader"
	case EffWriter:
		return "Writer"
	case EffState:
		return "State"
	default:
		return "?effect"
	}
}

// EffectEntry labels one region with the effect it carries and the type of
// values flowing through its Ref.
type EffectEntry struct {
	Name EffectName
	Ty   *Atom
}

// EffectRow is an ordered mapping from region name to (EffectName,
// valueType), with an optional row-polymorphism tail variable (§3, §9).
// Entries is kept sorted by Name.Less so two structurally equal rows compare
// byte-equal regardless of construction order (the row is a set of labelled
// entries, §4.1).
type EffectRow struct {
	Entries []RegionEffect
	Tail    *Name
}

// RegionEffect associates a region name with its effect entry.
type RegionEffect struct {
	Region Name
	Entry  EffectEntry
}

// Pure is the empty effect row with no tail.
func Pure() EffectRow { return EffectRow{} }

// IsPure reports whether the row has no entries and no tail.
func (r EffectRow) IsPure() bool {
	return len(r.Entries) == 0 && r.Tail == nil
}

// WithRegion returns a copy of r with region bound to entry, keeping Entries
// sorted by region name.
func (r EffectRow) WithRegion(region Name, entry EffectEntry) EffectRow {
	out := EffectRow{Entries: make([]RegionEffect, 0, len(r.Entries)+1), Tail: r.Tail}
	inserted := false
	for _, re := range r.Entries {
		if !inserted && region.Less(re.Region) {
			out.Entries = append(out.Entries, RegionEffect{Region: region, Entry: entry})
			inserted = true
		}
		if re.Region == region {
			continue // replaced below
		}
		out.Entries = append(out.Entries, re)
	}
	if !inserted {
		out.Entries = append(out.Entries, RegionEffect{Region: region, Entry: entry})
	}
	return out
}

// Lookup returns the effect entry bound to region, if any.
func (r EffectRow) Lookup(region Name) (EffectEntry, bool) {
	for _, re := range r.Entries {
		if re.Region == region {
			return re.Entry, true
		}
	}
	return EffectEntry{}, false
}

// Join computes the least upper bound of two rows: the union of their
// entries (by region; r's entry wins where both bind a region), keeping r's
// tail, or other's tail when r has none. Per §3, "The effect
// row of a block is the least upper bound of the rows of its let-bindings
// and the result."
func (r EffectRow) Join(other EffectRow) EffectRow {
	out := r
	for _, re := range other.Entries {
		if _, ok := out.Lookup(re.Region); !ok {
			out = out.WithRegion(re.Region, re.Entry)
		}
	}
	if out.Tail == nil {
		out.Tail = other.Tail
	}
	return out
}
