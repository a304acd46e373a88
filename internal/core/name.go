// Package core implements the term model of §4.1: atoms, expressions,
// blocks, declarations, and capture-avoiding substitution over them. Nothing
// here performs IO or emits diagnostics with side effects; callers report
// diag.Diagnostic errors through corec/internal/diag at the pass boundary.
package core

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Origin tags where a Name came from, per §3.
type Origin uint8

const (
	// OriginFree marks a variable free in the surrounding scope (a lambda
	// or Pi binder introduced by the upstream elaborator).
	OriginFree Origin = iota
	// OriginGenerated marks a name minted by the embedding monad or a pass.
	OriginGenerated
	// OriginSkolem marks a name minted solely to decide Pi alpha-equality.
	OriginSkolem
	// OriginTop marks a top-level definition name.
	OriginTop
)

func (o Origin) String() string {
	switch o {
	case OriginFree:
		return "free"
	case OriginGenerated:
		return "gen"
	case OriginSkolem:
		return "skolem"
	case OriginTop:
		return "top"
	default:
		return "?origin"
	}
}

// Name is (origin, hint, counter); equality and ordering are on the triple,
// per §3. Hint strings are NFC-normalized on construction so that two
// surface spellings of the same Unicode identifier (e.g. a precomposed vs.
// combining λ) never produce spuriously distinct Names.
type Name struct {
	Origin  Origin
	Hint    string
	Counter uint32
}

// NewName constructs a Name, normalizing its hint.
func NewName(origin Origin, hint string, counter uint32) Name {
	return Name{Origin: origin, Hint: norm.NFC.String(hint), Counter: counter}
}

// String prints the hint, with a numeric suffix when Counter is nonzero.
func (n Name) String() string {
	if n.Counter == 0 {
		return n.Hint
	}
	return fmt.Sprintf("%s.%d", n.Hint, n.Counter)
}

// Less gives Names a total order on the (Origin, Hint, Counter) triple, used
// to keep Block/EffectRow traversal order deterministic (§5).
func (n Name) Less(other Name) bool {
	if n.Origin != other.Origin {
		return n.Origin < other.Origin
	}
	if n.Hint != other.Hint {
		return n.Hint < other.Hint
	}
	return n.Counter < other.Counter
}

// Scope is the set of Names already live at some point in a traversal; Rename
// and Fresh consult it to avoid collisions.
type Scope interface {
	Taken(Name) bool
}

// NameSet is the simplest Scope: an explicit set of live Names.
type NameSet map[Name]struct{}

func (s NameSet) Taken(n Name) bool {
	_, ok := s[n]
	return ok
}

// Add inserts n into the set and returns the set for chaining.
func (s NameSet) Add(n Name) NameSet {
	s[n] = struct{}{}
	return s
}

// unionScope is a Scope combining two scopes.
type unionScope struct{ a, b Scope }

func (u unionScope) Taken(n Name) bool { return u.a.Taken(n) || u.b.Taken(n) }

// UnionScope combines two scopes into one, consulted left to right.
func UnionScope(a, b Scope) Scope { return unionScope{a, b} }

// Rename produces a Name unique with respect to scope: same hint and origin,
// smallest Counter (starting from n.Counter) that scope does not already
// contain. This is the "alpha-renaming guarantee" of §3: every binder
// inserted into a block is fresh with respect to the surrounding scope.
func Rename(n Name, scope Scope) Name {
	candidate := n
	for scope.Taken(candidate) {
		candidate.Counter++
	}
	return candidate
}

// Fresh mints a brand-new OriginGenerated Name with the given hint, unique
// with respect to scope.
func Fresh(hint string, scope Scope) Name {
	return Rename(NewName(OriginGenerated, hint, 0), scope)
}

// DeShadow renames n with respect to a scope for the sole purpose of
// avoiding an external name clash, without changing its Origin.
func DeShadow(n Name, scope Scope) Name {
	return Rename(n, scope)
}
