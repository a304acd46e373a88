// Package embed implements the embedding monad of §4.2: a scope of names
// already in use, an ordered list of decls accumulated so far, and the
// effect row observed while doing so. Every pass downstream of elaboration
// (simplify, autodiff, imp) builds new core.Block values by running inside
// an EmbedM computation rather than constructing Blocks by hand, so that
// fresh names never collide and effect rows are never forgotten.
package embed

import "corec/internal/core"

// EmbedM is a builder for one core.Block: it accumulates Decls in order and
// tracks which names are already taken, so Emit/EmitOp/BuildFor can mint
// fresh binders that are guaranteed not to capture anything already in
// scope (core.Fresh, core.Rename).
type EmbedM struct {
	scope core.NameSet
	decls []core.Decl
	eff   core.EffectRow
}

// New starts an embedding computation seeded with the names already live in
// the surrounding context (e.g. a Lam's binder, or the accumulated scope of
// an enclosing EmbedM). Names are copied only when outer is a core.NameSet;
// for any other Scope (such as one built by core.UnionScope) the
// computation starts with an empty scope.
func New(outer core.Scope) *EmbedM {
	scope := core.NameSet{}
	if ns, ok := outer.(core.NameSet); ok {
		for n := range ns {
			scope.Add(n)
		}
	}
	return &EmbedM{scope: scope}
}

// Scope returns the current name scope, suitable for passing to core.Subst
// or core.Fresh when a caller needs a fresh name consistent with this
// computation's bindings.
func (m *EmbedM) Scope() core.Scope { return m.scope }

// Fresh mints a name unique in this computation's scope and records it as
// taken, so a subsequent Fresh call never returns the same name twice.
func (m *EmbedM) Fresh(hint string) core.Name {
	n := core.Fresh(hint, m.scope)
	m.scope.Add(n)
	return n
}

// EffectRow returns the effect row accumulated by every Emit/EmitOp call so
// far, per §4.2's "effect-row tracking."
func (m *EmbedM) EffectRow() core.EffectRow { return m.eff }

// observe folds a Decl's own effect (if any) into the computation's running
// row; pure expressions (the common case: ExprAtom, pure ExprOp) leave it
// unchanged.
func (m *EmbedM) observe(rhs core.Expr) {
	if rhs.Kind != core.ExprHof {
		return
	}
	switch rhs.HofVal.Kind {
	case core.HofRunReader, core.HofRunWriter, core.HofRunState:
		m.eff = m.eff.WithRegion(rhs.HofVal.Region, core.EffectEntry{Name: rhs.HofVal.EffName, Ty: rhs.HofVal.ValTy})
	}
}

// Emit appends `let fresh = rhs` and returns an atom referencing fresh, the
// core building block every other helper in this file is expressed in terms
// of.
func (m *EmbedM) Emit(hint string, rhs core.Expr) core.Atom {
	n := m.Fresh(hint)
	m.observe(rhs)
	m.decls = append(m.decls, core.Decl{Kind: core.DeclLet, Binder: core.Binder{Name: n}, Rhs: rhs})
	return core.VarAtom(n)
}

// EmitOp is Emit specialized to an Op expression, the common case of
// embedding a primitive scalar computation.
func (m *EmbedM) EmitOp(hint string, op core.Op) core.Atom {
	return m.Emit(hint, core.OpE(op))
}

// Tell embeds a ref update: `tell ref v` combines v into ref's Writer
// accumulator, or replaces ref's State value, depending on which effect the
// enclosing region carries — the lowering stage is what tells the two
// apart (§4.5.4), not the term itself. Atoms[0] is the ref atom being
// updated; ResultTy matches v's type.
func (m *EmbedM) Tell(ref, v core.Atom, ty *core.Atom) core.Atom {
	return m.EmitOp("told", core.Op{Kind: core.OpRefTell, ResultTy: ty, Atoms: []core.Atom{ref, v}})
}

// Ask embeds a ref read: `ask ref` returns ref's current value (the Reader
// environment, or a Writer/State ref's latest contents).
func (m *EmbedM) Ask(ref core.Atom, ty *core.Atom) core.Atom {
	return m.EmitOp("asked", core.Op{Kind: core.OpRefAsk, ResultTy: ty, Atoms: []core.Atom{ref}})
}

// EmitUnpack destructures a product-valued rhs into n fresh binders in one
// Decl (used for RunState/RunWriter's (result, accumulator) pair).
func (m *EmbedM) EmitUnpack(hints []string, rhs core.Expr) []core.Atom {
	binders := make([]core.Binder, len(hints))
	atoms := make([]core.Atom, len(hints))
	for i, h := range hints {
		n := m.Fresh(h)
		binders[i] = core.Binder{Name: n}
		atoms[i] = core.VarAtom(n)
	}
	m.observe(rhs)
	m.decls = append(m.decls, core.Decl{Kind: core.DeclUnpack, Binders: binders, Rhs: rhs})
	return atoms
}

// Finish closes the computation into a core.Block with the given trailing
// result expression.
func (m *EmbedM) Finish(result core.Expr) *core.Block {
	return core.NewBlock(m.decls, result)
}

// FinishAtom is Finish with an already-trivial atom result.
func (m *EmbedM) FinishAtom(result core.Atom) *core.Block {
	return m.Finish(core.AtomE(result))
}

// BuildLam runs body (which must return the Lam's result atom) under a fresh
// binder of type argTy, and packages the whole thing as a core.Atom Lam.
func BuildLam(outer core.Scope, kind core.ArrowKind, hint string, argTy *core.Atom, body func(m *EmbedM, arg core.Atom) core.Atom) core.Atom {
	m := New(outer)
	bn := m.Fresh(hint)
	binder := core.Binder{Name: bn, Ann: argTy}
	result := body(m, core.VarAtom(bn))
	return core.Lam(kind, binder, m.FinishAtom(result))
}

// BuildDepEffLam is BuildLam for the case where the body needs to report a
// latent effect row alongside its result atom (used when embedding a Pi's
// matching Lam so the two agree on Eff, §4.2).
func BuildDepEffLam(outer core.Scope, kind core.ArrowKind, hint string, argTy *core.Atom, body func(m *EmbedM, arg core.Atom) core.Atom) (core.Atom, core.EffectRow) {
	m := New(outer)
	bn := m.Fresh(hint)
	binder := core.Binder{Name: bn, Ann: argTy}
	result := body(m, core.VarAtom(bn))
	eff := m.EffectRow()
	return core.Lam(kind, binder, m.FinishAtom(result)), eff
}

// BuildAbs runs body to produce a result Block directly (rather than a
// single trailing atom), for callers already holding a Block-shaped
// continuation (e.g. simplify's inliner).
func BuildAbs(outer core.Scope, kind core.ArrowKind, hint string, argTy *core.Atom, body func(arg core.Atom) *core.Block) core.Atom {
	bn := core.Fresh(hint, outer)
	binder := core.Binder{Name: bn, Ann: argTy}
	return core.Lam(kind, binder, body(core.VarAtom(bn)))
}

// BuildFor embeds a `for i. body(i)` table comprehension: body receives the
// loop-bound index atom and returns the per-index element atom.
func BuildFor(outer core.Scope, dir core.Direction, idxTy *core.Atom, body func(m *EmbedM, idx core.Atom) core.Atom) core.Expr {
	lamAtom := BuildLam(outer, core.ArrowTab, "i", idxTy, body)
	return core.HofE(core.Hof{Kind: core.HofFor, Dir: dir, Body: &lamAtom})
}

// BuildScoped embeds a `runReader`/`runWriter`/`runState` block: a fresh
// region name is minted, body is run with a fresh ref binder (of type
// RefType refTy) bound inside, and the Hof closing over the resulting
// RegionFn lambda is returned as an Expr. effName selects which of the
// three effects this is, per §3; Reader/State carry init as the ref's
// initial value, Writer records refTy as its accumulator type.
func BuildScoped(outer core.Scope, effName core.EffectName, refTy *core.Atom, init *core.Atom, body func(m *EmbedM, ref core.Atom) core.Atom) core.Expr {
	region := core.Fresh("h", outer)
	regionScope := core.UnionScope(outer, core.NameSet{}.Add(region))
	refCellTy := core.TC(core.TCRefType, *refTy)
	regionFn := BuildLam(regionScope, core.ArrowPlain, "ref", &refCellTy, body)

	h := core.Hof{Kind: hofKindOf(effName), Region: region, EffName: effName, RegionFn: &regionFn}
	switch effName {
	case core.EffReader, core.EffState:
		// the region's ref cell starts out holding init, reified as a RefCon
		// so TCRefType has an actual constructor site (the Imp lowering
		// unwraps it transparently back to init's own Dest).
		cell := core.Con(core.ConRefCon, &refCellTy, *init)
		h.Init = &cell
	case core.EffWriter:
		h.ValTy = refTy
	}
	return core.HofE(h)
}

func hofKindOf(eff core.EffectName) core.HofKind {
	switch eff {
	case core.EffReader:
		return core.HofRunReader
	case core.EffWriter:
		return core.HofRunWriter
	default:
		return core.HofRunState
	}
}

// ReduceScoped inlines a RunReader/RunWriter/RunState Hof by substituting
// regionVal for its RegionFn's binder. It does not check that the body is
// trivial; any Lam body is substituted, and only a missing or non-Lam
// RegionFn reports false. It is a thin wrapper over core.ApplyAbs at the
// region binder.
func ReduceScoped(h core.Hof, regionVal core.Atom, scope core.Scope) (*core.Block, bool) {
	if h.RegionFn == nil || h.RegionFn.Kind != core.AtomLam {
		return nil, false
	}
	lam := h.RegionFn.LamAtom
	return core.ApplyAbs(lam.Binder, lam.Body, regionVal, scope), true
}
