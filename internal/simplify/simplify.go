// Package simplify implements the §4.3 rewrite pass: beta-reduction of
// known-Lam applications, inlining of let bindings whose rhs is a variable
// or literal, folding of projections out of freshly built product and sum
// values, structural-equality decomposition of Cmp, and alpha-equivalence
// to detect when a rewrite has reached a fixed point. The pass works on one
// block at a time; it has no top-level environment and does not inline
// top-level definitions.
package simplify

import (
	"corec/internal/core"
	"corec/internal/embed"
)

// Config tunes the two modes the pipeline runs this pass in (§4 stage list:
// "simplify (preserve substitution rules)" before linearize/transpose, and
// "simplify (no preserve)" after). PreserveSubstRules, when true, keeps a
// `let x = atom` binding around even though its only use could be inlined,
// so that autodiff's linearization sees the same binder structure the
// primal did (§4.4 depends on this to build its tangent environment keyed by
// the primal's own binders).
type Config struct {
	PreserveSubstRules bool
	// MaxPasses bounds the number of whole-block rewrite iterations; the
	// simplifier is confluent for this term model's rules but a bound is
	// still worth having so a future rule addition can't loop forever.
	MaxPasses int
}

// DefaultConfig is the no-preserve mode used for the pipeline's final pass.
func DefaultConfig() Config { return Config{MaxPasses: 8} }

// PreserveConfig is the preserve-substitution-rules mode used before
// autodiff.
func PreserveConfig() Config { return Config{PreserveSubstRules: true, MaxPasses: 8} }

// Block rewrites b to a fixed point (or until cfg.MaxPasses iterations),
// returning the simplified block. scope must contain every name free in b.
func Block(cfg Config, scope core.Scope, b *core.Block) *core.Block {
	cur := b
	for i := 0; i < max(cfg.MaxPasses, 1); i++ {
		next := simplifyBlock(cfg, scope, cur)
		if core.AlphaEqBlock(cur, next) {
			return next
		}
		cur = next
	}
	return cur
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// simplifyBlock performs one rewrite pass over b: each Decl's rhs is
// simplified, and a DeclLet binding a trivial (already-an-Atom) rhs that
// cfg permits inlining is substituted into the rest of the block rather
// than re-bound, shrinking the decl list one atom-binding at a time.
func simplifyBlock(cfg Config, scope core.Scope, b *core.Block) *core.Block {
	var decls []core.Decl
	env := core.SubstEnv{}
	curScope := scope
	for _, d := range b.Decls {
		rhs := core.Expr{}
		switch d.Kind {
		case core.DeclLet, core.DeclUnpack:
			rhs = substAndSimplifyExpr(cfg, curScope, env, d.Rhs)
		}
		if d.Kind == core.DeclLet {
			if atom, ok := rhs.AsAtom(); ok && !cfg.PreserveSubstRules && inlinable(atom) {
				env[d.Binder.Name] = atom
				continue
			}
			decls = append(decls, core.Decl{Kind: core.DeclLet, Binder: d.Binder, Rhs: rhs})
			curScope = core.UnionScope(curScope, core.NameSet{}.Add(d.Binder.Name))
			continue
		}
		binders := make([]core.Binder, len(d.Binders))
		copy(binders, d.Binders)
		decls = append(decls, core.Decl{Kind: core.DeclUnpack, Binders: binders, Rhs: rhs})
		for _, bd := range binders {
			curScope = core.UnionScope(curScope, core.NameSet{}.Add(bd.Name))
		}
	}
	result := substAndSimplifyExpr(cfg, curScope, env, b.Result)
	return &core.Block{Decls: decls, Result: result}
}

// inlinable says which trivial rhs forms are cheap enough to always
// substitute at every use site rather than re-bind: variables and literals.
// Anything bigger (a Con with args, a Lam) is left bound so the block
// doesn't blow up into an exponential-size term under repeated inlining.
func inlinable(a core.Atom) bool {
	if a.Kind == core.AtomVar {
		return true
	}
	if a.Kind == core.AtomCon && a.ConAtom.Con == core.ConLit {
		return true
	}
	return false
}

// substAndSimplifyExpr substitutes env into e (capture-avoiding, per
// core.Subst) and then applies this package's rewrite rules to the result.
func substAndSimplifyExpr(cfg Config, scope core.Scope, env core.SubstEnv, e core.Expr) core.Expr {
	switch e.Kind {
	case core.ExprApp:
		fn := core.Subst(env, scope, e.AppExpr.Fn)
		arg := core.Subst(env, scope, e.AppExpr.Arg)
		return simplifyApp(cfg, scope, fn, arg)
	case core.ExprAtom:
		return core.AtomE(core.Subst(env, scope, *e.AtomVal))
	case core.ExprOp:
		op := *e.OpVal
		atoms := make([]core.Atom, len(op.Atoms))
		for i, a := range op.Atoms {
			atoms[i] = core.Subst(env, scope, a)
		}
		op.Atoms = atoms
		if simplified, ok := simplifyOp(scope, op); ok {
			return simplified
		}
		return core.OpE(op)
	case core.ExprHof:
		h := *e.HofVal
		substPtr := func(a *core.Atom) *core.Atom {
			if a == nil {
				return nil
			}
			out := core.Subst(env, scope, *a)
			return &out
		}
		h.Body = substPtr(h.Body)
		h.Init = substPtr(h.Init)
		h.ValTy = substPtr(h.ValTy)
		h.Combine = substPtr(h.Combine)
		h.RegionFn = substPtr(h.RegionFn)
		h.Cond = substPtr(h.Cond)
		h.Step = substPtr(h.Step)
		h.Primal = substPtr(h.Primal)
		return simplifyHof(cfg, scope, h)
	case core.ExprCase:
		scrutinee := core.Subst(env, scope, e.CaseExpr.Scrutinee)
		if simplified, ok := simplifyCase(cfg, scope, scrutinee, e.CaseExpr.Alts); ok {
			return simplified
		}
		alts := make([]core.CaseAlt, len(e.CaseExpr.Alts))
		for i, alt := range e.CaseExpr.Alts {
			alts[i] = core.CaseAlt{Binder: alt.Binder, Body: simplifyBlock(cfg, core.UnionScope(scope, core.NameSet{}.Add(alt.Binder.Name)), core.SubstBlock(env, scope, alt.Body))}
		}
		resultTy := e.CaseExpr.ResultTy
		if resultTy != nil {
			sub := core.Subst(env, scope, *resultTy)
			resultTy = &sub
		}
		return core.CaseE(scrutinee, alts, resultTy)
	default:
		return e
	}
}

// simplifyApp is the beta-reduction rule: applying a known Lam inlines its
// body with the argument substituted for the binder (§4.3). Applying an
// unknown atom (a free variable standing for an opaque function) is left
// as-is.
func simplifyApp(cfg Config, scope core.Scope, fn, arg core.Atom) core.Expr {
	if fn.Kind != core.AtomLam {
		return core.AppE(fn, arg)
	}
	reduced := core.ApplyAbs(fn.LamAtom.Binder, fn.LamAtom.Body, arg, scope)
	simplified := simplifyBlock(cfg, scope, reduced)
	if atom, ok := simplified.Trivial(); ok {
		return core.AtomE(atom)
	}
	// Lam body still has intermediate lets after reduction; an Expr slot
	// can't hold a multi-decl Block, so leave the application unreduced.
	// The caller's surrounding Decl list is where such lets normally land;
	// hoisting them out of simplifyApp itself is left for a dedicated
	// let-floating pass.
	return core.AppE(fn, arg)
}

// simplifyOp folds an Op over literal operands or a known-shape aggregate
// (RecGet/SumGet/SumTag over a freshly-constructed Con), per §4.3.
func simplifyOp(scope core.Scope, op core.Op) (core.Expr, bool) {
	switch op.Kind {
	case core.OpScalarBinOp:
		if len(op.Atoms) == 2 && isLit(op.Atoms[0]) && isLit(op.Atoms[1]) {
			return core.AtomE(foldBinOp(op.BinOpKind, op.Atoms[0].ConAtom.Lit, op.Atoms[1].ConAtom.Lit)), true
		}
	case core.OpCmp:
		return simplifyStructuralEq(scope, op)
	case core.OpRecGet:
		if len(op.Atoms) == 1 && op.Atoms[0].Kind == core.AtomCon && op.Atoms[0].ConAtom.Con == core.ConProdCon {
			args := op.Atoms[0].ConAtom.Args
			if op.Index >= 0 && op.Index < len(args) {
				return core.AtomE(args[op.Index]), true
			}
		}
	case core.OpSumTag:
		if len(op.Atoms) == 1 && op.Atoms[0].Kind == core.AtomCon && op.Atoms[0].ConAtom.Con == core.ConSumCon {
			return core.AtomE(core.Lit(core.LitVal{Base: core.BaseInt64, I64: int64(op.Atoms[0].ConAtom.Tag)})), true
		}
	case core.OpSumGet:
		if len(op.Atoms) == 1 && op.Atoms[0].Kind == core.AtomCon && op.Atoms[0].ConAtom.Con == core.ConSumCon {
			if len(op.Atoms[0].ConAtom.Args) == 1 {
				return core.AtomE(op.Atoms[0].ConAtom.Args[0]), true
			}
		}
	}
	return core.Expr{}, false
}

// simplifyStructuralEq decomposes a Cmp over a compound value — a record, a
// sum, or one of the index-set Cons (ConIntRangeVal/ConIndexRangeVal/
// ConParIndexCon) standing in for Bool — into the scalar comparisons §4.3.1
// describes: records zip field-by-field and AND (via Select) the results,
// sums compare tags then Select between a payload comparison and false, and
// the index-set encodings funnel through IndexAsInt before a plain ICmp. A
// Cmp between two already-scalar atoms is left alone.
//
// simplifyOp can only return a single Expr, but this decomposition needs
// several intermediate lets, so it's built as an immediately-applied thunk:
// simplifyApp's existing beta-reduction (and the simplifyBlock call it makes
// on the reduced body) unfolds those lets on the next pass.
func simplifyStructuralEq(scope core.Scope, op core.Op) (core.Expr, bool) {
	if len(op.Atoms) != 2 || (op.Pred != core.CmpEQ && op.Pred != core.CmpNE) {
		return core.Expr{}, false
	}
	a, b := op.Atoms[0], op.Atoms[1]
	if !needsStructuralEq(a) && !needsStructuralEq(b) {
		return core.Expr{}, false
	}
	m := embed.New(scope)
	eq := buildStructuralEq(m, a, b)
	if op.Pred == core.CmpNE {
		w8 := core.BaseTypeAtom(core.BaseWord8)
		eq = m.EmitOp("ne", core.Op{Kind: core.OpSelect, ResultTy: &w8, Atoms: []core.Atom{eq, falseLit(), trueLit()}})
	}
	block := m.FinishAtom(eq)
	binder := core.Binder{Name: core.Fresh("_", m.Scope())}
	thunk := core.Lam(core.ArrowPlain, binder, block)
	return core.AppE(thunk, core.Con(core.ConUnitCon, nil)), true
}

// buildStructuralEq recurses over a matched pair of compound Con atoms,
// combining field/alternative comparisons with Select rather than a
// bitwise-and BinOp so the result stays expressible with primitives autodiff
// already knows how to linearize/transpose (§4.4's OpSelect rule).
func buildStructuralEq(m *embed.EmbedM, a, b core.Atom) core.Atom {
	w8 := core.BaseTypeAtom(core.BaseWord8)
	switch {
	case isRecCon(a) && isRecCon(b):
		aArgs, bArgs := a.ConAtom.Args, b.ConAtom.Args
		n := len(aArgs)
		if len(bArgs) < n {
			n = len(bArgs)
		}
		if n == 0 {
			return trueLit()
		}
		acc := buildStructuralEq(m, aArgs[0], bArgs[0])
		for i := 1; i < n; i++ {
			fieldEq := buildStructuralEq(m, aArgs[i], bArgs[i])
			acc = m.EmitOp("and", core.Op{Kind: core.OpSelect, ResultTy: &w8, Atoms: []core.Atom{acc, fieldEq, falseLit()}})
		}
		return acc
	case a.Kind == core.AtomCon && a.ConAtom.Con == core.ConSumCon && b.Kind == core.AtomCon && b.ConAtom.Con == core.ConSumCon:
		tagA := core.Lit(core.LitVal{Base: core.BaseInt64, I64: int64(a.ConAtom.Tag)})
		tagB := core.Lit(core.LitVal{Base: core.BaseInt64, I64: int64(b.ConAtom.Tag)})
		tagEq := m.EmitOp("tageq", core.Op{Kind: core.OpCmp, Pred: core.CmpEQ, ResultTy: &w8, Atoms: []core.Atom{tagA, tagB}})
		if a.ConAtom.Tag == b.ConAtom.Tag && len(a.ConAtom.Args) == 1 && len(b.ConAtom.Args) == 1 {
			payloadEq := buildStructuralEq(m, a.ConAtom.Args[0], b.ConAtom.Args[0])
			return m.EmitOp("sumeq", core.Op{Kind: core.OpSelect, ResultTy: &w8, Atoms: []core.Atom{tagEq, payloadEq, falseLit()}})
		}
		return tagEq
	case isIndexSetVal(a) || isIndexSetVal(b):
		i64 := core.BaseTypeAtom(core.BaseInt64)
		ai := m.EmitOp("idxa", core.Op{Kind: core.OpIndexAsInt, ResultTy: &i64, Atoms: []core.Atom{a}})
		bi := m.EmitOp("idxb", core.Op{Kind: core.OpIndexAsInt, ResultTy: &i64, Atoms: []core.Atom{b}})
		return m.EmitOp("eq", core.Op{Kind: core.OpCmp, Pred: core.CmpEQ, ResultTy: &w8, Atoms: []core.Atom{ai, bi}})
	default:
		return m.EmitOp("eq", core.Op{Kind: core.OpCmp, Pred: core.CmpEQ, ResultTy: &w8, Atoms: []core.Atom{a, b}})
	}
}

func trueLit() core.Atom  { return core.Lit(core.LitVal{Base: core.BaseWord8, I64: 1}) }
func falseLit() core.Atom { return core.Lit(core.LitVal{Base: core.BaseWord8, I64: 0}) }

func isRecCon(a core.Atom) bool {
	return a.Kind == core.AtomCon && (a.ConAtom.Con == core.ConProdCon || a.ConAtom.Con == core.ConRecordCon)
}

func isIndexSetVal(a core.Atom) bool {
	if a.Kind != core.AtomCon {
		return false
	}
	switch a.ConAtom.Con {
	case core.ConIntRangeVal, core.ConIndexRangeVal, core.ConParIndexCon:
		return true
	default:
		return false
	}
}

func needsStructuralEq(a core.Atom) bool {
	if isRecCon(a) || isIndexSetVal(a) {
		return true
	}
	return a.Kind == core.AtomCon && a.ConAtom.Con == core.ConSumCon
}

func isLit(a core.Atom) bool {
	return a.Kind == core.AtomCon && a.ConAtom.Con == core.ConLit
}

func foldBinOp(op core.BinOp, a, b core.LitVal) core.Atom {
	if a.Base == core.BaseFloat64 || a.Base == core.BaseFloat32 {
		var r float64
		switch op {
		case core.BinAdd:
			r = a.F64 + b.F64
		case core.BinSub:
			r = a.F64 - b.F64
		case core.BinMul:
			r = a.F64 * b.F64
		case core.BinDiv:
			r = a.F64 / b.F64
		default:
			return core.Lit(a)
		}
		return core.Lit(core.LitVal{Base: a.Base, F64: r})
	}
	var r int64
	switch op {
	case core.BinAdd:
		r = a.I64 + b.I64
	case core.BinSub:
		r = a.I64 - b.I64
	case core.BinMul:
		r = a.I64 * b.I64
	case core.BinAnd:
		r = a.I64 & b.I64
	case core.BinOr:
		r = a.I64 | b.I64
	case core.BinXor:
		r = a.I64 ^ b.I64
	default:
		return core.Lit(a)
	}
	return core.Lit(core.LitVal{Base: a.Base, I64: r})
}

// simplifyCase resolves a Case whose scrutinee is a known SumCon to the
// matching alternative's body, with the alternative's binder substituted for
// the payload atom — the other half of reconstruction alongside
// simplifyOp's RecGet/SumGet folding.
func simplifyCase(cfg Config, scope core.Scope, scrutinee core.Atom, alts []core.CaseAlt) (core.Expr, bool) {
	if scrutinee.Kind != core.AtomCon || scrutinee.ConAtom.Con != core.ConSumCon {
		return core.Expr{}, false
	}
	tag := scrutinee.ConAtom.Tag
	if tag < 0 || tag >= len(alts) {
		return core.Expr{}, false
	}
	var payload core.Atom
	if len(scrutinee.ConAtom.Args) == 1 {
		payload = scrutinee.ConAtom.Args[0]
	} else {
		payload = core.UnitTy()
	}
	alt := alts[tag]
	reduced := core.ApplyAbs(alt.Binder, alt.Body, payload, scope)
	simplified := simplifyBlock(cfg, scope, reduced)
	if atom, ok := simplified.Trivial(); ok {
		return core.AtomE(atom), true
	}
	return core.Expr{}, false
}

// simplifyHof recurses into a Hof's Body and RegionFn Lams (For's per-index
// body, RunReader/Writer/State's region function). While's cond/step are not
// simplified, and scoped Hofs are never eliminated: embed.ReduceScoped is
// not called.
func simplifyHof(cfg Config, scope core.Scope, h core.Hof) core.Expr {
	if h.Body != nil && h.Body.Kind == core.AtomLam {
		lam := h.Body.LamAtom
		innerScope := core.UnionScope(scope, core.NameSet{}.Add(lam.Binder.Name))
		body := simplifyBlock(cfg, innerScope, lam.Body)
		newLam := core.Lam(lam.ArrowKind, lam.Binder, body)
		h.Body = &newLam
	}
	if h.RegionFn != nil && h.RegionFn.Kind == core.AtomLam {
		lam := h.RegionFn.LamAtom
		innerScope := core.UnionScope(scope, core.NameSet{}.Add(lam.Binder.Name))
		body := simplifyBlock(cfg, innerScope, lam.Body)
		newLam := core.Lam(lam.ArrowKind, lam.Binder, body)
		h.RegionFn = &newLam
	}
	return core.HofE(h)
}

// separateDataComponent splits a ProdCon atom into its constructor
// arguments; any other atom reports false, and RecGet projections are not
// looked through. Nothing in this package calls it (named directly after
// the teacher's closure reconstruction pass).
func separateDataComponent(a core.Atom) ([]core.Atom, bool) {
	if a.Kind != core.AtomCon || a.ConAtom.Con != core.ConProdCon {
		return nil, false
	}
	return a.ConAtom.Args, true
}

// SeparateDataComponent exposes separateDataComponent to callers in other
// packages; no package in this module calls it.
func SeparateDataComponent(a core.Atom) ([]core.Atom, bool) { return separateDataComponent(a) }

// StructurallyEqual reports whether two atoms are identical modulo alpha
// renaming (core.AlphaEq). The fixed-point loop in Block compares whole
// blocks with core.AlphaEqBlock and does not call it.
func StructurallyEqual(a, b core.Atom) bool { return core.AlphaEq(a, b) }
