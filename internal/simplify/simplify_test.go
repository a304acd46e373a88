package simplify

import (
	"testing"

	"corec/internal/core"
)

func lit(i int64) core.Atom {
	return core.Lit(core.LitVal{Base: core.BaseInt64, I64: i})
}

func TestSimplifyFoldsConstantArithmetic(t *testing.T) {
	i64 := core.BaseTypeAtom(core.BaseInt64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64, Atoms: []core.Atom{lit(2), lit(3)}}
	b := core.NewBlock(nil, core.OpE(op))
	out := Block(DefaultConfig(), core.NameSet{}, b)
	atom, ok := out.Trivial()
	if !ok {
		t.Fatalf("expected trivial result, got %+v", out)
	}
	if atom.ConAtom == nil || atom.ConAtom.Lit.I64 != 5 {
		t.Fatalf("expected folded literal 5, got %+v", atom)
	}
}

func TestSimplifyBetaReducesApp(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	lam := core.Lam(core.ArrowPlain, core.Binder{Name: x}, core.AtomBlock(core.VarAtom(x)))
	app := core.AppE(lam, lit(9))
	b := core.NewBlock(nil, app)
	out := Block(DefaultConfig(), core.NameSet{}, b)
	atom, ok := out.Trivial()
	if !ok || atom.ConAtom == nil || atom.ConAtom.Lit.I64 != 9 {
		t.Fatalf("expected beta-reduced literal 9, got %+v", out)
	}
}

func TestSimplifyInlinesTrivialLets(t *testing.T) {
	decls := []core.Decl{
		{Kind: core.DeclLet, Binder: core.Binder{Name: core.NewName(core.OriginGenerated, "v", 0)}, Rhs: core.AtomE(lit(4))},
	}
	result := core.AtomE(core.VarAtom(core.NewName(core.OriginGenerated, "v", 0)))
	b := core.NewBlock(decls, result)
	out := Block(DefaultConfig(), core.NameSet{}, b)
	if len(out.Decls) != 0 {
		t.Fatalf("expected the literal-bound let to be inlined away, got %d decls", len(out.Decls))
	}
}

func TestSimplifyPreservesSubstRulesKeepsLets(t *testing.T) {
	decls := []core.Decl{
		{Kind: core.DeclLet, Binder: core.Binder{Name: core.NewName(core.OriginGenerated, "v", 0)}, Rhs: core.AtomE(lit(4))},
	}
	result := core.AtomE(core.VarAtom(core.NewName(core.OriginGenerated, "v", 0)))
	b := core.NewBlock(decls, result)
	out := Block(PreserveConfig(), core.NameSet{}, b)
	if len(out.Decls) != 1 {
		t.Fatalf("PreserveSubstRules should keep the let binding, got %d decls", len(out.Decls))
	}
}

func TestSimplifyResolvesKnownCase(t *testing.T) {
	sumTy := core.TC(core.TCSumType, core.BaseTypeAtom(core.BaseInt64))
	scrutinee := core.Con(core.ConSumCon, &sumTy, lit(7))
	scrutinee.ConAtom.Tag = 0
	binder := core.Binder{Name: core.NewName(core.OriginGenerated, "p", 0)}
	alt := core.CaseAlt{Binder: binder, Body: core.AtomBlock(core.VarAtom(binder.Name))}
	b := core.NewBlock(nil, core.CaseE(scrutinee, []core.CaseAlt{alt}, nil))
	out := Block(DefaultConfig(), core.NameSet{}, b)
	atom, ok := out.Trivial()
	if !ok || atom.ConAtom == nil || atom.ConAtom.Lit.I64 != 7 {
		t.Fatalf("expected case to resolve to payload literal 7, got %+v", out)
	}
}
