package embed

import (
	"testing"

	"corec/internal/core"
)

func TestEmitProducesFreshNames(t *testing.T) {
	m := New(core.NameSet{})
	i64 := core.BaseTypeAtom(core.BaseInt64)
	a := m.EmitOp("sum", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64,
		Atoms: []core.Atom{core.Lit(core.LitVal{Base: core.BaseInt64, I64: 1}), core.Lit(core.LitVal{Base: core.BaseInt64, I64: 2})}})
	b := m.EmitOp("sum", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64, Atoms: []core.Atom{a, a}})
	block := m.FinishAtom(b)
	if len(block.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(block.Decls))
	}
	if block.Decls[0].Binder.Name == block.Decls[1].Binder.Name {
		t.Fatalf("expected distinct fresh names, got %v twice", block.Decls[0].Binder.Name)
	}
}

func TestBuildForWrapsTabLam(t *testing.T) {
	i64 := core.BaseTypeAtom(core.BaseInt64)
	expr := BuildFor(core.NameSet{}, core.Fwd, &i64, func(m *EmbedM, idx core.Atom) core.Atom {
		return idx
	})
	if expr.Kind != core.ExprHof || expr.HofVal.Kind != core.HofFor {
		t.Fatalf("expected a For Hof expression, got %+v", expr)
	}
	if expr.HofVal.Body.Kind != core.AtomLam || expr.HofVal.Body.LamAtom.ArrowKind != core.ArrowTab {
		t.Fatalf("expected Tab-kinded Lam body")
	}
}

func TestBuildScopedRunState(t *testing.T) {
	i64 := core.BaseTypeAtom(core.BaseInt64)
	init := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 0})
	expr := BuildScoped(core.NameSet{}, core.EffState, &i64, &init, func(m *EmbedM, ref core.Atom) core.Atom {
		return ref
	})
	if expr.Kind != core.ExprHof || expr.HofVal.Kind != core.HofRunState {
		t.Fatalf("expected RunState Hof, got %+v", expr)
	}
	if expr.HofVal.Init == nil {
		t.Fatalf("expected Init to be carried through")
	}
}
