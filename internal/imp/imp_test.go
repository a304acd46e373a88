package imp

import (
	"testing"

	"corec/internal/core"
)

func TestLowerFunctionScalarAdd(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	i64 := core.BaseTypeAtom(core.BaseInt64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64, Atoms: []core.Atom{core.VarAtom(x), core.Lit(core.LitVal{Base: core.BaseInt64, I64: 1})}}
	block := core.NewBlock(nil, core.OpE(op))

	fn, recon, err := LowerFunction("f", []core.Binder{{Name: x, Ann: &i64}}, i64, block)
	if err != nil {
		t.Fatalf("LowerFunction failed: %+v", err)
	}
	if len(fn.Params) != 1 {
		t.Fatalf("expected 1 param, got %d", len(fn.Params))
	}
	if len(recon) != 1 || recon[0].ResultTy != core.BaseInt64 {
		t.Fatalf("expected a scalar Int64 recon entry, got %+v", recon)
	}
	if len(fn.Results) != 1 {
		t.Fatalf("expected 1 result var, got %d", len(fn.Results))
	}
}

func TestAllocateDestStaysOnStackBelowThreshold(t *testing.T) {
	alloc := NewAllocator()
	lo := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 0})
	hi := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 16})
	idxTy := core.TC(core.TCIntRange, lo, hi)
	i64 := core.BaseTypeAtom(core.BaseInt64)
	tabTy := core.TabTy(&idxTy, core.Binder{Name: core.NewName(core.OriginGenerated, "i", 0)}, &i64)

	AllocateDest(alloc, nil, tabTy)
	if len(alloc.Prelude()) != 1 {
		t.Fatalf("expected one allocation emitted, got %d", len(alloc.Prelude()))
	}
	if alloc.Prelude()[0].AllocOf.OnHeap {
		t.Fatalf("a 16-element table should be stack-allocated under the %d threshold", StackAllocThreshold)
	}
}

func TestAllocateDestGoesToHeapAboveThreshold(t *testing.T) {
	alloc := NewAllocator()
	lo := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 0})
	hi := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 4096})
	idxTy := core.TC(core.TCIntRange, lo, hi)
	i64 := core.BaseTypeAtom(core.BaseInt64)
	tabTy := core.TabTy(&idxTy, core.Binder{Name: core.NewName(core.OriginGenerated, "i", 0)}, &i64)

	AllocateDest(alloc, nil, tabTy)
	if !alloc.Prelude()[0].AllocOf.OnHeap {
		t.Fatalf("a 4096-element table should be heap-allocated above the %d threshold", StackAllocThreshold)
	}
}

func TestLowerForProducesLoop(t *testing.T) {
	lo := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 0})
	hi := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 8})
	idxTy := core.TC(core.TCIntRange, lo, hi)
	idxBinder := core.Binder{Name: core.NewName(core.OriginGenerated, "i", 0), Ann: &idxTy}
	lamBody := core.AtomBlock(core.VarAtom(idxBinder.Name))
	lam := core.Lam(core.ArrowTab, idxBinder, lamBody)
	forExpr := core.HofE(core.Hof{Kind: core.HofFor, Dir: core.Fwd, Body: &lam})
	block := core.NewBlock(nil, forExpr)

	l := NewLowerer()
	dest, err := l.LowerBlock(block)
	if err != nil {
		t.Fatalf("lowering For failed: %+v", err)
	}
	if dest.Kind != DestTab {
		t.Fatalf("expected a DestTab result, got %v", dest.Kind)
	}
	foundLoop := false
	for _, stmt := range l.body {
		if stmt.Kind == SLoop {
			foundLoop = true
		}
	}
	if !foundLoop {
		t.Fatalf("expected an SLoop statement to be emitted")
	}
}
