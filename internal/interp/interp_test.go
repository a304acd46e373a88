package interp

import (
	"context"
	"testing"

	"corec/internal/core"
	"corec/internal/imp"
)

func TestRunScalarAdd(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	i64 := core.BaseTypeAtom(core.BaseInt64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64, Atoms: []core.Atom{core.VarAtom(x), core.Lit(core.LitVal{Base: core.BaseInt64, I64: 1})}}
	block := core.NewBlock(nil, core.OpE(op))

	fn, _, err := imp.LowerFunction("f", []core.Binder{{Name: x, Ann: &i64}}, i64, block)
	if err != nil {
		t.Fatalf("LowerFunction failed: %+v", err)
	}

	out, runErr := Run(context.Background(), fn, []Value{intVal(core.BaseInt64, 41)})
	if runErr != nil {
		t.Fatalf("Run failed: %v", runErr)
	}
	if len(out) != 1 || out[0].I64 != 42 {
		t.Fatalf("expected [42], got %+v", out)
	}
}

func TestRunFloatMul(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	f64 := core.BaseTypeAtom(core.BaseFloat64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: &f64, Atoms: []core.Atom{core.VarAtom(x), core.VarAtom(x)}}
	block := core.NewBlock(nil, core.OpE(op))

	fn, _, err := imp.LowerFunction("sq", []core.Binder{{Name: x, Ann: &f64}}, f64, block)
	if err != nil {
		t.Fatalf("LowerFunction failed: %+v", err)
	}

	out, runErr := Run(context.Background(), fn, []Value{floatVal(core.BaseFloat64, 3)})
	if runErr != nil {
		t.Fatalf("Run failed: %v", runErr)
	}
	if len(out) != 1 || out[0].F64 != 9 {
		t.Fatalf("expected [9], got %+v", out)
	}
}

func TestRunForFillsIndexTable(t *testing.T) {
	lo := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 0})
	hi := core.Lit(core.LitVal{Base: core.BaseInt64, I64: 4})
	idxTy := core.TC(core.TCIntRange, lo, hi)
	idxBinder := core.Binder{Name: core.NewName(core.OriginGenerated, "i", 0), Ann: &idxTy}
	lamBody := core.AtomBlock(core.VarAtom(idxBinder.Name))
	lam := core.Lam(core.ArrowTab, idxBinder, lamBody)
	forExpr := core.HofE(core.Hof{Kind: core.HofFor, Dir: core.Fwd, Body: &lam})
	block := core.NewBlock(nil, forExpr)

	i64 := core.BaseTypeAtom(core.BaseInt64)
	fn, _, err := imp.LowerFunction("iota", nil, i64, block)
	if err != nil {
		t.Fatalf("LowerFunction failed: %+v", err)
	}

	out, runErr := Run(context.Background(), fn, nil)
	if runErr != nil {
		t.Fatalf("Run failed: %v", runErr)
	}
	if len(out) != 0 {
		t.Fatalf("expected a table result to report zero scalar IVar results, got %+v", out)
	}

	// execute the body on a frame whose memory is visible here: the one
	// table it writes holds each index at its own position
	f := newFrame(newMemory())
	if err := execStmts(context.Background(), f, fn.Body); err != nil {
		t.Fatalf("executing the body failed: %v", err)
	}
	if len(f.mem.arrays) != 1 {
		t.Fatalf("expected one table, got %d", len(f.mem.arrays))
	}
	for _, arr := range f.mem.arrays {
		if len(arr) != 4 {
			t.Fatalf("expected a 4-element table, got %+v", arr)
		}
		for i, v := range arr {
			if v.I64 != int64(i) {
				t.Fatalf("table[%d] = %+v, want %d", i, v, i)
			}
		}
	}
}

func TestEvalCmpProducesWord8Bool(t *testing.T) {
	f := newFrame(newMemory())
	xv := imp.IVar{ID: 0}
	f.vars[xv] = intVal(core.BaseInt64, 5)
	e := imp.IExpr{Kind: imp.ICmp, Pred: core.CmpLT, Operands: []imp.IOperand{imp.VarOperand(xv), imp.LitOperand(core.LitVal{Base: core.BaseInt64, I64: 10})}}
	v, err := evalExpr(f, e)
	if err != nil {
		t.Fatalf("evalExpr failed: %v", err)
	}
	if v.Base != core.BaseWord8 || v.I64 != 1 {
		t.Fatalf("expected a true Word8, got %+v", v)
	}
}
