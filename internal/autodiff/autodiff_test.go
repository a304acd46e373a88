package autodiff

import (
	"testing"

	"corec/internal/core"
)

func f64(v float64) core.Atom {
	return core.Lit(core.LitVal{Base: core.BaseFloat64, F64: v})
}

func TestLinAAddition(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	f64Ty := core.BaseTypeAtom(core.BaseFloat64)
	// f(x) = x + x
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &f64Ty, Atoms: []core.Atom{core.VarAtom(x), core.VarAtom(x)}}
	block := core.NewBlock(nil, core.OpE(op))

	result, err := LinA(core.NameSet{}.Add(x), x, &f64Ty, block)
	if err != nil {
		t.Fatalf("LinA failed: %+v", err)
	}
	if result.TangentFn.Kind != core.AtomLam || result.TangentFn.LamAtom.ArrowKind != core.ArrowLin {
		t.Fatalf("expected a linear Lam tangent function, got %+v", result.TangentFn)
	}
}

func TestTransposeAdditionIsIdentityOnBothBranches(t *testing.T) {
	dx := core.NewName(core.OriginGenerated, "dx", 0)
	f64Ty := core.BaseTypeAtom(core.BaseFloat64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &f64Ty, Atoms: []core.Atom{core.VarAtom(dx), core.VarAtom(dx)}}
	body := core.NewBlock(nil, core.OpE(op))
	linFn := core.Lam(core.ArrowLin, core.Binder{Name: dx, Ann: &f64Ty}, body)

	result, err := Transpose(core.NameSet{}.Add(dx), linFn)
	if err != nil {
		t.Fatalf("Transpose failed: %+v", err)
	}
	if result.Adjoint.Kind != core.AtomLam {
		t.Fatalf("expected a Lam adjoint, got %+v", result.Adjoint)
	}
	// each branch receives the cotangent unchanged, so the adjoint sums ct + ct
	ct := result.Adjoint.LamAtom.Binder.Name
	adjBody := result.Adjoint.LamAtom.Body
	if len(adjBody.Decls) != 1 || adjBody.Decls[0].Rhs.Kind != core.ExprOp {
		t.Fatalf("expected one summing decl in the adjoint, got %+v", adjBody.Decls)
	}
	sum := adjBody.Decls[0].Rhs.OpVal
	if sum.BinOpKind != core.BinAdd || sum.Atoms[0].VarName != ct || sum.Atoms[1].VarName != ct {
		t.Fatalf("expected ct + ct, got %+v", sum)
	}
}

func TestTransposeRejectsUnusedLinearVar(t *testing.T) {
	dx := core.NewName(core.OriginGenerated, "dx", 0)
	f64Ty := core.BaseTypeAtom(core.BaseFloat64)
	body := core.NewBlock(nil, core.AtomE(f64(0)))
	linFn := core.Lam(core.ArrowLin, core.Binder{Name: dx, Ann: &f64Ty}, body)

	_, err := Transpose(core.NameSet{}.Add(dx), linFn)
	if err == nil {
		t.Fatalf("expected a linearity error for an unused linear binder")
	}
}

func TestTransposeMultiplicationScalesByOtherFactor(t *testing.T) {
	dx := core.NewName(core.OriginGenerated, "dx", 0)
	f64Ty := core.BaseTypeAtom(core.BaseFloat64)
	scale := f64(3)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: &f64Ty, Atoms: []core.Atom{core.VarAtom(dx), scale}}
	body := core.NewBlock(nil, core.OpE(op))
	linFn := core.Lam(core.ArrowLin, core.Binder{Name: dx, Ann: &f64Ty}, body)

	result, err := Transpose(core.NameSet{}.Add(dx), linFn)
	if err != nil {
		t.Fatalf("Transpose failed: %+v", err)
	}
	if result.Adjoint.Kind != core.AtomLam {
		t.Fatalf("expected a Lam adjoint, got %+v", result.Adjoint)
	}
	ct := result.Adjoint.LamAtom.Binder.Name
	adjBody := result.Adjoint.LamAtom.Body
	if len(adjBody.Decls) != 1 || adjBody.Decls[0].Rhs.Kind != core.ExprOp {
		t.Fatalf("expected one scaling decl in the adjoint, got %+v", adjBody.Decls)
	}
	scaled := adjBody.Decls[0].Rhs.OpVal
	if scaled.BinOpKind != core.BinMul || scaled.Atoms[0].VarName != ct || scaled.Atoms[1].Kind != core.AtomCon || scaled.Atoms[1].ConAtom.Lit.F64 != 3 {
		t.Fatalf("expected ct * 3, got %+v", scaled)
	}
}
