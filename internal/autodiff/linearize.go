// Package autodiff implements §4.4: forward-mode linearization of a primal
// block into a (primal-result, tangent-function) pair, and reverse-mode
// transposition of a linear tangent function into its adjoint. Both passes
// build their output with corec/internal/embed and lean on
// corec/internal/simplify to keep the result small; neither ever runs
// concurrently with another pass over the same block (§5's single-threaded
// cooperative constraint).
package autodiff

import (
	"fmt"

	"corec/internal/core"
	"corec/internal/diag"
	"corec/internal/embed"
)

// TangentEnv maps a primal binder's Name to the Name of its tangent
// counterpart, threaded through linearization the way SubstEnv threads a
// substitution (§4.4.1).
type TangentEnv map[core.Name]core.Name

// LinResult is the output of linearizing one block: Primal re-embeds the
// original computation (so later passes see a term shape simplify already
// knows how to normalize) and TangentFn is a Lam taking the primal's free
// variables' tangents and producing the tangent of Primal's result.
type LinResult struct {
	Primal    *core.Block
	TangentFn core.Atom // Lam: one tangent argument (LinA: the input's tangent; DerivWrt: a ProdCon of the inputs' tangents) -> tangent result
}

// LinA linearizes block at the given point, returning the re-embedded
// primal and its tangent function. argName/argTy name the one real input
// the caller differentiates with respect to (DerivWrt below generalizes to a
// set of inputs by building a ProdCon of them first).
func LinA(scope core.Scope, argName core.Name, argTy *core.Atom, block *core.Block) (LinResult, *diag.Diagnostic) {
	tenv := TangentEnv{}
	tangentArg := core.Fresh("d"+argName.Hint, scope)
	tenv[argName] = tangentArg
	innerScope := core.UnionScope(scope, core.NameSet{}.Add(tangentArg))

	m := embed.New(innerScope)
	resultTangent, err := linBlock(m, tenv, block)
	if err != nil {
		return LinResult{}, err
	}
	tangentBody := m.FinishAtom(resultTangent)
	tangentFn := core.Lam(core.ArrowLin, core.Binder{Name: tangentArg, Ann: argTy}, tangentBody)
	return LinResult{Primal: block, TangentFn: tangentFn}, nil
}

// DerivWrt is LinA generalized to differentiating with respect to several
// named inputs at once: it packages them as one ProdCon tangent argument and
// unpacks it inside the tangent function so the result is still a
// single-binder Lam, matching §3's binder shape.
func DerivWrt(scope core.Scope, wrt []core.Binder, block *core.Block) (LinResult, *diag.Diagnostic) {
	tenv := TangentEnv{}
	tangentArg := core.Fresh("d_in", scope)
	innerScope := core.UnionScope(scope, core.NameSet{}.Add(tangentArg))
	m := embed.New(innerScope)
	for i, b := range wrt {
		proj := m.EmitOp(fmt.Sprintf("d_%s", b.Name.Hint), core.Op{
			Kind: core.OpRecGet, Index: i, ResultTy: b.Ann,
			Atoms: []core.Atom{core.VarAtom(tangentArg)},
		})
		tenv[b.Name] = proj.VarName
		_ = proj
	}
	resultTangent, err := linBlock(m, tenv, block)
	if err != nil {
		return LinResult{}, err
	}
	tangentBody := m.FinishAtom(resultTangent)
	prodTy := core.TC(core.TCProdType)
	tangentFn := core.Lam(core.ArrowLin, core.Binder{Name: tangentArg, Ann: &prodTy}, tangentBody)
	return LinResult{Primal: block, TangentFn: tangentFn}, nil
}

// linBlock differentiates every decl of block in program order, extending
// tenv one binder at a time so a later decl's rhs can refer to an earlier
// one's tangent by name — the structural recursion at the heart of §4.4.1.
func linBlock(m *embed.EmbedM, tenv TangentEnv, b *core.Block) (core.Atom, *diag.Diagnostic) {
	for _, d := range b.Decls {
		switch d.Kind {
		case core.DeclLet:
			t, err := linExpr(m, tenv, d.Rhs)
			if err != nil {
				return core.Atom{}, err
			}
			bound := m.Emit("d_"+d.Binder.Name.Hint, core.AtomE(t))
			tenv[d.Binder.Name] = bound.VarName
		case core.DeclUnpack:
			t, err := linExpr(m, tenv, d.Rhs)
			if err != nil {
				return core.Atom{}, err
			}
			hints := make([]string, len(d.Binders))
			for i, bd := range d.Binders {
				hints[i] = "d_" + bd.Name.Hint
			}
			bound := m.EmitUnpack(hints, core.AtomE(t))
			for i, bd := range d.Binders {
				tenv[bd.Name] = bound[i].VarName
			}
		}
	}
	return linExprAtom(m, tenv, b.Result)
}

func linExprAtom(m *embed.EmbedM, tenv TangentEnv, e core.Expr) (core.Atom, *diag.Diagnostic) {
	t, err := linExpr(m, tenv, e)
	if err != nil {
		return core.Atom{}, err
	}
	return t, nil
}

// linExpr is linBlock's rule for one Expr: most Ops are linear or have a
// known derivative rule; Hof bodies recurse structurally.
func linExpr(m *embed.EmbedM, tenv TangentEnv, e core.Expr) (core.Atom, *diag.Diagnostic) {
	switch e.Kind {
	case core.ExprAtom:
		return linAtom(tenv, *e.AtomVal), nil
	case core.ExprApp:
		// Applications are not linearized, whatever the callee: every App is
		// treated as an opaque call with no known derivative.
		return core.Atom{}, diagErr(diag.NotImplemented(nil, "linearizing an opaque function application"))
	case core.ExprOp:
		return linOp(m, tenv, *e.OpVal)
	case core.ExprHof:
		return linHof(m, tenv, *e.HofVal)
	case core.ExprCase:
		return core.Atom{}, diagErr(diag.NotImplemented(nil, "linearizing a Case over a differentiated scrutinee"))
	default:
		return core.Atom{}, diagErr(diag.NotImplemented(nil, "linearizing this expression form"))
	}
}

// linAtom looks up an atom's tangent: a free variable we've already seen a
// tangent for, or the zero tangent for anything else (a literal, or a
// variable differentiation doesn't cover — §4.4.3's "non-differentiated
// input" case).
func linAtom(tenv TangentEnv, a core.Atom) core.Atom {
	if a.Kind == core.AtomVar {
		if t, ok := tenv[a.VarName]; ok {
			return core.VarAtom(t)
		}
	}
	return zeroTangent(a)
}

func zeroTangent(a core.Atom) core.Atom {
	if a.Kind == core.AtomCon && a.ConAtom.Con == core.ConLit {
		z := a.ConAtom.Lit
		z.I64, z.F64 = 0, 0
		return core.Lit(z)
	}
	return core.Lit(core.LitVal{Base: core.BaseFloat64})
}

// linOp applies the derivative rule for op.Kind, per §4.4.1's table:
// addition/subtraction are linear (tangent = sum/difference of tangents),
// multiplication is the product rule, and comparisons/index ops carry no
// tangent (their output is not a differentiable quantity). Casts and any
// other op not listed return NotImplemented.
func linOp(m *embed.EmbedM, tenv TangentEnv, op core.Op) (core.Atom, *diag.Diagnostic) {
	switch op.Kind {
	case core.OpScalarBinOp:
		dA, dB := linAtom(tenv, op.Atoms[0]), linAtom(tenv, op.Atoms[1])
		switch op.BinOpKind {
		case core.BinAdd:
			return m.EmitOp("dadd", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: op.ResultTy, Atoms: []core.Atom{dA, dB}}), nil
		case core.BinSub:
			return m.EmitOp("dsub", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinSub, ResultTy: op.ResultTy, Atoms: []core.Atom{dA, dB}}), nil
		case core.BinMul:
			// product rule: d(a*b) = da*b + a*db
			t1 := m.EmitOp("dmul1", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: op.ResultTy, Atoms: []core.Atom{dA, op.Atoms[1]}})
			t2 := m.EmitOp("dmul2", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: op.ResultTy, Atoms: []core.Atom{op.Atoms[0], dB}})
			return m.EmitOp("dmul", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: op.ResultTy, Atoms: []core.Atom{t1, t2}}), nil
		default:
			return core.Atom{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("derivative of BinOp %v", op.BinOpKind)))
		}
	case core.OpScalarUnOp:
		dA := linAtom(tenv, op.Atoms[0])
		switch op.UnOpKind {
		case core.UnNeg:
			return m.EmitOp("dneg", core.Op{Kind: core.OpScalarUnOp, UnOpKind: core.UnNeg, ResultTy: op.ResultTy, Atoms: []core.Atom{dA}}), nil
		default:
			return core.Atom{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("derivative of UnOp %v", op.UnOpKind)))
		}
	case core.OpCmp, core.OpIndexAsInt, core.OpIntAsIndex, core.OpIdxSetSize, core.OpSumTag:
		return zeroTangent(core.Atom{}), nil
	case core.OpSelect:
		dT, dF := linAtom(tenv, op.Atoms[1]), linAtom(tenv, op.Atoms[2])
		return m.EmitOp("dselect", core.Op{Kind: core.OpSelect, ResultTy: op.ResultTy, Atoms: []core.Atom{op.Atoms[0], dT, dF}}), nil
	case core.OpRecGet:
		d := linAtom(tenv, op.Atoms[0])
		return m.EmitOp("drecget", core.Op{Kind: core.OpRecGet, Index: op.Index, Field: op.Field, ResultTy: op.ResultTy, Atoms: []core.Atom{d}}), nil
	case core.OpRefAsk:
		d := linAtom(tenv, op.Atoms[0])
		return m.EmitOp("dask", core.Op{Kind: core.OpRefAsk, ResultTy: op.ResultTy, Atoms: []core.Atom{d}}), nil
	case core.OpRefTell:
		dRef, dVal := linAtom(tenv, op.Atoms[0]), linAtom(tenv, op.Atoms[1])
		return m.EmitOp("dtell", core.Op{Kind: core.OpRefTell, ResultTy: op.ResultTy, Atoms: []core.Atom{dRef, dVal}}), nil
	default:
		return core.Atom{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("derivative of Op %v", op.Kind)))
	}
}

// linHof differentiates a For by mapping linearization over its body Lam
// (a table of tangents, index for index); RunReader/Writer/State thread the
// tangent of the ref value through the same region structure. While loops
// have no defined derivative (§4.4.3).
func linHof(m *embed.EmbedM, tenv TangentEnv, h core.Hof) (core.Atom, *diag.Diagnostic) {
	switch h.Kind {
	case core.HofFor:
		lam := h.Body.LamAtom
		bodyLinScope := core.NameSet{}.Add(lam.Binder.Name)
		bm := embed.New(bodyLinScope)
		bodyTenv := TangentEnv{}
		for k, v := range tenv {
			bodyTenv[k] = v
		}
		result, err := linBlock(bm, bodyTenv, lam.Body)
		if err != nil {
			return core.Atom{}, err
		}
		tangentLam := core.Lam(core.ArrowTab, lam.Binder, bm.FinishAtom(result))
		return m.Emit("dfor", core.HofE(core.Hof{Kind: core.HofFor, Dir: h.Dir, Body: &tangentLam})), nil
	case core.HofRunReader, core.HofRunWriter, core.HofRunState:
		lam := h.RegionFn.LamAtom
		bodyScope := core.NameSet{}.Add(lam.Binder.Name)
		bm := embed.New(bodyScope)
		bodyTenv := TangentEnv{}
		for k, v := range tenv {
			bodyTenv[k] = v
		}
		bodyTenv[lam.Binder.Name] = lam.Binder.Name
		result, err := linBlock(bm, bodyTenv, lam.Body)
		if err != nil {
			return core.Atom{}, err
		}
		tangentRegionFn := core.Lam(core.ArrowPlain, lam.Binder, bm.FinishAtom(result))
		out := h
		out.RegionFn = &tangentRegionFn
		return m.Emit("d"+h.Kind.String(), core.HofE(out)), nil
	default:
		return core.Atom{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("linearizing Hof %v", h.Kind)))
	}
}

func diagErr(d diag.Diagnostic) *diag.Diagnostic { return &d }
