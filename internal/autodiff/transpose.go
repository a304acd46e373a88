package autodiff

import (
	"fmt"

	"corec/internal/core"
	"corec/internal/diag"
	"corec/internal/embed"
)

// LinVars is the set of names a transposition pass treats as linear
// (§4.4.2). Transpose returns a LinErr when its linear input is never used;
// several uses are accepted and their cotangents summed.
type LinVars map[core.Name]struct{}

// CotangentEnv accumulates, for each linear name, the sum of cotangents
// contributed to it so far as transposition walks the tangent function
// backwards. Unlike TangentEnv's one-name-to-one-name mapping,
// transposition is write-accumulating: each use of a linear variable adds
// one contribution, and Transpose's linearity check is "the linear input
// received at least one contribution."
type CotangentEnv struct {
	contributions map[core.Name][]core.Atom
}

func newCotangentEnv() *CotangentEnv {
	return &CotangentEnv{contributions: map[core.Name][]core.Atom{}}
}

func (c *CotangentEnv) add(n core.Name, cot core.Atom) {
	c.contributions[n] = append(c.contributions[n], cot)
}

// TransposeResult is a linear function's adjoint: a Lam taking the
// cotangent of the tangent function's result and producing the cotangent of
// its linear input.
type TransposeResult struct {
	Adjoint core.Atom
}

// Transpose builds the adjoint of a linear Lam (typically a LinResult's
// TangentFn), per §4.4.2. It walks the body in reverse, accumulating
// cotangent contributions to every linear name via CotangentEnv, then
// verifies the linear input received at least one contribution before
// summing and returning them.
func Transpose(scope core.Scope, linearFn core.Atom) (TransposeResult, *diag.Diagnostic) {
	if linearFn.Kind != core.AtomLam || linearFn.LamAtom.ArrowKind != core.ArrowLin {
		return TransposeResult{}, diagErr(diag.NotImplemented(nil, "transposing a non-linear function"))
	}
	lam := linearFn.LamAtom
	resultTy := lam.Body.ResultTy
	cotArg := core.Fresh("ct", scope)
	outerScope := core.UnionScope(scope, core.NameSet{}.Add(cotArg))

	linVars := LinVars{lam.Binder.Name: {}}
	cotEnv := newCotangentEnv()
	m := embed.New(outerScope)

	finalCot := core.VarAtom(cotArg)
	if err := transposeBlock(m, linVars, cotEnv, lam.Body, finalCot); err != nil {
		return TransposeResult{}, err
	}

	contributions, ok := cotEnv.contributions[lam.Binder.Name]
	if !ok || len(contributions) == 0 {
		return TransposeResult{}, diagErr(diag.Linearity(nil, fmt.Sprintf("%s is never used", lam.Binder.Name)))
	}
	sum := sumAtoms(m, "d_"+lam.Binder.Name.Hint, contributions)
	adjointBody := m.FinishAtom(sum)
	adjoint := core.Lam(core.ArrowLin, core.Binder{Name: cotArg, Ann: resultTy}, adjointBody)
	return TransposeResult{Adjoint: adjoint}, nil
}

func sumAtoms(m *embed.EmbedM, hint string, atoms []core.Atom) core.Atom {
	if len(atoms) == 1 {
		return atoms[0]
	}
	acc := atoms[0]
	i64 := core.BaseTypeAtom(core.BaseFloat64)
	for _, a := range atoms[1:] {
		acc = m.EmitOp(hint, core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64, Atoms: []core.Atom{acc, a}})
	}
	return acc
}

// transposeBlock walks b's decls in reverse program order, distributing the
// cotangent of the block's result backward to each decl's rhs and then to
// that decl's own free linear variables, per the standard reverse-mode
// sweep.
func transposeBlock(m *embed.EmbedM, linVars LinVars, cotEnv *CotangentEnv, b *core.Block, resultCot core.Atom) *diag.Diagnostic {
	// a let whose rhs mentions a linear variable is itself linear: its binder
	// collects the cotangents of its later uses, which the reverse sweep
	// below pushes back through the rhs.
	for _, d := range b.Decls {
		if d.Kind != core.DeclLet {
			continue
		}
		for n := range core.FreeVarsOfBlock(core.NewBlock(nil, d.Rhs)) {
			if _, ok := linVars[n]; ok {
				linVars[d.Binder.Name] = struct{}{}
				break
			}
		}
	}
	if err := transposeExpr(m, linVars, cotEnv, b.Result, resultCot); err != nil {
		return err
	}
	for i := len(b.Decls) - 1; i >= 0; i-- {
		d := b.Decls[i]
		if d.Kind != core.DeclLet {
			continue
		}
		contributions, ok := cotEnv.contributions[d.Binder.Name]
		if !ok || len(contributions) == 0 {
			continue // non-linear decl (e.g. an index computation); no cotangent to propagate
		}
		cot := sumAtoms(m, "ct_"+d.Binder.Name.Hint, contributions)
		if err := transposeExpr(m, linVars, cotEnv, d.Rhs, cot); err != nil {
			return err
		}
	}
	return nil
}

// transposeExpr distributes cot, the cotangent of e's result, back to e's
// linear operands.
func transposeExpr(m *embed.EmbedM, linVars LinVars, cotEnv *CotangentEnv, e core.Expr, cot core.Atom) *diag.Diagnostic {
	switch e.Kind {
	case core.ExprAtom:
		if e.AtomVal.Kind == core.AtomVar {
			if _, ok := linVars[e.AtomVal.VarName]; ok {
				cotEnv.add(e.AtomVal.VarName, cot)
			}
		}
		return nil
	case core.ExprOp:
		return transposeOp(m, linVars, cotEnv, *e.OpVal, cot)
	case core.ExprHof:
		return transposeHof(m, linVars, cotEnv, *e.HofVal, cot)
	default:
		return nil
	}
}

// transposeOp is the adjoint of linOp's forward rules: addition distributes
// its cotangent to both operands unchanged, subtraction negates the second,
// multiplication scales by the other (non-linear) factor.
func transposeOp(m *embed.EmbedM, linVars LinVars, cotEnv *CotangentEnv, op core.Op, cot core.Atom) *diag.Diagnostic {
	markLinear := func(a core.Atom, c core.Atom) {
		if a.Kind == core.AtomVar {
			if _, ok := linVars[a.VarName]; ok {
				cotEnv.add(a.VarName, c)
			}
		}
	}
	switch op.Kind {
	case core.OpScalarBinOp:
		switch op.BinOpKind {
		case core.BinAdd:
			markLinear(op.Atoms[0], cot)
			markLinear(op.Atoms[1], cot)
			return nil
		case core.BinSub:
			negCot := m.EmitOp("negct", core.Op{Kind: core.OpScalarUnOp, UnOpKind: core.UnNeg, ResultTy: op.ResultTy, Atoms: []core.Atom{cot}})
			markLinear(op.Atoms[0], cot)
			markLinear(op.Atoms[1], negCot)
			return nil
		case core.BinMul:
			// one operand must be the non-linear (primal) scale factor
			if isLinear(linVars, op.Atoms[0]) && !isLinear(linVars, op.Atoms[1]) {
				scaled := m.EmitOp("mulct", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: op.ResultTy, Atoms: []core.Atom{cot, op.Atoms[1]}})
				markLinear(op.Atoms[0], scaled)
				return nil
			}
			if isLinear(linVars, op.Atoms[1]) && !isLinear(linVars, op.Atoms[0]) {
				scaled := m.EmitOp("mulct", core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: op.ResultTy, Atoms: []core.Atom{cot, op.Atoms[0]}})
				markLinear(op.Atoms[1], scaled)
				return nil
			}
			return diagErr(diag.Linearity(nil, "multiplication of two linear operands"))
		default:
			return diagErr(diag.NotImplemented(nil, fmt.Sprintf("transpose of BinOp %v", op.BinOpKind)))
		}
	case core.OpScalarUnOp:
		switch op.UnOpKind {
		case core.UnNeg:
			negCot := m.EmitOp("negct", core.Op{Kind: core.OpScalarUnOp, UnOpKind: core.UnNeg, ResultTy: op.ResultTy, Atoms: []core.Atom{cot}})
			markLinear(op.Atoms[0], negCot)
			return nil
		default:
			return diagErr(diag.NotImplemented(nil, fmt.Sprintf("transpose of UnOp %v", op.UnOpKind)))
		}
	case core.OpSelect:
		markLinear(op.Atoms[1], cot)
		markLinear(op.Atoms[2], cot)
		return nil
	case core.OpRecGet:
		markLinear(op.Atoms[0], cot)
		return nil
	case core.OpRefAsk:
		// a mutable reference is its own dual: reading it forwards whatever
		// cotangent flowed back to the read site straight to the ref.
		markLinear(op.Atoms[0], cot)
		return nil
	case core.OpRefTell:
		markLinear(op.Atoms[1], cot)
		return nil
	default:
		return nil
	}
}

func isLinear(linVars LinVars, a core.Atom) bool {
	if a.Kind != core.AtomVar {
		return false
	}
	_, ok := linVars[a.VarName]
	return ok
}

// transposeHof is the adjoint of a For: the cotangent of a table result is
// itself a table, indexed the same way, and the body is transposed
// per-index with that slice of cotangent. RunReader, RunWriter and RunState
// are all handled the same way: the region function's body is transposed in
// place with the incoming cotangent. No dual Hof is emitted (a RunWriter is
// not turned into a RunReader, nor the reverse).
func transposeHof(m *embed.EmbedM, linVars LinVars, cotEnv *CotangentEnv, h core.Hof, cot core.Atom) *diag.Diagnostic {
	switch h.Kind {
	case core.HofFor:
		lam := h.Body.LamAtom
		innerLinVars := copyLinVars(linVars)

		// Direction.Rev's doc comment: "reverse traversal falls out of
		// transposing a Fwd For". The adjoint of a table constructor is
		// itself built as a Rev-direction For over the same index set, whose
		// body is this per-index slice's contribution to the cotangent
		// environment — cot is itself table-shaped (a Lam under ArrowTab, or
		// a variable standing for one), so each index's own slice comes from
		// applying it to that index, not from always reading slot zero.
		revScope := core.UnionScope(m.Scope(), core.NameSet{}.Add(lam.Binder.Name))
		m2 := embed.New(revScope)
		idxCot := m2.Emit("idx_ct", core.AppE(cot, lam.Binder.AsAtom()))
		if err := transposeBlock(m2, innerLinVars, cotEnv, lam.Body, idxCot); err != nil {
			return err
		}
		revBody := m2.FinishAtom(core.Con(core.ConUnitCon, nil))
		revLam := core.Lam(core.ArrowTab, lam.Binder, revBody)
		m.Emit("for_ct", core.HofE(core.Hof{Kind: core.HofFor, Dir: core.Rev, Body: &revLam}))
		return nil
	case core.HofRunReader, core.HofRunWriter, core.HofRunState:
		lam := h.RegionFn.LamAtom
		return transposeBlock(m, linVars, cotEnv, lam.Body, cot)
	default:
		return diagErr(diag.NotImplemented(nil, fmt.Sprintf("transpose of Hof %v", h.Kind)))
	}
}

func copyLinVars(linVars LinVars) LinVars {
	out := make(LinVars, len(linVars))
	for k := range linVars {
		out[k] = struct{}{}
	}
	return out
}
