package imp

import (
	"fmt"

	"corec/internal/core"
	"corec/internal/diag"
)

// Lowerer holds the allocator and destination environment for one
// ImpFunction being built from a core.Block (§4.5.2).
type Lowerer struct {
	alloc *Allocator
	env   map[core.Name]Dest
	body  []ImpStmt
}

// NewLowerer starts lowering a fresh function body.
func NewLowerer() *Lowerer {
	return &Lowerer{alloc: NewAllocator(), env: map[core.Name]Dest{}}
}

func (l *Lowerer) emit(stmt ImpStmt) { l.body = append(l.body, stmt) }

// LowerFunction lowers one top-level function: params (each binder gets its
// Dest allocated up front) and a body block, into a complete ImpFunction.
func LowerFunction(name string, params []core.Binder, resultTy core.Atom, body *core.Block) (ImpFunction, []AtomRecon, *diag.Diagnostic) {
	l := NewLowerer()
	impParams := make([]Param, 0, len(params))
	for _, p := range params {
		var ty core.Atom
		if p.Ann != nil {
			ty = *p.Ann
		}
		d := AllocateDest(l.alloc, l.env, ty)
		l.env[p.Name] = d
		impParams = append(impParams, destParams(p.Name.String(), d)...)
	}
	l.body = append(l.body, l.alloc.Prelude()...)

	resultDest, err := l.LowerBlock(body)
	if err != nil {
		return ImpFunction{}, nil, err
	}
	results, recon := destResults(resultDest)

	fn := ImpFunction{Name: name, Params: impParams, Body: l.body, Results: results}
	return fn, recon, nil
}

func destParams(namePrefix string, d Dest) []Param {
	switch d.Kind {
	case DestBaseType:
		return []Param{{Name: namePrefix, IsPtr: false, BaseTy: d.Base, Var: d.Var}}
	case DestTab:
		return []Param{{Name: namePrefix, IsPtr: true, BaseTy: d.EltType, Ptr: d.Ptr}}
	case DestRecord:
		var out []Param
		for i, f := range d.Fields {
			out = append(out, destParams(fmt.Sprintf("%s.%d", namePrefix, i), f)...)
		}
		return out
	case DestDataCon:
		out := []Param{{Name: namePrefix + ".tag", IsPtr: false, BaseTy: core.BaseInt64, Var: d.TagVar}}
		if d.Payload != nil {
			out = append(out, destParams(namePrefix+".payload", *d.Payload)...)
		}
		return out
	default:
		return nil
	}
}

func destResults(d Dest) ([]IVar, []AtomRecon) {
	switch d.Kind {
	case DestBaseType:
		return []IVar{d.Var}, []AtomRecon{{ResultTy: d.Base, IsPtr: false}}
	case DestTab:
		count, _ := staticCount(d.EltCount)
		return nil, []AtomRecon{{ResultTy: d.EltType, IsPtr: true, EltCount: count}}
	case DestRecord:
		var ivars []IVar
		var recon []AtomRecon
		for _, f := range d.Fields {
			iv, r := destResults(f)
			ivars = append(ivars, iv...)
			recon = append(recon, r...)
		}
		return ivars, recon
	case DestDataCon:
		ivars := []IVar{d.TagVar}
		recon := []AtomRecon{{ResultTy: core.BaseInt64}}
		if d.Payload != nil {
			iv, r := destResults(*d.Payload)
			ivars = append(ivars, iv...)
			recon = append(recon, r...)
		}
		return ivars, recon
	default:
		return nil, nil
	}
}

// LowerBlock lowers b's decls in order into l's statement list, binding each
// decl's Dest in l.env, and returns the Dest of the trailing result.
func (l *Lowerer) LowerBlock(b *core.Block) (Dest, *diag.Diagnostic) {
	for _, d := range b.Decls {
		switch d.Kind {
		case core.DeclLet:
			dest, err := l.LowerExpr(d.Rhs)
			if err != nil {
				return Dest{}, err
			}
			l.env[d.Binder.Name] = dest
		case core.DeclUnpack:
			dest, err := l.LowerExpr(d.Rhs)
			if err != nil {
				return Dest{}, err
			}
			if dest.Kind != DestRecord || len(dest.Fields) != len(d.Binders) {
				return Dest{}, diagErr(diag.Compiler(nil, "unpack arity mismatch during Imp lowering"))
			}
			for i, bd := range d.Binders {
				l.env[bd.Name] = dest.Fields[i]
			}
		}
	}
	return l.LowerExpr(b.Result)
}

func diagErr(d diag.Diagnostic) *diag.Diagnostic { return &d }

// LowerExpr lowers a single Expr to a Dest holding its value, emitting
// whatever statements are necessary (§4.5.3).
func (l *Lowerer) LowerExpr(e core.Expr) (Dest, *diag.Diagnostic) {
	switch e.Kind {
	case core.ExprAtom:
		return l.lowerAtom(*e.AtomVal)
	case core.ExprOp:
		return l.lowerOp(*e.OpVal)
	case core.ExprHof:
		return l.lowerHof(*e.HofVal)
	case core.ExprCase:
		return l.lowerCase(*e.CaseExpr)
	default:
		return Dest{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("lowering Expr kind %v", e.Kind)))
	}
}

func (l *Lowerer) lowerAtom(a core.Atom) (Dest, *diag.Diagnostic) {
	switch a.Kind {
	case core.AtomVar:
		if d, ok := l.env[a.VarName]; ok {
			return d, nil
		}
		return Dest{}, diagErr(diag.Unbound(nil, a.VarName.String()))
	case core.AtomCon:
		if a.ConAtom.Con == core.ConLit {
			return Dest{Kind: DestConst, Const: a.ConAtom.Lit}, nil
		}
		return l.lowerCon(*a.ConAtom)
	default:
		return Dest{}, diagErr(diag.NotImplemented(nil, "lowering a non-scalar atom to Imp directly"))
	}
}

func (l *Lowerer) lowerCon(c core.ConAtom) (Dest, *diag.Diagnostic) {
	switch c.Con {
	case core.ConProdCon, core.ConRecordCon:
		fields := make([]Dest, len(c.Args))
		for i, arg := range c.Args {
			d, err := l.lowerAtom(arg)
			if err != nil {
				return Dest{}, err
			}
			fields[i] = d
		}
		return Dest{Kind: DestRecord, Fields: fields}, nil
	case core.ConSumCon:
		tagVar := l.alloc.freshIVar()
		l.emit(ImpStmt{Kind: SAssign, Dest: tagVar, Rhs: IExpr{Kind: IVal, Lit: core.LitVal{Base: core.BaseInt64, I64: int64(c.Tag)}}})
		var payload *Dest
		if len(c.Args) == 1 {
			d, err := l.lowerAtom(c.Args[0])
			if err != nil {
				return Dest{}, err
			}
			payload = &d
		}
		return Dest{Kind: DestDataCon, TagVar: tagVar, Payload: payload}, nil
	case core.ConRefCon:
		// a ref cell is its own dual at this level (transpose.go): lowering
		// it transparently yields whatever Dest its initial value lowers to,
		// which RunReader/RunWriter/RunState then bind the region's ref
		// binder to directly.
		return l.lowerAtom(c.Args[0])
	default:
		return Dest{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("lowering constructor %v", c.Con)))
	}
}

// materializeScalar ensures d is backed by a real, assignable IVar rather
// than a compile-time DestConst, allocating and initializing a fresh
// variable when needed. RunState/RunWriter need this: their ref cell must
// be a var that a later OpRefTell can reassign in place.
func (l *Lowerer) materializeScalar(d Dest) (Dest, *diag.Diagnostic) {
	if d.Kind == DestBaseType {
		return d, nil
	}
	op, err := destOperand(l, d)
	if err != nil {
		return Dest{}, err
	}
	base := core.BaseInt64
	if d.Kind == DestConst {
		base = d.Const.Base
	}
	v := l.alloc.freshIVar()
	l.emit(ImpStmt{Kind: SAssign, Dest: v, Rhs: IExpr{Kind: ICast, Operands: []IOperand{op}}})
	return Dest{Kind: DestBaseType, Base: base, Var: v}, nil
}

// destOperand converts a scalar Dest to an IOperand, the value producers
// (lowerOp) need when feeding an operand to an IExpr.
func destOperand(l *Lowerer, d Dest) (IOperand, *diag.Diagnostic) {
	switch d.Kind {
	case DestBaseType:
		return VarOperand(d.Var), nil
	case DestConst:
		return LitOperand(d.Const), nil
	default:
		return IOperand{}, diagErr(diag.Compiler(nil, "expected a scalar Dest"))
	}
}

func (l *Lowerer) lowerOp(op core.Op) (Dest, *diag.Diagnostic) {
	switch op.Kind {
	case core.OpRefTell:
		return l.lowerRefTell(op)
	case core.OpRefAsk:
		// ask just reads the ref cell's current Dest; no statement needed.
		return l.lowerAtom(op.Atoms[0])
	}
	operands := make([]IOperand, len(op.Atoms))
	for i, a := range op.Atoms {
		d, err := l.lowerAtom(a)
		if err != nil {
			return Dest{}, err
		}
		o, err2 := destOperand(l, d)
		if err2 != nil {
			return Dest{}, err2
		}
		operands[i] = o
	}
	result := l.alloc.freshIVar()
	resultBase := core.BaseInt64
	if op.ResultTy != nil {
		resultBase = eltBaseType(*op.ResultTy)
	}
	switch op.Kind {
	case core.OpScalarBinOp:
		l.emit(ImpStmt{Kind: SAssign, Dest: result, Rhs: IExpr{Kind: IBinOp, BinOp: op.BinOpKind, Operands: operands}})
	case core.OpScalarUnOp:
		l.emit(ImpStmt{Kind: SAssign, Dest: result, Rhs: IExpr{Kind: IUnOp, UnOp: op.UnOpKind, Operands: operands}})
	case core.OpCmp:
		resultBase = core.BaseWord8
		l.emit(ImpStmt{Kind: SAssign, Dest: result, Rhs: IExpr{Kind: ICmp, Pred: op.Pred, Operands: operands}})
	case core.OpIndexAsInt, core.OpIntAsIndex, core.OpIdxSetSize, core.OpSumTag:
		l.emit(ImpStmt{Kind: SAssign, Dest: result, Rhs: IExpr{Kind: ICast, Operands: operands}})
	default:
		l.emit(ImpStmt{Kind: SAssign, Dest: result, Rhs: IExpr{Kind: ICall, Operands: operands}})
	}
	return Dest{Kind: DestBaseType, Base: resultBase, Var: result}, nil
}

// lowerRefTell lowers a `tell ref v` primitive: a Writer ref combines v into
// its running accumulator by addition; a State ref replaces its contents
// outright. Either way the result is the ref's own Dest (tell's result is
// the unit value the caller discards, but callers expect *some* Dest back).
func (l *Lowerer) lowerRefTell(op core.Op) (Dest, *diag.Diagnostic) {
	refDest, err := l.lowerAtom(op.Atoms[0])
	if err != nil {
		return Dest{}, err
	}
	if refDest.Kind != DestBaseType {
		return Dest{}, diagErr(diag.Compiler(nil, "tell target must be a scalar ref cell"))
	}
	valDest, err2 := l.lowerAtom(op.Atoms[1])
	if err2 != nil {
		return Dest{}, err2
	}
	valOp, err3 := destOperand(l, valDest)
	if err3 != nil {
		return Dest{}, err3
	}
	if l.alloc.refEffect[refDest.Var] == core.EffState {
		l.emit(ImpStmt{Kind: SAssign, Dest: refDest.Var, Rhs: IExpr{Kind: ICast, Operands: []IOperand{valOp}}})
	} else {
		l.emit(ImpStmt{Kind: SAssign, Dest: refDest.Var, Rhs: IExpr{Kind: IBinOp, BinOp: core.BinAdd, Operands: []IOperand{VarOperand(refDest.Var), valOp}}})
	}
	return refDest, nil
}

func zeroLit(base core.BaseType) core.LitVal { return core.LitVal{Base: base} }

// lowerHof lowers a For into a sequential SLoop via emitLoop, whatever the
// target backend; no caller rewraps it as a KernelLaunch, and nothing in the
// pipeline consults corec/internal/target when lowering.
func (l *Lowerer) lowerHof(h core.Hof) (Dest, *diag.Diagnostic) {
	switch h.Kind {
	case core.HofFor:
		return l.emitLoop(h)
	case core.HofRunReader:
		return l.lowerRunReader(h)
	case core.HofRunWriter:
		return l.lowerRunWriter(h)
	case core.HofRunState:
		return l.lowerRunState(h)
	case core.HofWhile:
		return Dest{}, diagErr(diag.NotImplemented(nil, "lowering While to Imp"))
	default:
		return Dest{}, diagErr(diag.NotImplemented(nil, fmt.Sprintf("lowering Hof %v to Imp", h.Kind)))
	}
}

// lowerRunReader binds both the region name and the region function's own
// binder to the environment value's Dest and lowers the scoped body
// directly: a Reader's result is just the body's result, no pair.
func (l *Lowerer) lowerRunReader(h core.Hof) (Dest, *diag.Diagnostic) {
	lam := h.RegionFn.LamAtom
	var envDest Dest
	if h.Init != nil {
		d, err := l.lowerAtom(*h.Init)
		if err != nil {
			return Dest{}, err
		}
		envDest = d
	}
	l.env[lam.Binder.Name] = envDest
	l.env[h.Region] = envDest
	return l.LowerBlock(lam.Body)
}

// lowerRunWriter allocates and zero-initializes the Writer's accumulator,
// marks its backing var as Writer-combining for lowerRefTell, binds both the
// region name and the region function's binder to it, and returns the
// (answer, accumulator) pair §3 assigns runWriter's result type.
func (l *Lowerer) lowerRunWriter(h core.Hof) (Dest, *diag.Diagnostic) {
	lam := h.RegionFn.LamAtom
	var valTy core.Atom
	if h.ValTy != nil {
		valTy = *h.ValTy
	}
	accDest, err := l.materializeScalar(AllocateDest(l.alloc, l.env, valTy))
	if err != nil {
		return Dest{}, err
	}
	l.emit(ImpStmt{Kind: SAssign, Dest: accDest.Var, Rhs: IExpr{Kind: IVal, Lit: zeroLit(accDest.Base)}})
	l.alloc.refEffect[accDest.Var] = core.EffWriter

	l.env[lam.Binder.Name] = accDest
	l.env[h.Region] = accDest
	answerDest, err2 := l.LowerBlock(lam.Body)
	if err2 != nil {
		return Dest{}, err2
	}
	return Dest{Kind: DestRecord, Fields: []Dest{answerDest, accDest}}, nil
}

// lowerRunState materializes the State ref's initial value into a real
// assignable var, marks it as State-replacing for lowerRefTell, binds both
// the region name and the region function's binder to it, and returns the
// (result, finalState) pair §3 assigns runState's result type.
func (l *Lowerer) lowerRunState(h core.Hof) (Dest, *diag.Diagnostic) {
	lam := h.RegionFn.LamAtom
	var initDest Dest
	if h.Init != nil {
		d, err := l.lowerAtom(*h.Init)
		if err != nil {
			return Dest{}, err
		}
		initDest = d
	}
	refDest, err2 := l.materializeScalar(initDest)
	if err2 != nil {
		return Dest{}, err2
	}
	l.alloc.refEffect[refDest.Var] = core.EffState

	l.env[lam.Binder.Name] = refDest
	l.env[h.Region] = refDest
	resultDest, err3 := l.LowerBlock(lam.Body)
	if err3 != nil {
		return Dest{}, err3
	}
	return Dest{Kind: DestRecord, Fields: []Dest{resultDest, refDest}}, nil
}

// emitLoop lowers a For's Tab-kinded Lam body into a (possibly nested) Loop
// statement, allocating the output table Dest up front and writing each
// iteration's result into it at its computed offset (§4.5.3's
// addToAtom/copyAtom pattern, simplified here to the scalar element case). A
// pure tail-position chain of nested Fors (`for i. for j. body`, with no
// decls between levels) is flattened into one contiguous buffer sized
// product(counts), addressed by a Horner-scheme linear offset, with
// genuinely nested Imp Loop statements producing that offset's indices —
// the lowering scenario a single flat DestTab pointer can't otherwise
// express (§4.5.1's destOperand only handles scalar Dests).
func (l *Lowerer) emitLoop(h core.Hof) (Dest, *diag.Diagnostic) {
	dims, innerBody := unrollFor(h)

	preludeStart := len(l.alloc.prelude)
	counts := make([]IOperand, len(dims))
	for i, d := range dims {
		counts[i] = idxSetSizeOperand(l.alloc, l.env, *d.Ann)
	}
	totalCount, _ := combineCounts(l.alloc, counts)

	// Lower the innermost body once, with every dimension's idxVar bound, to
	// discover its real element type from the Dest it actually produces —
	// core.Block.ResultTy is a cache that's frequently nil, so the only
	// reliable source of the element type is the lowering itself.
	idxVars := make([]IVar, len(dims))
	sub := NewLowerer()
	sub.alloc = l.alloc
	sub.env = copyEnv(l.env)
	for i, d := range dims {
		idxVars[i] = l.alloc.freshIVar()
		sub.env[d.Name] = Dest{Kind: DestBaseType, Base: core.BaseInt64, Var: idxVars[i]}
	}
	eltDest, err := sub.LowerBlock(innerBody)
	if err != nil {
		return Dest{}, err
	}
	eltTy, ok := destBaseType(eltDest)
	if !ok {
		return Dest{}, diagErr(diag.NotImplemented(nil, "a For whose per-index element is itself a table or sum (irregular nested table shape)"))
	}

	onHeap := true
	if n, ok := staticCount(totalCount); ok && n <= StackAllocThreshold {
		onHeap = false
	}
	outPtr := l.alloc.emitAlloc(eltTy, totalCount, onHeap)
	// LowerFunction copies the prelude into the body only once, before the
	// block is lowered, so the size computation and SAlloc emitted above are
	// moved into l's own body here, ahead of the loop that uses them.
	l.body = append(l.body, l.alloc.prelude[preludeStart:]...)
	l.alloc.prelude = l.alloc.prelude[:preludeStart]

	eltOp, err2 := destOperand(sub, eltDest)
	if err2 != nil {
		return Dest{}, err2
	}
	offset := sub.flattenIndex(idxVars, counts)
	innerStmts := append(sub.body, ImpStmt{Kind: SStore, Ptr: outPtr, Value: eltOp, Rhs: IExpr{Kind: IOffset, Ptr: outPtr, Index: offset}})

	l.emit(ImpStmt{Kind: SLoop, Loop: buildNestedLoop(idxVars, counts, innerStmts)})
	return Dest{Kind: DestTab, Ptr: outPtr, EltCount: totalCount, EltType: eltTy}, nil
}

// unrollFor walks a pure tail-position chain of nested Fors and returns the
// list of (binder, idxTy) dimensions outermost-first plus the innermost
// Block that actually produces the per-index-tuple element. A single,
// non-nested For simply returns one dimension and its own body unchanged.
func unrollFor(h core.Hof) ([]core.Binder, *core.Block) {
	lam := h.Body.LamAtom
	dims := []core.Binder{lam.Binder}
	b := lam.Body
	for len(b.Decls) == 0 && b.Result.Kind == core.ExprHof && b.Result.HofVal.Kind == core.HofFor {
		innerLam := b.Result.HofVal.Body.LamAtom
		dims = append(dims, innerLam.Binder)
		b = innerLam.Body
	}
	return dims, b
}

// destBaseType reports the scalar base type backing a Dest, when it has one.
func destBaseType(d Dest) (core.BaseType, bool) {
	switch d.Kind {
	case DestBaseType:
		return d.Base, true
	case DestConst:
		return d.Const.Base, true
	default:
		return core.BaseInt64, false
	}
}

// combineCounts multiplies a list of per-dimension counts into the flat
// buffer's total element count. When every count is a compile-time literal
// the product is too; otherwise the multiply chain is emitted into the
// allocator's prelude (not any loop body) since the SAlloc it sizes runs
// before any loop does.
func combineCounts(alloc *Allocator, counts []IOperand) (IOperand, bool) {
	product := int64(1)
	allStatic := true
	for _, c := range counts {
		if n, ok := staticCount(c); ok {
			product *= int64(n)
		} else {
			allStatic = false
		}
	}
	if allStatic {
		return LitOperand(core.LitVal{Base: core.BaseInt64, I64: product}), true
	}
	acc := counts[0]
	for i := 1; i < len(counts); i++ {
		v := alloc.freshIVar()
		alloc.emit(ImpStmt{Kind: SAssign, Dest: v, Rhs: IExpr{Kind: IBinOp, BinOp: core.BinMul, Operands: []IOperand{acc, counts[i]}}})
		acc = VarOperand(v)
	}
	return acc, false
}

// flattenIndex computes the Horner-scheme linear offset ((i0*c1+i1)*c2+i2)...
// for a chain of nested indices, emitting the multiply/add chain into l's
// own body since (unlike combineCounts's totals) it depends on idxVars that
// change every iteration.
func (l *Lowerer) flattenIndex(idxVars []IVar, counts []IOperand) IOperand {
	if len(idxVars) == 1 {
		return VarOperand(idxVars[0])
	}
	acc := VarOperand(idxVars[0])
	for i := 1; i < len(idxVars); i++ {
		mul := l.alloc.freshIVar()
		l.emit(ImpStmt{Kind: SAssign, Dest: mul, Rhs: IExpr{Kind: IBinOp, BinOp: core.BinMul, Operands: []IOperand{acc, counts[i]}}})
		add := l.alloc.freshIVar()
		l.emit(ImpStmt{Kind: SAssign, Dest: add, Rhs: IExpr{Kind: IBinOp, BinOp: core.BinAdd, Operands: []IOperand{VarOperand(mul), VarOperand(idxVars[i])}}})
		acc = VarOperand(add)
	}
	return acc
}

// buildNestedLoop wraps innerStmts in a genuinely nested chain of Imp Loop
// statements, one per dimension, innermost first.
func buildNestedLoop(idxVars []IVar, counts []IOperand, innerStmts []ImpStmt) *Loop {
	n := len(idxVars)
	loop := &Loop{IdxVar: idxVars[n-1], Count: counts[n-1], Body: innerStmts}
	for i := n - 2; i >= 0; i-- {
		loop = &Loop{IdxVar: idxVars[i], Count: counts[i], Body: []ImpStmt{{Kind: SLoop, Loop: loop}}}
	}
	return loop
}

func copyEnv(env map[core.Name]Dest) map[core.Name]Dest {
	out := make(map[core.Name]Dest, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func (l *Lowerer) lowerCase(c core.CaseExpr) (Dest, *diag.Diagnostic) {
	scrutDest, err := l.lowerAtom(c.Scrutinee)
	if err != nil {
		return Dest{}, err
	}
	if scrutDest.Kind != DestDataCon {
		return Dest{}, diagErr(diag.Compiler(nil, "Case scrutinee did not lower to a DataCon Dest"))
	}
	cases := make([]SwitchCase, len(c.Alts))
	var resultDest Dest
	for i, alt := range c.Alts {
		sub := NewLowerer()
		sub.alloc = l.alloc
		sub.env = copyEnv(l.env)
		if scrutDest.Payload != nil {
			sub.env[alt.Binder.Name] = *scrutDest.Payload
		}
		d, err := sub.LowerBlock(alt.Body)
		if err != nil {
			return Dest{}, err
		}
		if i == 0 {
			resultDest = d
		}
		cases[i] = SwitchCase{Tag: i, Body: sub.body}
	}
	l.emit(ImpStmt{Kind: SSwitch, Switch: &Switch{Tag: VarOperand(scrutDest.TagVar), Cases: cases}})
	return resultDest, nil
}
