package core

// FreeVars is the set of names free in some term (§4.1, testable property
// 1's "capture-avoiding substitution" depends on an accurate FreeVars). The
// map's values are always nil: a Var occurrence carries no annotation, so
// no type is recorded for a free name; only the key set is meaningful.
type FreeVars map[Name]*Atom

// union merges b into a in place and returns a.
func (a FreeVars) union(b FreeVars) FreeVars {
	for n, ty := range b {
		if _, ok := a[n]; !ok {
			a[n] = ty
		}
	}
	return a
}

func (a FreeVars) remove(n Name) FreeVars {
	delete(a, n)
	return a
}

// FreeVarsOfAtom computes the free variables of an atom.
func FreeVarsOfAtom(a Atom) FreeVars {
	fv := FreeVars{}
	switch a.Kind {
	case AtomVar:
		fv[a.VarName] = nil
	case AtomLam:
		fv.union(FreeVarsOfAtomPtr(a.LamAtom.Binder.Ann))
		fv.union(freeVarsOfBlock(a.LamAtom.Body).remove(a.LamAtom.Binder.Name))
	case AtomArrow:
		fv.union(FreeVarsOfAtomPtr(a.ArrowAtom.Binder.Ann))
		bodyFv := FreeVarsOfAtomPtr(a.ArrowAtom.ResultTy)
		bodyFv.union(freeVarsOfEffectRow(a.ArrowAtom.Eff))
		bodyFv.remove(a.ArrowAtom.Binder.Name)
		fv.union(bodyFv)
	case AtomCon:
		fv.union(FreeVarsOfAtomPtr(a.ConAtom.Ty))
		for _, arg := range a.ConAtom.Args {
			fv.union(FreeVarsOfAtom(arg))
		}
	case AtomTC:
		for _, elt := range a.TCAtom.Elts {
			fv.union(FreeVarsOfAtom(elt))
		}
	case AtomEffect:
		fv.union(freeVarsOfEffectRow(a.EffectAtom.Row))
	}
	return fv
}

// FreeVarsOfAtomPtr is FreeVarsOfAtom lifted over a possibly-nil pointer,
// since most type annotations in this model are optional.
func FreeVarsOfAtomPtr(a *Atom) FreeVars {
	if a == nil {
		return FreeVars{}
	}
	return FreeVarsOfAtom(*a)
}

func freeVarsOfExpr(e Expr) FreeVars {
	fv := FreeVars{}
	switch e.Kind {
	case ExprApp:
		fv.union(FreeVarsOfAtom(e.AppExpr.Fn))
		fv.union(FreeVarsOfAtom(e.AppExpr.Arg))
	case ExprTabCon:
		fv.union(FreeVarsOfAtomPtr(e.TabConExpr.EltTy))
		for _, el := range e.TabConExpr.Elems {
			fv.union(FreeVarsOfAtom(el))
		}
	case ExprAtom:
		fv.union(FreeVarsOfAtom(*e.AtomVal))
	case ExprOp:
		fv.union(FreeVarsOfAtomPtr(e.OpVal.ResultTy))
		for _, arg := range e.OpVal.Atoms {
			fv.union(FreeVarsOfAtom(arg))
		}
	case ExprHof:
		fv.union(freeVarsOfHof(*e.HofVal))
	case ExprCase:
		fv.union(FreeVarsOfAtom(e.CaseExpr.Scrutinee))
		fv.union(FreeVarsOfAtomPtr(e.CaseExpr.ResultTy))
		for _, alt := range e.CaseExpr.Alts {
			fv.union(freeVarsOfBlock(alt.Body).remove(alt.Binder.Name))
		}
	}
	return fv
}

func freeVarsOfHof(h Hof) FreeVars {
	fv := FreeVars{}
	addAtomPtr := func(a *Atom) {
		if a != nil {
			fv.union(FreeVarsOfAtom(*a))
		}
	}
	addAtomPtr(h.Body)
	addAtomPtr(h.Init)
	addAtomPtr(h.ValTy)
	addAtomPtr(h.Combine)
	addAtomPtr(h.RegionFn)
	addAtomPtr(h.Cond)
	addAtomPtr(h.Step)
	addAtomPtr(h.Primal)
	return fv
}

func freeVarsOfEffectRow(row EffectRow) FreeVars {
	fv := FreeVars{}
	for _, re := range row.Entries {
		fv.union(FreeVarsOfAtomPtr(re.Entry.Ty))
	}
	return fv
}

// freeVarsOfBlock computes the free variables of a whole block: the decls'
// right-hand sides contribute their free variables minus whatever earlier
// decls in the same block have already bound, and the result expression is
// scoped under every decl's binder.
func freeVarsOfBlock(b *Block) FreeVars {
	fv := FreeVars{}
	bound := NameSet{}
	for _, d := range b.Decls {
		rhsFv := freeVarsOfExpr(d.Rhs)
		for n := range bound {
			rhsFv.remove(n)
		}
		fv.union(rhsFv)
		switch d.Kind {
		case DeclLet:
			bound.Add(d.Binder.Name)
		case DeclUnpack:
			for _, bd := range d.Binders {
				bound.Add(bd.Name)
			}
		}
	}
	resultFv := freeVarsOfExpr(b.Result)
	for n := range bound {
		resultFv.remove(n)
	}
	fv.union(resultFv)
	return fv
}

// FreeVarsOfBlock is the exported entry point; freeVarsOfBlock stays
// unexported so internal recursive calls read at a glance as "the same
// helper," per the convention this package follows elsewhere (cf. subst.go).
func FreeVarsOfBlock(b *Block) FreeVars { return freeVarsOfBlock(b) }

// Names returns just the key set of a FreeVars map as a Scope, for callers
// that only need membership (Rename/Fresh) and not the associated types.
func (fv FreeVars) Names() NameSet {
	ns := NameSet{}
	for n := range fv {
		ns.Add(n)
	}
	return ns
}
