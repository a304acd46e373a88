package core

// AlphaEq decides structural equality of two atoms up to renaming of bound
// variables (testable property 2, §8): two Pi types (or two Lams) that
// differ only in their binder's Name are equal. No fresh name is minted:
// the two binders are recorded as a skolemPair before comparing their
// bodies, so an occurrence of one matches only an occurrence of the other
// and the comparison never depends on which side's name "wins."
func AlphaEq(a, b Atom) bool {
	return alphaEq(a, b, nil)
}

// skolemPair remembers that na (on the left) and nb (on the right) have
// already been identified by a shared skolem, so later occurrences compare
// equal to each other without re-deriving a fresh name.
type skolemPair struct {
	na, nb Name
	prev   *skolemPair
}

func (s *skolemPair) lookup(na, nb Name) (bool, bool) {
	for p := s; p != nil; p = p.prev {
		if p.na == na {
			return p.nb == nb, true
		}
		if p.nb == nb {
			return false, true
		}
	}
	return false, false
}

func alphaEq(a, b Atom, pairs *skolemPair) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case AtomVar:
		if eq, known := pairs.lookup(a.VarName, b.VarName); known {
			return eq
		}
		return a.VarName == b.VarName
	case AtomLam:
		if a.LamAtom.ArrowKind != b.LamAtom.ArrowKind {
			return false
		}
		if !alphaEqPtr(a.LamAtom.Binder.Ann, b.LamAtom.Binder.Ann, pairs) {
			return false
		}
		extended := &skolemPair{na: a.LamAtom.Binder.Name, nb: b.LamAtom.Binder.Name, prev: pairs}
		return alphaEqBlock(a.LamAtom.Body, b.LamAtom.Body, extended)
	case AtomArrow:
		if a.ArrowAtom.ArrowKind != b.ArrowAtom.ArrowKind {
			return false
		}
		if !alphaEqPtr(a.ArrowAtom.Binder.Ann, b.ArrowAtom.Binder.Ann, pairs) {
			return false
		}
		extended := &skolemPair{na: a.ArrowAtom.Binder.Name, nb: b.ArrowAtom.Binder.Name, prev: pairs}
		if !alphaEqEffectRow(a.ArrowAtom.Eff, b.ArrowAtom.Eff, extended) {
			return false
		}
		return alphaEqPtr(a.ArrowAtom.ResultTy, b.ArrowAtom.ResultTy, extended)
	case AtomCon:
		if a.ConAtom.Con != b.ConAtom.Con || a.ConAtom.Tag != b.ConAtom.Tag {
			return false
		}
		if a.ConAtom.Con == ConLit {
			return a.ConAtom.Lit == b.ConAtom.Lit
		}
		if !alphaEqPtr(a.ConAtom.Ty, b.ConAtom.Ty, pairs) {
			return false
		}
		return alphaEqAtomSlice(a.ConAtom.Args, b.ConAtom.Args, pairs)
	case AtomTC:
		if a.TCAtom.TC != b.TCAtom.TC || a.TCAtom.Base != b.TCAtom.Base {
			return false
		}
		return alphaEqAtomSlice(a.TCAtom.Elts, b.TCAtom.Elts, pairs)
	case AtomEffect:
		return alphaEqEffectRow(a.EffectAtom.Row, b.EffectAtom.Row, pairs)
	default:
		return true
	}
}

func alphaEqPtr(a, b *Atom, pairs *skolemPair) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return alphaEq(*a, *b, pairs)
}

func alphaEqAtomSlice(a, b []Atom, pairs *skolemPair) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !alphaEq(a[i], b[i], pairs) {
			return false
		}
	}
	return true
}

func alphaEqEffectRow(a, b EffectRow, pairs *skolemPair) bool {
	if len(a.Entries) != len(b.Entries) {
		return false
	}
	if (a.Tail == nil) != (b.Tail == nil) {
		return false
	}
	if a.Tail != nil {
		eq, known := pairs.lookup(*a.Tail, *b.Tail)
		if known && !eq {
			return false
		}
		if !known && *a.Tail != *b.Tail {
			return false
		}
	}
	for i := range a.Entries {
		ra, rb := a.Entries[i], b.Entries[i]
		if ra.Region != rb.Region || ra.Entry.Name != rb.Entry.Name {
			return false
		}
		if !alphaEqPtr(ra.Entry.Ty, rb.Entry.Ty, pairs) {
			return false
		}
	}
	return true
}

func alphaEqExpr(a, b Expr, pairs *skolemPair) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ExprApp:
		return alphaEq(a.AppExpr.Fn, b.AppExpr.Fn, pairs) && alphaEq(a.AppExpr.Arg, b.AppExpr.Arg, pairs)
	case ExprTabCon:
		return alphaEqPtr(a.TabConExpr.EltTy, b.TabConExpr.EltTy, pairs) &&
			alphaEqAtomSlice(a.TabConExpr.Elems, b.TabConExpr.Elems, pairs)
	case ExprAtom:
		return alphaEq(*a.AtomVal, *b.AtomVal, pairs)
	case ExprOp:
		oa, ob := a.OpVal, b.OpVal
		if oa.Kind != ob.Kind || oa.BinOpKind != ob.BinOpKind || oa.UnOpKind != ob.UnOpKind || oa.Pred != ob.Pred {
			return false
		}
		if oa.Field != ob.Field || oa.Index != ob.Index {
			return false
		}
		return alphaEqAtomSlice(oa.Atoms, ob.Atoms, pairs)
	case ExprHof:
		return alphaEqHof(*a.HofVal, *b.HofVal, pairs)
	case ExprCase:
		ca, cb := a.CaseExpr, b.CaseExpr
		if !alphaEq(ca.Scrutinee, cb.Scrutinee, pairs) || len(ca.Alts) != len(cb.Alts) {
			return false
		}
		for i := range ca.Alts {
			extended := &skolemPair{na: ca.Alts[i].Binder.Name, nb: cb.Alts[i].Binder.Name, prev: pairs}
			if !alphaEqBlock(ca.Alts[i].Body, cb.Alts[i].Body, extended) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func alphaEqHof(a, b Hof, pairs *skolemPair) bool {
	if a.Kind != b.Kind || a.Dir != b.Dir || a.EffName != b.EffName {
		return false
	}
	ptrs := [][2]*Atom{
		{a.Body, b.Body}, {a.Init, b.Init}, {a.ValTy, b.ValTy}, {a.Combine, b.Combine},
		{a.RegionFn, b.RegionFn}, {a.Cond, b.Cond}, {a.Step, b.Step}, {a.Primal, b.Primal},
	}
	for _, pp := range ptrs {
		if !alphaEqPtr(pp[0], pp[1], pairs) {
			return false
		}
	}
	return true
}

// alphaEqBlock compares two blocks up to consistent renaming of every
// binder they introduce, extending pairs one decl at a time so a later
// decl's rhs can refer to an earlier one's binder under the same identity.
func alphaEqBlock(a, b *Block, pairs *skolemPair) bool {
	if len(a.Decls) != len(b.Decls) {
		return false
	}
	for i := range a.Decls {
		da, db := a.Decls[i], b.Decls[i]
		if da.Kind != db.Kind {
			return false
		}
		if !alphaEqExpr(da.Rhs, db.Rhs, pairs) {
			return false
		}
		switch da.Kind {
		case DeclLet:
			pairs = &skolemPair{na: da.Binder.Name, nb: db.Binder.Name, prev: pairs}
		case DeclUnpack:
			if len(da.Binders) != len(db.Binders) {
				return false
			}
			for j := range da.Binders {
				pairs = &skolemPair{na: da.Binders[j].Name, nb: db.Binders[j].Name, prev: pairs}
			}
		}
	}
	return alphaEqExpr(a.Result, b.Result, pairs)
}

// AlphaEqBlock exposes alphaEqBlock for callers outside this package.
func AlphaEqBlock(a, b *Block) bool { return alphaEqBlock(a, b, nil) }
