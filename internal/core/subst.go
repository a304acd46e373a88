package core

// SubstEnv maps a bound Name to the atom it should be replaced with. A
// lookup miss means "leave the occurrence alone" — SubstEnv is partial, not
// total, since most passes only ever substitute a handful of binders at a
// time (e.g. beta-reducing one application).
type SubstEnv map[Name]Atom

// Subst performs a capture-avoiding substitution of env into a, renaming any
// binder inside a that would otherwise capture a free variable introduced by
// env (testable property 1, §8). scope must contain every name free in any
// atom appearing in env's range, plus every name already live at the
// substitution site; substBinder extends it as substitution descends under
// binders.
func Subst(env SubstEnv, scope Scope, a Atom) Atom {
	switch a.Kind {
	case AtomVar:
		if repl, ok := env[a.VarName]; ok {
			return repl
		}
		return a
	case AtomLam:
		b, bodyEnv, bodyScope := substBinder(env, scope, a.LamAtom.Binder)
		return Lam(a.LamAtom.ArrowKind, b, substBlock(bodyEnv, bodyScope, a.LamAtom.Body))
	case AtomArrow:
		b, bodyEnv, bodyScope := substBinder(env, scope, a.ArrowAtom.Binder)
		eff := substEffectRow(bodyEnv, bodyScope, a.ArrowAtom.Eff)
		result := substAtomPtr(bodyEnv, bodyScope, a.ArrowAtom.ResultTy)
		return Pi(a.ArrowAtom.ArrowKind, b, eff, result)
	case AtomCon:
		args := make([]Atom, len(a.ConAtom.Args))
		for i, arg := range a.ConAtom.Args {
			args[i] = Subst(env, scope, arg)
		}
		out := Atom{Kind: AtomCon, ConAtom: &ConAtom{
			Con: a.ConAtom.Con, Ty: substAtomPtr(env, scope, a.ConAtom.Ty),
			Lit: a.ConAtom.Lit, Args: args, Tag: a.ConAtom.Tag,
		}}
		return out
	case AtomTC:
		elts := make([]Atom, len(a.TCAtom.Elts))
		for i, elt := range a.TCAtom.Elts {
			elts[i] = Subst(env, scope, elt)
		}
		return Atom{Kind: AtomTC, TCAtom: &TCAtom{TC: a.TCAtom.TC, Base: a.TCAtom.Base, Elts: elts, Labels: a.TCAtom.Labels}}
	case AtomEffect:
		return EffectRowAtom(substEffectRow(env, scope, a.EffectAtom.Row))
	default:
		return a
	}
}

func substAtomPtr(env SubstEnv, scope Scope, a *Atom) *Atom {
	if a == nil {
		return nil
	}
	out := Subst(env, scope, *a)
	return &out
}

// substBinder renames b if necessary to avoid capturing a free variable of
// env's range, extends env so occurrences of the original name inside b's
// scope see the rename, and extends scope so nested substitutions see the
// new name as taken.
func substBinder(env SubstEnv, scope Scope, b Binder) (Binder, SubstEnv, Scope) {
	ann := substAtomPtr(env, scope, b.Ann)
	fresh := Rename(b.Name, scope)
	newBinder := Binder{Name: fresh, Ann: ann}
	bodyEnv := env
	if fresh != b.Name {
		bodyEnv = cloneEnv(env)
		bodyEnv[b.Name] = VarAtom(fresh)
	} else {
		// still must prevent the old name from being re-substituted by an
		// outer env entry that happens to share it
		if _, shadowed := env[b.Name]; shadowed {
			bodyEnv = cloneEnv(env)
			delete(bodyEnv, b.Name)
		}
	}
	bodyScope := UnionScope(scope, NameSet{}.Add(fresh))
	return newBinder, bodyEnv, bodyScope
}

func cloneEnv(env SubstEnv) SubstEnv {
	out := make(SubstEnv, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	return out
}

func substEffectRow(env SubstEnv, scope Scope, row EffectRow) EffectRow {
	out := EffectRow{Tail: row.Tail}
	for _, re := range row.Entries {
		entry := re.Entry
		entry.Ty = substAtomPtr(env, scope, entry.Ty)
		out = out.WithRegion(re.Region, entry)
	}
	return out
}

func substExpr(env SubstEnv, scope Scope, e Expr) Expr {
	switch e.Kind {
	case ExprApp:
		return AppE(Subst(env, scope, e.AppExpr.Fn), Subst(env, scope, e.AppExpr.Arg))
	case ExprTabCon:
		elems := make([]Atom, len(e.TabConExpr.Elems))
		for i, el := range e.TabConExpr.Elems {
			elems[i] = Subst(env, scope, el)
		}
		return Expr{Kind: ExprTabCon, TabConExpr: &TabConExpr{EltTy: substAtomPtr(env, scope, e.TabConExpr.EltTy), Elems: elems}}
	case ExprAtom:
		return AtomE(Subst(env, scope, *e.AtomVal))
	case ExprOp:
		atoms := make([]Atom, len(e.OpVal.Atoms))
		for i, arg := range e.OpVal.Atoms {
			atoms[i] = Subst(env, scope, arg)
		}
		op := *e.OpVal
		op.ResultTy = substAtomPtr(env, scope, e.OpVal.ResultTy)
		op.Atoms = atoms
		return OpE(op)
	case ExprHof:
		return HofE(substHof(env, scope, *e.HofVal))
	case ExprCase:
		alts := make([]CaseAlt, len(e.CaseExpr.Alts))
		for i, alt := range e.CaseExpr.Alts {
			b, bodyEnv, bodyScope := substBinder(env, scope, alt.Binder)
			alts[i] = CaseAlt{Binder: b, Body: substBlock(bodyEnv, bodyScope, alt.Body)}
		}
		return CaseE(Subst(env, scope, e.CaseExpr.Scrutinee), alts, substAtomPtr(env, scope, e.CaseExpr.ResultTy))
	default:
		return e
	}
}

func substHof(env SubstEnv, scope Scope, h Hof) Hof {
	out := h
	out.Body = substAtomPtr(env, scope, h.Body)
	out.Init = substAtomPtr(env, scope, h.Init)
	out.ValTy = substAtomPtr(env, scope, h.ValTy)
	out.Combine = substAtomPtr(env, scope, h.Combine)
	out.RegionFn = substAtomPtr(env, scope, h.RegionFn)
	out.Cond = substAtomPtr(env, scope, h.Cond)
	out.Step = substAtomPtr(env, scope, h.Step)
	out.Primal = substAtomPtr(env, scope, h.Primal)
	return out
}

// substBlock substitutes through a Block, alpha-renaming each Decl's
// binder(s) as needed and threading the growing scope/env through
// subsequent decls and the result, in order (§5).
func substBlock(env SubstEnv, scope Scope, b *Block) *Block {
	decls := make([]Decl, len(b.Decls))
	curEnv, curScope := env, scope
	for i, d := range b.Decls {
		rhs := substExpr(curEnv, curScope, d.Rhs)
		switch d.Kind {
		case DeclLet:
			nb, nextEnv, nextScope := substBinder(curEnv, curScope, d.Binder)
			decls[i] = Decl{Kind: DeclLet, Binder: nb, Rhs: rhs}
			curEnv, curScope = nextEnv, nextScope
		case DeclUnpack:
			binders := make([]Binder, len(d.Binders))
			for j, bd := range d.Binders {
				nb, nextEnv, nextScope := substBinder(curEnv, curScope, bd)
				binders[j] = nb
				curEnv, curScope = nextEnv, nextScope
			}
			decls[i] = Decl{Kind: DeclUnpack, Binders: binders, Rhs: rhs}
		}
	}
	return &Block{Decls: decls, Result: substExpr(curEnv, curScope, b.Result)}
}

// SubstBlock is the exported entry point for whole-block substitution.
func SubstBlock(env SubstEnv, scope Scope, b *Block) *Block { return substBlock(env, scope, b) }

// DeShadowBlock alpha-renames every binder in b that scope already contains,
// without changing what it's bound to — used before splicing a previously
// embedded Block into a fresh context (e.g. inlining a top-level
// definition's body at a call site, §4.3).
func DeShadowBlock(b *Block, scope Scope) *Block {
	return substBlock(SubstEnv{}, scope, b)
}

// ApplyAbs beta-reduces a one-argument abstraction: Subst(arg for binder.Name)
// through body, under a scope that at minimum contains everything free in
// arg and body. This is the single beta-reduction step §4.3's simplifier
// repeats to normalize an App of a known Lam.
func ApplyAbs(binder Binder, body *Block, arg Atom, scope Scope) *Block {
	env := SubstEnv{binder.Name: arg}
	full := UnionScope(scope, UnionScope(FreeVarsOfAtom(arg).Names(), freeVarsOfBlock(body).Names()))
	return substBlock(env, full, body)
}
