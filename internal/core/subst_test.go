package core

import "testing"

func xName(hint string, counter uint32) Name {
	return NewName(OriginFree, hint, counter)
}

func TestSubstCapturesAvoided(t *testing.T) {
	// \y. x, substituting x := y  should rename the bound y rather than let
	// the incoming y be captured by the lambda's own binder.
	x := xName("x", 0)
	y := xName("y", 0)
	body := AtomBlock(VarAtom(x))
	lam := Lam(ArrowPlain, Binder{Name: y, Ann: nil}, body)

	env := SubstEnv{x: VarAtom(y)}
	scope := NameSet{}.Add(y)
	out := Subst(env, scope, lam)

	if out.Kind != AtomLam {
		t.Fatalf("expected Lam, got %v", out.Kind)
	}
	if out.LamAtom.Binder.Name == y {
		t.Fatalf("binder was not renamed away from the captured name: %v", out.LamAtom.Binder.Name)
	}
	resultAtom, ok := out.LamAtom.Body.Trivial()
	if !ok {
		t.Fatalf("expected trivial body")
	}
	if resultAtom.Kind != AtomVar || resultAtom.VarName != y {
		t.Fatalf("expected substituted body to reference original y, got %+v", resultAtom)
	}
}

func TestSubstLeavesUnrelatedBindersAlone(t *testing.T) {
	x := xName("x", 0)
	z := xName("z", 0)
	lam := Lam(ArrowPlain, Binder{Name: z}, AtomBlock(VarAtom(x)))

	out := Subst(SubstEnv{x: Lit(LitVal{Base: BaseInt64, I64: 7})}, NameSet{}, lam)
	if out.LamAtom.Binder.Name != z {
		t.Fatalf("unrelated binder z should not be renamed, got %v", out.LamAtom.Binder.Name)
	}
	resultAtom, _ := out.LamAtom.Body.Trivial()
	if resultAtom.ConAtom == nil || resultAtom.ConAtom.Lit.I64 != 7 {
		t.Fatalf("expected substituted literal, got %+v", resultAtom)
	}
}

func TestAlphaEqIgnoresBinderNames(t *testing.T) {
	a := Lam(ArrowPlain, Binder{Name: xName("a", 0)}, AtomBlock(VarAtom(xName("a", 0))))
	b := Lam(ArrowPlain, Binder{Name: xName("b", 0)}, AtomBlock(VarAtom(xName("b", 0))))
	if !AlphaEq(a, b) {
		t.Fatalf("identity lambdas with different binder names should be alpha-equivalent")
	}
}

func TestAlphaEqDistinguishesStructure(t *testing.T) {
	a := Lam(ArrowPlain, Binder{Name: xName("a", 0)}, AtomBlock(VarAtom(xName("a", 0))))
	freeY := Lam(ArrowPlain, Binder{Name: xName("a", 0)}, AtomBlock(VarAtom(xName("y", 0))))
	if AlphaEq(a, freeY) {
		t.Fatalf("identity lambda should not be alpha-equal to a constant-y lambda")
	}
}

func TestAlphaEqPi(t *testing.T) {
	i64 := BaseTypeAtom(BaseInt64)
	piA := Pi(ArrowPlain, Binder{Name: xName("n", 0), Ann: &i64}, Pure(), &i64)
	piB := Pi(ArrowPlain, Binder{Name: xName("m", 0), Ann: &i64}, Pure(), &i64)
	if !AlphaEq(piA, piB) {
		t.Fatalf("non-dependent Pi types over the same domain/codomain should be alpha-equal")
	}
}

func TestFreeVarsOfLamExcludesBinder(t *testing.T) {
	x := xName("x", 0)
	y := xName("y", 0)
	lam := Lam(ArrowPlain, Binder{Name: x}, AtomBlock(VarAtom(y)))
	fv := FreeVarsOfAtom(lam)
	if _, ok := fv[x]; ok {
		t.Fatalf("bound name x must not appear free")
	}
	if _, ok := fv[y]; !ok {
		t.Fatalf("free name y must appear in FreeVars")
	}
}

func TestApplyAbsBetaReduces(t *testing.T) {
	x := xName("x", 0)
	body := AtomBlock(VarAtom(x))
	seven := Lit(LitVal{Base: BaseInt64, I64: 7})
	reduced := ApplyAbs(Binder{Name: x}, body, seven, NameSet{})
	got, ok := reduced.Trivial()
	if !ok || got.ConAtom == nil || got.ConAtom.Lit.I64 != 7 {
		t.Fatalf("expected beta-reduction to substitute literal 7, got %+v", got)
	}
}
