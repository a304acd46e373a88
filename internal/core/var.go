package core

// Var binds a Name to an annotation, typically a type (recall Type = Atom,
// per the design notes' "polymorphic Type = Atom identification"). A Binder
// is a Var occurrence that introduces a scope, as opposed to an occurrence
// that merely references one.
type Var struct {
	Name Name
	Ann  *Atom
}

// Binder is a Var at an introduction site (a Lam or Pi parameter, a Let or
// Unpack target).
type Binder = Var

// AsAtom returns the Var atom referencing this binder.
func (v Var) AsAtom() Atom {
	return Atom{Kind: AtomVar, VarName: v.Name}
}
