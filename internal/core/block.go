package core

// DeclKind distinguishes an ordinary binding from an n-ary unpack (used to
// destructure a ProdCon or a RunState/RunWriter result pair in one step).
type DeclKind uint8

const (
	DeclLet DeclKind = iota
	DeclUnpack
)

// Decl is one binding inside a Block: either `let b = rhs` or, for
// DeclUnpack, a multi-binder destructuring of a product-valued rhs.
type Decl struct {
	Kind    DeclKind
	Binder  Binder   // DeclLet
	Binders []Binder // DeclUnpack, in field order
	Rhs     Expr
}

// Block is a sequence of Decls followed by a trailing result Expr — the
// only place evaluation order is observable, and the unit of traversal for
// every pass in this repository (embed builds them, simplify rewrites them,
// autodiff differentiates them, Imp lowers them). Per §5, Decls execute in
// order and cannot be freely reordered across an effectful one.
type Block struct {
	Decls  []Decl
	Result Expr
	// ResultTy caches the block's result type so passes that only need the
	// type need not re-run embedding; nil until computed.
	ResultTy *Atom
}

// NewBlock constructs a Block from decls and a result.
func NewBlock(decls []Decl, result Expr) *Block {
	return &Block{Decls: decls, Result: result}
}

// Let appends a `let b = rhs` decl, returning the new Block (Blocks are
// treated as immutable once handed to a pass; builders copy-on-append).
func (b *Block) Let(binder Binder, rhs Expr) *Block {
	decls := append(append([]Decl{}, b.Decls...), Decl{Kind: DeclLet, Binder: binder, Rhs: rhs})
	return &Block{Decls: decls, Result: b.Result}
}

// Trivial reports whether the block is just a wrapped atom with no
// bindings, the base case most traversals special-case for efficiency.
func (b *Block) Trivial() (Atom, bool) {
	if len(b.Decls) != 0 {
		return Atom{}, false
	}
	return b.Result.AsAtom()
}

// AtomBlock wraps a single atom as a zero-decl Block.
func AtomBlock(a Atom) *Block {
	return &Block{Result: AtomE(a)}
}
