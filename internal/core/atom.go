package core

// AtomKind tags the variant of an Atom, following the same "Kind tag plus one
// populated named substruct" shape used throughout this term model (and
// mirrored again in Expr, Op and Hof below).
type AtomKind uint8

const (
	AtomVar AtomKind = iota
	AtomLam
	AtomArrow
	AtomCon
	AtomTC
	AtomEffect
)

func (k AtomKind) String() string {
	switch k {
	case AtomVar:
		return "Var"
	case AtomLam:
		return "Lam"
	case AtomArrow:
		return "Arrow"
	case AtomCon:
		return "Con"
	case AtomTC:
		return "TC"
	case AtomEffect:
		return "Effect"
	default:
		return "?atom"
	}
}

// Atom is a value-level term that requires no further evaluation: a
// variable occurrence, a lambda, a Pi (dependent arrow) type, a primitive
// constructor application, a type constructor application, or a reified
// effect row. Only one of the payload fields is populated, selected by Kind.
//
// Per the design note on Type = Atom: there is no separate Type
// representation. A Pi (ArrowAtom) atom used where a type is expected is a
// type; the same atom used as a first-class value is a function.
type Atom struct {
	Kind AtomKind

	VarName Name
	*LamAtom
	*ArrowAtom
	*ConAtom
	*TCAtom
	*EffectAtom
}

// ArrowKind distinguishes the four binder flavors of §3: a plain function
// parameter, an implicit (inferred) parameter, a table index parameter
// (giving rise to a TabTy), or a linear parameter consumed exactly once
// under autodiff.
type ArrowKind uint8

const (
	ArrowPlain ArrowKind = iota
	ArrowImplicit
	ArrowTab
	ArrowLin
)

func (k ArrowKind) String() string {
	switch k {
	case ArrowPlain:
		return "Plain"
	case ArrowImplicit:
		return "Implicit"
	case ArrowTab:
		return "Tab"
	case ArrowLin:
		return "Lin"
	default:
		return "?arrow"
	}
}

// LamAtom is a lambda: one binder, a body block, and the arrow kind under
// which it was introduced (a TabTy's constructor is exactly a Tab-kinded
// Lam, per §3's "table types are Pi types with ArrowTab kind").
type LamAtom struct {
	ArrowKind ArrowKind
	Binder    Binder
	Body      *Block
}

// ArrowAtom is a Pi type: a dependent function type whose result type may
// mention the binder. The Eff row is the latent effect of applying it.
type ArrowAtom struct {
	ArrowKind ArrowKind
	Binder    Binder
	Eff       EffectRow
	ResultTy  *Atom
}

// ConKind enumerates the primitive value constructors of §3: literals,
// products, sums, and the table/ref constructors used by the Imp lowering
// boundary.
type ConKind uint8

const (
	ConLit ConKind = iota
	ConProdCon
	ConSumCon
	ConTabCon
	ConRefCon
	ConBaseTypeRef
	ConUnitCon
	ConIntRangeVal
	ConIndexRangeVal
	ConParIndexCon
	ConRecordCon
	ConLabelCon
)

func (k ConKind) String() string {
	switch k {
	case ConLit:
		return "Lit"
	case ConProdCon:
		return "ProdCon"
	case ConSumCon:
		return "SumCon"
	case ConTabCon:
		return "TabCon"
	case ConRefCon:
		return "RefCon"
	case ConBaseTypeRef:
		return "BaseTypeRef"
	case ConUnitCon:
		return "UnitCon"
	case ConIntRangeVal:
		return "IntRangeVal"
	case ConIndexRangeVal:
		return "IndexRangeVal"
	case ConParIndexCon:
		return "ParIndexCon"
	case ConRecordCon:
		return "RecordCon"
	case ConLabelCon:
		return "LabelCon"
	default:
		return "?con"
	}
}

// BaseType enumerates the scalar types the Imp lowering ultimately traffics
// in (§4.5).
type BaseType uint8

const (
	BaseInt64 BaseType = iota
	BaseInt32
	BaseFloat64
	BaseFloat32
	BaseWord8
)

func (b BaseType) String() string {
	switch b {
	case BaseInt64:
		return "Int64"
	case BaseInt32:
		return "Int32"
	case BaseFloat64:
		return "Float64"
	case BaseFloat32:
		return "Float32"
	case BaseWord8:
		return "Word8"
	default:
		return "?basetype"
	}
}

// LitVal is a base-typed scalar literal.
type LitVal struct {
	Base BaseType
	I64  int64
	F64  float64
}

// ConAtom is the payload of an AtomCon: the constructor kind plus its
// arguments, which are themselves atoms (so that e.g. a ProdCon of ProdCons
// is a well-formed nested value without a separate "compound literal" node).
type ConAtom struct {
	Con  ConKind
	Ty   *Atom // element/result type, when the constructor needs one to disambiguate (e.g. empty TabCon)
	Lit  LitVal
	Args []Atom
	// Tag selects the injected branch of a SumCon.
	Tag int
}

// TCKind enumerates type-constructor atoms: base scalar types, product and
// sum type formers, and the catch-all "unit" type. Table types are
// deliberately not a TCKind variant here: a table type is an ArrowAtom with
// ArrowTab kind, per the ArrowKind doc above, so there is exactly one
// representation of "a function from an index type" rather than two
// coincident ones.
type TCKind uint8

const (
	TCBaseType TCKind = iota
	TCProdType
	TCSumType
	TCUnitType
	TCRefType
	TCIntRange
	TCIndexRange
	TCRecordType
)

func (k TCKind) String() string {
	switch k {
	case TCBaseType:
		return "BaseType"
	case TCProdType:
		return "ProdType"
	case TCSumType:
		return "SumType"
	case TCUnitType:
		return "UnitType"
	case TCRefType:
		return "RefType"
	case TCIntRange:
		return "IntRange"
	case TCIndexRange:
		return "IndexRange"
	case TCRecordType:
		return "RecordType"
	default:
		return "?tc"
	}
}

// TCAtom is the payload of an AtomTC.
type TCAtom struct {
	TC   TCKind
	Base BaseType
	// Elts holds the field/alternative types for ProdType/SumType/RecordType,
	// or the referent type for RefType, or the bound atoms for IntRange /
	// IndexRange.
	Elts   []Atom
	Labels []string // parallel to Elts, for RecordType; nil otherwise
}

// EffectAtom reifies an EffectRow as a first-class atom, used where an Op or
// Hof needs to carry its latent effect as an argument (e.g. RunReader's
// region binder).
type EffectAtom struct {
	Row EffectRow
}

// VarAtom constructs an AtomVar atom.
func VarAtom(n Name) Atom { return Atom{Kind: AtomVar, VarName: n} }

// Lam constructs an AtomLam atom.
func Lam(kind ArrowKind, b Binder, body *Block) Atom {
	return Atom{Kind: AtomLam, LamAtom: &LamAtom{ArrowKind: kind, Binder: b, Body: body}}
}

// Pi constructs an AtomArrow (dependent function type) atom.
func Pi(kind ArrowKind, b Binder, eff EffectRow, result *Atom) Atom {
	return Atom{Kind: AtomArrow, ArrowAtom: &ArrowAtom{ArrowKind: kind, Binder: b, Eff: eff, ResultTy: result}}
}

// NonDepPi constructs a non-dependent function type Binder -> result, using
// an anonymous ignored binder.
func NonDepPi(kind ArrowKind, argTy *Atom, eff EffectRow, result *Atom) Atom {
	return Pi(kind, Binder{Name: Fresh("_", NameSet{}), Ann: argTy}, eff, result)
}

// TabTy constructs a table type: a Pi with ArrowTab kind whose result does
// not depend on the index binder in the common case, but may (a dependent
// table, §3).
func TabTy(idxTy *Atom, b Binder, eltTy *Atom) Atom {
	b.Ann = idxTy
	return Pi(ArrowTab, b, Pure(), eltTy)
}

// Con constructs an AtomCon atom.
func Con(kind ConKind, ty *Atom, args ...Atom) Atom {
	return Atom{Kind: AtomCon, ConAtom: &ConAtom{Con: kind, Ty: ty, Args: args}}
}

// Lit constructs a ConLit atom wrapping a scalar literal.
func Lit(v LitVal) Atom {
	return Atom{Kind: AtomCon, ConAtom: &ConAtom{Con: ConLit, Lit: v}}
}

// TC constructs an AtomTC atom.
func TC(kind TCKind, elts ...Atom) Atom {
	return Atom{Kind: AtomTC, TCAtom: &TCAtom{TC: kind, Elts: elts}}
}

// BaseTypeAtom constructs the TC atom for a scalar base type.
func BaseTypeAtom(b BaseType) Atom {
	return Atom{Kind: AtomTC, TCAtom: &TCAtom{TC: TCBaseType, Base: b}}
}

// UnitTy is the canonical zero-field product / unit type.
func UnitTy() Atom { return Atom{Kind: AtomTC, TCAtom: &TCAtom{TC: TCUnitType}} }

// EffectRowAtom reifies row as a first-class atom.
func EffectRowAtom(row EffectRow) Atom {
	return Atom{Kind: AtomEffect, EffectAtom: &EffectAtom{Row: row}}
}

// IsType reports whether a is being used in type position: Arrow, TC, and
// Effect atoms are always types; Var is a type iff its annotation is the
// universe (callers track this externally, since Atom itself carries no
// universe tag — see the design note on Type = Atom).
func (a Atom) IsType() bool {
	switch a.Kind {
	case AtomArrow, AtomTC, AtomEffect:
		return true
	default:
		return false
	}
}
