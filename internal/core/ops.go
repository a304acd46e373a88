package core

// OpKind enumerates the primitive scalar and aggregate operations of §3
// (the "Op" expression former). Each carries a fixed-arity argument list of
// Atoms; no Op recurses into a Block, unlike Hof below.
type OpKind uint8

const (
	OpScalarBinOp OpKind = iota
	OpScalarUnOp
	OpCmp
	OpSelect
	OpRecGet
	OpSumGet
	OpSumTag
	OpIndexAsInt
	OpIntAsIndex
	OpIdxSetSize
	OpThrowError
	OpCastOp
	OpFFICall
	OpRefAsk
	OpRefTell
)

func (k OpKind) String() string {
	switch k {
	case OpScalarBinOp:
		return "ScalarBinOp"
	case OpScalarUnOp:
		return "ScalarUnOp"
	case OpCmp:
		return "Cmp"
	case OpSelect:
		return "Select"
	case OpRecGet:
		return "RecGet"
	case OpSumGet:
		return "SumGet"
	case OpSumTag:
		return "SumTag"
	case OpIndexAsInt:
		return "IndexAsInt"
	case OpIntAsIndex:
		return "IntAsIndex"
	case OpIdxSetSize:
		return "IdxSetSize"
	case OpThrowError:
		return "ThrowError"
	case OpCastOp:
		return "CastOp"
	case OpFFICall:
		return "FFICall"
	case OpRefAsk:
		return "RefAsk"
	case OpRefTell:
		return "RefTell"
	default:
		return "?op"
	}
}

// BinOp enumerates the scalar binary primitives (§3).
type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinPow
	BinRem
	BinAnd
	BinOr
	BinXor
	BinShL
	BinShR
)

// UnOp enumerates the scalar unary primitives (§3).
type UnOp uint8

const (
	UnNeg UnOp = iota
	UnExp
	UnLog
	UnSqrt
	UnSin
	UnCos
	UnTan
	UnFloor
	UnCeil
	UnRound
	UnNot
)

// CmpPred enumerates the comparison predicates shared by ICmp and FCmp
// (§3's "Cmp" primop is parametric in the predicate, not the operand type).
type CmpPred uint8

const (
	CmpEQ CmpPred = iota
	CmpNE
	CmpLT
	CmpLE
	CmpGT
	CmpGE
)

// Op is a primitive operation applied to a fixed list of Atom arguments. Pred
// and BinOpKind/UnOpKind are only meaningful for the corresponding OpKind;
// Atoms holds the operand(s) uniformly so callers that only dispatch on Kind
// need not special-case arity.
type Op struct {
	Kind      OpKind
	BinOpKind BinOp
	UnOpKind  UnOp
	Pred      CmpPred
	ResultTy  *Atom
	Atoms     []Atom
	Field     string // RecGet label, when the record is label-indexed
	Index     int    // RecGet/SumGet/SumTag positional index
}

// HofKind enumerates the higher-order primitives of §3: the ones that embed
// a Lam (or several) and so must be traversed structurally by the
// simplifier, the autodiff passes, and the Imp lowering, rather than treated
// as an opaque leaf like Op.
type HofKind uint8

const (
	HofFor HofKind = iota
	HofRunReader
	HofRunWriter
	HofRunState
	HofWhile
	HofLinearize
	HofTranspose
	HofTile
)

func (k HofKind) String() string {
	switch k {
	case HofFor:
		return "For"
	case HofRunReader:
		return "RunReader"
	case HofRunWriter:
		return "RunWriter"
	case HofRunState:
		return "RunState"
	case HofWhile:
		return "While"
	case HofLinearize:
		return "Linearize"
	case HofTranspose:
		return "Transpose"
	case HofTile:
		return "Tile"
	default:
		return "?hof"
	}
}

// Direction distinguishes a For loop's iteration order: Fwd is the only
// order with defined semantics under RunWriter/RunState effect accumulation
// when lowered to a sequential Imp loop (§4.5.4); Rev is accepted by the
// term model and by autodiff (reverse traversal falls out of transposing a
// Fwd For) but the Imp lowering of a standalone Rev For simply walks the
// index set backwards.
type Direction uint8

const (
	Fwd Direction = iota
	Rev
)

func (d Direction) String() string {
	if d == Rev {
		return "Rev"
	}
	return "Fwd"
}

// Hof is a higher-order primitive: a Kind tag plus the Lam(s) and ancillary
// atoms it closes over. Exactly the fields relevant to Kind are populated.
type Hof struct {
	Kind HofKind

	// For / Tile
	Dir  Direction
	Body *Atom // a LamAtom (ArrowTab) giving the per-index body

	// RunReader / RunWriter / RunState
	Region   Name
	EffName  EffectName
	Init     *Atom // RunState's initial ref value; RunReader's environment value
	ValTy    *Atom // RunWriter's accumulator monoid type
	Combine  *Atom // RunWriter's combine op, when not the monoid's default append
	RegionFn *Atom // a LamAtom taking the region's Var and returning the scoped Block result

	// While
	Cond *Atom // a LamAtom () -> Bool
	Step *Atom // a LamAtom () -> Unit, run while Cond holds

	// Linearize / Transpose
	Primal *Atom
}
