package imp

import (
	"fortio.org/safecast"

	"corec/internal/core"
)

// DestKind tags a Dest's shape, mirroring the core type it was derived from
// (§4.5.1): a scalar slot, a table slot (one contiguous allocation indexed
// by an offset computed from the index set's polynomial shape), a
// constructor-tagged slot (a sum's tag word plus its payload Dest), a
// record's field-wise Dests, or a compile-time constant needing no
// allocation at all.
type DestKind uint8

const (
	DestBaseType DestKind = iota
	DestTab
	DestDataCon
	DestRecord
	DestConst
)

// Dest is where a lowered value's bits live: an Imp-level pointer (or
// scalar var, for DestBaseType) plus enough shape information to compute
// byte/element offsets into it.
type Dest struct {
	Kind DestKind

	Base core.BaseType // DestBaseType
	Var  IVar          // DestBaseType, when materialized as a plain scalar rather than a 1-element pointer

	Ptr      PtrVar // DestTab, DestDataCon, DestRecord
	EltCount IOperand // DestTab: number of elements (may be dynamic)
	EltType  core.BaseType

	TagVar  IVar   // DestDataCon: the sum's discriminant
	Payload *Dest  // DestDataCon: the active alternative's Dest

	Fields []Dest // DestRecord, in declaration order

	Const core.LitVal // DestConst
}

// AllocateDest decides the Dest for an atom of the given type, choosing
// stack vs. heap per §4.5.1's rule: an element count known at lower time and
// at or below StackAllocThreshold goes on the stack; anything larger, or
// whose count is only known dynamically, goes on the heap. alloc is called
// to actually emit the SAlloc statement and mint the backing PtrVar/IVar.
// env resolves a dynamic bound that refers to an already-lowered binder (a
// dependent table size, say) to its real Dest rather than minting an unbound
// placeholder variable.
func AllocateDest(alloc *Allocator, env map[core.Name]Dest, ty core.Atom) Dest {
	switch ty.Kind {
	case core.AtomTC:
		switch ty.TCAtom.TC {
		case core.TCBaseType:
			return Dest{Kind: DestBaseType, Base: ty.TCAtom.Base, Var: alloc.freshIVar()}
		case core.TCProdType, core.TCRecordType:
			fields := make([]Dest, len(ty.TCAtom.Elts))
			for i, elt := range ty.TCAtom.Elts {
				fields[i] = AllocateDest(alloc, env, elt)
			}
			return Dest{Kind: DestRecord, Fields: fields}
		case core.TCSumType:
			// every alternative shares one payload Dest, allocated from the
			// first alternative's type; the other alternatives' layouts are
			// not consulted.
			var payload *Dest
			if len(ty.TCAtom.Elts) > 0 {
				d := AllocateDest(alloc, env, ty.TCAtom.Elts[0])
				payload = &d
			}
			return Dest{Kind: DestDataCon, TagVar: alloc.freshIVar(), Payload: payload}
		default:
			return Dest{Kind: DestBaseType, Base: core.BaseInt64, Var: alloc.freshIVar()}
		}
	case core.AtomArrow:
		if ty.ArrowAtom.ArrowKind == core.ArrowTab {
			count := idxSetSizeOperand(alloc, env, *ty.ArrowAtom.Binder.Ann)
			eltTy := *ty.ArrowAtom.ResultTy
			onHeap := true
			if lit, ok := staticCount(count); ok && lit <= StackAllocThreshold {
				onHeap = false
			}
			ptr := alloc.emitAlloc(eltBaseType(eltTy), count, onHeap)
			return Dest{Kind: DestTab, Ptr: ptr, EltCount: count, EltType: eltBaseType(eltTy)}
		}
		return Dest{Kind: DestBaseType, Base: core.BaseInt64, Var: alloc.freshIVar()}
	default:
		return Dest{Kind: DestBaseType, Base: core.BaseInt64, Var: alloc.freshIVar()}
	}
}

func eltBaseType(ty core.Atom) core.BaseType {
	if ty.Kind == core.AtomTC && ty.TCAtom.TC == core.TCBaseType {
		return ty.TCAtom.Base
	}
	return core.BaseInt64
}

// idxSetSizeOperand computes the element count of an index-set type: for
// IntRange/IndexRange with statically-known bounds this is a compile-time
// constant; when a bound is a variable, env resolves it to the Dest the
// enclosing scope already lowered it to (a dependent table's size, typically
// itself a function parameter) so the count is computed from a real,
// assigned value rather than a fresh unbound IVar. When a bound resolves to
// neither, the count is the literal 0. When both bounds resolve but are not
// both literals, the size computation (hi - lo) is emitted as a real SAssign
// into the allocator's prelude, ahead of the SAlloc that needs it.
func idxSetSizeOperand(alloc *Allocator, env map[core.Name]Dest, idxTy core.Atom) IOperand {
	if idxTy.Kind != core.AtomTC || len(idxTy.TCAtom.Elts) != 2 {
		return LitOperand(core.LitVal{Base: core.BaseInt64, I64: 0})
	}
	switch idxTy.TCAtom.TC {
	case core.TCIntRange, core.TCIndexRange:
		lo, loOK := resolveBoundOperand(env, idxTy.TCAtom.Elts[0])
		hi, hiOK := resolveBoundOperand(env, idxTy.TCAtom.Elts[1])
		if !loOK || !hiOK {
			return LitOperand(core.LitVal{Base: core.BaseInt64, I64: 0})
		}
		if loLit, ok := isLitAtom(lo); ok {
			if hiLit, ok2 := isLitAtom(hi); ok2 {
				return LitOperand(core.LitVal{Base: core.BaseInt64, I64: hiLit - loLit})
			}
		}
		result := alloc.freshIVar()
		alloc.emit(ImpStmt{Kind: SAssign, Dest: result, Rhs: IExpr{Kind: IBinOp, BinOp: core.BinSub, Operands: []IOperand{hi, lo}}})
		return VarOperand(result)
	default:
		return LitOperand(core.LitVal{Base: core.BaseInt64, I64: 0})
	}
}

// resolveBoundOperand turns one IntRange/IndexRange bound atom into an
// IOperand: a literal bound lowers directly, and a variable bound resolves
// through env to whatever scalar Dest it was already given (a previously
// lowered parameter or let-binding). A bound this function can't resolve
// (not yet in scope, or not scalar) reports false rather than minting a
// dangling reference to it.
func resolveBoundOperand(env map[core.Name]Dest, a core.Atom) (IOperand, bool) {
	switch a.Kind {
	case core.AtomCon:
		if a.ConAtom.Con == core.ConLit {
			return LitOperand(a.ConAtom.Lit), true
		}
	case core.AtomVar:
		d, ok := env[a.VarName]
		if !ok {
			return IOperand{}, false
		}
		switch d.Kind {
		case DestBaseType:
			return VarOperand(d.Var), true
		case DestConst:
			return LitOperand(d.Const), true
		}
	}
	return IOperand{}, false
}

func isLitAtom(op IOperand) (int64, bool) {
	if op.IsLit {
		return op.Lit.I64, true
	}
	return 0, false
}

func staticCount(op IOperand) (int, bool) {
	if !op.IsLit {
		return 0, false
	}
	n, err := safecast.Conv[int](op.Lit.I64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Allocator mints fresh Imp-level variables and records the allocations it
// performs as a prefix of SAlloc statements, the way Imp lowering builds up
// one ImpFunction's body incrementally.
type Allocator struct {
	nextVar int
	nextPtr int
	prelude []ImpStmt

	// refEffect records, for a ref cell's backing IVar, which effect it was
	// scoped under (§4.5.4): a Writer ref's tell combines into the running
	// accumulator, a State ref's tell replaces it outright.
	refEffect map[IVar]core.EffectName
}

func NewAllocator() *Allocator { return &Allocator{refEffect: map[IVar]core.EffectName{}} }

func (a *Allocator) freshIVar() IVar {
	v := IVar{ID: a.nextVar}
	a.nextVar++
	return v
}

func (a *Allocator) freshPtrVar() PtrVar {
	p := PtrVar{ID: a.nextPtr}
	a.nextPtr++
	return p
}

func (a *Allocator) emitAlloc(eltTy core.BaseType, count IOperand, onHeap bool) PtrVar {
	p := a.freshPtrVar()
	alloc := Alloc{Dest: p, EltType: eltTy, Count: count, OnHeap: onHeap}
	if n, ok := staticCount(count); ok {
		alloc.CountKnown = true
		alloc.StaticCount = n
	}
	a.prelude = append(a.prelude, ImpStmt{Kind: SAlloc, AllocOf: alloc})
	return p
}

func (a *Allocator) emit(stmt ImpStmt) { a.prelude = append(a.prelude, stmt) }

func (a *Allocator) Prelude() []ImpStmt { return a.prelude }
