// Package interp is a reference interpreter for the Imp IR (corec/internal/imp),
// used by the corec CLI's run subcommand and by tests that want to check a
// lowered function's actual behavior rather than just its shape. It is not a
// backend: a real target (§6) compiles Imp to machine code, while this
// package just walks the statement list, simulating a parallel For lowered
// under the multicore launch convention with golang.org/x/sync/errgroup the
// way the teacher's driver.TokenizeDir/ParseDir simulate a parallel file
// batch, but sequential otherwise.
package interp

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"corec/internal/core"
	"corec/internal/imp"
)

// Value is a dynamically base-typed scalar: every Imp-level value is one of
// these, tagged by the BaseType the lowering assigned it.
type Value struct {
	Base core.BaseType
	I64  int64
	F64  float64
}

func intVal(base core.BaseType, v int64) Value   { return Value{Base: base, I64: v} }
func floatVal(base core.BaseType, v float64) Value { return Value{Base: base, F64: v} }

func isFloat(base core.BaseType) bool {
	return base == core.BaseFloat64 || base == core.BaseFloat32
}

func (v Value) asFloat() float64 {
	if isFloat(v.Base) {
		return v.F64
	}
	return float64(v.I64)
}

func (v Value) asInt() int64 {
	if isFloat(v.Base) {
		return int64(v.F64)
	}
	return v.I64
}

func fromLit(lit core.LitVal) Value {
	if isFloat(lit.Base) {
		return Value{Base: lit.Base, F64: lit.F64}
	}
	return Value{Base: lit.Base, I64: lit.I64}
}

// Memory holds every heap/stack allocation made during one function's
// execution, keyed by the PtrVar the lowering minted for it.
type Memory struct {
	arrays map[imp.PtrVar][]Value
}

func newMemory() *Memory { return &Memory{arrays: map[imp.PtrVar][]Value{}} }

// Frame is one function activation: the scalar variable bindings plus the
// shared Memory for pointer-typed variables.
type Frame struct {
	vars map[imp.IVar]Value
	mem  *Memory
}

func newFrame(mem *Memory) *Frame {
	return &Frame{vars: map[imp.IVar]Value{}, mem: mem}
}

// Run executes fn with the given parameter values (in Param order, matching
// the flattened scalar/pointer shape LowerFunction produced) and returns the
// flat result values in Results order.
func Run(ctx context.Context, fn imp.ImpFunction, args []Value) ([]Value, error) {
	if len(args) != len(fn.Params) {
		return nil, fmt.Errorf("interp: %s expects %d argument(s), got %d", fn.Name, len(fn.Params), len(args))
	}
	// Table-typed (pointer) parameters start out empty: Value is scalar-only,
	// so feeding table data in as an argument isn't supported yet, only
	// tables a function allocates and fills itself.
	mem := newMemory()
	frame := newFrame(mem)
	for i, p := range fn.Params {
		if p.IsPtr {
			mem.arrays[p.Ptr] = nil
			continue
		}
		frame.vars[p.Var] = args[i]
	}
	if err := execStmts(ctx, frame, fn.Body); err != nil {
		return nil, err
	}
	out := make([]Value, len(fn.Results))
	for i, r := range fn.Results {
		out[i] = frame.vars[r]
	}
	return out, nil
}

func execStmts(ctx context.Context, f *Frame, stmts []imp.ImpStmt) error {
	for _, stmt := range stmts {
		if err := execStmt(ctx, f, stmt); err != nil {
			return err
		}
	}
	return nil
}

func execStmt(ctx context.Context, f *Frame, stmt imp.ImpStmt) error {
	switch stmt.Kind {
	case imp.SAssign:
		v, err := evalExpr(f, stmt.Rhs)
		if err != nil {
			return err
		}
		f.vars[stmt.Dest] = v
	case imp.SStore:
		idx := 0
		if stmt.Rhs.Kind == imp.IOffset {
			i, err := evalOperand(f, stmt.Rhs.Index)
			if err != nil {
				return err
			}
			idx = int(i.asInt())
		}
		val, err := evalOperand(f, stmt.Value)
		if err != nil {
			return err
		}
		arr := f.mem.arrays[stmt.Ptr]
		for len(arr) <= idx {
			arr = append(arr, Value{})
		}
		arr[idx] = val
		f.mem.arrays[stmt.Ptr] = arr
	case imp.SAlloc:
		count := stmt.AllocOf.StaticCount
		if !stmt.AllocOf.CountKnown {
			v, err := evalOperand(f, stmt.AllocOf.Count)
			if err != nil {
				return err
			}
			count = int(v.asInt())
		}
		f.mem.arrays[stmt.AllocOf.Dest] = make([]Value, count)
	case imp.SFree:
		delete(f.mem.arrays, stmt.Ptr)
	case imp.SLoop:
		return execLoop(ctx, f, stmt.Loop)
	case imp.SSwitch:
		return execSwitch(ctx, f, stmt.Switch)
	case imp.SKernelLaunch:
		return execKernel(ctx, f, stmt.Kernel)
	default:
		return fmt.Errorf("interp: unhandled statement kind %v", stmt.Kind)
	}
	return nil
}

func execLoop(ctx context.Context, f *Frame, loop *imp.Loop) error {
	count, err := evalOperand(f, loop.Count)
	if err != nil {
		return err
	}
	n := int(count.asInt())
	for i := 0; i < n; i++ {
		iterFrame := &Frame{vars: cloneVars(f.vars), mem: f.mem}
		iterFrame.vars[loop.IdxVar] = intVal(core.BaseInt64, int64(i))
		if err := execStmts(ctx, iterFrame, loop.Body); err != nil {
			return err
		}
		mergeVars(f.vars, iterFrame.vars)
	}
	return nil
}

func execSwitch(ctx context.Context, f *Frame, sw *imp.Switch) error {
	tag, err := evalOperand(f, sw.Tag)
	if err != nil {
		return err
	}
	for _, c := range sw.Cases {
		if int64(c.Tag) == tag.asInt() {
			return execStmts(ctx, f, c.Body)
		}
	}
	return fmt.Errorf("interp: no switch case matches tag %d", tag.asInt())
}

// execKernel runs a KernelLaunch's per-index kernel function concurrently
// with golang.org/x/sync/errgroup, one goroutine per index bounded by
// GOMAXPROCS, the same shape as the teacher's parallel directory walk: each
// index writes to its own slot so no further synchronization is needed.
func execKernel(ctx context.Context, f *Frame, kl *imp.KernelLaunch) error {
	count, err := evalOperand(f, kl.Count)
	if err != nil {
		return err
	}
	n := int(count.asInt())
	if n == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), n))

	for i := 0; i < n; i++ {
		g.Go(func(i int) func() error {
			return func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				args := make([]Value, len(kl.Kernel.Params))
				if len(args) > 0 {
					args[0] = intVal(core.BaseInt64, int64(i))
				}
				_, err := Run(gctx, *kl.Kernel, args)
				return err
			}
		}(i))
	}
	return g.Wait()
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func cloneVars(vars map[imp.IVar]Value) map[imp.IVar]Value {
	out := make(map[imp.IVar]Value, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}

// mergeVars copies every binding iterVars introduced or changed back into
// dst, so a loop's trailing reads of, e.g., an unpacked field see the last
// iteration's values the way a sequential Imp loop would.
func mergeVars(dst, iterVars map[imp.IVar]Value) {
	for k, v := range iterVars {
		dst[k] = v
	}
}

func evalOperand(f *Frame, op imp.IOperand) (Value, error) {
	if op.IsLit {
		return fromLit(op.Lit), nil
	}
	v, ok := f.vars[op.Var]
	if !ok {
		return Value{}, fmt.Errorf("interp: read of unbound variable %v", op.Var)
	}
	return v, nil
}

func evalExpr(f *Frame, e imp.IExpr) (Value, error) {
	switch e.Kind {
	case imp.IVal:
		return fromLit(e.Lit), nil
	case imp.IBinOp:
		return evalBinOp(f, e)
	case imp.IUnOp:
		return evalUnOp(f, e)
	case imp.ICmp:
		return evalCmp(f, e)
	case imp.ICast:
		return evalCast(f, e)
	case imp.ILoad, imp.IIndex, imp.IOffset:
		return evalLoad(f, e)
	case imp.ICall:
		return Value{}, fmt.Errorf("interp: FFI calls are not supported by the reference interpreter")
	default:
		return Value{}, fmt.Errorf("interp: unhandled expression kind %v", e.Kind)
	}
}

func evalBinOp(f *Frame, e imp.IExpr) (Value, error) {
	a, err := evalOperand(f, e.Operands[0])
	if err != nil {
		return Value{}, err
	}
	b, err := evalOperand(f, e.Operands[1])
	if err != nil {
		return Value{}, err
	}
	base := a.Base
	if isFloat(base) {
		af, bf := a.asFloat(), b.asFloat()
		switch e.BinOp {
		case core.BinAdd:
			return floatVal(base, af+bf), nil
		case core.BinSub:
			return floatVal(base, af-bf), nil
		case core.BinMul:
			return floatVal(base, af*bf), nil
		case core.BinDiv:
			return floatVal(base, af/bf), nil
		case core.BinPow:
			return floatVal(base, math.Pow(af, bf)), nil
		case core.BinRem:
			return floatVal(base, math.Mod(af, bf)), nil
		default:
			return Value{}, fmt.Errorf("interp: bin op %v is not defined over floats", e.BinOp)
		}
	}
	ai, bi := a.asInt(), b.asInt()
	switch e.BinOp {
	case core.BinAdd:
		return intVal(base, ai+bi), nil
	case core.BinSub:
		return intVal(base, ai-bi), nil
	case core.BinMul:
		return intVal(base, ai*bi), nil
	case core.BinDiv:
		return intVal(base, ai/bi), nil
	case core.BinRem:
		return intVal(base, ai%bi), nil
	case core.BinAnd:
		return intVal(base, ai&bi), nil
	case core.BinOr:
		return intVal(base, ai|bi), nil
	case core.BinXor:
		return intVal(base, ai^bi), nil
	case core.BinShL:
		return intVal(base, ai<<uint(bi)), nil
	case core.BinShR:
		return intVal(base, ai>>uint(bi)), nil
	case core.BinPow:
		return intVal(base, int64(math.Pow(float64(ai), float64(bi)))), nil
	default:
		return Value{}, fmt.Errorf("interp: unhandled bin op %v", e.BinOp)
	}
}

func evalUnOp(f *Frame, e imp.IExpr) (Value, error) {
	a, err := evalOperand(f, e.Operands[0])
	if err != nil {
		return Value{}, err
	}
	if a.Base == core.BaseWord8 && e.UnOp == core.UnNot {
		if a.I64 == 0 {
			return intVal(core.BaseWord8, 1), nil
		}
		return intVal(core.BaseWord8, 0), nil
	}
	if isFloat(a.Base) {
		v := a.asFloat()
		switch e.UnOp {
		case core.UnNeg:
			return floatVal(a.Base, -v), nil
		case core.UnExp:
			return floatVal(a.Base, math.Exp(v)), nil
		case core.UnLog:
			return floatVal(a.Base, math.Log(v)), nil
		case core.UnSqrt:
			return floatVal(a.Base, math.Sqrt(v)), nil
		case core.UnSin:
			return floatVal(a.Base, math.Sin(v)), nil
		case core.UnCos:
			return floatVal(a.Base, math.Cos(v)), nil
		case core.UnTan:
			return floatVal(a.Base, math.Tan(v)), nil
		case core.UnFloor:
			return floatVal(a.Base, math.Floor(v)), nil
		case core.UnCeil:
			return floatVal(a.Base, math.Ceil(v)), nil
		case core.UnRound:
			return floatVal(a.Base, math.Round(v)), nil
		default:
			return Value{}, fmt.Errorf("interp: un op %v is not defined over floats", e.UnOp)
		}
	}
	switch e.UnOp {
	case core.UnNeg:
		return intVal(a.Base, -a.I64), nil
	default:
		return Value{}, fmt.Errorf("interp: unhandled un op %v", e.UnOp)
	}
}

func evalCmp(f *Frame, e imp.IExpr) (Value, error) {
	a, err := evalOperand(f, e.Operands[0])
	if err != nil {
		return Value{}, err
	}
	b, err := evalOperand(f, e.Operands[1])
	if err != nil {
		return Value{}, err
	}
	var cmp int
	if isFloat(a.Base) || isFloat(b.Base) {
		af, bf := a.asFloat(), b.asFloat()
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		}
	} else {
		ai, bi := a.asInt(), b.asInt()
		switch {
		case ai < bi:
			cmp = -1
		case ai > bi:
			cmp = 1
		}
	}
	var result bool
	switch e.Pred {
	case core.CmpEQ:
		result = cmp == 0
	case core.CmpNE:
		result = cmp != 0
	case core.CmpLT:
		result = cmp < 0
	case core.CmpLE:
		result = cmp <= 0
	case core.CmpGT:
		result = cmp > 0
	case core.CmpGE:
		result = cmp >= 0
	}
	if result {
		return intVal(core.BaseWord8, 1), nil
	}
	return intVal(core.BaseWord8, 0), nil
}

func evalCast(f *Frame, e imp.IExpr) (Value, error) {
	a, err := evalOperand(f, e.Operands[0])
	if err != nil {
		return Value{}, err
	}
	return a, nil
}

func evalLoad(f *Frame, e imp.IExpr) (Value, error) {
	idx, err := evalOperand(f, e.Index)
	if err != nil {
		return Value{}, err
	}
	arr := f.mem.arrays[e.Ptr]
	i := int(idx.asInt())
	if i < 0 || i >= len(arr) {
		return Value{}, fmt.Errorf("interp: index %d out of range for pointer %v", i, e.Ptr)
	}
	return arr[i], nil
}
