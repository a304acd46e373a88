package pipeline

import (
	"context"
	"testing"

	"corec/internal/core"
	"corec/internal/driver"
)

func TestRunForwardOnly(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	i64 := core.BaseTypeAtom(core.BaseInt64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinAdd, ResultTy: &i64, Atoms: []core.Atom{core.VarAtom(x), core.Lit(core.LitVal{Base: core.BaseInt64, I64: 1})}}
	block := core.NewBlock(nil, core.OpE(op))

	req := Request{
		Function: "f",
		Block: driver.SourceBlock{
			Name:     "f",
			Params:   []core.Binder{{Name: x, Ann: &i64}},
			ResultTy: i64,
			Body:     block,
		},
	}

	var events []Event
	sink := sinkFunc(func(e Event) { events = append(events, e) })

	result, err := Run(context.Background(), req, sink)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Output.Function.Results) == 0 {
		t.Fatalf("expected a lowered function with results")
	}
	if len(result.Timings.Phases) == 0 {
		t.Fatalf("expected stage timings to be recorded")
	}
	sawLower := false
	for _, e := range events {
		if e.Stage == StageLower && e.Status == StatusDone {
			sawLower = true
		}
	}
	if !sawLower {
		t.Fatalf("expected a StageLower/StatusDone event, got %+v", events)
	}
}

func TestRunWithDiffWrt(t *testing.T) {
	x := core.NewName(core.OriginFree, "x", 0)
	f64Ty := core.BaseTypeAtom(core.BaseFloat64)
	op := core.Op{Kind: core.OpScalarBinOp, BinOpKind: core.BinMul, ResultTy: &f64Ty, Atoms: []core.Atom{core.VarAtom(x), core.VarAtom(x)}}
	block := core.NewBlock(nil, core.OpE(op))

	req := Request{
		Function: "sq",
		Block: driver.SourceBlock{
			Name:     "sq",
			Params:   []core.Binder{{Name: x, Ann: &f64Ty}},
			ResultTy: f64Ty,
			Body:     block,
		},
		DiffWrt: &x,
	}

	_, err := Run(context.Background(), req, nil)
	if err != nil {
		t.Fatalf("Run with DiffWrt failed: %v", err)
	}
}

type sinkFunc func(Event)

func (f sinkFunc) OnEvent(e Event) { f(e) }
