package pipeline

import (
	"context"
	"time"

	"corec/internal/autodiff"
	"corec/internal/core"
	"corec/internal/driver"
	"corec/internal/imp"
	"corec/internal/observ"
	"corec/internal/simplify"
)

// Request is the input to one end-to-end run: the block to compile, plus
// the point (if any) autodiff should differentiate at.
type Request struct {
	Function string
	Block    driver.SourceBlock
	// DiffWrt, when non-nil, additionally runs linearization and
	// transposition with respect to this parameter. Their results are not
	// part of Result: the lowered function is the primal block either way.
	DiffWrt *core.Name
}

// Result is the end-to-end output of one Request: the lowered Imp function
// ready for a backend, plus per-stage timings.
type Result struct {
	Output  driver.Output
	Timings observ.Report
}

// Run executes the pipeline of §4 over req.Block (simplify, then linearize
// and transpose only when req.DiffWrt is set, then simplify2 and lower),
// emitting an Event on sink (if non-nil) at the start and end of each stage
// it runs, and timing each with an observ.Timer.
func Run(ctx context.Context, req Request, sink ProgressSink) (Result, error) {
	if sink == nil {
		sink = NopSink{}
	}
	timer := observ.NewTimer()
	scope := blockScope(req.Block)

	notify := func(stage Stage, status Status, elapsed time.Duration, err error) {
		sink.OnEvent(Event{Function: req.Function, Stage: stage, Status: status, Elapsed: elapsed, Err: err})
	}

	runStage := func(stage Stage, fn func() error) error {
		notify(stage, StatusWorking, 0, nil)
		started := time.Now()
		err := timer.Time(string(stage), fn)
		elapsed := time.Since(started)
		if err != nil {
			notify(stage, StatusError, elapsed, err)
			return err
		}
		notify(stage, StatusDone, elapsed, nil)
		return nil
	}

	block := req.Block.Body
	cfg1 := simplify.PreserveConfig()

	if err := runStage(StageSimplify1, func() error {
		block = simplify.Block(cfg1, scope, block)
		return nil
	}); err != nil {
		return Result{}, err
	}

	var linResult autodiff.LinResult
	if req.DiffWrt != nil {
		var argTy *core.Atom
		for _, p := range req.Block.Params {
			if p.Name == *req.DiffWrt {
				argTy = p.Ann
			}
		}
		if err := runStage(StageLinearize, func() error {
			r, derr := autodiff.LinA(scope, *req.DiffWrt, argTy, block)
			if derr != nil {
				return derr
			}
			linResult = r
			return nil
		}); err != nil {
			return Result{}, err
		}

		if err := runStage(StageTranspose, func() error {
			_, derr := autodiff.Transpose(scope, linResult.TangentFn)
			if derr != nil {
				return derr
			}
			return nil
		}); err != nil {
			return Result{}, err
		}
	}

	cfg2 := simplify.DefaultConfig()
	if err := runStage(StageSimplify2, func() error {
		block = simplify.Block(cfg2, scope, block)
		return nil
	}); err != nil {
		return Result{}, err
	}

	var lowered imp.ImpFunction
	var recon []imp.AtomRecon
	if err := runStage(StageLower, func() error {
		f, r, derr := imp.LowerFunction(req.Function, req.Block.Params, req.Block.ResultTy, block)
		if derr != nil {
			return derr
		}
		lowered, recon = f, r
		return nil
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Output: driver.Output{Function: lowered, Recon: recon},
		Timings: timer.Report(),
	}, nil
}

func blockScope(b driver.SourceBlock) core.Scope {
	ns := core.NameSet{}
	for _, p := range b.Params {
		ns.Add(p.Name)
	}
	return ns
}
