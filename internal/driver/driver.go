// Package driver implements the external interface of §6: a SourceBlock in,
// an Output/Result/Err out, plus the persistent top-level environment cache
// that lets a REPL-like caller re-embed a previously compiled definition
// without re-running the whole pipeline.
package driver

import (
	"corec/internal/core"
	"corec/internal/diag"
	"corec/internal/imp"
)

// SourceBlock is one unit of input: a named top-level definition plus its
// already-elaborated core.Block body and parameter list. Parsing concrete
// syntax into this shape is out of scope (§6); callers hand it a
// pre-elaborated SourceBlock directly.
type SourceBlock struct {
	Name     string
	Params   []core.Binder
	ResultTy core.Atom
	Body     *core.Block
}

// Output is everything one SourceBlock compiles to: the lowered Imp
// function, its result-reconstruction metadata, and any diagnostics raised
// along the way.
type Output struct {
	Function    imp.ImpFunction
	Recon       []imp.AtomRecon
	Diagnostics []diag.Diagnostic
}

// Result wraps Output with the originating SourceBlock, letting a caller
// correlate a batch of results back to their inputs.
type Result struct {
	Block  SourceBlock
	Output Output
	Err    *Err
}

// Err reports a SourceBlock that failed to compile, carrying the full
// diagnostic bag rather than a single error so a caller can render every
// problem found, not just the first.
type Err struct {
	Block       string
	Diagnostics []diag.Diagnostic
}

func (e *Err) Error() string {
	if len(e.Diagnostics) == 0 {
		return "compilation failed: " + e.Block
	}
	return e.Block + ": " + e.Diagnostics[0].Message
}
