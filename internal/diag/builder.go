package diag

import "corec/internal/source"

// New builds a Diagnostic with the Kind's default severity.
func New(kind Kind, pos *source.Span, msg string) Diagnostic {
	return Diagnostic{
		Kind:     kind,
		Severity: kind.DefaultSeverity(),
		Message:  msg,
		Pos:      pos,
	}
}

// Compiler builds a CompilerErr — a bug, per §7 never expected to reach a user.
func Compiler(pos *source.Span, msg string) Diagnostic {
	return New(CompilerErr, pos, msg)
}

// NotImplemented builds a NotImplementedErr naming the offending type or
// construct, per §4.4.3 ("differentiating a non-differentiable type").
func NotImplemented(pos *source.Span, what string) Diagnostic {
	return New(NotImplementedErr, pos, "not implemented: "+what)
}

// Linearity builds a LinErr describing the offending pattern (§4.4.3).
func Linearity(pos *source.Span, pattern string) Diagnostic {
	return New(LinErr, pos, "linearity violation: "+pattern)
}

// Unbound builds an UnboundVarErr for a free variable with no binding.
func Unbound(pos *source.Span, name string) Diagnostic {
	return New(UnboundVarErr, pos, "unbound variable: "+name)
}

// WithNote appends a secondary note and returns the updated Diagnostic.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}
