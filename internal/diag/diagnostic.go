package diag

import "corec/internal/source"

// Note attaches secondary context to a Diagnostic, e.g. "bound here" pointing
// at a binder's declaration site.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is the Err value from §6/§7: a Kind, an optional source
// position, and a message, plus whatever secondary Notes help explain it.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Message  string
	// Pos is nil when the Err has no source position (e.g. a CompilerErr
	// raised deep inside the simplifier, far from any surface-syntax span).
	Pos   *source.Span
	Notes []Note
}

// HasPos reports whether the diagnostic carries a source position.
func (d Diagnostic) HasPos() bool {
	return d.Pos != nil
}

// Error satisfies the error interface so a *Diagnostic can be returned
// directly from any func() error, e.g. a pipeline stage's closure.
func (d *Diagnostic) Error() string {
	return "[" + d.Kind.String() + "] " + d.Message
}
