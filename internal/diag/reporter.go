package diag

import "corec/internal/source"

// Reporter is the minimal contract passes use to hand diagnostics upward
// without depending on where they're ultimately stored.
type Reporter interface {
	Report(kind Kind, sev Severity, pos *source.Span, msg string, notes []Note)
}

// ReportBuilder accumulates a diagnostic's details before emitting it once.
type ReportBuilder struct {
	reporter Reporter
	diag     Diagnostic
	emitted  bool
}

// NewReportBuilder starts building a diagnostic bound to r.
func NewReportBuilder(r Reporter, sev Severity, kind Kind, pos *source.Span, msg string) *ReportBuilder {
	return &ReportBuilder{
		reporter: r,
		diag: Diagnostic{
			Kind:     kind,
			Severity: sev,
			Message:  msg,
			Pos:      pos,
		},
	}
}

// ReportErr is a shortcut for SevError diagnostics.
func ReportErr(r Reporter, kind Kind, pos *source.Span, msg string) *ReportBuilder {
	return NewReportBuilder(r, SevError, kind, pos, msg)
}

// WithNote appends a note to the diagnostic under construction.
func (b *ReportBuilder) WithNote(sp source.Span, msg string) *ReportBuilder {
	if b == nil {
		return nil
	}
	b.diag.Notes = append(b.diag.Notes, Note{Span: sp, Msg: msg})
	return b
}

// Emit sends the diagnostic to the underlying Reporter exactly once.
func (b *ReportBuilder) Emit() {
	if b == nil || b.emitted {
		return
	}
	if b.reporter != nil {
		b.reporter.Report(b.diag.Kind, b.diag.Severity, b.diag.Pos, b.diag.Message, b.diag.Notes)
	}
	b.emitted = true
}

// Diagnostic returns the accumulated diagnostic without emitting it.
func (b *ReportBuilder) Diagnostic() Diagnostic {
	if b == nil {
		return Diagnostic{}
	}
	return b.diag
}

// BagReporter adapts a *Bag to the Reporter interface.
type BagReporter struct{ Bag *Bag }

func (r BagReporter) Report(kind Kind, sev Severity, pos *source.Span, msg string, notes []Note) {
	if r.Bag == nil {
		return
	}
	r.Bag.Add(Diagnostic{Kind: kind, Severity: sev, Message: msg, Pos: pos, Notes: notes})
}
