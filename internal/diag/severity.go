package diag

// Severity ranks how serious a Diagnostic is.
type Severity uint8

const (
	// SevInfo is for informational diagnostics (pass timings, notes).
	SevInfo Severity = iota
	// SevWarning is for non-fatal diagnostics.
	SevWarning
	// SevError aborts the current command (§7: no local retry).
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
