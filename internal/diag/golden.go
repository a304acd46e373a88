package diag

import (
	"fmt"
	"sort"
	"strings"

	"corec/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Kind     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGolden renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden test files: sorted by (path, line,
// column, severity, kind), independent of emission order.
func FormatGolden(diags []Diagnostic, fs *source.FileSet) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for _, d := range diags {
		g := goldenDiagnostic{
			Severity: d.Severity.String(),
			Kind:     d.Kind.String(),
			Message:  d.Message,
		}
		if d.Pos != nil && fs != nil {
			f := fs.Get(d.Pos.File)
			start, _ := fs.Resolve(*d.Pos)
			g.Path = f.Path
			g.Line = start.Line
			g.Column = start.Col
		}
		rendered = append(rendered, g)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		a, b := rendered[i], rendered[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		return a.Kind < b.Kind
	})

	var b strings.Builder
	for _, g := range rendered {
		if g.Path == "" {
			fmt.Fprintf(&b, "%s %s: %s\n", g.Severity, g.Kind, g.Message)
			continue
		}
		fmt.Fprintf(&b, "%s %s %s:%d:%d: %s\n", g.Severity, g.Kind, g.Path, g.Line, g.Column, g.Message)
	}
	return b.String()
}
