package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"corec/internal/source"
)

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan)
	dimColor  = color.New(color.Faint)
)

func severityColor(s Severity) *color.Color {
	switch s {
	case SevError:
		return errColor
	case SevWarning:
		return warnColor
	default:
		return infoColor
	}
}

// Render prints a single diagnostic to w in the CLI's human-readable form:
//
//	ERROR[CompilerErr] path:line:col: message
//	  <source line>
//	  ^ (under the span's start column)
//	  note: secondary message
//
// fs may be nil (the diagnostic has no resolvable position, or came from a
// context without a FileSet); in that case only the message is printed.
func Render(w io.Writer, d Diagnostic, fs *source.FileSet) {
	sc := severityColor(d.Severity)
	header := fmt.Sprintf("%s[%s]", d.Severity, d.Kind)
	fmt.Fprintf(w, "%s ", sc.Sprint(header))

	if d.Pos != nil && fs != nil {
		f := fs.Get(d.Pos.File)
		start, _ := fs.Resolve(*d.Pos)
		fmt.Fprintf(w, "%s:%d:%d: %s\n", f.Path, start.Line, start.Col, d.Message)
		renderCaret(w, f, *d.Pos, start)
	} else {
		fmt.Fprintf(w, "%s\n", d.Message)
	}

	for _, n := range d.Notes {
		fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("note:"), n.Msg)
	}
}

// renderCaret prints the offending source line followed by a caret line,
// aligning the caret under the span's start column even when the line
// contains wide or combining runes (e.g. the language's Unicode operator
// names, λ and ∂).
func renderCaret(w io.Writer, f *source.File, span source.Span, start source.LineCol) {
	if f == nil {
		return
	}
	line := f.GetLine(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	col := int(start.Col)
	if col < 1 {
		col = 1
	}
	prefixRunes := []rune(line)
	if col-1 > len(prefixRunes) {
		col = len(prefixRunes) + 1
	}
	prefix := string(prefixRunes[:col-1])
	pad := runewidth.StringWidth(prefix)
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), dimColor.Sprint("^"))
}
