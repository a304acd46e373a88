package diag

import (
	"fmt"

	"corec/internal/source"
)

func posOrZero(p *source.Span) source.Span {
	if p == nil {
		return source.Span{}
	}
	return *p
}

func dedupKeyOf(d Diagnostic) string {
	p := posOrZero(d.Pos)
	return fmt.Sprintf("%d:%s:%s", d.Kind, p.String(), d.Message)
}

// DedupReporter wraps another Reporter and suppresses diagnostics that
// repeat an earlier one's (Kind, Pos, Message) — useful when a single
// malformed term trips the same simplifier rule from several call sites.
type DedupReporter struct {
	next Reporter
	seen map[string]struct{}
}

// NewDedupReporter returns a Reporter that filters duplicates while
// forwarding unique diagnostics to next.
func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[string]struct{})}
}

func (r *DedupReporter) Report(kind Kind, sev Severity, pos *source.Span, msg string, notes []Note) {
	if r == nil {
		return
	}
	key := dedupKeyOf(Diagnostic{Kind: kind, Message: msg, Pos: pos})
	if _, ok := r.seen[key]; ok {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(kind, sev, pos, msg, notes)
	}
}
