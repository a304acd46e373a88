package observ

import (
	"errors"
	"testing"
)

func TestTimerBasic(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("simplify-1")
	tm.End(idx, "")
	r := tm.Report()
	if len(r.Phases) != 1 || r.Phases[0].Name != "simplify-1" {
		t.Fatalf("Report() = %+v", r)
	}
}

func TestTimerTimeCapturesError(t *testing.T) {
	tm := NewTimer()
	err := tm.Time("lower", func() error { return errors.New("boom") })
	if err == nil {
		t.Fatal("expected error to propagate")
	}
	r := tm.Report()
	if r.Phases[0].Note != "boom" {
		t.Fatalf("Note = %q, want %q", r.Phases[0].Note, "boom")
	}
}

func TestTimerEndIgnoresBadIndex(t *testing.T) {
	tm := NewTimer()
	tm.End(5, "ignored") // must not panic
	if len(tm.phases) != 0 {
		t.Fatalf("unexpected phase recorded")
	}
}
