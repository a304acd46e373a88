package diag

import "testing"

func TestBagAddRespectsCapacity(t *testing.T) {
	b := NewBag(2)
	if !b.Add(New(CompilerErr, nil, "a")) {
		t.Fatal("first add should succeed")
	}
	if !b.Add(New(CompilerErr, nil, "b")) {
		t.Fatal("second add should succeed")
	}
	if b.Add(New(CompilerErr, nil, "c")) {
		t.Fatal("third add should be rejected at capacity")
	}
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}

func TestBagHasErrors(t *testing.T) {
	b := NewBag(4)
	b.Add(New(NoErr, nil, "info"))
	if b.HasErrors() {
		t.Fatal("NoErr diagnostic should not count as an error")
	}
	b.Add(Compiler(nil, "bug"))
	if !b.HasErrors() {
		t.Fatal("CompilerErr diagnostic should count as an error")
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(8)
	b.Add(Unbound(nil, "x"))
	b.Add(Unbound(nil, "x"))
	b.Add(Unbound(nil, "y"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("Len() after Dedup = %d, want 2", b.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	b := NewBag(8)
	rb := ReportErr(BagReporter{Bag: b}, CompilerErr, nil, "boom")
	rb.Emit()
	rb.Emit()
	if b.Len() != 1 {
		t.Fatalf("Emit should be idempotent, Len() = %d", b.Len())
	}
}

func TestDedupReporterForwardsUniqueOnly(t *testing.T) {
	b := NewBag(8)
	r := NewDedupReporter(BagReporter{Bag: b})
	r.Report(LinErr, SevError, nil, "dup", nil)
	r.Report(LinErr, SevError, nil, "dup", nil)
	r.Report(LinErr, SevError, nil, "other", nil)
	if b.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", b.Len())
	}
}
