package source

import "testing"

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 10}
	b := Span{File: 1, Start: 2, End: 6}
	got := a.Cover(b)
	if got.Start != 2 || got.End != 10 {
		t.Fatalf("Cover = %+v", got)
	}

	other := Span{File: 2, Start: 0, End: 1}
	if got := a.Cover(other); got != a {
		t.Fatalf("Cover across files must be a no-op, got %+v", got)
	}
}

func TestSpanShift(t *testing.T) {
	s := Span{File: 1, Start: 10, End: 20}
	if got := s.ShiftRight(5); got.Start != 15 || got.End != 25 {
		t.Fatalf("ShiftRight = %+v", got)
	}
	if got := s.ShiftLeft(5); got.Start != 5 || got.End != 15 {
		t.Fatalf("ShiftLeft = %+v", got)
	}
}

func TestSpanEmptyLen(t *testing.T) {
	s := Span{File: 1, Start: 3, End: 3}
	if !s.Empty() || s.Len() != 0 {
		t.Fatalf("expected empty zero-length span, got %+v", s)
	}
}
