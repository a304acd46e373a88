package source

import "testing"

func TestFileSetAddAndResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("fixture.dx", []byte("let x = 1\nlet y = 2\n"))

	f := fs.Get(id)
	if f.GetLine(1) != "let x = 1" {
		t.Fatalf("line 1 = %q", f.GetLine(1))
	}
	if f.GetLine(2) != "let y = 2" {
		t.Fatalf("line 2 = %q", f.GetLine(2))
	}
	if f.GetLine(3) != "" {
		t.Fatalf("line 3 should be empty, got %q", f.GetLine(3))
	}

	start, end := fs.Resolve(Span{File: id, Start: 4, End: 5})
	if start.Line != 1 || start.Col != 5 {
		t.Fatalf("start = %+v", start)
	}
	if end.Line != 1 || end.Col != 6 {
		t.Fatalf("end = %+v", end)
	}
}

func TestFileSetCRLFAndBOM(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("crlf.dx", []byte("a\r\nb"), 0)
	f := fs.Get(id)
	if string(f.Content) != "a\r\nb" {
		t.Fatalf("Add should not itself normalize: %q", f.Content)
	}

	normalized, changed := normalizeCRLF([]byte("a\r\nb\r\nc"))
	if !changed || string(normalized) != "a\nb\nc" {
		t.Fatalf("normalizeCRLF = %q, %v", normalized, changed)
	}

	stripped, hadBOM := removeBOM([]byte{0xEF, 0xBB, 0xBF, 'x'})
	if !hadBOM || string(stripped) != "x" {
		t.Fatalf("removeBOM = %q, %v", stripped, hadBOM)
	}
}

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()
	first := fs.Add("m.dx", []byte("v1"), 0)
	second := fs.Add("m.dx", []byte("v2"), 0)
	if first == second {
		t.Fatal("re-adding a path must allocate a new FileID")
	}
	latest, ok := fs.GetByPath("m.dx")
	if !ok || latest.ID != second {
		t.Fatalf("GetByPath should resolve to the latest version, got %+v", latest)
	}
}
