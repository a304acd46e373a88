package driver

import (
	"testing"
)

func TestDiskCachePutGet(t *testing.T) {
	dir := t.TempDir()
	c, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	key := HashSource("f", "def f(x) = x + 1")
	payload := DiskPayload{Name: "f", FunctionMsgpack: []byte("fn-bytes"), ReconMsgpack: []byte("recon-bytes")}
	if err := c.Put(key, payload); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := c.Get(key)
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if got.Name != "f" || string(got.FunctionMsgpack) != "fn-bytes" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestDiskCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	key := HashSource("g", "def g() = 1")
	c1, _ := NewDiskCache(dir)
	_ = c1.Put(key, DiskPayload{Name: "g"})

	c2, err := NewDiskCache(dir)
	if err != nil {
		t.Fatalf("reopening cache failed: %v", err)
	}
	got, ok := c2.Get(key)
	if !ok || got.Name != "g" {
		t.Fatalf("expected entry to survive reopen, got %+v ok=%v", got, ok)
	}
}

func TestDiskCacheMiss(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewDiskCache(dir)
	if _, ok := c.Get("nonexistent-key"); ok {
		t.Fatalf("expected a cache miss for an unknown key")
	}
}
