package project

import "testing"

func TestDefaultManifestValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default manifest should validate, got %v", err)
	}
}

func TestValidateRejectsIncompatibleDevice(t *testing.T) {
	m := Default()
	m.Backend = "llvm-cuda"
	m.Device = "cpu"
	if err := m.Validate(); err == nil {
		t.Fatalf("expected an error for llvm-cuda on cpu")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	m, err := Load("/nonexistent/corec.toml")
	if err != nil {
		t.Fatalf("Load of a missing manifest should not error, got %v", err)
	}
	if m.Backend != Default().Backend {
		t.Fatalf("expected default backend, got %q", m.Backend)
	}
}
