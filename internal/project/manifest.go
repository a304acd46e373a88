// Package project reads the corec.toml manifest for one compilation run:
// which backend/device pair to target, a stack allocation limit, and a
// diagnostics limit. Validate checks that stack_alloc_limit is positive, but
// Imp lowering does not read it; lowering always uses the fixed
// imp.StackAllocThreshold. Grounded in the teacher's
// toml-based module manifest (github.com/BurntSushi/toml), trimmed of its
// module-resolution/dependency-graph concerns since this spec has no
// multi-module import system (§6 deliberately excludes one).
package project

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"corec/internal/imp"
	"corec/internal/target"
)

// Manifest is the decoded contents of a corec.toml file.
type Manifest struct {
	Backend         string `toml:"backend"`
	Device          string `toml:"device"`
	StackAllocLimit int    `toml:"stack_alloc_limit"`
	MaxDiagnostics  int    `toml:"max_diagnostics"`
	Deterministic   bool   `toml:"deterministic"`
}

// Default returns the manifest used when no corec.toml is present.
func Default() Manifest {
	return Manifest{
		Backend:         string(target.Interp),
		Device:          string(target.CPU),
		StackAllocLimit: imp.StackAllocThreshold,
		MaxDiagnostics:  20,
		Deterministic:   true,
	}
}

// Load reads and decodes path, falling back to Default if path doesn't
// exist.
func Load(path string) (Manifest, error) {
	m := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return m, nil
	}
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return m, nil
}

// Validate checks the manifest's backend/device pair is well-formed and
// mutually compatible (§6).
func (m Manifest) Validate() error {
	b := target.Backend(m.Backend)
	d := target.Device(m.Device)
	if !b.Valid() {
		return fmt.Errorf("unknown backend %q", m.Backend)
	}
	if !d.Valid() {
		return fmt.Errorf("unknown device %q", m.Device)
	}
	if !target.Compatible(b, d) {
		return fmt.Errorf("backend %q is not compatible with device %q", m.Backend, m.Device)
	}
	if m.StackAllocLimit <= 0 {
		return fmt.Errorf("stack_alloc_limit must be positive, got %d", m.StackAllocLimit)
	}
	return nil
}

// TargetBackend returns the manifest's backend as a target.Backend.
func (m Manifest) TargetBackend() target.Backend { return target.Backend(m.Backend) }

// TargetDevice returns the manifest's device as a target.Device.
func (m Manifest) TargetDevice() target.Device { return target.Device(m.Device) }
