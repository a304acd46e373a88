package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// diskCacheSchemaVersion is bumped whenever DiskPayload's shape changes, so
// a cache written by an older binary is discarded rather than
// misinterpreted (mirrors the teacher driver's DiskCache schema-versioning).
const diskCacheSchemaVersion = 1

// DiskPayload is what gets msgpack-encoded to disk for one cached
// top-level definition: its lowered function plus the reconstruction
// metadata needed to present results back in core.Atom shape, keyed by a
// hash of the definition's own source text (so an unrelated edit elsewhere
// in a project never invalidates an unrelated entry).
type DiskPayload struct {
	SchemaVersion   int
	Name            string
	FunctionMsgpack []byte
	ReconMsgpack    []byte
}

// DiskCache is a thread-safe, persistent cache of compiled top-level
// definitions, keyed by content hash. Entries are flushed to baseDir as
// individual msgpack files rather than one monolithic index, so a crash
// mid-write only loses the one entry being written.
type DiskCache struct {
	mu      sync.RWMutex
	baseDir string
	entries map[string]DiskPayload
}

// NewDiskCache opens (or creates) a cache rooted at baseDir.
func NewDiskCache(baseDir string) (*DiskCache, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir %s: %w", baseDir, err)
	}
	return &DiskCache{baseDir: baseDir, entries: map[string]DiskPayload{}}, nil
}

// HashSource derives the cache key for a definition's source text.
func HashSource(name, source string) string {
	sum := sha256.Sum256([]byte(name + "\x00" + source))
	return hex.EncodeToString(sum[:])
}

func (c *DiskCache) path(key string) string {
	return filepath.Join(c.baseDir, key+".corecache")
}

// Get looks up key, first in the in-memory map, then on disk.
func (c *DiskCache) Get(key string) (DiskPayload, bool) {
	c.mu.RLock()
	if p, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return p, true
	}
	c.mu.RUnlock()

	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return DiskPayload{}, false
	}
	var payload DiskPayload
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return DiskPayload{}, false
	}
	if payload.SchemaVersion != diskCacheSchemaVersion {
		return DiskPayload{}, false
	}
	c.mu.Lock()
	c.entries[key] = payload
	c.mu.Unlock()
	return payload, true
}

// Put stores payload under key, both in memory and on disk.
func (c *DiskCache) Put(key string, payload DiskPayload) error {
	payload.SchemaVersion = diskCacheSchemaVersion
	raw, err := msgpack.Marshal(&payload)
	if err != nil {
		return fmt.Errorf("marshaling cache entry %s: %w", key, err)
	}
	c.mu.Lock()
	c.entries[key] = payload
	c.mu.Unlock()
	tmp := c.path(key) + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", key, err)
	}
	return os.Rename(tmp, c.path(key))
}

// EncodeFunction msgpack-encodes an ImpFunction/AtomRecon handoff bundle for
// storage in a DiskPayload — the same wire format used to pass the bundle
// to a downstream codegen process over a pipe, per §6.
func EncodeFunction(fn interface{}, recon interface{}) ([]byte, []byte, error) {
	fnBytes, err := msgpack.Marshal(fn)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling function: %w", err)
	}
	reconBytes, err := msgpack.Marshal(recon)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling recon metadata: %w", err)
	}
	return fnBytes, reconBytes, nil
}
