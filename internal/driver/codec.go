package driver

import (
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeSourceBlockFile msgpack-encodes block to path, the wire format a
// pre-elaboration front end (out of scope, §6) hands this repository's
// pipeline.
func EncodeSourceBlockFile(path string, block SourceBlock) error {
	raw, err := msgpack.Marshal(&block)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// DecodeSourceBlockFile reads and decodes a SourceBlock previously written
// by EncodeSourceBlockFile.
func DecodeSourceBlockFile(path string) (SourceBlock, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return SourceBlock{}, err
	}
	var block SourceBlock
	if err := msgpack.Unmarshal(raw, &block); err != nil {
		return SourceBlock{}, err
	}
	return block, nil
}
