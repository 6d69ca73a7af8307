package eeprom

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore is a Store backed by a single file. The whole region is held in
// memory; Commit writes it to a temp file and renames it into place, so a
// power cut mid-commit leaves either the old or the new region, never a
// torn one.
type FileStore struct {
	path string
	mem  []byte
}

// OpenFile opens (or creates) a file-backed region of the given size. A
// missing file yields a zero-filled region, which is the first-boot state.
// An existing file of the wrong size is rejected rather than silently
// truncated or padded.
func OpenFile(path string, size int) (*FileStore, error) {
	if size <= 0 {
		return nil, fmt.Errorf("eeprom: size %d must be positive", size)
	}

	mem := make([]byte, size)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if len(data) != size {
			return nil, fmt.Errorf("eeprom: %s is %d bytes, expected %d", path, len(data), size)
		}
		copy(mem, data)
	case os.IsNotExist(err):
		// First boot: zero-filled region, persisted on first Commit.
	default:
		return nil, fmt.Errorf("eeprom: open %s: %w", path, err)
	}

	return &FileStore{path: path, mem: mem}, nil
}

// Get reads n bytes starting at addr.
func (f *FileStore) Get(addr, n int) ([]byte, error) {
	if err := checkRange(addr, n, len(f.mem)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, f.mem[addr:addr+n])
	return out, nil
}

// Put writes b at addr into the in-memory region.
func (f *FileStore) Put(addr int, b []byte) error {
	if err := checkRange(addr, len(b), len(f.mem)); err != nil {
		return err
	}
	copy(f.mem[addr:addr+len(b)], b)
	return nil
}

// Commit persists the region atomically: write to a temp file in the same
// directory, sync, then rename over the target.
func (f *FileStore) Commit() error {
	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("eeprom: commit: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(f.mem); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("eeprom: commit write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("eeprom: commit sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("eeprom: commit close: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("eeprom: commit rename: %w", err)
	}
	return nil
}

// Size returns the region size in bytes.
func (f *FileStore) Size() int {
	return len(f.mem)
}
