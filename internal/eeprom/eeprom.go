// Package eeprom provides the byte-addressable non-volatile store behind the
// persistent counters and the settings record. The real implementation is a
// file-backed region; the fake allows testing recovery and commit failures
// without touching disk.
//
// Put only mutates the in-memory region; nothing is durable until Commit.
package eeprom

import "errors"

// ErrOutOfRange is returned when an access falls outside the region.
var ErrOutOfRange = errors.New("eeprom: access out of range")

// Store is a fixed-size byte region with an explicit commit step.
type Store interface {
	// Get reads n bytes starting at addr.
	Get(addr, n int) ([]byte, error)

	// Put writes b starting at addr. The write is not durable until Commit.
	Put(addr int, b []byte) error

	// Commit makes all previous Puts durable. May fail; callers must treat
	// the in-memory state as authoritative until a later Commit succeeds.
	Commit() error

	// Size returns the region size in bytes.
	Size() int
}

func checkRange(addr, n, size int) error {
	if addr < 0 || n < 0 || addr+n > size {
		return ErrOutOfRange
	}
	return nil
}
