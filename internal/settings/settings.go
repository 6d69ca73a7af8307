// Package settings reads and writes the fixed-layout operator record at the
// front of the storage region: the energy meter seed and the two water
// counter seeds. The record is read once at boot and rewritten only on an
// explicit administrative save.
package settings

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"

	"github.com/sweeney/meter-node/internal/eeprom"
)

// RecordSize is the on-storage size of the record:
// magic [4]byte | energy float64 | cold int64 | hot int64 | crc32 uint32.
const RecordSize = 32

// magic identifies a written record; a fresh region fails the magic check
// and callers fall back to zero seeds.
var magic = [4]byte{'M', 'T', 'R', '1'}

// ErrNoRecord means storage holds no valid settings record.
var ErrNoRecord = errors.New("settings: no valid record")

// Record is the operator-supplied seed set.
type Record struct {
	Energy float64 // energy meter total, kWh
	Cold   int64   // cold water counter, litres
	Hot    int64   // hot water counter, litres
}

// Load reads the record at addr. ErrNoRecord is returned for a missing or
// corrupt record; callers treat that as all-zero seeds.
func Load(store eeprom.Store, addr int) (Record, error) {
	buf, err := store.Get(addr, RecordSize)
	if err != nil {
		return Record{}, fmt.Errorf("settings: read: %w", err)
	}

	if [4]byte(buf[0:4]) != magic {
		return Record{}, ErrNoRecord
	}
	if crc32.ChecksumIEEE(buf[0:28]) != binary.LittleEndian.Uint32(buf[28:32]) {
		return Record{}, ErrNoRecord
	}

	var r Record
	r.Energy = math.Float64frombits(binary.LittleEndian.Uint64(buf[4:12]))
	r.Cold = int64(binary.LittleEndian.Uint64(buf[12:20]))
	r.Hot = int64(binary.LittleEndian.Uint64(buf[20:28]))
	return r, nil
}

// Save writes and commits the record at addr.
func Save(store eeprom.Store, addr int, r Record) error {
	buf := make([]byte, RecordSize)
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint64(buf[4:12], math.Float64bits(r.Energy))
	binary.LittleEndian.PutUint64(buf[12:20], uint64(r.Cold))
	binary.LittleEndian.PutUint64(buf[20:28], uint64(r.Hot))
	binary.LittleEndian.PutUint32(buf[28:32], crc32.ChecksumIEEE(buf[0:28]))

	if err := store.Put(addr, buf); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := store.Commit(); err != nil {
		return fmt.Errorf("settings: commit: %w", err)
	}
	return nil
}
