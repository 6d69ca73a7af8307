// Package counter implements the durable wear-leveled counter. The logical
// value lives in memory and is flushed to a rotating set of storage slots,
// so any single cell is written at most 1/N of the flush events. Each slot
// is self-describing (sequence number + checksum); recovery picks the most
// recent valid slot.
package counter

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"log"

	"github.com/sweeney/meter-node/internal/eeprom"
)

// SlotSize is the on-storage size of one slot:
// seq uint32 | value int64 | crc32 uint32, little-endian. The CRC covers
// seq and value.
const SlotSize = 16

// Persistent is a durable 64-bit counter over a disjoint slot region of a
// Store. Not safe for concurrent use; all access happens on the tick
// goroutine.
type Persistent struct {
	store eeprom.Store
	name  string
	base  int
	slots int

	value     int64
	flushed   int64
	seq       uint32
	active    int
	persisted bool // at least one valid slot exists on storage
}

// New creates a counter over slots [base, base+slots*SlotSize). The region
// must not overlap any other counter or the settings record; that
// disjointness is a configuration invariant checked at startup, not here.
func New(store eeprom.Store, name string, base, slots int) (*Persistent, error) {
	if slots < 1 {
		return nil, fmt.Errorf("counter %s: slot count %d must be >= 1", name, slots)
	}
	if base < 0 || base+slots*SlotSize > store.Size() {
		return nil, fmt.Errorf("counter %s: region [%d, %d) exceeds storage size %d",
			name, base, base+slots*SlotSize, store.Size())
	}
	return &Persistent{store: store, name: name, base: base, slots: slots}, nil
}

// Init recovers the counter from storage. If no slot is valid (first boot,
// corrupted storage, or a read failure) the seed is adopted and written to
// slot 0; otherwise the newest valid slot wins and the seed is ignored.
// Never fatal: a failed initial write leaves the value dirty and the next
// scheduled flush retries.
func (p *Persistent) Init(seed int64) error {
	best := -1
	var bestSeq uint32
	for i := 0; i < p.slots; i++ {
		buf, err := p.store.Get(p.base+i*SlotSize, SlotSize)
		if err != nil {
			log.Printf("counter %s: read slot %d: %v", p.name, i, err)
			continue
		}
		seq, value, ok := decodeSlot(buf)
		if !ok {
			continue
		}
		if best == -1 || seqNewer(seq, bestSeq) {
			best, bestSeq = i, seq
			p.value = value
		}
	}

	if best >= 0 {
		p.active = best
		p.seq = bestSeq
		p.flushed = p.value
		p.persisted = true
		return nil
	}

	p.value = seed
	if err := p.Flush(); err != nil {
		log.Printf("counter %s: initial flush: %v", p.name, err)
	}
	return nil
}

// Add increments the in-memory value. No storage access.
func (p *Persistent) Add(delta int64) {
	p.value += delta
}

// Value returns the current logical value.
func (p *Persistent) Value() int64 {
	return p.value
}

// SetValue overrides the logical value (operator correction). The change is
// persisted on the next flush.
func (p *Persistent) SetValue(v int64) {
	p.value = v
}

// Name returns the counter's name.
func (p *Persistent) Name() string {
	return p.name
}

// OnInterval flushes the value if it changed since the last flush. A commit
// failure is logged and non-fatal; the in-memory value stays authoritative
// and the next interval retries.
func (p *Persistent) OnInterval() {
	if err := p.Flush(); err != nil {
		log.Printf("counter %s: flush: %v", p.name, err)
	}
}

// Flush writes the value to the next slot in round-robin order if dirty.
// The slot pointer advances only after a successful commit, so a failed
// commit leaves the previous slot authoritative for recovery.
func (p *Persistent) Flush() error {
	if p.persisted && p.value == p.flushed {
		return nil
	}

	next := 0
	if p.persisted {
		next = (p.active + 1) % p.slots
	}
	seq := p.seq + 1

	buf := encodeSlot(seq, p.value)
	if err := p.store.Put(p.base+next*SlotSize, buf); err != nil {
		return fmt.Errorf("put slot %d: %w", next, err)
	}
	if err := p.store.Commit(); err != nil {
		return fmt.Errorf("commit slot %d: %w", next, err)
	}

	p.active = next
	p.seq = seq
	p.flushed = p.value
	p.persisted = true
	return nil
}

func encodeSlot(seq uint32, value int64) []byte {
	buf := make([]byte, SlotSize)
	binary.LittleEndian.PutUint32(buf[0:4], seq)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(value))
	binary.LittleEndian.PutUint32(buf[12:16], crc32.ChecksumIEEE(buf[0:12]))
	return buf
}

func decodeSlot(buf []byte) (seq uint32, value int64, ok bool) {
	if len(buf) != SlotSize {
		return 0, 0, false
	}
	if crc32.ChecksumIEEE(buf[0:12]) != binary.LittleEndian.Uint32(buf[12:16]) {
		return 0, 0, false
	}
	seq = binary.LittleEndian.Uint32(buf[0:4])
	value = int64(binary.LittleEndian.Uint64(buf[4:12]))
	return seq, value, true
}

// seqNewer reports whether a is a more recent sequence number than b,
// tolerating wraparound of the 32-bit sequence space.
func seqNewer(a, b uint32) bool {
	return int32(a-b) > 0
}
