// Package pulse implements the debounced pulse-counting state machine for
// one water meter input. Sample runs every tick of the main loop; a level
// change only becomes the stable level after it has been seen on a
// configured number of consecutive ticks, so contact bounce faster than
// that window can never produce a count. OnInterval fires from the
// scheduler, flushing the accumulated delta into the persistent counter and
// reporting it.
//
// All methods run on the single tick goroutine; there is no locking and
// none is needed.
package pulse

import (
	"fmt"
	"log"

	"github.com/sweeney/meter-node/internal/counter"
	"github.com/sweeney/meter-node/internal/pin"
	"github.com/sweeney/meter-node/internal/report"
)

// DefaultDebounceSamples is the default stability window: a level must hold
// for two consecutive ticks before it counts.
const DefaultDebounceSamples = 2

// Meter counts debounced pulses on one input and periodically commits the
// delta into a persistent counter.
type Meter struct {
	name    string
	pin     pin.Reader
	counter *counter.Persistent
	rep     report.Reporter

	debounceSamples int

	started bool
	lastRaw bool // most recent raw sample
	run     int  // consecutive ticks lastRaw has held
	stable  bool // debounced level
	pending int64
}

// New creates a Meter. debounceSamples is the number of consecutive
// identical samples required before a level change is accepted; it must be
// at least 1. Interval compatibility with the tick cadence is the config
// layer's job — by the time a Meter exists the window is known resolvable.
func New(name string, p pin.Reader, c *counter.Persistent, rep report.Reporter, debounceSamples int) (*Meter, error) {
	if name == "" {
		return nil, fmt.Errorf("pulse: empty meter name")
	}
	if debounceSamples < 1 {
		return nil, fmt.Errorf("pulse %s: debounce samples %d must be >= 1", name, debounceSamples)
	}
	return &Meter{
		name:            name,
		pin:             p,
		counter:         c,
		rep:             rep,
		debounceSamples: debounceSamples,
	}, nil
}

// Sample reads the pin once and advances the debounce state machine. A
// stable low-to-high transition counts one pulse. A read error leaves all
// state unchanged; the caller logs it and the next tick tries again.
func (m *Meter) Sample() error {
	raw, err := m.pin.Level()
	if err != nil {
		return fmt.Errorf("pulse %s: %w", m.name, err)
	}

	if !m.started {
		// First sample is the baseline, never a pulse.
		m.started = true
		m.lastRaw = raw
		m.stable = raw
		m.run = 1
		return nil
	}

	if raw == m.lastRaw {
		if m.run < m.debounceSamples {
			m.run++
		}
	} else {
		m.lastRaw = raw
		m.run = 1
	}

	if m.run >= m.debounceSamples && raw != m.stable {
		m.stable = raw
		if raw {
			m.pending++
		}
	}
	return nil
}

// OnInterval reads and zeroes the pending accumulator, adds the delta to
// the persistent counter, and reports it. Zero deltas are reported too:
// the collector treats a missing report as the node being down.
func (m *Meter) OnInterval() {
	delta := m.pending
	m.pending = 0
	m.counter.Add(delta)

	if err := m.rep.Report(m.name, float64(delta)); err != nil {
		log.Printf("pulse %s: report: %v", m.name, err)
	}
}

// SetValue overrides the persistent counter's logical value (operator
// correction). The pending accumulator is deliberately untouched: pulses
// seen since the last interval are still real.
func (m *Meter) SetValue(v int64) {
	m.counter.SetValue(v)
}

// Pending returns the pulses accumulated since the last interval.
func (m *Meter) Pending() int64 {
	return m.pending
}

// Total returns the persistent counter's logical value.
func (m *Meter) Total() int64 {
	return m.counter.Value()
}

// Name returns the meter name.
func (m *Meter) Name() string {
	return m.name
}
