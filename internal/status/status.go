// Package status provides a thread-safe status tracker for the meter-node
// daemon. The tick loop writes it; HTTP handlers read it.
package status

import (
	"sync"
	"time"
)

// MeterStatus is the visible state of one pulse meter.
type MeterStatus struct {
	Name      string
	Total     int64 // persistent counter logical value
	Pending   int64 // pulses since the last report interval
	LastDelta int64 // last reported delta
	Reports   int   // report intervals fired since startup
}

// Config contains daemon configuration for display.
type Config struct {
	TickMs           int64
	DebounceSamples  int
	ReportIntervalMs int64
	FlushIntervalMs  int64
	Broker           string
	HTTPListen       string
	StoragePath      string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Meters        []MeterStatus
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	byName map[string]int
}

// NewTracker creates a Tracker with the given start time, config, and meter
// names; meters appear in snapshots in the given order.
func NewTracker(startTime time.Time, cfg Config, meterNames []string) *Tracker {
	t := &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		byName: make(map[string]int, len(meterNames)),
	}
	for i, name := range meterNames {
		t.snap.Meters = append(t.snap.Meters, MeterStatus{Name: name})
		t.byName[name] = i
	}
	return t
}

// UpdateMeter sets the total and pending count of one meter.
// Called from the tick loop.
func (t *Tracker) UpdateMeter(name string, total, pending int64) {
	t.mu.Lock()
	if i, ok := t.byName[name]; ok {
		t.snap.Meters[i].Total = total
		t.snap.Meters[i].Pending = pending
	}
	t.mu.Unlock()
}

// RecordReport notes a fired report interval and its delta.
func (t *Tracker) RecordReport(name string, delta int64) {
	t.mu.Lock()
	if i, ok := t.byName[name]; ok {
		t.snap.Meters[i].LastDelta = delta
		t.snap.Meters[i].Reports++
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Meters = make([]MeterStatus, len(t.snap.Meters))
	copy(s.Meters, t.snap.Meters)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
