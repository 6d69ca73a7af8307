// Package sched implements the cooperative periodic task scheduler. Tasks
// are registered with an independent interval and fired from Tick, which the
// owner must call far more often than the shortest interval. The scheduler
// is single-threaded: tasks run on the caller's goroutine and must not block.
package sched

import (
	"fmt"
	"time"

	"github.com/sweeney/meter-node/internal/clock"
)

// Task is anything that fires on a timer.
type Task interface {
	OnInterval()
}

// entry is one registered task. lastFired is only meaningful once primed.
type entry struct {
	task      Task
	interval  clock.Millis
	lastFired clock.Millis
	primed    bool
}

// Scheduler advances a set of periodic tasks based on elapsed tick time.
type Scheduler struct {
	entries []entry
}

// New creates an empty Scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Register adds a task firing every interval. The interval must be positive
// and representable in the 32-bit millisecond clock. Tasks fire in
// registration order when simultaneously due.
func (s *Scheduler) Register(task Task, interval time.Duration) error {
	if task == nil {
		return fmt.Errorf("sched: nil task")
	}
	ms := interval.Milliseconds()
	if ms <= 0 {
		return fmt.Errorf("sched: interval %v must be positive", interval)
	}
	if ms > int64(^clock.Millis(0))/2 {
		return fmt.Errorf("sched: interval %v exceeds clock range", interval)
	}
	s.entries = append(s.entries, entry{task: task, interval: clock.Millis(ms)})
	return nil
}

// Tick fires every task whose interval has elapsed since it last fired.
// A task first fires one full interval after its first Tick. If the loop
// was delayed past several intervals the task fires once and resyncs to
// now — no catch-up burst, so long-run cadence is drift-free.
func (s *Scheduler) Tick(now clock.Millis) {
	for i := range s.entries {
		e := &s.entries[i]
		if !e.primed {
			e.lastFired = now
			e.primed = true
			continue
		}
		if clock.Since(now, e.lastFired) >= e.interval {
			e.task.OnInterval()
			e.lastFired = now
		}
	}
}

// Len returns the number of registered tasks.
func (s *Scheduler) Len() int {
	return len(s.entries)
}
