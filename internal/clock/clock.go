// Package clock provides the 32-bit millisecond tick clock used by the
// scheduler. The clock wraps at 2^32 ms (about 49.7 days); all elapsed-time
// arithmetic must go through Since so that wraparound never stalls or
// double-fires a timer.
package clock

import "time"

// Millis is a timestamp in milliseconds, modulo 2^32.
type Millis uint32

// Since returns the elapsed time between then and now. Unsigned subtraction
// gives the correct result across the wraparound boundary as long as the
// real elapsed time is under 2^32 ms.
func Since(now, then Millis) Millis {
	return now - then
}

// Clock supplies the current tick timestamp.
type Clock interface {
	Now() Millis
}

// Wall is a Clock backed by the monotonic wall clock, counting milliseconds
// since construction.
type Wall struct {
	start time.Time
}

// NewWall creates a Wall clock starting at zero.
func NewWall() *Wall {
	return &Wall{start: time.Now()}
}

// Now returns milliseconds since construction, truncated to 32 bits.
func (w *Wall) Now() Millis {
	return Millis(time.Since(w.start).Milliseconds())
}

// Fake is a settable Clock for tests.
type Fake struct {
	T Millis
}

// Now returns the current fake time.
func (f *Fake) Now() Millis {
	return f.T
}

// Advance moves the fake clock forward by d milliseconds.
func (f *Fake) Advance(d Millis) {
	f.T += d
}
