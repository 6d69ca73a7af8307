// Package pin provides digital input reading with hardware abstraction.
// The real implementation uses the Linux GPIO character device; the fake
// allows testing without hardware. Sensing is by polling only — no
// interrupts — so pulse timing fidelity depends on the caller's tick rate.
package pin

// Reader reads the instantaneous level of one digital input.
type Reader interface {
	// Level returns the logical level of the input (true = active).
	Level() (bool, error)

	// Close releases pin resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinCold = 5 // cold water meter reed contact
	DefaultPinHot  = 6 // hot water meter reed contact
)
