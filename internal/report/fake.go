package report

// Reading is one recorded (metric, value) pair.
type Reading struct {
	Metric string
	Value  float64
}

// FakeReporter records reports for test assertions.
type FakeReporter struct {
	// Readings contains all reported (metric, value) pairs in order.
	Readings []Reading

	// SystemEvents contains all lifecycle events that were sent.
	SystemEvents []SystemEvent

	// ReportError, if set, will be returned by Report.
	ReportError error

	// SystemError, if set, will be returned by System.
	SystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakeReporter creates a FakeReporter for testing.
func NewFakeReporter() *FakeReporter {
	return &FakeReporter{}
}

// Report records the reading.
func (f *FakeReporter) Report(metric string, value float64) error {
	if f.ReportError != nil {
		return f.ReportError
	}
	f.Readings = append(f.Readings, Reading{Metric: metric, Value: value})
	return nil
}

// System records the lifecycle event.
func (f *FakeReporter) System(event SystemEvent) error {
	if f.SystemError != nil {
		return f.SystemError
	}
	f.SystemEvents = append(f.SystemEvents, event)
	return nil
}

// IsConnected reports whether the fake is "connected".
func (f *FakeReporter) IsConnected() bool {
	return f.Connected
}

// Close marks the reporter as closed.
func (f *FakeReporter) Close() error {
	f.Closed = true
	return nil
}

// ByMetric returns the recorded values for one metric, in order.
func (f *FakeReporter) ByMetric(metric string) []float64 {
	var out []float64
	for _, r := range f.Readings {
		if r.Metric == metric {
			out = append(out, r.Value)
		}
	}
	return out
}
