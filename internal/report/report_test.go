package report

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFormatPayload(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	data, err := FormatPayload("cold", 12, ts)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.Meter.Metric != "cold" {
		t.Errorf("metric: got %q, want %q", p.Meter.Metric, "cold")
	}
	if p.Meter.Value != 12 {
		t.Errorf("value: got %v, want 12", p.Meter.Value)
	}
	if p.Meter.Timestamp != "2026-03-14T09:26:53Z" {
		t.Errorf("timestamp: got %q", p.Meter.Timestamp)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}
	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var p SystemPayload
	if err := json.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.System.Event != "SHUTDOWN" {
		t.Errorf("event: got %q, want SHUTDOWN", p.System.Event)
	}
	if p.System.Reason != "SIGTERM" {
		t.Errorf("reason: got %q, want SIGTERM", p.System.Reason)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
	}
	data, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["system"]["reason"]; ok {
		t.Error("empty reason should be omitted")
	}
}

func TestFakeReporterRecordsInOrder(t *testing.T) {
	f := NewFakeReporter()
	f.Report("cold", 3)
	f.Report("hot", 1)
	f.Report("cold", 0)

	if len(f.Readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(f.Readings))
	}
	cold := f.ByMetric("cold")
	if len(cold) != 2 || cold[0] != 3 || cold[1] != 0 {
		t.Errorf("cold readings: got %v, want [3 0]", cold)
	}
}
