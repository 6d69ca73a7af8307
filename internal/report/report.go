// Package report delivers meter readings to the remote collector over MQTT.
// Delivery is fire-and-forget from the core's perspective: the tick loop
// never observes delivery success, only local errors worth logging.
package report

import (
	"encoding/json"
	"time"
)

// TopicPrefix is the MQTT topic prefix for meter readings; the metric name
// is appended (e.g. "utility/meter/cold").
const TopicPrefix = "utility/meter/"

// TopicSystem is the MQTT topic for node lifecycle events.
const TopicSystem = "utility/meter/system"

// Reporter publishes readings to the collector.
type Reporter interface {
	// Report sends one (metric, value) reading. Values are interval
	// deltas, not cumulative totals; a zero delta is still sent because
	// the collector uses absence of a report as a liveness signal.
	Report(metric string, value float64) error

	// System sends a node lifecycle event (startup, shutdown).
	System(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a node lifecycle event.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g. "STARTUP", "SHUTDOWN"
	Reason    string // e.g. "SIGTERM" (shutdown only)
	Retained  bool   // whether the broker should retain the message
}

// Payload is the MQTT message payload for a reading.
type Payload struct {
	Meter MeterPayload `json:"meter"`
}

// MeterPayload contains the reading details.
type MeterPayload struct {
	Timestamp string  `json:"timestamp"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
}

// FormatPayload creates the JSON payload for a reading.
func FormatPayload(metric string, value float64, ts time.Time) ([]byte, error) {
	payload := Payload{
		Meter: MeterPayload{
			Timestamp: ts.UTC().Format(time.RFC3339),
			Metric:    metric,
			Value:     value,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload is the MQTT message payload for lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the lifecycle event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a lifecycle event.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
