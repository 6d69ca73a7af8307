package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/meter-node/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Meters        []MeterJSON `json:"meters"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Config        ConfigJSON  `json:"config"`
}

// MeterJSON is the JSON representation of one meter.
type MeterJSON struct {
	Name      string `json:"name"`
	Total     int64  `json:"total"`
	Pending   int64  `json:"pending"`
	LastDelta int64  `json:"last_delta"`
	Reports   int    `json:"reports"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs           int64  `json:"tick_ms"`
	DebounceSamples  int    `json:"debounce_samples"`
	ReportIntervalMs int64  `json:"report_interval_ms"`
	FlushIntervalMs  int64  `json:"flush_interval_ms"`
	HTTPListen       string `json:"http_listen"`
	StoragePath      string `json:"storage_path"`
}

func formatJSON(snap status.Snapshot) []byte {
	meters := make([]MeterJSON, 0, len(snap.Meters))
	for _, m := range snap.Meters {
		meters = append(meters, MeterJSON{
			Name:      m.Name,
			Total:     m.Total,
			Pending:   m.Pending,
			LastDelta: m.LastDelta,
			Reports:   m.Reports,
		})
	}

	sj := StatusJSON{
		Status: StatusInner{
			Meters:        meters,
			UptimeSeconds: int64(snap.Uptime().Seconds()),
			StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
			Timestamp:     snap.Now.UTC().Format(time.RFC3339),
			MQTT: MQTTStatus{
				Connected: snap.MQTTConnected,
				Broker:    snap.Config.Broker,
			},
			Config: ConfigJSON{
				TickMs:           snap.Config.TickMs,
				DebounceSamples:  snap.Config.DebounceSamples,
				ReportIntervalMs: snap.Config.ReportIntervalMs,
				FlushIntervalMs:  snap.Config.FlushIntervalMs,
				HTTPListen:       snap.Config.HTTPListen,
				StoragePath:      snap.Config.StoragePath,
			},
		},
	}

	data, err := json.MarshalIndent(sj, "", "  ")
	if err != nil {
		return []byte(`{"error":"marshal failed"}`)
	}
	return data
}
