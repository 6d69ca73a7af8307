package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/meter-node/internal/status"
)

func newTestServer(t *testing.T) (*httptest.Server, *status.Tracker) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := status.Config{
		TickMs:           10,
		DebounceSamples:  2,
		ReportIntervalMs: 10000,
		FlushIntervalMs:  900000,
		Broker:           "tcp://192.168.1.200:1883",
		HTTPListen:       ":8080",
		StoragePath:      "/var/lib/meter-node/nvram.bin",
	}
	tr := status.NewTracker(start, cfg, []string{"cold", "hot"})
	srv := New(":0", tr)
	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)
	return ts, tr
}

func TestJSONEndpoint(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.UpdateMeter("cold", 512, 3)
	tr.RecordReport("cold", 12)
	tr.SetMQTTConnected(true)

	resp, err := http.Get(ts.URL + "/index.json")
	if err != nil {
		t.Fatalf("GET /index.json: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}

	var sj StatusJSON
	if err := json.NewDecoder(resp.Body).Decode(&sj); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sj.Status.Meters) != 2 {
		t.Fatalf("meters: got %d, want 2", len(sj.Status.Meters))
	}
	cold := sj.Status.Meters[0]
	if cold.Name != "cold" || cold.Total != 512 || cold.Pending != 3 || cold.LastDelta != 12 {
		t.Errorf("cold meter: got %+v", cold)
	}
	if !sj.Status.MQTT.Connected {
		t.Error("mqtt connected: got false, want true")
	}
	if sj.Status.Config.TickMs != 10 {
		t.Errorf("tick_ms: got %d, want 10", sj.Status.Config.TickMs)
	}
}

func TestIndexHTML(t *testing.T) {
	ts, tr := newTestServer(t)
	tr.UpdateMeter("hot", 42, 0)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status: got %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "hot") {
		t.Error("page does not mention the hot meter")
	}
	if !strings.Contains(string(body), "Meter Node") {
		t.Error("page missing title")
	}
}

func TestUnknownPathIs404(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatalf("GET /nope: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("status: got %d, want 404", resp.StatusCode)
	}
}
