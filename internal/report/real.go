package report

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// bufferCapacity bounds how many readings are spooled while the broker is
// unreachable. At one reading per meter per 10 s, 256 covers over 20 minutes
// of outage for two meters.
const bufferCapacity = 256

// RealReporter publishes to an actual MQTT broker. Readings produced while
// disconnected are spooled into a ring buffer and replayed on reconnect;
// the oldest are dropped on overflow.
type RealReporter struct {
	client paho.Client

	mu  sync.Mutex
	buf *ringBuffer
}

// NewRealReporter creates a reporter connected to the given broker. The
// initial connect retries in the background, so a node that boots before
// the network is up still starts counting pulses.
func NewRealReporter(broker, clientID string) *RealReporter {
	r := &RealReporter{buf: newRingBuffer(bufferCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(r.onConnect)

	r.client = paho.NewClient(opts)
	r.client.Connect()
	return r
}

// onConnect drains spooled messages after a (re)connect.
func (r *RealReporter) onConnect(c paho.Client) {
	r.mu.Lock()
	msgs := r.buf.drainAll()
	r.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	log.Printf("report: replaying %d buffered messages", len(msgs))
	for _, m := range msgs {
		token := c.Publish(m.topic, m.qos, m.retained, m.payload)
		token.WaitTimeout(5 * time.Second)
	}
}

// Report sends one reading, QoS 0. While disconnected the reading is
// buffered instead.
func (r *RealReporter) Report(metric string, value float64) error {
	payload, err := FormatPayload(metric, value, time.Now())
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	topic := TopicPrefix + metric
	if !r.client.IsConnected() {
		r.mu.Lock()
		r.buf.push(bufferedMsg{topic: topic, payload: payload, qos: 0})
		r.mu.Unlock()
		return nil
	}

	token := r.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// System sends a lifecycle event, QoS 1 — we want startup/shutdown to reach
// the collector even across a flaky link.
func (r *RealReporter) System(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	if !r.client.IsConnected() {
		r.mu.Lock()
		r.buf.push(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
		r.mu.Unlock()
		return nil
	}

	token := r.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports broker connectivity.
func (r *RealReporter) IsConnected() bool {
	return r.client.IsConnected()
}

// Close disconnects from the broker.
func (r *RealReporter) Close() error {
	r.client.Disconnect(1000) // 1 second timeout
	return nil
}
