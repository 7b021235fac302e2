package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// offlineBufferSize bounds how many lines survive a broker outage.
const offlineBufferSize = 512

// RealPublisher publishes to an actual MQTT broker. Connection loss is
// expected on vehicle networks: the client reconnects on its own, and
// telemetry produced meanwhile is buffered and replayed in order once
// the broker is back.
type RealPublisher struct {
	client paho.Client

	mu  sync.Mutex
	buf *offlineBuffer
}

// NewRealPublisher creates a publisher for the given broker. The initial
// connection is retried in the background; the publisher is usable
// immediately and buffers until the broker answers.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := &RealPublisher{buf: newOfflineBuffer(offlineBufferSize)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) { p.drain() })

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

// PublishReading sends one telemetry line, buffering it if the broker
// is unreachable.
func (p *RealPublisher) PublishReading(line string) error {
	return p.publish(TopicReadings, 0, false, []byte(line))
}

// PublishSystem sends a lifecycle event. QoS 1 — losing a SHUTDOWN or
// RECOVERY marker makes outages invisible downstream.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.buf.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// drain replays everything buffered during the outage, oldest first.
func (p *RealPublisher) drain() {
	p.mu.Lock()
	msgs, dropped := p.buf.drainAll()
	p.mu.Unlock()

	if len(msgs) == 0 {
		return
	}
	if dropped > 0 {
		log.Printf("mqtt: replaying %d buffered messages, %d readings dropped while offline", len(msgs), dropped)
	} else {
		log.Printf("mqtt: replaying %d buffered messages", len(msgs))
	}
	for _, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		token.WaitTimeout(5 * time.Second)
	}
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns how many lines are waiting for reconnection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
