// Package mqtt publishes telemetry lines and daemon lifecycle events to
// an MQTT broker, with abstraction for testing. Lines produced while the
// broker is unreachable are held in a bounded ring buffer and replayed
// on reconnect.
package mqtt

import (
	"encoding/json"
	"time"
)

// TopicReadings is the MQTT topic for telemetry report lines.
const TopicReadings = "engine/lambda/sensor/readings"

// TopicSystem is the MQTT topic for daemon lifecycle events.
const TopicSystem = "engine/lambda/sensor/system"

// Publisher publishes telemetry to MQTT.
type Publisher interface {
	// PublishReading sends one telemetry report line to the broker.
	// Returns error if publishing fails (must not crash the daemon).
	PublishReading(line string) error

	// PublishSystem sends a daemon lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a daemon lifecycle event.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // e.g., "STARTUP", "SHUTDOWN", "RECOVERY"
	Reason    string // e.g., "SIGTERM", "undervoltage"
	Retained  bool   // whether the broker should retain the message
}

// SystemPayload is the JSON wrapper for lifecycle events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the event details.
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
