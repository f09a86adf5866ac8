// Package mqtt receives external power notifications from the platform event
// bus, with abstraction for testing.
package mqtt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultTopic carries the USB power state.
const DefaultTopic = "power/usb/state"

// Handler receives decoded power notifications.
type Handler func(powered bool)

// Subscriber delivers power notifications from the broker.
type Subscriber interface {
	// Subscribe registers h for messages on topic. The subscription survives
	// reconnects.
	Subscribe(topic string, h Handler) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Payload is the JSON form of a power notification.
type Payload struct {
	Powered *bool `json:"powered"`
}

// ParsePayload decodes a power notification. Plain payloads are
// 1/0, true/false, on/off or connected/disconnected (any case);
// JSON payloads are {"powered": bool}.
func ParsePayload(data []byte) (bool, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var p Payload
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return false, fmt.Errorf("decode payload: %w", err)
		}
		if p.Powered == nil {
			return false, fmt.Errorf("payload missing \"powered\"")
		}
		return *p.Powered, nil
	}

	switch strings.ToLower(string(trimmed)) {
	case "1", "true", "on", "connected":
		return true, nil
	case "0", "false", "off", "disconnected":
		return false, nil
	}
	return false, fmt.Errorf("unrecognised payload %q", trimmed)
}
