package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Mode          string       `json:"mode"`
	LED           string       `json:"led"`
	Ready         bool         `json:"ready"`
	Powered       bool         `json:"powered"`
	Debouncing    bool         `json:"debouncing"`
	Battery       *BatteryJSON `json:"battery,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"led_counts"`
	Config        ConfigJSON   `json:"config"`
}

// BatteryJSON is the JSON representation of the last battery sample.
type BatteryJSON struct {
	MV      int16  `json:"mv"`
	Percent uint8  `json:"percent"`
	Chem    string `json:"chemistry"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
	Topic     string `json:"topic,omitempty"`
}

// CountsJSON is the JSON representation of LED transition counts.
type CountsJSON struct {
	On  int `json:"on"`
	Off int `json:"off"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DebounceMs  int64 `json:"debounce_ms"`
	PollMs      int64 `json:"poll_ms"`
	HeartbeatMs int64 `json:"heartbeat_ms"`
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	mode := string(snap.Charger.Mode)
	if !snap.Charger.Ready {
		mode = "UNAVAILABLE"
	}

	inner := StatusInner{
		Mode:          mode,
		LED:           onOff(snap.Charger.LED),
		Ready:         snap.Charger.Ready,
		Powered:       snap.Powered,
		Debouncing:    snap.Charger.Pending,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT: MQTTStatus{
			Connected: snap.MQTTConnected,
			Broker:    snap.Config.Broker,
			Topic:     snap.Config.PowerTopic,
		},
		Counts: CountsJSON{
			On:  snap.Charger.Counts.LEDOn,
			Off: snap.Charger.Counts.LEDOff,
		},
		Config: ConfigJSON{
			DebounceMs:  snap.Config.DebounceMs,
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
		},
	}
	if snap.Battery.Valid {
		inner.Battery = &BatteryJSON{
			MV:      snap.Battery.MV,
			Percent: snap.Battery.Percent,
			Chem:    snap.Config.Chemistry,
		}
	}
	return inner
}

// FormatJSON returns the indented JSON status.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatLine returns a one-line summary for the heartbeat log.
func FormatLine(snap Snapshot) string {
	inner := buildInner(snap)
	bat := "n/a"
	if inner.Battery != nil {
		bat = fmt.Sprintf("%d%% (%dmV)", inner.Battery.Percent, inner.Battery.MV)
	}
	return fmt.Sprintf("mode=%s led=%s battery=%s uptime=%ds led_on=%d led_off=%d mqtt=%v",
		inner.Mode, inner.LED, bat, inner.UptimeSeconds, inner.Counts.On, inner.Counts.Off, inner.MQTT.Connected)
}
