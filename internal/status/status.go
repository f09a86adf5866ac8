// Package status provides a thread-safe status tracker for the
// charge-indicator daemon. It is read by -print-state and the heartbeat log.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/charge-indicator/internal/charger"
)

// Config contains daemon configuration for display.
type Config struct {
	DebounceMs  int64
	PollMs      int64
	HeartbeatMs int64
	Chemistry   string
	Broker      string
	PowerTopic  string
}

// Battery is the latest voltage sample and its percentage.
type Battery struct {
	Valid   bool
	MV      int16
	Percent uint8
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Charger       charger.State
	Battery       Battery
	Powered       bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
			Charger:   charger.State{Mode: charger.ModeBattery},
		},
	}
}

// Update records the controller state.
func (t *Tracker) Update(s charger.State) {
	t.mu.Lock()
	t.snap.Charger = s
	t.mu.Unlock()
}

// SetPowered records the last power notification delivered.
func (t *Tracker) SetPowered(powered bool) {
	t.mu.Lock()
	t.snap.Powered = powered
	t.mu.Unlock()
}

// SetBattery records a voltage sample. It reports whether the percentage
// changed.
func (t *Tracker) SetBattery(mv int16, percent uint8) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	changed := !t.snap.Battery.Valid || t.snap.Battery.Percent != percent
	t.snap.Battery = Battery{Valid: true, MV: mv, Percent: percent}
	return changed
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
