// Package charger drives the charging indicator from the charger IC's STAT
// line. It owns the power-mode state machine, the STAT edge filter and the
// debounce timer; all three share one lock.
package charger

import "errors"

// ErrHardwareUnavailable marks a device whose GPIO lines could not be
// brought up. It is permanent for that device.
var ErrHardwareUnavailable = errors.New("charger: hardware unavailable")

// Mode is the power mode of the device.
type Mode string

const (
	// ModeBattery: no external power, STAT monitoring off, LED off.
	ModeBattery Mode = "BATTERY"
	// ModeUSB: external power present, STAT monitored.
	ModeUSB Mode = "USB"
)

// Counts tracks LED transitions since startup.
type Counts struct {
	LEDOn  int
	LEDOff int
}

// State is a point-in-time view of the controller.
type State struct {
	Ready   bool
	Mode    Mode
	LED     bool
	Pending bool // debounce armed
	Counts  Counts
}
