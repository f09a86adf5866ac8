package charger

import "github.com/sweeney/charge-indicator/internal/gpio"

// led drives the indicator output and remembers the last requested state.
type led struct {
	out gpio.Output
	on  bool
}

// set writes the output. The logical state follows the request even when the
// write fails, so the mode invariants hold.
func (l *led) set(on bool) error {
	l.on = on
	v := 0
	if on {
		v = 1
	}
	return l.out.SetValue(v)
}
