//go:build !linux

package gpio

import "errors"

// Lines is not available on non-Linux platforms.
type Lines struct {
	Stat StatusLine
	LED  Output
}

// Open returns an error on non-Linux platforms.
func Open(chipName string, pinStat, pinLED int) (*Lines, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Close is not implemented on non-Linux platforms.
func (l *Lines) Close() error {
	return nil
}
