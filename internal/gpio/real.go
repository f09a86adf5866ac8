//go:build linux

package gpio

import (
	"fmt"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "charge-indicator"

// Lines holds the STAT input and LED output requested from one gpiochip.
type Lines struct {
	chip *gpiocdev.Chip
	Stat *RealStatusLine
	LED  *RealOutput
}

// Open requests the STAT and LED lines from the named chip.
// STAT starts floating with edges disabled; LED starts driven low.
func Open(chipName string, pinStat, pinLED int) (*Lines, error) {
	chip, err := gpiocdev.NewChip(chipName, gpiocdev.WithConsumer(consumer))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	stat := &RealStatusLine{}
	// The handler is requested up front so edges can be toggled later
	// with Reconfigure.
	statLine, err := chip.RequestLine(pinStat,
		gpiocdev.AsInput,
		gpiocdev.WithBiasDisabled,
		gpiocdev.WithEventHandler(stat.onEvent))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request STAT pin %d: %w", pinStat, err)
	}
	stat.line = statLine

	ledLine, err := chip.RequestLine(pinLED, gpiocdev.AsOutput(0))
	if err != nil {
		statLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pinLED, err)
	}

	return &Lines{
		chip: chip,
		Stat: stat,
		LED:  &RealOutput{line: ledLine},
	}, nil
}

// Close releases both lines and the chip.
func (l *Lines) Close() error {
	var errs []error
	if l.Stat != nil {
		if err := l.Stat.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.LED != nil {
		if err := l.LED.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealStatusLine is the STAT input backed by a gpiocdev line.
type RealStatusLine struct {
	line    *gpiocdev.Line
	handler atomic.Pointer[func()]
}

func (s *RealStatusLine) onEvent(gpiocdev.LineEvent) {
	if h := s.handler.Load(); h != nil {
		(*h)()
	}
}

// SetEdgeHandler implements StatusLine.
func (s *RealStatusLine) SetEdgeHandler(h func()) {
	s.handler.Store(&h)
}

// SetBias implements StatusLine.
func (s *RealStatusLine) SetBias(b Bias) error {
	opt := gpiocdev.WithBiasDisabled
	if b == BiasPullUp {
		opt = gpiocdev.WithPullUp
	}
	if err := s.line.Reconfigure(gpiocdev.AsInput, opt); err != nil {
		return fmt.Errorf("set STAT bias %s: %w", b, err)
	}
	return nil
}

// SetEdges implements StatusLine.
func (s *RealStatusLine) SetEdges(e Edges) error {
	opt := gpiocdev.WithoutEdges
	if e == EdgesBoth {
		opt = gpiocdev.WithBothEdges
	}
	if err := s.line.Reconfigure(opt); err != nil {
		return fmt.Errorf("set STAT edges %s: %w", e, err)
	}
	return nil
}

// Value implements StatusLine.
func (s *RealStatusLine) Value() (int, error) {
	v, err := s.line.Value()
	if err != nil {
		return 0, fmt.Errorf("read STAT pin: %w", err)
	}
	return v, nil
}

// Close floats the pin with edges disabled before releasing it, so nothing
// leaks through the pull-up after exit.
func (s *RealStatusLine) Close() error {
	if s.line == nil {
		return nil
	}
	var errs []error
	if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithBiasDisabled, gpiocdev.WithoutEdges); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure STAT pin: %w", err))
	}
	if err := s.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close STAT pin: %w", err))
	}
	s.line = nil
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}

// RealOutput is a digital output backed by a gpiocdev line.
type RealOutput struct {
	line *gpiocdev.Line
}

// SetValue implements Output.
func (o *RealOutput) SetValue(v int) error {
	if err := o.line.SetValue(v); err != nil {
		return fmt.Errorf("set LED pin: %w", err)
	}
	return nil
}

// Close drives the output low and releases it.
func (o *RealOutput) Close() error {
	if o.line == nil {
		return nil
	}
	var errs []error
	if err := o.line.SetValue(0); err != nil {
		errs = append(errs, fmt.Errorf("clear LED pin: %w", err))
	}
	if err := o.line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close LED pin: %w", err))
	}
	o.line = nil
	if len(errs) > 0 {
		return fmt.Errorf("%v", errs)
	}
	return nil
}
