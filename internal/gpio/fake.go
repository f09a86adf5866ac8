package gpio

import "errors"

// FakeStatusLine is a test double for the STAT input. It records every
// configuration call and delivers edges only while edges are enabled.
type FakeStatusLine struct {
	// Level is the raw level returned by Value.
	Level int

	// Bias and Edges are the current configuration.
	Bias  Bias
	Edges Edges

	// Calls records configuration calls in order, e.g. "bias:pull-up".
	Calls []string

	// ValueError, if set, will be returned by Value.
	ValueError error

	// ConfigError, if set, will be returned by SetBias and SetEdges.
	ConfigError error

	// Closed tracks if Close was called.
	Closed bool

	handler func()
}

// NewFakeStatusLine creates a floating line reading high (not charging).
func NewFakeStatusLine() *FakeStatusLine {
	return &FakeStatusLine{Level: 1}
}

// SetBias records the bias change.
func (f *FakeStatusLine) SetBias(b Bias) error {
	f.Calls = append(f.Calls, "bias:"+b.String())
	if f.ConfigError != nil {
		return f.ConfigError
	}
	f.Bias = b
	return nil
}

// SetEdges records the edge configuration change.
func (f *FakeStatusLine) SetEdges(e Edges) error {
	f.Calls = append(f.Calls, "edges:"+e.String())
	if f.ConfigError != nil {
		return f.ConfigError
	}
	f.Edges = e
	return nil
}

// Value returns the scripted level.
func (f *FakeStatusLine) Value() (int, error) {
	if f.ValueError != nil {
		return 0, f.ValueError
	}
	return f.Level, nil
}

// SetEdgeHandler stores the handler.
func (f *FakeStatusLine) SetEdgeHandler(h func()) {
	f.handler = h
}

// Drive sets the level and, if it changed and edges are enabled, calls the
// handler. It reports whether the handler ran.
func (f *FakeStatusLine) Drive(level int) bool {
	changed := level != f.Level
	f.Level = level
	if !changed {
		return false
	}
	return f.Fire()
}

// Fire calls the handler as if an edge occurred, without changing the level.
// It reports whether the handler ran.
func (f *FakeStatusLine) Fire() bool {
	if f.Edges != EdgesBoth || f.handler == nil {
		return false
	}
	f.handler()
	return true
}

// Close marks the line as closed.
func (f *FakeStatusLine) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded calls.
func (f *FakeStatusLine) Reset() {
	f.Calls = nil
	f.Closed = false
}

// FakeOutput is a test double for a digital output.
type FakeOutput struct {
	// Value is the last value written.
	Value int

	// Writes records every value written, in order.
	Writes []int

	// SetError, if set, will be returned by SetValue.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeOutput creates a FakeOutput.
func NewFakeOutput() *FakeOutput {
	return &FakeOutput{}
}

// SetValue records the write.
func (f *FakeOutput) SetValue(v int) error {
	if f.SetError != nil {
		return f.SetError
	}
	if v != 0 && v != 1 {
		return errors.New("value out of range")
	}
	f.Value = v
	f.Writes = append(f.Writes, v)
	return nil
}

// Close marks the output as closed.
func (f *FakeOutput) Close() error {
	f.Closed = true
	return nil
}

// Rises counts 0 -> 1 transitions across all writes.
func (f *FakeOutput) Rises() int {
	n, prev := 0, 0
	for _, v := range f.Writes {
		if v == 1 && prev == 0 {
			n++
		}
		prev = v
	}
	return n
}
