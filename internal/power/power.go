// Package power reports whether external (USB) power is present by reading
// the kernel's power_supply class.
package power

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// DefaultOnlinePath is the USB supply's online attribute.
const DefaultOnlinePath = "/sys/class/power_supply/usb/online"

// Reader reports whether external power is present.
type Reader interface {
	Online() (bool, error)
}

// SysfsReader reads a power_supply online attribute ("0" or "1").
type SysfsReader struct {
	Path string
}

// NewSysfsReader creates a reader for the given attribute path.
func NewSysfsReader(path string) *SysfsReader {
	return &SysfsReader{Path: path}
}

// Online implements Reader.
func (r *SysfsReader) Online() (bool, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return false, fmt.Errorf("read online: %w", err)
	}
	switch strings.TrimSpace(string(data)) {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("unexpected online value %q", strings.TrimSpace(string(data)))
}

// Watcher turns periodic reads into change notifications.
type Watcher struct {
	r     Reader
	known bool
	last  bool
}

// NewWatcher creates a Watcher; the first successful Poll always reports a change.
func NewWatcher(r Reader) *Watcher {
	return &Watcher{r: r}
}

// Poll reads the current state and reports whether it differs from the
// previous successful read.
func (w *Watcher) Poll() (powered, changed bool, err error) {
	powered, err = w.r.Online()
	if err != nil {
		return false, false, err
	}
	changed = !w.known || powered != w.last
	w.known = true
	w.last = powered
	return powered, changed, nil
}

// FakeReader is a test double that returns scripted online values.
// Each call to Online consumes the next sample; the last one repeats.
type FakeReader struct {
	Samples   []bool
	ReadError error
	index     int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...bool) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Online returns the next scripted sample.
func (f *FakeReader) Online() (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}
	if len(f.Samples) == 0 {
		return false, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}
