package battery

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultVoltagePath is the usual power_supply attribute for cell voltage.
const DefaultVoltagePath = "/sys/class/power_supply/battery/voltage_now"

// Reader samples the battery voltage in millivolts.
type Reader interface {
	Read() (int16, error)
}

// SysfsReader reads a power_supply voltage_now attribute (microvolts).
type SysfsReader struct {
	Path string
}

// NewSysfsReader creates a reader for the given attribute path.
func NewSysfsReader(path string) *SysfsReader {
	return &SysfsReader{Path: path}
}

// Read returns the voltage in millivolts, saturated to the int16 range.
func (r *SysfsReader) Read() (int16, error) {
	data, err := os.ReadFile(r.Path)
	if err != nil {
		return 0, fmt.Errorf("read voltage: %w", err)
	}
	uv, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse voltage %q: %w", strings.TrimSpace(string(data)), err)
	}
	return saturateMV(uv / 1000), nil
}

func saturateMV(mv int64) int16 {
	if mv > math.MaxInt16 {
		return math.MaxInt16
	}
	if mv < math.MinInt16 {
		return math.MinInt16
	}
	return int16(mv)
}

// FakeReader is a test double that returns scripted millivolt samples.
// Each call to Read consumes the next sample; the last one repeats.
type FakeReader struct {
	Samples   []int16
	ReadError error
	index     int
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples ...int16) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (int16, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}
