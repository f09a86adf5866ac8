// Package gpio provides the charger STAT input and the indicator LED output
// with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Bias selects the input's internal resistor.
type Bias int

const (
	// BiasDisabled floats the pin (no leakage through the pull resistor).
	BiasDisabled Bias = iota
	BiasPullUp
)

func (b Bias) String() string {
	if b == BiasPullUp {
		return "pull-up"
	}
	return "disabled"
}

// Edges selects which transitions raise an edge event.
type Edges int

const (
	EdgesNone Edges = iota
	EdgesBoth
)

func (e Edges) String() string {
	if e == EdgesBoth {
		return "both"
	}
	return "none"
}

// StatusLine is the charger's open-drain STAT output, seen as an input.
type StatusLine interface {
	// SetBias reconfigures the input bias.
	SetBias(b Bias) error

	// SetEdges enables or disables edge events.
	SetEdges(e Edges) error

	// Value returns the raw level (0 or 1).
	Value() (int, error)

	// SetEdgeHandler registers the function called on every edge while
	// edges are enabled. It must be set before edges are enabled and must
	// not block.
	SetEdgeHandler(h func())

	// Close releases GPIO resources.
	Close() error
}

// Output is a single digital output.
type Output interface {
	// SetValue drives the output to 0 or 1.
	SetValue(v int) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinStat = 17 // charger STAT, active low
	DefaultPinLED  = 27 // charging indicator
)

// DefaultChip is the gpiochip carrying both lines.
const DefaultChip = "gpiochip0"
