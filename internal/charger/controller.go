package charger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sweeney/charge-indicator/internal/debounce"
	"github.com/sweeney/charge-indicator/internal/gpio"
)

// DefaultDebounce is how long STAT must stay asserted before the LED lights.
const DefaultDebounce = 600 * time.Millisecond

// Controller is the charging indicator for one charger IC.
//
// Two contexts enter it: the power-source listener (OnPowerSourceChanged)
// and the STAT edge handler (HandleEdge). The debounce timer fires on a third.
// Every entry point takes mu, so the mode flag and the timer have one owner.
type Controller struct {
	mu     sync.Mutex
	stat   gpio.StatusLine
	led    led
	timer  *debounce.Timer
	mode   Mode
	ready  bool
	inited bool
	err    error
	counts Counts
}

// New creates a controller. Call Init before delivering any events.
func New(stat gpio.StatusLine, ledOut gpio.Output, sched debounce.Scheduler, delay time.Duration) *Controller {
	c := &Controller{
		stat: stat,
		led:  led{out: ledOut},
		mode: ModeBattery,
	}
	c.timer = debounce.New(&c.mu, sched, delay, c.debounceFired)
	return c
}

// Init puts the hardware in battery mode: LED off, STAT floating with edges
// disabled. Failure is permanent: the controller stays not-ready and ignores
// all later events. Calling Init again returns the first result.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inited {
		return c.err
	}
	c.inited = true
	c.err = c.init()
	if c.err != nil {
		log.Printf("charger: init failed: %v", c.err)
		return c.err
	}
	c.ready = true
	log.Printf("charger: ready (mode=%s debounce=%v)", c.mode, c.timer.Delay())
	return nil
}

func (c *Controller) init() error {
	if c.stat == nil || c.led.out == nil {
		return fmt.Errorf("%w: lines not configured", ErrHardwareUnavailable)
	}
	if err := c.led.set(false); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	if err := c.stat.SetEdges(gpio.EdgesNone); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	if err := c.stat.SetBias(gpio.BiasDisabled); err != nil {
		return fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
	}
	c.stat.SetEdgeHandler(c.HandleEdge)
	c.mode = ModeBattery
	return nil
}

// OnPowerSourceChanged switches between battery and USB mode. Notifications
// that match the current mode are ignored.
func (c *Controller) OnPowerSourceChanged(powered bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready {
		return
	}
	switch {
	case powered && c.mode == ModeBattery:
		c.enterUSB()
	case !powered && c.mode == ModeUSB:
		c.enterBattery()
	}
}

func (c *Controller) enterUSB() {
	c.mode = ModeUSB
	log.Printf("charger: usb connected, enabling STAT interrupt")

	if err := c.stat.SetBias(gpio.BiasPullUp); err != nil {
		log.Printf("charger: %v", err)
	}
	if err := c.stat.SetEdges(gpio.EdgesBoth); err != nil {
		log.Printf("charger: %v", err)
	}

	// Edges only report transitions; STAT may already be asserted.
	if c.charging() {
		c.timer.Reschedule()
	}
}

func (c *Controller) enterBattery() {
	// Interrupt off before any shared state changes.
	if err := c.stat.SetEdges(gpio.EdgesNone); err != nil {
		log.Printf("charger: %v", err)
	}
	if err := c.stat.SetBias(gpio.BiasDisabled); err != nil {
		log.Printf("charger: %v", err)
	}
	c.mode = ModeBattery
	log.Printf("charger: usb disconnected, STAT interrupt disabled")

	c.timer.Cancel()
	c.setLED(false)
}

// HandleEdge is the STAT edge handler. A charging edge restarts the debounce;
// a not-charging edge clears the LED at once.
func (c *Controller) HandleEdge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.ready || c.mode != ModeUSB {
		return
	}
	if c.charging() {
		c.timer.Reschedule()
		return
	}
	c.timer.Cancel()
	c.setLED(false)
}

// debounceFired runs under mu once STAT has stayed asserted for the delay.
func (c *Controller) debounceFired() {
	if !c.ready || c.mode != ModeUSB {
		return
	}
	c.setLED(true)
}

// charging reads STAT. It is active low; a failed read counts as not charging.
func (c *Controller) charging() bool {
	v, err := c.stat.Value()
	if err != nil {
		log.Printf("charger: %v", err)
		return false
	}
	return v == 0
}

func (c *Controller) setLED(on bool) {
	was := c.led.on
	if err := c.led.set(on); err != nil {
		log.Printf("charger: %v", err)
	}
	if was == on {
		return
	}
	if on {
		c.counts.LEDOn++
		log.Printf("charger: charging, LED on")
	} else {
		c.counts.LEDOff++
		log.Printf("charger: not charging, LED off")
	}
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Ready:   c.ready,
		Mode:    c.mode,
		LED:     c.led.on,
		Pending: c.timer.Pending(),
		Counts:  c.counts,
	}
}
