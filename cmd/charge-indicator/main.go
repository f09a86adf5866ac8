// Command charge-indicator lights an LED while the charger IC reports an
// active charge, and samples the battery voltage into a percentage.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/charge-indicator/internal/battery"
	"github.com/sweeney/charge-indicator/internal/charger"
	"github.com/sweeney/charge-indicator/internal/debounce"
	"github.com/sweeney/charge-indicator/internal/gpio"
	"github.com/sweeney/charge-indicator/internal/mqtt"
	"github.com/sweeney/charge-indicator/internal/power"
	"github.com/sweeney/charge-indicator/internal/status"
)

type options struct {
	chip            string
	pinStat         int
	pinLED          int
	debounce        time.Duration
	broker          string
	powerTopic      string
	powerFile       string
	poll            time.Duration
	batteryFile     string
	chemistry       battery.Chemistry
	batteryInterval time.Duration
	heartbeat       time.Duration
	printState      bool
}

func main() {
	var o options
	flag.StringVar(&o.chip, "chip", gpio.DefaultChip, "GPIO chip carrying the STAT and LED lines")
	flag.IntVar(&o.pinStat, "pin-stat", gpio.DefaultPinStat, "Line offset of the charger STAT output (active low)")
	flag.IntVar(&o.pinLED, "pin-led", gpio.DefaultPinLED, "Line offset of the charging LED")
	flag.DurationVar(&o.debounce, "debounce", charger.DefaultDebounce, "STAT debounce before the LED lights")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker for power notifications (empty to disable)")
	flag.StringVar(&o.powerTopic, "power-topic", mqtt.DefaultTopic, "MQTT topic carrying the USB power state")
	flag.StringVar(&o.powerFile, "power-file", power.DefaultOnlinePath, "power_supply online attribute to poll (empty to disable)")
	flag.DurationVar(&o.poll, "poll", 500*time.Millisecond, "power-file polling interval")
	flag.StringVar(&o.batteryFile, "battery-file", battery.DefaultVoltagePath, "power_supply voltage_now attribute (empty to disable)")
	chem := flag.String("chemistry", string(battery.ChemistryLiPo), "Battery chemistry: lipo or coincell")
	flag.DurationVar(&o.batteryInterval, "battery-interval", time.Minute, "Battery sampling interval")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat log interval (0 to disable)")
	flag.BoolVar(&o.printState, "print-state", false, "Print current state and exit")

	flag.Parse()

	c, err := battery.ParseChemistry(*chem)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	o.chemistry = c

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(o options) error {
	tracker := status.NewTracker(time.Now(), status.Config{
		DebounceMs:  o.debounce.Milliseconds(),
		PollMs:      o.poll.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Chemistry:   string(o.chemistry),
		Broker:      o.broker,
		PowerTopic:  o.powerTopic,
	})

	// A missing line leaves the controller not-ready; the daemon keeps
	// sampling the battery.
	var stat gpio.StatusLine
	var led gpio.Output
	lines, err := gpio.Open(o.chip, o.pinStat, o.pinLED)
	if err != nil {
		log.Printf("%v: %v", charger.ErrHardwareUnavailable, err)
	} else {
		defer lines.Close()
		stat, led = lines.Stat, lines.LED
	}

	ctrl := charger.New(stat, led, debounce.RealScheduler{}, o.debounce)
	ctrl.Init()

	d := &daemon{
		ctrl:      ctrl,
		tracker:   tracker,
		chemistry: o.chemistry,
	}
	if o.powerFile != "" {
		d.watcher = power.NewWatcher(power.NewSysfsReader(o.powerFile))
	}
	if o.batteryFile != "" {
		d.battery = battery.NewSysfsReader(o.batteryFile)
	}

	// Deliver the current power state once, so a device started while
	// already plugged in enters USB mode.
	d.pollPower()
	d.sampleBattery()

	if o.printState {
		// Let a pending debounce settle before reporting.
		time.Sleep(o.debounce + 50*time.Millisecond)
		d.tracker.Update(d.ctrl.State())
		fmt.Printf("%s\n", status.FormatJSON(d.tracker.Snapshot()))
		return nil
	}

	powerCh := make(chan bool, 8)
	done := make(chan struct{})

	if o.broker != "" {
		sub, err := mqtt.NewRealSubscriber(o.broker)
		if err != nil {
			log.Printf("mqtt: %v (power notifications from broker disabled)", err)
		} else {
			defer sub.Close()
			d.mqtt = sub
			err := sub.Subscribe(o.powerTopic, func(powered bool) {
				select {
				case powerCh <- powered:
				case <-done:
				}
			})
			if err != nil {
				log.Printf("mqtt: %v", err)
			}
		}
	}

	// Unblocks the MQTT handler before the client disconnects.
	defer close(done)

	var pollTick, batteryTick, heartbeatTick <-chan time.Time
	if d.watcher != nil {
		t := time.NewTicker(o.poll)
		defer t.Stop()
		pollTick = t.C
	}
	if d.battery != nil {
		t := time.NewTicker(o.batteryInterval)
		defer t.Stop()
		batteryTick = t.C
	}
	if o.heartbeat > 0 {
		t := time.NewTicker(o.heartbeat)
		defer t.Stop()
		heartbeatTick = t.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	log.Printf("started: chip=%s stat=%d led=%d debounce=%v broker=%q power-file=%q chemistry=%s",
		o.chip, o.pinStat, o.pinLED, o.debounce, o.broker, o.powerFile, o.chemistry)

	return d.runLoop(powerCh, pollTick, batteryTick, heartbeatTick, sigCh)
}

// daemon ties the power sources and the battery sampler to the controller.
// Its methods run on the runLoop goroutine only.
type daemon struct {
	ctrl      *charger.Controller
	tracker   *status.Tracker
	watcher   *power.Watcher
	battery   battery.Reader
	chemistry battery.Chemistry
	mqtt      mqtt.ConnectionStatus
}

func (d *daemon) runLoop(powerCh <-chan bool, pollTick, batteryTick, heartbeatTick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			// Leave the pin floating and the LED dark.
			d.ctrl.OnPowerSourceChanged(false)
			d.tracker.Update(d.ctrl.State())
			return nil

		case powered := <-powerCh:
			d.setPowered(powered)

		case <-pollTick:
			d.pollPower()

		case <-batteryTick:
			d.sampleBattery()

		case <-heartbeatTick:
			d.tracker.Update(d.ctrl.State())
			if d.mqtt != nil {
				d.tracker.SetMQTTConnected(d.mqtt.IsConnected())
			}
			log.Printf("heartbeat: %s", status.FormatLine(d.tracker.Snapshot()))
		}
	}
}

func (d *daemon) setPowered(powered bool) {
	d.ctrl.OnPowerSourceChanged(powered)
	d.tracker.SetPowered(powered)
	d.tracker.Update(d.ctrl.State())
}

func (d *daemon) pollPower() {
	if d.watcher == nil {
		return
	}
	powered, changed, err := d.watcher.Poll()
	if err != nil {
		log.Printf("power read error: %v", err)
		return
	}
	if changed {
		d.setPowered(powered)
	}
}

func (d *daemon) sampleBattery() {
	if d.battery == nil {
		return
	}
	mv, err := d.battery.Read()
	if err != nil {
		log.Printf("battery read error: %v", err)
		return
	}
	pct := d.chemistry.Percent(mv)
	if d.tracker.SetBattery(mv, pct) {
		log.Printf("battery: %d%% (%dmV, %s)", pct, mv, d.chemistry)
	}
}
