package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/charge-indicator/internal/battery"
	"github.com/sweeney/charge-indicator/internal/charger"
	"github.com/sweeney/charge-indicator/internal/debounce"
	"github.com/sweeney/charge-indicator/internal/gpio"
	"github.com/sweeney/charge-indicator/internal/mqtt"
	"github.com/sweeney/charge-indicator/internal/power"
	"github.com/sweeney/charge-indicator/internal/status"
)

const (
	statCharging = 0
	statIdle     = 1
)

type system struct {
	stat    *gpio.FakeStatusLine
	led     *gpio.FakeOutput
	sched   *debounce.FakeScheduler
	ctrl    *charger.Controller
	sub     *mqtt.FakeSubscriber
	tracker *status.Tracker
}

func newSystem(t *testing.T) *system {
	t.Helper()
	s := &system{
		stat:    gpio.NewFakeStatusLine(),
		led:     gpio.NewFakeOutput(),
		sched:   debounce.NewFakeScheduler(),
		sub:     mqtt.NewFakeSubscriber(),
		tracker: status.NewTracker(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), status.Config{DebounceMs: 600}),
	}
	s.ctrl = charger.New(s.stat, s.led, s.sched, charger.DefaultDebounce)
	if err := s.ctrl.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Power notifications from the bus go straight to the controller.
	if err := s.sub.Subscribe(mqtt.DefaultTopic, func(p bool) {
		s.ctrl.OnPowerSourceChanged(p)
		s.tracker.SetPowered(p)
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	return s
}

func (s *system) publish(t *testing.T, payload string) {
	t.Helper()
	if err := s.sub.Deliver(mqtt.DefaultTopic, []byte(payload)); err != nil {
		t.Fatalf("deliver %q: %v", payload, err)
	}
}

// TestIntegrationChargeCycle walks a full cycle: plug in while idle, charge
// starts with contact bounce, charge completes, charge restarts, unplug.
func TestIntegrationChargeCycle(t *testing.T) {
	s := newSystem(t)

	s.publish(t, "1")
	if s.ctrl.State().Mode != charger.ModeUSB {
		t.Fatal("expected USB mode after power notification")
	}

	// Charge start with bounce: low/high/low inside 100ms.
	s.stat.Drive(statCharging)
	s.sched.Advance(30 * time.Millisecond)
	s.stat.Drive(statIdle)
	s.sched.Advance(30 * time.Millisecond)
	s.stat.Drive(statCharging)

	s.sched.Advance(599 * time.Millisecond)
	if s.ctrl.State().LED {
		t.Fatal("LED lit before STAT was stable for the debounce delay")
	}
	s.sched.Advance(time.Millisecond)
	if !s.ctrl.State().LED {
		t.Fatal("expected LED on after stable charging")
	}

	// Charge complete: LED clears with no delay.
	s.stat.Drive(statIdle)
	if s.ctrl.State().LED {
		t.Fatal("expected LED off immediately on charge complete")
	}

	// Top-up charge.
	s.stat.Drive(statCharging)
	s.sched.Advance(charger.DefaultDebounce)
	if !s.ctrl.State().LED {
		t.Fatal("expected LED on for top-up charge")
	}

	s.publish(t, "0")
	st := s.ctrl.State()
	if st.LED || st.Mode != charger.ModeBattery || st.Pending {
		t.Errorf("after unplug: got %+v", st)
	}
	if s.stat.Edges != gpio.EdgesNone || s.stat.Bias != gpio.BiasDisabled {
		t.Errorf("STAT after unplug: edges=%s bias=%s", s.stat.Edges, s.stat.Bias)
	}

	if got := s.led.Rises(); got != 2 {
		t.Errorf("LED-on transitions: got %d, want 2", got)
	}
	if c := st.Counts; c.LEDOn != 2 || c.LEDOff != 2 {
		t.Errorf("counts: got %+v, want LEDOn=2 LEDOff=2", c)
	}
}

// TestIntegrationDuplicateNotifications checks that a chatty bus does not
// re-arm or reconfigure anything.
func TestIntegrationDuplicateNotifications(t *testing.T) {
	s := newSystem(t)
	s.stat.Level = statCharging

	s.publish(t, `{"powered":true}`)
	s.sched.Advance(300 * time.Millisecond)
	s.publish(t, "on")
	s.publish(t, "connected")

	if s.sched.Armed != 1 {
		t.Errorf("timer armed %d times, want 1", s.sched.Armed)
	}

	// Deadline is measured from the first notification.
	s.sched.Advance(300 * time.Millisecond)
	if !s.ctrl.State().LED {
		t.Error("duplicate notifications should not delay the LED")
	}
}

// TestIntegrationUnplugDuringDebounce covers a disconnect while the LED-on
// is still pending.
func TestIntegrationUnplugDuringDebounce(t *testing.T) {
	s := newSystem(t)
	s.stat.Level = statCharging

	s.publish(t, "1")
	s.sched.Advance(500 * time.Millisecond)
	s.publish(t, "0")
	s.sched.Advance(time.Hour)

	if s.ctrl.State().LED || s.led.Rises() != 0 {
		t.Error("LED lit after unplug")
	}

	// Edges while unplugged are not delivered and not acted on.
	s.stat.Drive(statIdle)
	s.stat.Drive(statCharging)
	s.sched.Advance(time.Hour)
	if s.ctrl.State().LED {
		t.Error("LED lit from an edge in battery mode")
	}
}

// TestIntegrationSysfsAndBattery runs the polling power source and the
// battery sampler against the same controller and tracker.
func TestIntegrationSysfsAndBattery(t *testing.T) {
	s := newSystem(t)
	s.stat.Level = statCharging

	w := power.NewWatcher(power.NewFakeReader(false, true, true, false))
	bat := battery.NewFakeReader(3650, 3800, 4150)
	chem := battery.ChemistryLiPo

	var percents []uint8
	for i := 0; i < 4; i++ {
		powered, changed, err := w.Poll()
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if changed {
			s.ctrl.OnPowerSourceChanged(powered)
			s.tracker.SetPowered(powered)
		}
		if mv, err := bat.Read(); err == nil {
			pct := chem.Percent(mv)
			s.tracker.SetBattery(mv, pct)
			percents = append(percents, pct)
		}
		s.sched.Advance(time.Second)
		s.tracker.Update(s.ctrl.State())

		wantLED := i == 1 || i == 2
		if got := s.ctrl.State().LED; got != wantLED {
			t.Errorf("step %d: LED got %v, want %v", i, got, wantLED)
		}
	}

	want := []uint8{30, 60, 95, 95}
	for i := range want {
		if percents[i] != want[i] {
			t.Errorf("sample %d: got %d%%, want %d%%", i, percents[i], want[i])
		}
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(s.tracker.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Mode != "BATTERY" || parsed.Status.LED != "OFF" {
		t.Errorf("status: mode=%s led=%s, want BATTERY/OFF", parsed.Status.Mode, parsed.Status.LED)
	}
	if parsed.Status.Battery == nil || parsed.Status.Battery.Percent != 95 {
		t.Errorf("battery: got %+v, want 95%%", parsed.Status.Battery)
	}
	if parsed.Status.Counts.On != 1 || parsed.Status.Counts.Off != 1 {
		t.Errorf("counts: got %+v, want on=1 off=1", parsed.Status.Counts)
	}
}

// TestIntegrationHardwareUnavailable checks that a device whose lines fail at
// init never lights and never reconfigures anything.
func TestIntegrationHardwareUnavailable(t *testing.T) {
	stat := gpio.NewFakeStatusLine()
	led := gpio.NewFakeOutput()
	led.SetError = errTest("led line busy")
	sched := debounce.NewFakeScheduler()
	ctrl := charger.New(stat, led, sched, charger.DefaultDebounce)

	if err := ctrl.Init(); err == nil {
		t.Fatal("expected init error")
	}

	stat.Level = statCharging
	ctrl.OnPowerSourceChanged(true)
	stat.Fire()
	sched.Advance(time.Hour)

	if ctrl.State().LED || len(stat.Calls) != 0 {
		t.Errorf("not-ready device acted: state=%+v calls=%v", ctrl.State(), stat.Calls)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }
