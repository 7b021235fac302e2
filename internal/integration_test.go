package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/sweeney/lambda-sensor/internal/adc"
	"github.com/sweeney/lambda-sensor/internal/cj125"
	"github.com/sweeney/lambda-sensor/internal/control"
	"github.com/sweeney/lambda-sensor/internal/convert"
	"github.com/sweeney/lambda-sensor/internal/mqtt"
	"github.com/sweeney/lambda-sensor/internal/telemetry"
	"github.com/sweeney/lambda-sensor/internal/transport"
)

// rig wires the fake transport, sampler and publisher into the driver
// and controller the way the daemon does.
type rig struct {
	transport *transport.FakeTransport
	sampler   *adc.FakeSampler
	driver    *cj125.Driver
	ctrl      *control.Controller
	publisher *mqtt.FakePublisher
}

func newRig(samples map[adc.Channel][]int) *rig {
	tr := transport.NewFakeTransport()
	tr.Respond(cj125.CmdDiagnostic, cj125.DiagHealthy)
	return &rig{
		transport: tr,
		sampler:   adc.NewFakeSampler(samples),
		driver:    cj125.New(tr),
		ctrl:      control.New(control.DefaultConfig()),
		publisher: mqtt.NewFakePublisher(),
	}
}

// cycle performs one sampling cycle in the daemon's fixed order:
// diagnostic, UA, UR, UB, controller step, chip commands. It publishes
// a report line when the controller is measuring or the chip faulted.
func (r *rig) cycle(t *testing.T, now time.Time) control.Output {
	t.Helper()

	diag, err := r.driver.Diagnose()
	if err != nil {
		t.Fatalf("diagnose: %v", err)
	}
	ua, err := r.sampler.Sample(adc.ChannelUA)
	if err != nil {
		t.Fatalf("sample UA: %v", err)
	}
	ur, err := r.sampler.Sample(adc.ChannelUR)
	if err != nil {
		t.Fatalf("sample UR: %v", err)
	}
	ub, err := r.sampler.Sample(adc.ChannelUB)
	if err != nil {
		t.Fatalf("sample UB: %v", err)
	}

	out := r.ctrl.Tick(control.Input{Diag: diag, UA: ua, UR: ur, UB: ub, Time: now})
	for _, cmd := range out.Commands {
		if _, err := r.driver.Exchange(cmd); err != nil {
			t.Fatalf("command 0x%X: %v", cmd, err)
		}
	}

	reading := telemetry.Reading{Status: diag, UA: ua, UR: ur, UB: ub}
	if r.ctrl.State() == control.StateSteadyState && diag.Healthy() {
		reading.Lambda = convert.LambdaOf(ua)
		reading.LambdaValid = convert.LambdaValid(ua)
		reading.Oxygen = convert.OxygenOf(ua)
		reading.OxygenValid = convert.OxygenValid(ua)
	}
	if !diag.Healthy() || r.ctrl.State() == control.StateSteadyState {
		if err := r.publisher.PublishReading(reading.Line()); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	return out
}

// run drives n cycles one second apart, starting at start.
func (r *rig) run(t *testing.T, start time.Time, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		r.cycle(t, start.Add(time.Duration(i)*time.Second))
	}
}

var testStart = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// bringUpCycles is how many one-second cycles a healthy rig takes to
// reach steady state: power wait, calibration capture, five
// condensation ticks, thirteen ramp ticks, one converge check.
const bringUpCycles = 21

func TestIntegrationSupplyGate(t *testing.T) {
	// Two undervoltage samples and then a healthy one: the controller
	// leaves the power wait exactly on the third cycle.
	r := newRig(map[adc.Channel][]int{
		adc.ChannelUA: {400},
		adc.ChannelUR: {480},
		adc.ChannelUB: {100, 100, 160},
	})

	r.cycle(t, testStart)
	if r.ctrl.State() != control.StateWaitForPower {
		t.Fatalf("after cycle 1: state = %s", r.ctrl.State())
	}
	r.cycle(t, testStart.Add(time.Second))
	if r.ctrl.State() != control.StateWaitForPower {
		t.Fatalf("after cycle 2: state = %s", r.ctrl.State())
	}
	out := r.cycle(t, testStart.Add(2*time.Second))
	if r.ctrl.State() != control.StateCalibrating {
		t.Fatalf("after cycle 3: state = %s, want %s", r.ctrl.State(), control.StateCalibrating)
	}
	if len(out.Commands) != 1 || out.Commands[0] != cj125.CmdCalibrate {
		t.Errorf("commands = %04X, want [CmdCalibrate]", out.Commands)
	}
}

func TestIntegrationBringUpAndMeasure(t *testing.T) {
	r := newRig(map[adc.Channel][]int{
		adc.ChannelUA: {400},
		adc.ChannelUR: {480},
		adc.ChannelUB: {600},
	})

	r.run(t, testStart, bringUpCycles)
	if r.ctrl.State() != control.StateSteadyState {
		t.Fatalf("state = %s, want %s", r.ctrl.State(), control.StateSteadyState)
	}

	// The wire saw the calibrate command followed by the normal-mode
	// command with amplification A.
	var chipCommands []uint16
	for _, cmd := range r.transport.Sent {
		if cmd != cj125.CmdDiagnostic {
			chipCommands = append(chipCommands, cmd)
		}
	}
	if len(chipCommands) != 2 ||
		chipCommands[0] != cj125.CmdCalibrate ||
		chipCommands[1] != cj125.CmdNormalGainA {
		t.Errorf("chip commands = %04X, want [569D 5688]", chipCommands)
	}

	cal, ok := r.ctrl.Calibration()
	if !ok {
		t.Fatal("no calibration captured")
	}
	if cal.OptimalLambdaSample != 400 || cal.OptimalTemperatureSample != 480 {
		t.Errorf("calibration = %+v, want {400 480}", cal)
	}

	// The converge cycle lands in regulation, so the first measuring
	// line is already out. UA 400 is exactly lambda 1.25, below the
	// oxygen range.
	want := "Measuring, CJ125: 0x28FF, UA_ADC: 400, UR_ADC: 480, UB_ADC: 600, Lambda: 1.25, Oxygen: -"
	if len(r.publisher.Lines) != 1 {
		t.Fatalf("published %d lines, want 1", len(r.publisher.Lines))
	}
	if r.publisher.Lines[0] != want {
		t.Errorf("line =\n  %q\nwant\n  %q", r.publisher.Lines[0], want)
	}
}

func TestIntegrationLeanMixtureReportsOxygen(t *testing.T) {
	r := newRig(map[adc.Channel][]int{
		adc.ChannelUA: {600},
		adc.ChannelUR: {480},
		adc.ChannelUB: {600},
	})

	r.run(t, testStart, bringUpCycles)
	if r.ctrl.State() != control.StateSteadyState {
		t.Fatalf("state = %s", r.ctrl.State())
	}
	want := "Measuring, CJ125: 0x28FF, UA_ADC: 600, UR_ADC: 480, UB_ADC: 600, Lambda: 2.50, Oxygen: 12.00%"
	if len(r.publisher.Lines) != 1 || r.publisher.Lines[0] != want {
		t.Errorf("lines = %q, want [%q]", r.publisher.Lines, want)
	}
}

func TestIntegrationChipFaultReporting(t *testing.T) {
	cases := []struct {
		name string
		diag uint16
		want string
	}{
		{"no power", cj125.DiagNoPower, "Error, CJ125: 0x2855 (No Power)"},
		{"no sensor", cj125.DiagNoSensor, "Error, CJ125: 0x287F (No Sensor)"},
		{"unknown", 0x1234, "Error, CJ125: 0x1234 ()"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(map[adc.Channel][]int{
				adc.ChannelUA: {400},
				adc.ChannelUR: {480},
				adc.ChannelUB: {600},
			})
			r.transport.Respond(cj125.CmdDiagnostic, tc.diag)

			r.cycle(t, testStart)
			if r.ctrl.State() != control.StateWaitForPower {
				t.Errorf("state = %s, want %s", r.ctrl.State(), control.StateWaitForPower)
			}
			if len(r.publisher.Lines) != 1 || r.publisher.Lines[0] != tc.want {
				t.Errorf("lines = %q, want [%q]", r.publisher.Lines, tc.want)
			}
		})
	}
}

func TestIntegrationFaultRecoveryAndRecalibration(t *testing.T) {
	// A full bring-up, a supply collapse mid-regulation, then a second
	// bring-up on restored power with shifted optimum levels. The
	// second calibration must overwrite the first.
	ubs := make([]int, 0, bringUpCycles+2)
	for i := 0; i < bringUpCycles; i++ {
		ubs = append(ubs, 600)
	}
	ubs = append(ubs, 100, 620)
	urs := make([]int, 0, bringUpCycles+3)
	for i := 0; i < bringUpCycles; i++ {
		urs = append(urs, 480)
	}
	// Second bring-up captures its reference on its second cycle.
	urs = append(urs, 480, 480, 470)

	r := newRig(map[adc.Channel][]int{
		adc.ChannelUA: {400},
		adc.ChannelUR: urs,
		adc.ChannelUB: ubs,
	})

	r.run(t, testStart, bringUpCycles)
	if r.ctrl.State() != control.StateSteadyState {
		t.Fatalf("state = %s", r.ctrl.State())
	}

	// Supply collapses: one fault cycle with everything off.
	out := r.cycle(t, testStart.Add(bringUpCycles*time.Second))
	if r.ctrl.State() != control.StateFaultRecovery {
		t.Fatalf("state = %s, want %s", r.ctrl.State(), control.StateFaultRecovery)
	}
	if out.HeaterDuty != 0 || out.AuxDuty != 0 || out.PowerIndicator || out.HeaterIndicator {
		t.Errorf("fault output not all-off: %+v", out)
	}
	if r.ctrl.Recoveries() != 1 {
		t.Errorf("recoveries = %d, want 1", r.ctrl.Recoveries())
	}

	// Power returns; the whole sequence repeats and overwrites the
	// calibration reference.
	r.run(t, testStart.Add((bringUpCycles+1)*time.Second), bringUpCycles+1)
	if r.ctrl.State() != control.StateSteadyState {
		t.Fatalf("state after recovery = %s", r.ctrl.State())
	}
	cal, ok := r.ctrl.Calibration()
	if !ok {
		t.Fatal("no calibration after recovery")
	}
	if cal.OptimalTemperatureSample != 470 {
		t.Errorf("recalibrated optimum = %d, want 470", cal.OptimalTemperatureSample)
	}
}

func TestIntegrationSystemPayloadFormat(t *testing.T) {
	pub := mqtt.NewFakePublisher()
	if err := pub.PublishSystem(mqtt.SystemEvent{
		Timestamp: testStart,
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
		Retained:  true,
	}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var payload struct {
		System struct {
			Timestamp string `json:"timestamp"`
			Event     string `json:"event"`
			Reason    string `json:"reason"`
		} `json:"system"`
	}
	if err := json.Unmarshal(pub.SystemPayloads[0], &payload); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if payload.System.Event != "SHUTDOWN" || payload.System.Reason != "SIGTERM" {
		t.Errorf("payload = %+v", payload.System)
	}
	if payload.System.Timestamp != "2026-01-01T12:00:00Z" {
		t.Errorf("timestamp = %q", payload.System.Timestamp)
	}
}
