// Package control contains the sensor bring-up state machine and the
// steady-state regulation logic. This package has NO hardware
// dependencies: time arrives through Input, actuations leave through
// Output, and every phase's exit condition is a pure predicate over the
// latest samples and elapsed phase time — so the whole sequence is
// testable with synthetic sample sequences.
package control

import (
	"time"

	"github.com/sweeney/lambda-sensor/internal/cj125"
	"github.com/sweeney/lambda-sensor/internal/convert"
	"github.com/sweeney/lambda-sensor/internal/pid"
)

// State identifies the active phase of the controller.
type State string

const (
	StateWaitForPower        State = "WAIT_FOR_POWER"
	StateDiagnosticGate      State = "DIAGNOSTIC_GATE"
	StateCalibrating         State = "CALIBRATING"
	StateHeatingCondensation State = "HEATING_CONDENSATION"
	StateHeatingRampUp       State = "HEATING_RAMP_UP"
	StateHeatingConverge     State = "HEATING_CONVERGE"
	StateSteadyState         State = "STEADY_STATE_REGULATION"
	StateFaultRecovery       State = "FAULT_RECOVERY"
)

// CalibrationSettle is how long the chip gets to settle after the
// calibration-mode command before the reference samples are captured.
const CalibrationSettle = 500 * time.Millisecond

// Input is one cycle's worth of fresh readings. Within a cycle the
// caller reads diagnostic first, then UA, UR, UB, in that order.
type Input struct {
	Diag cj125.DiagnosticStatus
	UA   int // lambda proxy
	UR   int // temperature proxy, inversely proportional to temperature
	UB   int // supply voltage proxy
	Time time.Time
}

// CalibrationReference holds the optimum samples captured while the
// chip is in calibration mode. It is overwritten on every bring-up
// re-entry; there is no versioning.
type CalibrationReference struct {
	OptimalLambdaSample      int
	OptimalTemperatureSample int
}

// Output is the set of actuations for one cycle. Commands are chip
// command words to issue this cycle, in order, after the samples were
// taken.
type Output struct {
	HeaterDuty      int
	AuxDuty         int
	PowerIndicator  bool
	HeaterIndicator bool
	Commands        []uint16
}

// Config holds the bring-up and regulation constants.
type Config struct {
	// SupplyMin is the undervoltage threshold in raw UB counts.
	SupplyMin int

	// SupplyVoltsPerCount converts a raw UB count to supply volts.
	SupplyVoltsPerCount float64

	// Condensation phase: low fixed heater voltage held for a number of
	// one-second ticks to dry the element without thermal shock.
	CondensationVolts float64
	CondensationTicks int

	// Ramp-up phase: target heater volts from start to ceiling in fixed
	// steps per tick.
	RampStartVolts   float64
	RampStepVolts    float64
	RampCeilingVolts float64

	// Gain selects the chip amplification for normal mode.
	Gain cj125.Gain

	// SampleInterval is the steady-state cycle period.
	SampleInterval time.Duration

	PID pid.Config
}

// DefaultConfig returns the stock bring-up constants.
func DefaultConfig() Config {
	return Config{
		SupplyMin:           150,
		SupplyVoltsPerCount: 16.5 / 1023,
		CondensationVolts:   2.0,
		CondensationTicks:   5,
		RampStartVolts:      8.5,
		RampStepVolts:       0.4,
		RampCeilingVolts:    13.0,
		Gain:                cj125.GainA,
		SampleInterval:      10 * time.Millisecond,
		PID:                 pid.DefaultConfig(),
	}
}

// Controller owns the bring-up sequence and, once stabilized, the
// steady-state heater regulation. It is the single owner of the
// calibration reference and the PID state.
type Controller struct {
	cfg Config

	state      State
	cal        CalibrationReference
	calibrated bool
	pid        *pid.Controller

	phaseStart time.Time
	phaseTicks int
	rampVolts  float64
	indicator  bool

	recoveries int
}

// New creates a Controller in WaitForPower.
func New(cfg Config) *Controller {
	return &Controller{
		cfg:   cfg,
		state: StateWaitForPower,
		pid:   pid.New(cfg.PID),
	}
}

// State returns the active phase.
func (c *Controller) State() State {
	return c.state
}

// Calibration returns the captured reference and whether a capture has
// happened yet this run.
func (c *Controller) Calibration() (CalibrationReference, bool) {
	return c.cal, c.calibrated
}

// Recoveries returns how many times the controller has restarted the
// bring-up sequence after a power loss.
func (c *Controller) Recoveries() int {
	return c.recoveries
}

// Interval returns the polling cadence for the current state: slow
// while waiting for power and drying the element, faster through the
// heating phases, and the full sampling rate in regulation.
func (c *Controller) Interval() time.Duration {
	switch c.state {
	case StateWaitForPower, StateHeatingCondensation:
		return time.Second
	case StateCalibrating, StateHeatingRampUp, StateHeatingConverge:
		return 500 * time.Millisecond
	default:
		return c.cfg.SampleInterval
	}
}

// Tick advances the state machine one cycle. The diagnostic gate is
// folded into the power wait: it resolves on the same tick it is
// entered, so the machine never rests there.
func (c *Controller) Tick(in Input) Output {
	out := c.step(in)
	if c.state == StateDiagnosticGate {
		out = c.step(in)
	}
	return out
}

func (c *Controller) step(in Input) Output {
	switch c.state {
	case StateWaitForPower:
		if in.UB >= c.cfg.SupplyMin && in.Diag.Healthy() {
			c.enter(StateDiagnosticGate, in.Time)
		}
		return Output{}

	case StateDiagnosticGate:
		if in.UB < c.cfg.SupplyMin || !in.Diag.Healthy() {
			c.enter(StateWaitForPower, in.Time)
			return Output{}
		}
		c.enter(StateCalibrating, in.Time)
		return Output{Commands: []uint16{cj125.CmdCalibrate}}

	case StateCalibrating:
		if in.Time.Sub(c.phaseStart) < CalibrationSettle {
			return Output{}
		}
		// One-shot capture: the chip has been presenting its optimum
		// levels since the calibrate command; store them and leave
		// calibration mode.
		c.cal = CalibrationReference{
			OptimalLambdaSample:      in.UA,
			OptimalTemperatureSample: in.UR,
		}
		c.calibrated = true
		c.pid.SetTarget(c.cal.OptimalTemperatureSample)
		c.enter(StateHeatingCondensation, in.Time)
		return Output{Commands: []uint16{c.cfg.Gain.NormalCommand()}}

	case StateHeatingCondensation:
		if in.UB < c.cfg.SupplyMin {
			return c.fault(in)
		}
		c.phaseTicks++
		c.indicator = !c.indicator
		duty := dutyForVolts(c.cfg.CondensationVolts, c.supplyVolts(in.UB))
		if c.phaseTicks >= c.cfg.CondensationTicks {
			c.enter(StateHeatingRampUp, in.Time)
			c.rampVolts = c.cfg.RampStartVolts
		}
		return Output{HeaterDuty: duty, HeaterIndicator: c.indicator}

	case StateHeatingRampUp:
		if in.UB < c.cfg.SupplyMin {
			return c.fault(in)
		}
		c.indicator = !c.indicator
		if c.rampVolts > c.cfg.RampCeilingVolts {
			c.rampVolts = c.cfg.RampCeilingVolts
		}
		duty := dutyForVolts(c.rampVolts, c.supplyVolts(in.UB))
		if c.rampVolts >= c.cfg.RampCeilingVolts {
			c.enter(StateHeatingConverge, in.Time)
		} else {
			c.rampVolts += c.cfg.RampStepVolts
		}
		return Output{HeaterDuty: duty, HeaterIndicator: c.indicator}

	case StateHeatingConverge:
		if in.UB < c.cfg.SupplyMin {
			return c.fault(in)
		}
		// The temperature proxy falls as the element heats; at or below
		// the calibrated optimum the sensor is hot enough to regulate.
		if in.UR <= c.cal.OptimalTemperatureSample {
			c.enter(StateSteadyState, in.Time)
			return Output{PowerIndicator: true, AuxDuty: auxDuty(in.UA)}
		}
		return Output{HeaterIndicator: true}

	case StateSteadyState:
		if in.UB < c.cfg.SupplyMin {
			return c.fault(in)
		}
		return Output{
			HeaterDuty:     c.pid.Regulate(in.UR),
			AuxDuty:        auxDuty(in.UA),
			PowerIndicator: true,
		}

	case StateFaultRecovery:
		// One cycle with everything off, then the whole bring-up repeats.
		// Calibration will be overwritten; the PID integrator is
		// deliberately left alone.
		c.enter(StateWaitForPower, in.Time)
		return Output{}
	}
	return Output{}
}

// fault drops everything off and schedules a full restart of the
// bring-up sequence.
func (c *Controller) fault(in Input) Output {
	c.recoveries++
	c.enter(StateFaultRecovery, in.Time)
	return Output{}
}

// enter switches phases. The heater indicator is left alone so its
// toggling stays strict across phase boundaries, including the tick
// that exits a phase.
func (c *Controller) enter(s State, t time.Time) {
	c.state = s
	c.phaseStart = t
	c.phaseTicks = 0
}

func (c *Controller) supplyVolts(ub int) float64 {
	return float64(ub) * c.cfg.SupplyVoltsPerCount
}

// dutyForVolts converts a target heater voltage into a PWM duty cycle
// against the measured supply voltage.
func dutyForVolts(target, supply float64) int {
	if supply <= 0 {
		return 0
	}
	d := int(target / supply * 255)
	if d < 0 {
		return 0
	}
	if d > 255 {
		return 255
	}
	return d
}

// auxDuty maps the lambda-proxy sample onto the 0..255 auxiliary output
// for external gauges.
func auxDuty(ua int) int {
	if ua < convert.LambdaFloor {
		ua = convert.LambdaFloor
	}
	if ua > convert.LambdaCeiling {
		ua = convert.LambdaCeiling
	}
	return (ua - convert.LambdaFloor) * 255 / (convert.LambdaCeiling - convert.LambdaFloor)
}
