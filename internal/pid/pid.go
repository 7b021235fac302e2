// Package pid implements the discrete-time heater temperature regulator.
// The measured input is the raw temperature-proxy sample, which is
// inversely proportional to temperature (lower sample = hotter), hence
// the negative gain convention throughout. Changing that sign makes the
// loop run away.
package pid

// Output duty-cycle bounds.
const (
	OutputMin = 0
	OutputMax = 255
)

// Config holds the loop gains and integrator bounds.
type Config struct {
	Kp float64
	Ki float64
	Kd float64

	// Integrator clamp, applied to the accumulated error before the
	// Ki scaling.
	IntegratorMin float64
	IntegratorMax float64
}

// DefaultConfig returns the stock gains for the sensor's heating element.
func DefaultConfig() Config {
	return Config{
		Kp:            120,
		Ki:            0.8,
		Kd:            10,
		IntegratorMin: -250,
		IntegratorMax: 250,
	}
}

// Controller is the PID state. It never fails: Regulate is pure
// arithmetic over the controller state, and saturation at the output
// bounds is the only protection against actuator overdrive.
type Controller struct {
	cfg          Config
	target       float64
	integrator   float64
	lastPosition float64
}

// New creates a Controller with the given gains and a zero target.
// The target is set from the calibration capture before the loop runs.
func New(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// SetTarget sets the setpoint to the calibration-captured optimal
// temperature-proxy sample. The integrator and last position carry over;
// they are not reset on recalibration.
func (c *Controller) SetTarget(sample int) {
	c.target = float64(sample)
}

// Target returns the current setpoint sample.
func (c *Controller) Target() int {
	return int(c.target)
}

// Regulate advances the loop one tick with a fresh temperature-proxy
// sample and returns the heater duty cycle in [0, 255].
func (c *Controller) Regulate(measured int) int {
	m := float64(measured)
	e := c.target - m

	p := -c.cfg.Kp * e

	c.integrator += e
	if c.integrator < c.cfg.IntegratorMin {
		c.integrator = c.cfg.IntegratorMin
	}
	if c.integrator > c.cfg.IntegratorMax {
		c.integrator = c.cfg.IntegratorMax
	}
	i := -c.cfg.Ki * c.integrator

	d := -c.cfg.Kd * (c.lastPosition - m)
	c.lastPosition = m

	out := p + i + d
	if out < OutputMin {
		return OutputMin
	}
	if out > OutputMax {
		return OutputMax
	}
	return int(out)
}
