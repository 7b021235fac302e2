// Package outputs drives the controller's digital indicators and PWM
// outputs with hardware abstraction. The real implementation uses the
// Linux GPIO character device for the indicator lines and hardware PWM
// pins for the heater and gauge outputs; the fake records every write.
package outputs

// Default pin assignments (BCM numbering; PWM pins by periph name).
const (
	DefaultPinPower           = 5
	DefaultPinHeaterIndicator = 6
	DefaultPinHeaterPWM       = "GPIO18"
	DefaultPinAuxPWM          = "GPIO13"
)

// Actuator sets the controller's outputs. Duty values are on the 0..255
// scale; callers are expected to stay in range, but implementations
// clamp defensively so a wild value can never overdrive the heater.
type Actuator interface {
	// SetPower drives the power/status indicator.
	SetPower(on bool) error

	// SetHeaterIndicator drives the heater-activity indicator.
	SetHeaterIndicator(on bool) error

	// SetHeaterDuty sets the heater PWM duty cycle, 0..255.
	SetHeaterDuty(duty int) error

	// SetAuxOutput sets the auxiliary analog-equivalent output, 0..255.
	SetAuxOutput(value int) error

	// Close forces the heater off and releases the pins.
	Close() error
}

func clampDuty(d int) int {
	if d < 0 {
		return 0
	}
	if d > 255 {
		return 255
	}
	return d
}
