//go:build linux

package outputs

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// RealActuator drives actual hardware: indicator lines through the GPIO
// character device, heater and auxiliary outputs through hardware PWM
// pins.
type RealActuator struct {
	powerLine  *gpiocdev.Line
	heaterLine *gpiocdev.Line
	heaterPWM  gpio.PinIO
	auxPWM     gpio.PinIO
	freq       physic.Frequency
}

// NewRealActuator requests the indicator lines on the named chip and
// resolves the PWM pins by name.
func NewRealActuator(chip string, pinPower, pinHeaterIndicator int, heaterPWMPin, auxPWMPin string, pwmFreq physic.Frequency) (*RealActuator, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host: %w", err)
	}

	powerLine, err := gpiocdev.RequestLine(chip, pinPower, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request power pin %d: %w", pinPower, err)
	}

	heaterLine, err := gpiocdev.RequestLine(chip, pinHeaterIndicator, gpiocdev.AsOutput(0))
	if err != nil {
		powerLine.Close()
		return nil, fmt.Errorf("request heater indicator pin %d: %w", pinHeaterIndicator, err)
	}

	heaterPWM := gpioreg.ByName(heaterPWMPin)
	if heaterPWM == nil {
		heaterLine.Close()
		powerLine.Close()
		return nil, fmt.Errorf("heater pwm pin %s not found", heaterPWMPin)
	}

	auxPWM := gpioreg.ByName(auxPWMPin)
	if auxPWM == nil {
		heaterLine.Close()
		powerLine.Close()
		return nil, fmt.Errorf("aux pwm pin %s not found", auxPWMPin)
	}

	return &RealActuator{
		powerLine:  powerLine,
		heaterLine: heaterLine,
		heaterPWM:  heaterPWM,
		auxPWM:     auxPWM,
		freq:       pwmFreq,
	}, nil
}

// SetPower drives the power/status indicator line.
func (a *RealActuator) SetPower(on bool) error {
	if err := a.powerLine.SetValue(boolValue(on)); err != nil {
		return fmt.Errorf("set power indicator: %w", err)
	}
	return nil
}

// SetHeaterIndicator drives the heater-activity indicator line.
func (a *RealActuator) SetHeaterIndicator(on bool) error {
	if err := a.heaterLine.SetValue(boolValue(on)); err != nil {
		return fmt.Errorf("set heater indicator: %w", err)
	}
	return nil
}

// SetHeaterDuty sets the heater PWM duty cycle, 0..255.
func (a *RealActuator) SetHeaterDuty(duty int) error {
	if err := a.heaterPWM.PWM(dutyOf(clampDuty(duty)), a.freq); err != nil {
		return fmt.Errorf("set heater duty: %w", err)
	}
	return nil
}

// SetAuxOutput sets the auxiliary analog-equivalent output, 0..255.
func (a *RealActuator) SetAuxOutput(value int) error {
	if err := a.auxPWM.PWM(dutyOf(clampDuty(value)), a.freq); err != nil {
		return fmt.Errorf("set aux output: %w", err)
	}
	return nil
}

// Close forces the heater off, darkens the indicators and releases the
// lines. Zeroing the heater first matters: leaving the element driven
// without a control loop will destroy the sensor.
func (a *RealActuator) Close() error {
	var errs []error

	if err := a.heaterPWM.PWM(0, a.freq); err != nil {
		errs = append(errs, fmt.Errorf("zero heater: %w", err))
	}
	if err := a.auxPWM.PWM(0, a.freq); err != nil {
		errs = append(errs, fmt.Errorf("zero aux: %w", err))
	}
	for _, line := range []*gpiocdev.Line{a.powerLine, a.heaterLine} {
		if line == nil {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear indicator: %w", err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func boolValue(on bool) int {
	if on {
		return 1
	}
	return 0
}

func dutyOf(d int) gpio.Duty {
	return gpio.Duty(uint64(d) * uint64(gpio.DutyMax) / 255)
}
