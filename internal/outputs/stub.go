//go:build !linux

package outputs

import (
	"errors"

	"periph.io/x/conn/v3/physic"
)

// RealActuator is not available on non-Linux platforms.
type RealActuator struct{}

// NewRealActuator returns an error on non-Linux platforms.
func NewRealActuator(chip string, pinPower, pinHeaterIndicator int, heaterPWMPin, auxPWMPin string, pwmFreq physic.Frequency) (*RealActuator, error) {
	return nil, errors.New("outputs: not supported on this platform (requires Linux)")
}

// SetPower is not implemented on non-Linux platforms.
func (a *RealActuator) SetPower(on bool) error { return errors.New("outputs: not supported") }

// SetHeaterIndicator is not implemented on non-Linux platforms.
func (a *RealActuator) SetHeaterIndicator(on bool) error {
	return errors.New("outputs: not supported")
}

// SetHeaterDuty is not implemented on non-Linux platforms.
func (a *RealActuator) SetHeaterDuty(duty int) error { return errors.New("outputs: not supported") }

// SetAuxOutput is not implemented on non-Linux platforms.
func (a *RealActuator) SetAuxOutput(value int) error { return errors.New("outputs: not supported") }

// Close is not implemented on non-Linux platforms.
func (a *RealActuator) Close() error { return nil }
