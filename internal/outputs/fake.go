package outputs

// FakeActuator records output writes for test assertions.
type FakeActuator struct {
	// Latest values.
	Power           bool
	HeaterIndicator bool
	HeaterDuty      int
	AuxOutput       int

	// Histories, one entry per Set call.
	PowerHistory     []bool
	IndicatorHistory []bool
	DutyHistory      []int
	AuxHistory       []int

	// SetError, if set, will be returned by every setter.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeActuator creates a FakeActuator.
func NewFakeActuator() *FakeActuator {
	return &FakeActuator{}
}

// SetPower records the power indicator state.
func (f *FakeActuator) SetPower(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Power = on
	f.PowerHistory = append(f.PowerHistory, on)
	return nil
}

// SetHeaterIndicator records the heater indicator state.
func (f *FakeActuator) SetHeaterIndicator(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.HeaterIndicator = on
	f.IndicatorHistory = append(f.IndicatorHistory, on)
	return nil
}

// SetHeaterDuty records the heater duty cycle.
func (f *FakeActuator) SetHeaterDuty(duty int) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.HeaterDuty = clampDuty(duty)
	f.DutyHistory = append(f.DutyHistory, f.HeaterDuty)
	return nil
}

// SetAuxOutput records the auxiliary output value.
func (f *FakeActuator) SetAuxOutput(value int) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.AuxOutput = clampDuty(value)
	f.AuxHistory = append(f.AuxHistory, f.AuxOutput)
	return nil
}

// Close zeroes the heater and marks the actuator closed.
func (f *FakeActuator) Close() error {
	f.HeaterDuty = 0
	f.Closed = true
	return nil
}

// Reset clears all recorded state.
func (f *FakeActuator) Reset() {
	*f = FakeActuator{}
}
