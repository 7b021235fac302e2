package cj125

import "fmt"

// Transport performs one synchronous 16-bit frame transaction: assert
// chip select, shift 16 bits MSB first, de-assert chip select. The
// driver issues exactly one exchange per call and never retries; an
// unhappy chip is surfaced as a diagnostic or identification code, not
// as a transport error. Retry policy belongs to the caller.
type Transport interface {
	Exchange(command uint16) (uint16, error)
}

// Driver talks to the front-end chip over a Transport.
type Driver struct {
	t Transport
}

// New creates a Driver on the given transport.
func New(t Transport) *Driver {
	return &Driver{t: t}
}

// Exchange sends a raw command word and returns the response word.
func (d *Driver) Exchange(command uint16) (uint16, error) {
	resp, err := d.t.Exchange(command)
	if err != nil {
		return 0, fmt.Errorf("exchange 0x%04X: %w", command, err)
	}
	return resp, nil
}

// Diagnose reads and decodes the diagnostic register.
func (d *Driver) Diagnose() (DiagnosticStatus, error) {
	resp, err := d.Exchange(CmdDiagnostic)
	if err != nil {
		return DiagnosticStatus{}, err
	}
	return DecodeDiagnostic(resp), nil
}

// Identify reads the identification register and returns the raw word.
func (d *Driver) Identify() (uint16, error) {
	return d.Exchange(CmdIdent)
}

// ReadInitRegisters reads init registers 1 and 2, in that order.
func (d *Driver) ReadInitRegisters() (uint16, uint16, error) {
	r1, err := d.Exchange(CmdReadInitReg1)
	if err != nil {
		return 0, 0, err
	}
	r2, err := d.Exchange(CmdReadInitReg2)
	if err != nil {
		return 0, 0, err
	}
	return r1, r2, nil
}

// Calibrate switches the chip into calibration mode, where the analog
// outputs present the optimal lambda and temperature levels.
func (d *Driver) Calibrate() error {
	_, err := d.Exchange(CmdCalibrate)
	return err
}

// SetNormal switches the chip into normal measurement mode with the
// given amplification.
func (d *Driver) SetNormal(g Gain) error {
	_, err := d.Exchange(g.NormalCommand())
	return err
}
