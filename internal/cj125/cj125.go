// Package cj125 implements the register-level protocol for the CJ125
// lambda-sensor analog front-end. Frames are 16 bits, exchanged MSB
// first over a half-duplex chip-selected transport.
package cj125

// Command words understood by the chip. These bit patterns are fixed by
// the chip's register map and must match exactly.
const (
	CmdIdent        uint16 = 0x4800 // read identification register
	CmdDiagnostic   uint16 = 0x7800 // read diagnostic register
	CmdReadInitReg1 uint16 = 0x6C00 // read init register 1
	CmdReadInitReg2 uint16 = 0x7E00 // read init register 2
	CmdCalibrate    uint16 = 0x569D // enter calibration mode
	CmdNormalGainA  uint16 = 0x5688 // normal mode, amplification A
	CmdNormalGainB  uint16 = 0x5689 // normal mode, amplification B
)

// Known diagnostic register responses.
const (
	DiagHealthy  uint16 = 0x28FF
	DiagNoPower  uint16 = 0x2855
	DiagNoSensor uint16 = 0x287F
)

// Diagnosis classifies a diagnostic response word.
type Diagnosis int

const (
	Ok Diagnosis = iota
	NoPower
	NoSensor
	Unknown
)

// DiagnosticStatus is a decoded diagnostic response. It is derived fresh
// from each read and never persisted. Code keeps the raw word so unknown
// responses can be reported verbatim.
type DiagnosticStatus struct {
	Diagnosis Diagnosis
	Code      uint16
}

// DecodeDiagnostic maps a raw diagnostic response to a DiagnosticStatus.
// Anything other than the three known words is Unknown.
func DecodeDiagnostic(code uint16) DiagnosticStatus {
	s := DiagnosticStatus{Code: code}
	switch code {
	case DiagHealthy:
		s.Diagnosis = Ok
	case DiagNoPower:
		s.Diagnosis = NoPower
	case DiagNoSensor:
		s.Diagnosis = NoSensor
	default:
		s.Diagnosis = Unknown
	}
	return s
}

// Healthy reports whether the chip considers sensor and supply good.
func (s DiagnosticStatus) Healthy() bool {
	return s.Diagnosis == Ok
}

// Describe returns the human-readable fault name used in telemetry
// lines: "No Power", "No Sensor", or "" for Ok and unknown codes.
func (s DiagnosticStatus) Describe() string {
	switch s.Diagnosis {
	case NoPower:
		return "No Power"
	case NoSensor:
		return "No Sensor"
	default:
		return ""
	}
}

// String returns a short name for logs and status pages.
func (s DiagnosticStatus) String() string {
	switch s.Diagnosis {
	case Ok:
		return "Ok"
	case NoPower:
		return "NoPower"
	case NoSensor:
		return "NoSensor"
	default:
		return "Unknown"
	}
}

// Gain selects the chip's pump-cell amplification in normal mode.
type Gain int

const (
	GainA Gain = iota // amplification factor 8
	GainB             // amplification factor 17
)

// NormalCommand returns the normal-mode command word for the gain.
func (g Gain) NormalCommand() uint16 {
	if g == GainB {
		return CmdNormalGainB
	}
	return CmdNormalGainA
}
