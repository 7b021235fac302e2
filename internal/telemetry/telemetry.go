// Package telemetry formats the controller's reporting lines and fans
// them out to the configured sinks. The line format is a wire contract
// consumed by downstream tooling — change it and the dashboards break.
package telemetry

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/sweeney/lambda-sensor/internal/cj125"
)

// Reading is one sampling cycle's worth of reportable data.
type Reading struct {
	Status cj125.DiagnosticStatus
	UA     int
	UR     int
	UB     int

	Lambda      float64
	LambdaValid bool
	Oxygen      float64
	OxygenValid bool
}

// MeasuringLine renders the periodic measurement report:
//
//	Measuring, CJ125: 0x28FF, UA_ADC: 400, UR_ADC: 480, UB_ADC: 600, Lambda: 1.25, Oxygen: -
func (r Reading) MeasuringLine() string {
	lambda := "-"
	if r.LambdaValid {
		lambda = strconv.FormatFloat(r.Lambda, 'f', 2, 64)
	}
	oxygen := "-"
	if r.OxygenValid {
		oxygen = fmt.Sprintf("%.2f%%", r.Oxygen)
	}
	return fmt.Sprintf("Measuring, CJ125: 0x%X, UA_ADC: %d, UR_ADC: %d, UB_ADC: %d, Lambda: %s, Oxygen: %s",
		r.Status.Code, r.UA, r.UR, r.UB, lambda, oxygen)
}

// ErrorLine renders the fault report for cycles with an unhealthy
// diagnostic:
//
//	Error, CJ125: 0x2855 (No Power)
//
// Unknown codes carry an empty parenthetical.
func (r Reading) ErrorLine() string {
	return fmt.Sprintf("Error, CJ125: 0x%X (%s)", r.Status.Code, r.Status.Describe())
}

// Line picks the right rendering for the cycle's diagnostic.
func (r Reading) Line() string {
	if r.Status.Healthy() {
		return r.MeasuringLine()
	}
	return r.ErrorLine()
}

// Sink accepts one report line per reporting interval.
type Sink interface {
	Write(line string) error
	Close() error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(line string) error

// Write calls the function.
func (f SinkFunc) Write(line string) error { return f(line) }

// Close is a no-op.
func (f SinkFunc) Close() error { return nil }

// MultiSink fans a line out to every sink. One sink's failure never
// stops the others; errors are joined and returned for logging.
type MultiSink []Sink

// Write delivers the line to every sink.
func (m MultiSink) Write(line string) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(line); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
