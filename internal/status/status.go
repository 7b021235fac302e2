// Package status provides a thread-safe status tracker for the
// lambda-sensor daemon. It is read by the HTTP status handlers while the
// control loop writes it every cycle.
package status

import (
	"sync"
	"time"
)

// Config contains daemon configuration for display.
type Config struct {
	SampleIntervalMs int64
	ReportIntervalMs int64
	Transport        string
	Broker           string
	HTTPAddr         string
	LogFile          string
}

// Counts tracks cumulative daemon counters since startup.
type Counts struct {
	Reports         int
	ErrorCycles     int
	FaultRecoveries int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State          string
	Diagnostic     string
	DiagnosticCode uint16
	Ident          uint16

	UA         int
	UR         int
	UB         int
	HeaterDuty int
	Lambda     string // rendered "1.25" or "-"
	Oxygen     string // rendered "4.90%" or "-"

	Calibrated               bool
	OptimalLambdaSample      int
	OptimalTemperatureSample int

	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:      "WAIT_FOR_POWER",
			Diagnostic: "Unknown",
			Lambda:     "-",
			Oxygen:     "-",
			StartTime:  startTime,
			Config:     cfg,
		},
	}
}

// Cycle records the outcome of one control cycle.
// Called from the control loop on every tick.
func (t *Tracker) Cycle(state string, diagnostic string, code uint16, ua, ur, ub, duty int, lambda, oxygen string) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.Diagnostic = diagnostic
	t.snap.DiagnosticCode = code
	t.snap.UA = ua
	t.snap.UR = ur
	t.snap.UB = ub
	t.snap.HeaterDuty = duty
	t.snap.Lambda = lambda
	t.snap.Oxygen = oxygen
	t.mu.Unlock()
}

// SetCalibration records the captured calibration reference.
func (t *Tracker) SetCalibration(lambdaSample, temperatureSample int) {
	t.mu.Lock()
	t.snap.Calibrated = true
	t.snap.OptimalLambdaSample = lambdaSample
	t.snap.OptimalTemperatureSample = temperatureSample
	t.mu.Unlock()
}

// SetIdent records the chip identification word read at startup.
func (t *Tracker) SetIdent(ident uint16) {
	t.mu.Lock()
	t.snap.Ident = ident
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// AddReport counts one emitted telemetry report.
func (t *Tracker) AddReport() {
	t.mu.Lock()
	t.snap.Counts.Reports++
	t.mu.Unlock()
}

// AddErrorCycle counts one reporting cycle with an unhealthy diagnostic.
func (t *Tracker) AddErrorCycle() {
	t.mu.Lock()
	t.snap.Counts.ErrorCycles++
	t.mu.Unlock()
}

// AddFaultRecovery counts one undervoltage restart of the bring-up
// sequence.
func (t *Tracker) AddFaultRecovery() {
	t.mu.Lock()
	t.snap.Counts.FaultRecoveries++
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
