package web

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/lambda-sensor/internal/status"
)

// StatusJSON is the JSON representation of the daemon status.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	State          string          `json:"state"`
	Diagnostic     string          `json:"diagnostic"`
	DiagnosticCode string          `json:"diagnostic_code"`
	Ident          string          `json:"ident"`
	Readings       ReadingsJSON    `json:"readings"`
	Calibration    CalibrationJSON `json:"calibration"`
	Counts         CountsJSON      `json:"counts"`
	MQTTConnected  bool            `json:"mqtt_connected"`
	UptimeSeconds  int64           `json:"uptime_seconds"`
	Started        string          `json:"started"`
	Config         ConfigJSON      `json:"config"`
}

// ReadingsJSON contains the latest cycle's readings.
type ReadingsJSON struct {
	Lambda     string `json:"lambda"`
	Oxygen     string `json:"oxygen"`
	UA         int    `json:"ua_adc"`
	UR         int    `json:"ur_adc"`
	UB         int    `json:"ub_adc"`
	HeaterDuty int    `json:"heater_duty"`
}

// CalibrationJSON contains the captured calibration reference.
type CalibrationJSON struct {
	Captured  bool `json:"captured"`
	OptimalUA int  `json:"optimal_ua"`
	OptimalUR int  `json:"optimal_ur"`
}

// CountsJSON contains the daemon counters.
type CountsJSON struct {
	Reports         int `json:"reports"`
	ErrorCycles     int `json:"error_cycles"`
	FaultRecoveries int `json:"fault_recoveries"`
}

// ConfigJSON contains the displayed configuration.
type ConfigJSON struct {
	SampleIntervalMs int64  `json:"sample_interval_ms"`
	ReportIntervalMs int64  `json:"report_interval_ms"`
	Transport        string `json:"transport"`
	Broker           string `json:"broker"`
	HTTPAddr         string `json:"http_addr"`
	LogFile          string `json:"log_file"`
}

func formatJSON(snap status.Snapshot) []byte {
	out := StatusJSON{
		Status: StatusInner{
			State:          snap.State,
			Diagnostic:     snap.Diagnostic,
			DiagnosticCode: fmt.Sprintf("0x%04X", snap.DiagnosticCode),
			Ident:          fmt.Sprintf("0x%04X", snap.Ident),
			Readings: ReadingsJSON{
				Lambda:     snap.Lambda,
				Oxygen:     snap.Oxygen,
				UA:         snap.UA,
				UR:         snap.UR,
				UB:         snap.UB,
				HeaterDuty: snap.HeaterDuty,
			},
			Calibration: CalibrationJSON{
				Captured:  snap.Calibrated,
				OptimalUA: snap.OptimalLambdaSample,
				OptimalUR: snap.OptimalTemperatureSample,
			},
			Counts: CountsJSON{
				Reports:         snap.Counts.Reports,
				ErrorCycles:     snap.Counts.ErrorCycles,
				FaultRecoveries: snap.Counts.FaultRecoveries,
			},
			MQTTConnected: snap.MQTTConnected,
			UptimeSeconds: int64(snap.Uptime() / time.Second),
			Started:       snap.StartTime.UTC().Format(time.RFC3339),
			Config: ConfigJSON{
				SampleIntervalMs: snap.Config.SampleIntervalMs,
				ReportIntervalMs: snap.Config.ReportIntervalMs,
				Transport:        snap.Config.Transport,
				Broker:           snap.Config.Broker,
				HTTPAddr:         snap.Config.HTTPAddr,
				LogFile:          snap.Config.LogFile,
			},
		},
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		// Snapshot is plain data; this cannot fail in practice.
		return []byte(`{"status":{}}`)
	}
	return data
}
