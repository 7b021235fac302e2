package status

import (
	"sync"
	"testing"
	"time"
)

func TestNewTrackerDefaults(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(start, Config{Broker: "tcp://localhost:1883"})

	snap := tr.Snapshot()
	if snap.State != "WAIT_FOR_POWER" {
		t.Errorf("initial state = %q", snap.State)
	}
	if snap.Lambda != "-" || snap.Oxygen != "-" {
		t.Errorf("initial readings should be dashes: %q %q", snap.Lambda, snap.Oxygen)
	}
	if snap.Calibrated {
		t.Error("should not start calibrated")
	}
	if snap.Config.Broker != "tcp://localhost:1883" {
		t.Errorf("config broker = %q", snap.Config.Broker)
	}
}

func TestCycleUpdates(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Cycle("STEADY_STATE_REGULATION", "Ok", 0x28FF, 400, 480, 600, 128, "1.25", "-")

	snap := tr.Snapshot()
	if snap.State != "STEADY_STATE_REGULATION" {
		t.Errorf("state = %q", snap.State)
	}
	if snap.DiagnosticCode != 0x28FF || snap.Diagnostic != "Ok" {
		t.Errorf("diagnostic = %q 0x%04X", snap.Diagnostic, snap.DiagnosticCode)
	}
	if snap.UA != 400 || snap.UR != 480 || snap.UB != 600 {
		t.Errorf("samples = %d %d %d", snap.UA, snap.UR, snap.UB)
	}
	if snap.HeaterDuty != 128 {
		t.Errorf("duty = %d", snap.HeaterDuty)
	}
	if snap.Lambda != "1.25" {
		t.Errorf("lambda = %q", snap.Lambda)
	}
}

func TestCalibrationAndCounters(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.SetCalibration(400, 480)
	tr.SetIdent(0x0060)
	tr.AddReport()
	tr.AddReport()
	tr.AddErrorCycle()
	tr.AddFaultRecovery()

	snap := tr.Snapshot()
	if !snap.Calibrated || snap.OptimalLambdaSample != 400 || snap.OptimalTemperatureSample != 480 {
		t.Errorf("calibration = %+v", snap)
	}
	if snap.Ident != 0x0060 {
		t.Errorf("ident = 0x%04X", snap.Ident)
	}
	if snap.Counts.Reports != 2 || snap.Counts.ErrorCycles != 1 || snap.Counts.FaultRecoveries != 1 {
		t.Errorf("counts = %+v", snap.Counts)
	}
}

func TestUptime(t *testing.T) {
	start := time.Now().Add(-90 * time.Second)
	tr := NewTracker(start, Config{})
	up := tr.Snapshot().Uptime()
	if up < 89*time.Second || up > 2*time.Minute {
		t.Errorf("uptime = %v", up)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.Cycle("STEADY_STATE_REGULATION", "Ok", 0x28FF, j, j, j, j, "1.00", "-")
				tr.AddReport()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	if tr.Snapshot().Counts.Reports != 400 {
		t.Errorf("reports = %d, want 400", tr.Snapshot().Counts.Reports)
	}
}
