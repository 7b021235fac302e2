// Command lambda-sensor runs the wideband lambda controller: it brings
// the sensor up through its heating sequence, regulates the element
// temperature, and reports lambda/oxygen readings over MQTT, a log
// file, and an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/lambda-sensor/internal/adc"
	"github.com/sweeney/lambda-sensor/internal/cj125"
	"github.com/sweeney/lambda-sensor/internal/config"
	"github.com/sweeney/lambda-sensor/internal/control"
	"github.com/sweeney/lambda-sensor/internal/convert"
	"github.com/sweeney/lambda-sensor/internal/mqtt"
	"github.com/sweeney/lambda-sensor/internal/outputs"
	"github.com/sweeney/lambda-sensor/internal/pid"
	"github.com/sweeney/lambda-sensor/internal/status"
	"github.com/sweeney/lambda-sensor/internal/telemetry"
	"github.com/sweeney/lambda-sensor/internal/transport"
	"github.com/sweeney/lambda-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	logFile := flag.String("log", "", "append telemetry lines to this file (overrides config)")
	transportKind := flag.String("transport", "", `chip transport, "spi" or "serial" (overrides config)`)
	printStatus := flag.Bool("print-status", false, "Read the chip diagnostic and samples once, print, and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	cfg.ApplyEnv()
	if *broker != "" {
		cfg.Telemetry.Broker = *broker
	}
	if *logFile != "" {
		cfg.Telemetry.LogFile = *logFile
	}
	if *transportKind != "" {
		cfg.Transport.Kind = *transportKind
	}

	if err := run(cfg, *httpAddr, *printStatus); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, httpAddr string, printStatus bool) error {
	// Initialize the chip transport and register driver
	tr, err := openTransport(cfg.Transport)
	if err != nil {
		return fmt.Errorf("init transport: %w", err)
	}
	defer tr.Close()
	driver := cj125.New(tr)

	// Initialize the sampling converter
	sampler, err := adc.NewMCP3008Sampler(cfg.ADC.Device, map[adc.Channel]int{
		adc.ChannelUA: cfg.ADC.UAInput,
		adc.ChannelUR: cfg.ADC.URInput,
		adc.ChannelUB: cfg.ADC.UBInput,
	})
	if err != nil {
		return fmt.Errorf("init adc: %w", err)
	}
	defer sampler.Close()

	// Print status mode
	if printStatus {
		return printOnce(driver, sampler)
	}

	// Initialize the indicator and PWM outputs
	actuator, err := outputs.NewRealActuator(cfg.Outputs.Chip,
		cfg.Outputs.PowerPin, cfg.Outputs.HeaterIndicatorPin,
		cfg.Outputs.HeaterPWMPin, cfg.Outputs.AuxPWMPin,
		physic.Frequency(cfg.Outputs.PWMFreqHz)*physic.Hertz)
	if err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}
	defer actuator.Close()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(cfg.Telemetry.Broker, "lambda-sensor")
	defer publisher.Close()

	// Telemetry sinks beyond the process log
	sink := telemetry.MultiSink{}
	if cfg.Telemetry.LogFile != "" {
		fileSink, err := telemetry.NewFileSink(cfg.Telemetry.LogFile)
		if err != nil {
			// Reports still reach the log and the broker.
			log.Printf("telemetry log disabled: %v", err)
		} else {
			sink = append(sink, fileSink)
		}
	}
	defer sink.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		SampleIntervalMs: int64(cfg.Loop.SampleIntervalMs),
		ReportIntervalMs: int64(cfg.Loop.ReportIntervalMs),
		Transport:        cfg.Transport.Kind,
		Broker:           cfg.Telemetry.Broker,
		HTTPAddr:         httpAddr,
		LogFile:          cfg.Telemetry.LogFile,
	})

	if ident, err := driver.Identify(); err != nil {
		log.Printf("chip identify error: %v", err)
	} else {
		log.Printf("chip ident: 0x%X", ident)
		tracker.SetIdent(ident)
	}
	if reg1, reg2, err := driver.ReadInitRegisters(); err != nil {
		log.Printf("chip init register read error: %v", err)
	} else {
		log.Printf("chip init registers: 0x%X 0x%X", reg1, reg2)
	}

	if err := publisher.PublishSystem(mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	ctrl := control.New(controllerConfig(cfg))

	log.Printf("started: transport=%s sample=%v report=%v broker=%s",
		cfg.Transport.Kind, cfg.Loop.SampleInterval(), cfg.Loop.ReportInterval(), cfg.Telemetry.Broker)

	ticker := time.NewTicker(ctrl.Interval())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	d := loopDeps{
		driver:      driver,
		sampler:     sampler,
		actuator:    actuator,
		publisher:   publisher,
		mqttStatus:  publisher,
		tracker:     tracker,
		sink:        sink,
		ctrl:        ctrl,
		reportEvery: cfg.Loop.ReportInterval(),
	}
	return runLoop(d, time.Now, ticker.C, ticker.Reset, sigCh)
}

func controllerConfig(cfg *config.Config) control.Config {
	ctrlCfg := control.DefaultConfig()
	ctrlCfg.SupplyMin = cfg.Supply.MinCounts
	ctrlCfg.SupplyVoltsPerCount = cfg.Supply.VRef * cfg.Supply.DividerRatio / 1023
	ctrlCfg.CondensationVolts = cfg.Heater.CondensationVolts
	ctrlCfg.CondensationTicks = cfg.Heater.CondensationTicks
	ctrlCfg.RampStartVolts = cfg.Heater.RampStartVolts
	ctrlCfg.RampStepVolts = cfg.Heater.RampStepVolts
	ctrlCfg.RampCeilingVolts = cfg.Heater.RampCeilingVolts
	ctrlCfg.SampleInterval = cfg.Loop.SampleInterval()
	ctrlCfg.PID = pid.Config{
		Kp:            cfg.Heater.Kp,
		Ki:            cfg.Heater.Ki,
		Kd:            cfg.Heater.Kd,
		IntegratorMin: pid.DefaultConfig().IntegratorMin,
		IntegratorMax: pid.DefaultConfig().IntegratorMax,
	}
	if cfg.Heater.Gain == "B" {
		ctrlCfg.Gain = cj125.GainB
	} else {
		ctrlCfg.Gain = cj125.GainA
	}
	return ctrlCfg
}

// loopDeps bundles everything the sampling loop touches. Tests swap in
// the fake implementations.
type loopDeps struct {
	driver      *cj125.Driver
	sampler     adc.Sampler
	actuator    outputs.Actuator
	publisher   mqtt.Publisher
	mqttStatus  mqtt.ConnectionStatus
	tracker     *status.Tracker
	sink        telemetry.Sink
	ctrl        *control.Controller
	reportEvery time.Duration
}

// maxReadFailures is how many consecutive failed cycles are tolerated
// before the heater is forced off. A cycle that cannot read the chip or
// the converter leaves the previous duty applied; the element must not
// stay driven blind.
const maxReadFailures = 3

func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, reset func(time.Duration), sig <-chan os.Signal) error {
	interval := d.ctrl.Interval()
	lastState := d.ctrl.State()
	lastRecoveries := d.ctrl.Recoveries()
	failures := 0
	var lastReport time.Time

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			// Heater off before anything else.
			if err := d.actuator.SetHeaterDuty(0); err != nil {
				log.Printf("heater off error: %v", err)
			}

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			if cycle(d, t, &lastReport) {
				failures = 0
			} else {
				failures++
				if failures == maxReadFailures {
					log.Printf("%d consecutive read failures, forcing heater off", failures)
					if err := d.actuator.SetHeaterDuty(0); err != nil {
						log.Printf("heater off error: %v", err)
					}
				}
			}

			if state := d.ctrl.State(); state != lastState {
				log.Printf("state: %s -> %s", lastState, state)
				lastState = state
			}
			if rec := d.ctrl.Recoveries(); rec != lastRecoveries {
				lastRecoveries = rec
				d.tracker.AddFaultRecovery()
				if err := d.publisher.PublishSystem(mqtt.SystemEvent{
					Timestamp: t,
					Event:     "RECOVERY",
					Reason:    "undervoltage",
				}); err != nil {
					log.Printf("recovery publish error: %v", err)
				}
			}

			if iv := d.ctrl.Interval(); iv != interval {
				interval = iv
				reset(iv)
			}

			if d.mqttStatus != nil {
				d.tracker.SetMQTTConnected(d.mqttStatus.IsConnected())
			}
		}
	}
}

// cycle performs one sampling cycle in fixed order: diagnostic read,
// then UA, UR, UB, then the controller step, then chip commands and
// actuator writes. It reports whether the reads succeeded; a failed
// cycle changes nothing downstream.
func cycle(d loopDeps, t time.Time, lastReport *time.Time) bool {
	diagStatus, err := d.driver.Diagnose()
	if err != nil {
		log.Printf("diagnostic read error: %v", err)
		return false
	}
	ua, err := d.sampler.Sample(adc.ChannelUA)
	if err != nil {
		log.Printf("UA sample error: %v", err)
		return false
	}
	ur, err := d.sampler.Sample(adc.ChannelUR)
	if err != nil {
		log.Printf("UR sample error: %v", err)
		return false
	}
	ub, err := d.sampler.Sample(adc.ChannelUB)
	if err != nil {
		log.Printf("UB sample error: %v", err)
		return false
	}

	out := d.ctrl.Tick(control.Input{
		Diag: diagStatus,
		UA:   ua,
		UR:   ur,
		UB:   ub,
		Time: t,
	})

	for _, cmd := range out.Commands {
		if _, err := d.driver.Exchange(cmd); err != nil {
			log.Printf("chip command 0x%X error: %v", cmd, err)
		}
	}

	if err := d.actuator.SetHeaterDuty(out.HeaterDuty); err != nil {
		log.Printf("heater duty error: %v", err)
	}
	if err := d.actuator.SetAuxOutput(out.AuxDuty); err != nil {
		log.Printf("aux output error: %v", err)
	}
	if err := d.actuator.SetPower(out.PowerIndicator); err != nil {
		log.Printf("power indicator error: %v", err)
	}
	if err := d.actuator.SetHeaterIndicator(out.HeaterIndicator); err != nil {
		log.Printf("heater indicator error: %v", err)
	}

	if cal, ok := d.ctrl.Calibration(); ok {
		d.tracker.SetCalibration(cal.OptimalLambdaSample, cal.OptimalTemperatureSample)
	}

	state := d.ctrl.State()
	reading := telemetry.Reading{
		Status: diagStatus,
		UA:     ua,
		UR:     ur,
		UB:     ub,
	}
	if state == control.StateSteadyState && diagStatus.Healthy() {
		reading.Lambda = convert.LambdaOf(ua)
		reading.LambdaValid = convert.LambdaValid(ua)
		reading.Oxygen = convert.OxygenOf(ua)
		reading.OxygenValid = convert.OxygenValid(ua)
	}

	d.tracker.Cycle(string(state), diagStatus.String(), diagStatus.Code,
		ua, ur, ub, out.HeaterDuty, lambdaString(reading), oxygenString(reading))

	// Periodic reporting: measurement lines in steady state, error
	// lines whenever the diagnostic is unhealthy.
	due := lastReport.IsZero() || t.Sub(*lastReport) >= d.reportEvery
	if !due {
		return true
	}
	switch {
	case !diagStatus.Healthy():
		*lastReport = t
		line := reading.ErrorLine()
		log.Print(line)
		d.tracker.AddErrorCycle()
		report(d, line)
	case state == control.StateSteadyState:
		*lastReport = t
		line := reading.MeasuringLine()
		log.Print(line)
		report(d, line)
	}
	return true
}

func report(d loopDeps, line string) {
	d.tracker.AddReport()
	if err := d.sink.Write(line); err != nil {
		log.Printf("telemetry sink error: %v", err)
	}
	if err := d.publisher.PublishReading(line); err != nil {
		log.Printf("publish error: %v", err)
		// Don't crash on publish failure
	}
}

func lambdaString(r telemetry.Reading) string {
	if !r.LambdaValid {
		return "-"
	}
	return strconv.FormatFloat(r.Lambda, 'f', 2, 64)
}

func oxygenString(r telemetry.Reading) string {
	if !r.OxygenValid {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", r.Oxygen)
}

// printOnce dumps the chip registers and one sample of each channel
// for the --print-status mode.
func printOnce(driver *cj125.Driver, sampler adc.Sampler) error {
	ident, err := driver.Identify()
	if err != nil {
		return fmt.Errorf("identify: %w", err)
	}
	reg1, reg2, err := driver.ReadInitRegisters()
	if err != nil {
		return fmt.Errorf("init register read: %w", err)
	}
	diagStatus, err := driver.Diagnose()
	if err != nil {
		return fmt.Errorf("diagnostic read: %w", err)
	}
	ua, err := sampler.Sample(adc.ChannelUA)
	if err != nil {
		return fmt.Errorf("sample UA: %w", err)
	}
	ur, err := sampler.Sample(adc.ChannelUR)
	if err != nil {
		return fmt.Errorf("sample UR: %w", err)
	}
	ub, err := sampler.Sample(adc.ChannelUB)
	if err != nil {
		return fmt.Errorf("sample UB: %w", err)
	}
	fmt.Printf("Ident: 0x%X, Init: 0x%X 0x%X, CJ125: %s, UA_ADC: %d, UR_ADC: %d, UB_ADC: %d\n",
		ident, reg1, reg2, diagStatus, ua, ur, ub)
	return nil
}

func openTransport(cfg config.TransportConfig) (transport.Transport, error) {
	switch cfg.Kind {
	case "serial":
		return transport.NewSerialTransport(cfg.SerialPort, cfg.Baud)
	default:
		return transport.NewSPITransport(cfg.Device, physic.Frequency(cfg.SpeedHz)*physic.Hertz)
	}
}
