// Package config loads the daemon configuration: YAML file over
// defaults, with environment overrides (optionally from a .env file)
// for deployment-specific settings like the broker address.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	ADC       ADCConfig       `yaml:"adc"`
	Outputs   OutputsConfig   `yaml:"outputs"`
	Supply    SupplyConfig    `yaml:"supply"`
	Heater    HeaterConfig    `yaml:"heater"`
	Loop      LoopConfig      `yaml:"loop"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TransportConfig selects and configures the chip transport.
type TransportConfig struct {
	// Kind is "spi" or "serial".
	Kind       string `yaml:"kind"`
	Device     string `yaml:"device"`      // spidev path for "spi"
	SpeedHz    int    `yaml:"speed_hz"`    // SPI clock
	SerialPort string `yaml:"serial_port"` // port for "serial"
	Baud       int    `yaml:"baud"`
}

// ADCConfig configures the sampling converter.
type ADCConfig struct {
	Device  string `yaml:"device"` // spidev path of the converter
	UAInput int    `yaml:"ua_input"`
	URInput int    `yaml:"ur_input"`
	UBInput int    `yaml:"ub_input"`
}

// OutputsConfig configures the indicator and PWM pins.
type OutputsConfig struct {
	Chip               string `yaml:"chip"`
	PowerPin           int    `yaml:"power_pin"`
	HeaterIndicatorPin int    `yaml:"heater_indicator_pin"`
	HeaterPWMPin       string `yaml:"heater_pwm_pin"`
	AuxPWMPin          string `yaml:"aux_pwm_pin"`
	PWMFreqHz          int    `yaml:"pwm_freq_hz"`
}

// SupplyConfig scales the supply-voltage channel.
type SupplyConfig struct {
	VRef         float64 `yaml:"vref"`
	DividerRatio float64 `yaml:"divider_ratio"`
	MinCounts    int     `yaml:"min_counts"`
}

// HeaterConfig holds the bring-up and regulation constants.
type HeaterConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`

	// Gain is the chip amplification in normal mode, "A" or "B".
	Gain string `yaml:"gain"`

	CondensationVolts float64 `yaml:"condensation_volts"`
	CondensationTicks int     `yaml:"condensation_ticks"`
	RampStartVolts    float64 `yaml:"ramp_start_volts"`
	RampStepVolts     float64 `yaml:"ramp_step_volts"`
	RampCeilingVolts  float64 `yaml:"ramp_ceiling_volts"`
}

// LoopConfig holds the cycle timing.
type LoopConfig struct {
	SampleIntervalMs int `yaml:"sample_interval_ms"`
	ReportIntervalMs int `yaml:"report_interval_ms"`
}

// SampleInterval returns the steady-state cycle period.
func (l LoopConfig) SampleInterval() time.Duration {
	return time.Duration(l.SampleIntervalMs) * time.Millisecond
}

// ReportInterval returns the telemetry reporting period.
func (l LoopConfig) ReportInterval() time.Duration {
	return time.Duration(l.ReportIntervalMs) * time.Millisecond
}

// TelemetryConfig configures the report sinks.
type TelemetryConfig struct {
	Broker  string `yaml:"broker"`
	LogFile string `yaml:"log_file"`
}

// Default returns a configuration with sensible values for a Raspberry
// Pi carrying the sensor front-end on spidev0.0 and the converter on
// spidev0.1.
func Default() *Config {
	return &Config{
		Transport: TransportConfig{
			Kind:       "spi",
			Device:     "/dev/spidev0.0",
			SpeedHz:    1000000,
			SerialPort: "/dev/ttyACM0",
			Baud:       115200,
		},
		ADC: ADCConfig{
			Device:  "/dev/spidev0.1",
			UAInput: 0,
			URInput: 1,
			UBInput: 2,
		},
		Outputs: OutputsConfig{
			Chip:               "gpiochip0",
			PowerPin:           5,
			HeaterIndicatorPin: 6,
			HeaterPWMPin:       "GPIO18",
			AuxPWMPin:          "GPIO13",
			PWMFreqHz:          200,
		},
		Supply: SupplyConfig{
			VRef:         5.0,
			DividerRatio: 3.3,
			MinCounts:    150,
		},
		Heater: HeaterConfig{
			Kp:                120,
			Ki:                0.8,
			Kd:                10,
			Gain:              "A",
			CondensationVolts: 2.0,
			CondensationTicks: 5,
			RampStartVolts:    8.5,
			RampStepVolts:     0.4,
			RampCeilingVolts:  13.0,
		},
		Loop: LoopConfig{
			SampleIntervalMs: 10,
			ReportIntervalMs: 1000,
		},
		Telemetry: TelemetryConfig{
			Broker: "tcp://192.168.1.200:1883",
		},
	}
}

// Load reads the YAML file over the defaults. A missing path returns
// the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the controller cannot run with.
func (c *Config) Validate() error {
	if c.Transport.Kind != "spi" && c.Transport.Kind != "serial" {
		return fmt.Errorf("transport kind %q: must be spi or serial", c.Transport.Kind)
	}
	if c.Supply.MinCounts <= 0 || c.Supply.MinCounts > 1023 {
		return fmt.Errorf("supply min_counts %d: must be in 1..1023", c.Supply.MinCounts)
	}
	if c.Heater.Gain != "A" && c.Heater.Gain != "B" {
		return fmt.Errorf("heater gain %q: must be A or B", c.Heater.Gain)
	}
	if c.Loop.SampleIntervalMs <= 0 {
		return fmt.Errorf("loop sample_interval_ms %d: must be positive", c.Loop.SampleIntervalMs)
	}
	if c.Loop.ReportIntervalMs <= 0 {
		return fmt.Errorf("loop report_interval_ms %d: must be positive", c.Loop.ReportIntervalMs)
	}
	if c.Heater.CondensationTicks <= 0 {
		return fmt.Errorf("heater condensation_ticks %d: must be positive", c.Heater.CondensationTicks)
	}
	if c.Heater.RampStepVolts <= 0 {
		return fmt.Errorf("heater ramp_step_volts %v: must be positive", c.Heater.RampStepVolts)
	}
	return nil
}

// ApplyEnv overlays environment variables onto the configuration. A
// .env file in the working directory is honored if present; real
// environment variables win over it.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	c.Telemetry.Broker = getEnv("LAMBDA_BROKER", c.Telemetry.Broker)
	c.Telemetry.LogFile = getEnv("LAMBDA_LOG_FILE", c.Telemetry.LogFile)
	c.Transport.Device = getEnv("LAMBDA_SPI_DEVICE", c.Transport.Device)
	c.Transport.SerialPort = getEnv("LAMBDA_SERIAL_PORT", c.Transport.SerialPort)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
