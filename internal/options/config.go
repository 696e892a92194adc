package options

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full configuration surface of the looptx tools. Values come
// from an optional YAML file; command-line flags override file values.
type Config struct {
	Radio RadioConfig `yaml:"radio"`
	TX    TXConfig    `yaml:"tx"`
	Run   RunConfig   `yaml:"run"`
	Log   LogConfig   `yaml:"log"`
}

// RadioConfig describes how to reach the radio's UDP command port.
type RadioConfig struct {
	DeviceAddress      string        `yaml:"device_address"`
	LocalAddress       string        `yaml:"local_address"`
	CommandTimeout     time.Duration `yaml:"command_timeout"`
	SendBufferBytes    int           `yaml:"send_buffer_bytes"`
	ReceiveBufferBytes int           `yaml:"receive_buffer_bytes"`
}

// TXConfig carries the transmit-chain settings applied before scheduling.
// IQBias and IQCorr are bracketed lists, e.g. "(0.01,-0.02)" and
// "[1,0,0,1]"; they are parsed when applied.
type TXConfig struct {
	Rate   float64 `yaml:"rate"`
	Freq   float64 `yaml:"freq"`
	Gain   float64 `yaml:"gain"`
	Port   string  `yaml:"port"`
	IQBias string  `yaml:"iq_bias"`
	IQCorr string  `yaml:"iq_corr"`
}

// RunConfig describes a single loop transmission run. Duration and Period are
// in seconds; Period 0 means continuous back-to-back looping.
type RunConfig struct {
	WaveformFile string  `yaml:"waveform_file"`
	Duration     float64 `yaml:"duration"`
	Period       float64 `yaml:"period"`
	TimeSource   string  `yaml:"time_source"`
	StatusAddr   string  `yaml:"status_addr"` // optional HTTP progress endpoint
}

// LogConfig selects log verbosity and encoding.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Radio: RadioConfig{
			CommandTimeout:     3 * time.Second,
			SendBufferBytes:    262144,
			ReceiveBufferBytes: 8388608,
		},
		TX: TXConfig{
			Gain: 0,
		},
		Run: RunConfig{
			Duration:   1.0,
			Period:     0,
			TimeSource: "host",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a YAML config file and fills in defaults for anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Radio.CommandTimeout == 0 {
		c.Radio.CommandTimeout = d.Radio.CommandTimeout
	}
	if c.Radio.SendBufferBytes == 0 {
		c.Radio.SendBufferBytes = d.Radio.SendBufferBytes
	}
	if c.Radio.ReceiveBufferBytes == 0 {
		c.Radio.ReceiveBufferBytes = d.Radio.ReceiveBufferBytes
	}
	if c.Run.Duration == 0 {
		c.Run.Duration = d.Run.Duration
	}
	if c.Run.TimeSource == "" {
		c.Run.TimeSource = d.Run.TimeSource
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// ValidateRun checks the fields a loop transmission needs. Parsing and
// validation failures abort before any device state is touched.
func (c *Config) ValidateRun() error {
	if c.Radio.DeviceAddress == "" {
		return fmt.Errorf("device address is required")
	}
	if c.Run.WaveformFile == "" {
		return fmt.Errorf("waveform file is required")
	}
	if c.Run.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", c.Run.Duration)
	}
	if c.Run.Period < 0 {
		return fmt.Errorf("period must be nonnegative, got %g", c.Run.Period)
	}
	if c.TX.Rate <= 0 {
		return fmt.Errorf("tx rate must be positive, got %g", c.TX.Rate)
	}
	if c.TX.Freq <= 0 {
		return fmt.Errorf("tx center frequency must be positive, got %g", c.TX.Freq)
	}
	if c.TX.IQBias != "" {
		if _, err := ParseIQBias(c.TX.IQBias); err != nil {
			return err
		}
	}
	if c.TX.IQCorr != "" {
		if _, err := ParseIQCorr(c.TX.IQCorr); err != nil {
			return err
		}
	}
	return nil
}

// DurationTime returns the run duration rounded to the nearest nanosecond.
func (c *RunConfig) DurationTime() time.Duration {
	return secondsToDuration(c.Duration)
}

// PeriodTime returns the pulse repetition interval rounded to the nearest
// nanosecond. Zero means back-to-back looping.
func (c *RunConfig) PeriodTime() time.Duration {
	return secondsToDuration(c.Period)
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(math.Round(sec * 1e9))
}
