package options

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "looptx.yml")

	data := `
radio:
  device_address: 192.168.10.2:1030
tx:
  rate: 10000000
  freq: 5200000000
run:
  waveform_file: chirp.dat
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Radio.CommandTimeout != 3*time.Second {
		t.Errorf("expected default command timeout 3s, got %s", cfg.Radio.CommandTimeout)
	}
	if cfg.Run.Duration != 1.0 {
		t.Errorf("expected default duration 1.0, got %g", cfg.Run.Duration)
	}
	if cfg.Run.TimeSource != "host" {
		t.Errorf("expected default time source host, got %q", cfg.Run.TimeSource)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Log.Level)
	}
	if err := cfg.ValidateRun(); err != nil {
		t.Errorf("ValidateRun failed on complete config: %v", err)
	}
}

func TestValidateRun(t *testing.T) {
	base := func() *Config {
		c := Default()
		c.Radio.DeviceAddress = "192.168.10.2:1030"
		c.Run.WaveformFile = "wf.dat"
		c.TX.Rate = 20e6
		c.TX.Freq = 2.4e9
		return c
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "missing device address", mutate: func(c *Config) { c.Radio.DeviceAddress = "" }},
		{name: "missing waveform file", mutate: func(c *Config) { c.Run.WaveformFile = "" }},
		{name: "zero duration", mutate: func(c *Config) { c.Run.Duration = 0 }},
		{name: "negative duration", mutate: func(c *Config) { c.Run.Duration = -2 }},
		{name: "negative period", mutate: func(c *Config) { c.Run.Period = -0.5 }},
		{name: "missing rate", mutate: func(c *Config) { c.TX.Rate = 0 }},
		{name: "missing freq", mutate: func(c *Config) { c.TX.Freq = 0 }},
		{name: "bad iq bias", mutate: func(c *Config) { c.TX.IQBias = "(1,2" }},
		{name: "bad iq corr", mutate: func(c *Config) { c.TX.IQCorr = "[1,2,3]" }},
	}

	if err := base().ValidateRun(); err != nil {
		t.Fatalf("base config should validate: %v", err)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			if err := c.ValidateRun(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestPeriodRounding(t *testing.T) {
	r := RunConfig{Duration: 10.0, Period: 2.5e-3}
	if got := r.PeriodTime(); got != 2500*time.Microsecond {
		t.Errorf("PeriodTime: got %s, want 2.5ms", got)
	}
	if got := r.DurationTime(); got != 10*time.Second {
		t.Errorf("DurationTime: got %s, want 10s", got)
	}

	// Sub-nanosecond fractions round to the nearest nanosecond.
	r = RunConfig{Period: 1.0000000004}
	if got := r.PeriodTime(); got != time.Second {
		t.Errorf("PeriodTime: got %s, want 1s", got)
	}
}
