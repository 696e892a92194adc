package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sdrkit/looptx/internal/options"
	"github.com/sdrkit/looptx/internal/radio"
)

var errDial = errors.New("dial intercepted")

type envMap map[string]string

func (m envMap) lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// swapDial replaces the dial seam with one that records the assembled
// config and refuses to connect, keeping run short of any device work.
func swapDial(t *testing.T, capture func(*options.Config)) {
	t.Helper()
	prev := dial
	dial = func(_ context.Context, cfg *options.Config, _ *zap.Logger) (radio.Radio, error) {
		capture(cfg)
		return nil, errDial
	}
	t.Cleanup(func() { dial = prev })
}

func TestRunFlagOverridesEnv(t *testing.T) {
	var got *options.Config
	swapDial(t, func(cfg *options.Config) { got = cfg })

	env := envMap{
		"LOOPTX_DEVICE": "env-host:1030",
		"LOOPTX_RATE":   "1e6",
		"LOOPTX_FREQ":   "915e6",
	}

	args := []string{"-device", "flag-host:1030", "-waveform", "w.dat"}
	if err := run(context.Background(), args, io.Discard, env.lookup); !errors.Is(err, errDial) {
		t.Fatalf("expected intercepted dial, got %v", err)
	}
	if got.Radio.DeviceAddress != "flag-host:1030" {
		t.Errorf("device address %q, want the flag value", got.Radio.DeviceAddress)
	}
	if got.TX.Rate != 1e6 || got.TX.Freq != 915e6 {
		t.Errorf("env values not applied: rate %g freq %g", got.TX.Rate, got.TX.Freq)
	}
}

func TestRunEnvUsedWhenFlagAbsent(t *testing.T) {
	var got *options.Config
	swapDial(t, func(cfg *options.Config) { got = cfg })

	env := envMap{
		"LOOPTX_DEVICE":   "env-host:1030",
		"LOOPTX_RATE":     "1e6",
		"LOOPTX_FREQ":     "915e6",
		"LOOPTX_WAVEFORM": "w.dat",
	}

	if err := run(context.Background(), nil, io.Discard, env.lookup); !errors.Is(err, errDial) {
		t.Fatalf("expected intercepted dial, got %v", err)
	}
	if got.Radio.DeviceAddress != "env-host:1030" {
		t.Errorf("device address %q, want the env value", got.Radio.DeviceAddress)
	}
}

func TestRunConfigFileUnderFlags(t *testing.T) {
	var got *options.Config
	swapDial(t, func(cfg *options.Config) { got = cfg })

	path := filepath.Join(t.TempDir(), "looptx.yaml")
	file := `radio:
  device_address: file-host:1030
tx:
  rate: 2000000
  freq: 100000000
run:
  waveform_file: file.dat
  duration: 2
`
	if err := os.WriteFile(path, []byte(file), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	args := []string{"-config", path, "-freq", "915000000"}
	if err := run(context.Background(), args, io.Discard, envMap(nil).lookup); !errors.Is(err, errDial) {
		t.Fatalf("expected intercepted dial, got %v", err)
	}
	if got.Radio.DeviceAddress != "file-host:1030" {
		t.Errorf("device address %q, want the file value", got.Radio.DeviceAddress)
	}
	if got.TX.Freq != 915000000 {
		t.Errorf("freq %g, want the flag override", got.TX.Freq)
	}
	if got.TX.Rate != 2000000 || got.Run.Duration != 2 {
		t.Errorf("file values not kept: rate %g duration %g", got.TX.Rate, got.Run.Duration)
	}
}

func TestRunRejectsIncompleteConfig(t *testing.T) {
	dialed := false
	swapDial(t, func(*options.Config) { dialed = true })

	args := []string{"-waveform", "w.dat", "-rate", "1e6", "-freq", "915e6"}
	err := run(context.Background(), args, io.Discard, envMap(nil).lookup)
	if err == nil || !strings.Contains(err.Error(), "device address") {
		t.Fatalf("expected a device address error, got %v", err)
	}
	if dialed {
		t.Errorf("must not dial with an incomplete config")
	}
}

func TestRunRejectsMalformedIQList(t *testing.T) {
	dialed := false
	swapDial(t, func(*options.Config) { dialed = true })

	args := []string{
		"-device", "radio:1030", "-waveform", "w.dat",
		"-rate", "1e6", "-freq", "915e6",
		"-iq-bias", "(0.01,-0.02", // missing closing bracket
	}
	err := run(context.Background(), args, io.Discard, envMap(nil).lookup)
	var malformed *options.MalformedListError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedListError, got %v", err)
	}
	if dialed {
		t.Errorf("must not dial with a malformed iq list")
	}
}

func TestRunReportsUnknownFlag(t *testing.T) {
	err := run(context.Background(), []string{"-no-such-flag"}, io.Discard, envMap(nil).lookup)
	if err == nil {
		t.Fatalf("expected a flag error")
	}
}
