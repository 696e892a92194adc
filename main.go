// Command looptx plays a waveform file as a precisely timed repeating loop
// on a networked radio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/sdrkit/looptx/internal/app"
	"github.com/sdrkit/looptx/internal/logging"
	"github.com/sdrkit/looptx/internal/options"
	"github.com/sdrkit/looptx/internal/radio"
	"github.com/sdrkit/looptx/internal/telemetry"
	"github.com/sdrkit/looptx/radiolink"
)

// dial is swapped out in tests.
var dial = func(ctx context.Context, cfg *options.Config, log *zap.Logger) (radio.Radio, error) {
	client, err := radiolink.Dial(ctx, cfg.Radio.DeviceAddress, radiolink.Options{
		LocalAddress:       cfg.Radio.LocalAddress,
		Timeout:            cfg.Radio.CommandTimeout,
		SendBufferBytes:    cfg.Radio.SendBufferBytes,
		ReceiveBufferBytes: cfg.Radio.ReceiveBufferBytes,
		Logger:             log,
	})
	if err != nil {
		return nil, err
	}
	return radio.NewHardware(client), nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGTERM)
		<-sigch
		cancel()
	}()

	err := run(ctx, os.Args[1:], os.Stderr, os.LookupEnv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	// An interrupt mid-run already stopped the device; treat it as a
	// requested shutdown, not a failure.
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "looptx: %v\n", err)
		os.Exit(1)
	}
}

// run wires configuration, logging, telemetry and the radio into one
// transmission.
func run(ctx context.Context, args []string, errOut io.Writer, lookup func(string) (string, bool)) error {
	cfg, err := parseConfig(args, errOut, lookup)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	hub := telemetry.NewHub(0)
	reporter := telemetry.MultiReporter{telemetry.NewLogReporter(log), hub}
	if cfg.Run.StatusAddr != "" {
		go telemetry.NewStatusServer(cfg.Run.StatusAddr, hub, log).Start(ctx)
		log.Info("status interface up", zap.String("addr", cfg.Run.StatusAddr))
	}

	dev, err := dial(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer dev.Close()

	runner := app.NewRunner(dev, reporter, log, cfg)
	if err := runner.Init(ctx); err != nil {
		return err
	}
	return runner.Run(ctx)
}

// parseConfig layers the three configuration sources: YAML file under
// LOOPTX_* environment variables under command-line flags.
func parseConfig(args []string, errOut io.Writer, lookup func(string) (string, bool)) (*options.Config, error) {
	fs := flag.NewFlagSet("looptx", flag.ContinueOnError)
	fs.SetOutput(errOut)

	configPath := fs.String("config", envString(lookup, "LOOPTX_CONFIG", ""), "YAML config file")
	device := fs.String("device", envString(lookup, "LOOPTX_DEVICE", ""), "radio command address host:port")
	local := fs.String("local", envString(lookup, "LOOPTX_LOCAL", ""), "local UDP address to bind")
	wave := fs.String("waveform", envString(lookup, "LOOPTX_WAVEFORM", ""), "waveform file of 16-bit little-endian I/Q pairs")
	rate := fs.Float64("rate", envFloat(lookup, "LOOPTX_RATE", 0), "TX sample rate in samples per second")
	freq := fs.Float64("freq", envFloat(lookup, "LOOPTX_FREQ", 0), "TX center frequency in Hz")
	gain := fs.Float64("gain", envFloat(lookup, "LOOPTX_GAIN", 0), "TX gain in dB")
	port := fs.String("port", envString(lookup, "LOOPTX_PORT", ""), "TX port name")
	iqBias := fs.String("iq-bias", envString(lookup, "LOOPTX_IQ_BIAS", ""), "TX IQ bias pair, e.g. (0.01,-0.02)")
	iqCorr := fs.String("iq-corr", envString(lookup, "LOOPTX_IQ_CORR", ""), "TX IQ correction matrix, e.g. [1,0,0,1]")
	duration := fs.Float64("duration", envFloat(lookup, "LOOPTX_DURATION", 0), "total transmit duration in seconds")
	period := fs.Float64("period", envFloat(lookup, "LOOPTX_PERIOD", 0), "repetition period in seconds, 0 plays back to back")
	source := fs.String("time-source", envString(lookup, "LOOPTX_TIME_SOURCE", ""), "device clock source, host or pps")
	statusAddr := fs.String("status-addr", envString(lookup, "LOOPTX_STATUS_ADDR", ""), "optional HTTP status listen address, e.g. :8080")
	logLevel := fs.String("log-level", envString(lookup, "LOOPTX_LOG_LEVEL", ""), "log level: debug, info, warn or error")
	logFormat := fs.String("log-format", envString(lookup, "LOOPTX_LOG_FORMAT", ""), "log encoding: console or json")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := options.Default()
	if *configPath != "" {
		loaded, err := options.Load(*configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	supplied := func(name, envKey string) bool {
		if set[name] {
			return true
		}
		_, ok := lookup(envKey)
		return ok
	}

	if supplied("device", "LOOPTX_DEVICE") {
		cfg.Radio.DeviceAddress = *device
	}
	if supplied("local", "LOOPTX_LOCAL") {
		cfg.Radio.LocalAddress = *local
	}
	if supplied("waveform", "LOOPTX_WAVEFORM") {
		cfg.Run.WaveformFile = *wave
	}
	if supplied("rate", "LOOPTX_RATE") {
		cfg.TX.Rate = *rate
	}
	if supplied("freq", "LOOPTX_FREQ") {
		cfg.TX.Freq = *freq
	}
	if supplied("gain", "LOOPTX_GAIN") {
		cfg.TX.Gain = *gain
	}
	if supplied("port", "LOOPTX_PORT") {
		cfg.TX.Port = *port
	}
	if supplied("iq-bias", "LOOPTX_IQ_BIAS") {
		cfg.TX.IQBias = *iqBias
	}
	if supplied("iq-corr", "LOOPTX_IQ_CORR") {
		cfg.TX.IQCorr = *iqCorr
	}
	if supplied("duration", "LOOPTX_DURATION") {
		cfg.Run.Duration = *duration
	}
	if supplied("period", "LOOPTX_PERIOD") {
		cfg.Run.Period = *period
	}
	if supplied("time-source", "LOOPTX_TIME_SOURCE") {
		cfg.Run.TimeSource = *source
	}
	if supplied("status-addr", "LOOPTX_STATUS_ADDR") {
		cfg.Run.StatusAddr = *statusAddr
	}
	if supplied("log-level", "LOOPTX_LOG_LEVEL") {
		cfg.Log.Level = *logLevel
	}
	if supplied("log-format", "LOOPTX_LOG_FORMAT") {
		cfg.Log.Format = *logFormat
	}

	return cfg, nil
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
