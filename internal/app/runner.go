package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sdrkit/looptx/internal/options"
	"github.com/sdrkit/looptx/internal/radio"
	"github.com/sdrkit/looptx/internal/telemetry"
	"github.com/sdrkit/looptx/internal/timesync"
	"github.com/sdrkit/looptx/internal/txsched"
	"github.com/sdrkit/looptx/internal/waveform"
)

// stopTimeout bounds the stop command sent once a run is over or has been
// abandoned. It gets its own context: the run context is usually cancelled
// or expired by the time a stop is needed.
const stopTimeout = 2 * time.Second

// Runner drives one timed loop transmission end to end: tune, sync the
// clock, validate, upload, arm, wait.
type Runner struct {
	dev      radio.Radio
	reporter telemetry.Reporter
	log      *zap.Logger
	cfg      *options.Config
	sched    *txsched.Scheduler
}

func NewRunner(dev radio.Radio, reporter telemetry.Reporter, log *zap.Logger, cfg *options.Config) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		dev:      dev,
		reporter: reporter,
		log:      log,
		cfg:      cfg,
		sched:    txsched.New(dev, log),
	}
}

// Init tunes the transmit chain and synchronizes the device clock. An
// unknown time source is fatal before any device state changes. A device
// that refuses the clock load keeps whatever time it was running on, which
// is worth a warning but not the run.
func (r *Runner) Init(ctx context.Context) error {
	src, err := timesync.ParseSource(r.cfg.Run.TimeSource)
	if err != nil {
		return r.fail(err)
	}

	info := r.dev.Info()
	r.report(telemetry.StageConnected, "device type %d serial %08X, fpga %s, mcu %s",
		info.DeviceType, info.UniqueID, info.FPGAVersion, info.MCUVersion)

	if err := r.tune(ctx); err != nil {
		return r.fail(err)
	}

	synced, err := timesync.Sync(ctx, r.dev, src, r.log)
	if err != nil {
		var clockErr *timesync.ClockSetError
		if !errors.As(err, &clockErr) {
			return r.fail(err)
		}
		r.log.Warn("device clock not set, continuing on device time", zap.Error(err))
		r.report(telemetry.StageWarning, "%v", err)
		return nil
	}
	r.report(telemetry.StageClockSynced, "%s time %s", src, timesync.FormatTime(synced))
	return nil
}

// Run loads the waveform and takes it through the transmission life cycle.
// A bounded run ends when the device plays out its repetition count; an
// unbounded run keeps looping until the wait elapses and the device is
// told to stop.
func (r *Runner) Run(ctx context.Context) error {
	w, err := waveform.ReadFile(r.cfg.Run.WaveformFile)
	if err != nil {
		return r.fail(err)
	}
	r.report(telemetry.StageWaveformLoaded, "%d samples, %v at %g S/s",
		len(w), w.Duration(r.cfg.TX.Rate), r.cfg.TX.Rate)

	warn, err := r.sched.Validate(ctx, w, r.cfg.TX.Rate,
		r.cfg.Run.DurationTime(), r.cfg.Run.PeriodTime(), r.dev.Info().Format.Granularity)
	if err != nil {
		return r.fail(err)
	}
	if warn != nil {
		r.log.Warn("sample granularity", zap.Error(warn))
		r.report(telemetry.StageWarning, "%v", warn)
	}
	plan := r.sched.Plan()
	r.report(telemetry.StageValidated, "%s", describePlan(plan))

	if err := r.sched.Upload(ctx); err != nil {
		return r.fail(err)
	}
	r.report(telemetry.StageUploaded, "%d samples", plan.Samples)

	start, err := r.sched.Arm(ctx)
	if err != nil {
		return r.fail(err)
	}
	r.report(telemetry.StageArmed, "device start %s", timesync.FormatTime(start))

	if err := r.sched.WaitStart(ctx); err != nil {
		return r.abort(err)
	}
	r.report(telemetry.StageRunning, "%s", describePlan(plan))

	if err := r.sched.WaitComplete(ctx); err != nil {
		return r.abort(err)
	}

	// A zero repetition count tells the device to loop until stopped.
	if plan.Reps == 0 {
		if err := r.stop(); err != nil {
			return r.fail(err)
		}
	}
	r.report(telemetry.StageComplete, "")
	return nil
}

func (r *Runner) tune(ctx context.Context) error {
	tx := r.cfg.TX
	if err := r.dev.SetTxRate(ctx, tx.Rate); err != nil {
		return fmt.Errorf("set tx rate: %w", err)
	}
	if err := r.dev.SetTxFreq(ctx, tx.Freq); err != nil {
		return fmt.Errorf("set tx frequency: %w", err)
	}
	if err := r.dev.SetTxGain(ctx, tx.Gain); err != nil {
		return fmt.Errorf("set tx gain: %w", err)
	}
	if tx.Port != "" {
		if err := r.selectPort(ctx, tx.Port); err != nil {
			return err
		}
	}
	if tx.IQBias != "" {
		bias, err := options.ParseIQBias(tx.IQBias)
		if err != nil {
			return err
		}
		if err := r.dev.SetTxIQBias(ctx, bias[0], bias[1]); err != nil {
			return fmt.Errorf("set tx iq bias: %w", err)
		}
	}
	if tx.IQCorr != "" {
		corr, err := options.ParseIQCorr(tx.IQCorr)
		if err != nil {
			return err
		}
		if err := r.dev.SetTxIQCorr(ctx, corr[0], corr[1], corr[2], corr[3]); err != nil {
			return fmt.Errorf("set tx iq correction: %w", err)
		}
	}
	r.log.Info("transmit chain tuned",
		zap.Float64("rate", tx.Rate),
		zap.Float64("freq", tx.Freq),
		zap.Float64("gain", tx.Gain))
	return nil
}

func (r *Runner) selectPort(ctx context.Context, name string) error {
	ports, err := r.dev.TxPorts(ctx)
	if err != nil {
		return fmt.Errorf("list tx ports: %w", err)
	}
	for i, p := range ports {
		if strings.EqualFold(p, name) {
			if err := r.dev.SetTxPort(ctx, i); err != nil {
				return fmt.Errorf("select tx port %q: %w", name, err)
			}
			r.log.Info("tx port selected", zap.String("port", p), zap.Int("index", i))
			return nil
		}
	}
	return fmt.Errorf("no tx port named %q (device has %s)", name, strings.Join(ports, ", "))
}

// abort stops the device after an interrupted wait: the loop may be armed
// or already transmitting.
func (r *Runner) abort(cause error) error {
	if err := r.stop(); err != nil {
		r.log.Warn("stop after interrupted run failed", zap.Error(err))
	}
	return r.fail(cause)
}

func (r *Runner) stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := r.dev.StopTx(ctx); err != nil {
		return fmt.Errorf("stop transmission: %w", err)
	}
	r.log.Info("transmission stopped")
	return nil
}

func (r *Runner) fail(err error) error {
	r.report(telemetry.StageFailed, "%v", err)
	return err
}

func (r *Runner) report(stage telemetry.Stage, format string, args ...any) {
	if r.reporter == nil {
		return
	}
	r.reporter.Report(telemetry.Event{Stage: stage, Message: fmt.Sprintf(format, args...)})
}

func describePlan(p txsched.Plan) string {
	if p.Reps == 0 {
		return fmt.Sprintf("continuous loop for %v", p.Duration)
	}
	return fmt.Sprintf("%d repetitions every %v", p.Reps, p.Period)
}
