package txsched

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sdrkit/looptx/internal/timesync"
	"github.com/sdrkit/looptx/internal/waveform"
)

const (
	// armMargin is added past the next whole device second when picking the
	// loop start, leaving the upload ack and start command time to land.
	armMargin = time.Second

	// trailingMargin pads the wait past the nominal end of the run, covering
	// clock skew and the final repetition draining.
	trailingMargin = 100 * time.Millisecond
)

// Device is the slice of the radio the scheduler drives.
type Device interface {
	TimeNow(ctx context.Context) (time.Time, error)
	TxBufferBytes(ctx context.Context) (uint64, error)
	Upload(ctx context.Context, w waveform.Waveform) (uint64, error)
	StartTxLoop(ctx context.Context, start time.Time, samples uint64, period time.Duration, reps uint64) error
	StopTx(ctx context.Context) error
}

// State tracks a transmission through its life cycle. Transitions only move
// forward; a failed run is abandoned, never retried in place.
type State int

const (
	StateIdle State = iota
	StateValidated
	StateUploaded
	StateArmed
	StateRunning
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidated:
		return "validated"
	case StateUploaded:
		return "uploaded"
	case StateArmed:
		return "armed"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Test seams, as in the clock synchronizer.
var (
	timeNow = time.Now

	sleepUntil = func(ctx context.Context, t time.Time) error {
		d := time.Until(t)
		if d <= 0 {
			return ctx.Err()
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
)

// Scheduler runs one timed loop transmission through validation, upload,
// arming and the wait for completion.
type Scheduler struct {
	dev Device
	log *zap.Logger

	state State
	plan  Plan
	wave  waveform.Waveform

	// Host deadlines derived when the loop is armed.
	hostStart time.Time
	hostEnd   time.Time
}

func New(dev Device, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{dev: dev, log: log}
}

func (s *Scheduler) State() State { return s.state }

// Plan returns the validated request. Zero until Validate succeeds.
func (s *Scheduler) Plan() Plan { return s.plan }

// Validate checks the request against the device's buffer capacity and
// sample granularity. The returned warning, if any, is advisory; the run
// may proceed.
func (s *Scheduler) Validate(ctx context.Context, w waveform.Waveform, rate float64, duration, period time.Duration, granularity int) (*GapWarning, error) {
	if s.state != StateIdle {
		return nil, fmt.Errorf("cannot validate in state %s", s.state)
	}

	plan, err := NewPlan(w, rate, duration, period)
	if err != nil {
		return nil, err
	}

	bufBytes, err := s.dev.TxBufferBytes(ctx)
	if err != nil {
		return nil, fmt.Errorf("query transmit buffer size: %w", err)
	}
	if err := CheckBufferFit(plan.Samples, bufBytes); err != nil {
		return nil, err
	}

	warn := CheckGranularity(plan.Samples, granularity, period)

	s.plan = plan
	s.wave = w
	s.state = StateValidated
	s.log.Debug("transmission validated",
		zap.Uint64("samples", plan.Samples),
		zap.Duration("waveform_duration", plan.WaveformDuration),
		zap.Uint64("reps", plan.Reps))
	return warn, nil
}

// Upload loads the waveform into the device's transmit buffer. A short
// accept count leaves a truncated waveform behind, so it fails the run.
func (s *Scheduler) Upload(ctx context.Context) error {
	if s.state != StateValidated {
		return fmt.Errorf("cannot upload in state %s", s.state)
	}

	accepted, err := s.dev.Upload(ctx, s.wave)
	if err != nil {
		return fmt.Errorf("upload waveform: %w", err)
	}
	if accepted != s.plan.Samples {
		return &UploadIncompleteError{Sent: s.plan.Samples, Accepted: accepted}
	}

	s.state = StateUploaded
	s.log.Debug("waveform uploaded", zap.Uint64("samples", accepted))
	return nil
}

// Arm schedules the loop start on the device clock: the second after the
// next whole device second, far enough out that the start command is in
// the device's queue before the moment arrives. Returns the start time.
func (s *Scheduler) Arm(ctx context.Context) (time.Time, error) {
	if s.state != StateUploaded {
		return time.Time{}, fmt.Errorf("cannot arm in state %s", s.state)
	}

	deviceNow, err := s.dev.TimeNow(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("read device time: %w", err)
	}
	start := timesync.CeilSecond(deviceNow).Add(armMargin)

	if err := s.dev.StartTxLoop(ctx, start, s.plan.Samples, s.plan.Period, s.plan.Reps); err != nil {
		return time.Time{}, &LoopStartError{Cause: err}
	}

	// Map the device-time start onto the host clock for the wait.
	hostNow := timeNow()
	s.hostStart = hostNow.Add(start.Sub(deviceNow))
	s.hostEnd = s.hostStart.Add(s.plan.Duration).Add(trailingMargin)
	s.state = StateArmed
	s.log.Info("transmit loop armed",
		zap.String("device_start", timesync.FormatTime(start)),
		zap.Duration("period", s.plan.Period),
		zap.Uint64("reps", s.plan.Reps))
	return start, nil
}

// WaitStart blocks until the scheduled start moment passes on the host
// clock. Cancellation aborts the wait; it is the caller's job to stop the
// device afterwards.
func (s *Scheduler) WaitStart(ctx context.Context) error {
	if s.state != StateArmed {
		return fmt.Errorf("cannot wait in state %s", s.state)
	}

	if err := sleepUntil(ctx, s.hostStart); err != nil {
		return err
	}
	s.state = StateRunning
	s.log.Info("transmit loop running")
	return nil
}

// WaitComplete blocks until the scheduled run should be over. A run with
// an unbounded repetition count keeps transmitting past this point until
// the caller stops it.
func (s *Scheduler) WaitComplete(ctx context.Context) error {
	if s.state != StateRunning {
		return fmt.Errorf("cannot wait in state %s", s.state)
	}

	if err := sleepUntil(ctx, s.hostEnd); err != nil {
		return err
	}
	s.state = StateComplete
	s.log.Info("transmit loop complete")
	return nil
}
