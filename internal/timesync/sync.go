package timesync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// maxHostClockError is the worst offset we assume between the host clock
// and true time, suitable for a host disciplined by NTP. PPS alignment
// needs it comfortably below half a second: the host clock only decides
// which second the next edge marks.
const maxHostClockError = 200 * time.Millisecond

// DeviceClock is the slice of the radio the synchronizer drives.
type DeviceClock interface {
	TimeNow(ctx context.Context) (time.Time, error)
	SetTimeNow(ctx context.Context, t time.Time) error
	SetTimeNextPPS(ctx context.Context, t time.Time) error
}

// ClockSetError is a device clock load the device refused or lost. The
// device keeps whatever time it had, so callers may choose to continue.
type ClockSetError struct {
	Source Source
	Err    error
}

func (e *ClockSetError) Error() string {
	return fmt.Sprintf("setting device time from %s: %v", e.Source, e.Err)
}

func (e *ClockSetError) Unwrap() error { return e.Err }

// Test seams, swapped out to drive the controller with a fake clock.
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

// Sync sets the device clock from the chosen source and returns the time
// that was loaded.
func Sync(ctx context.Context, dev DeviceClock, src Source, log *zap.Logger) (time.Time, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch src {
	case SourceHost:
		now := timeNow()
		if err := dev.SetTimeNow(ctx, now); err != nil {
			return time.Time{}, &ClockSetError{Source: src, Err: err}
		}
		log.Info("device clock set from host", zap.String("time", FormatTime(now)))
		return now, nil
	case SourcePPS:
		return syncPPS(ctx, dev, log)
	default:
		return time.Time{}, &UnknownSourceError{Name: src.String()}
	}
}

// syncPPS arms the device to load the target second on its next PPS edge.
// The arm command has to land inside the window between now and the edge,
// so we sleep until maxHostClockError before the target and send it then.
func syncPPS(ctx context.Context, dev DeviceClock, log *zap.Logger) (time.Time, error) {
	now := timeNow()
	target := TargetSecond(now)

	if err := sleepUntil(ctx, target.Add(-maxHostClockError)); err != nil {
		return time.Time{}, err
	}
	if err := dev.SetTimeNextPPS(ctx, target); err != nil {
		return time.Time{}, &ClockSetError{Source: SourcePPS, Err: err}
	}
	log.Info("device clock armed for next pps edge", zap.String("target", FormatTime(target)))
	return target, nil
}

// TargetSecond picks the whole second to load on the next PPS edge. When
// the upcoming edge is closer than the host clock can be trusted, it skips
// to the edge after.
func TargetSecond(now time.Time) time.Time {
	target := CeilSecond(now)
	if time.Duration(now.Nanosecond()) >= time.Second-maxHostClockError {
		target = target.Add(time.Second)
	}
	return target
}

// CeilSecond rounds up to a whole second; instants already on a second
// boundary are returned unchanged.
func CeilSecond(t time.Time) time.Time {
	c := t.Truncate(time.Second)
	if c.Equal(t) {
		return t
	}
	return c.Add(time.Second)
}

// FormatTime renders a timestamp with full nanosecond precision, the form
// the run log uses for host and device times.
func FormatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05.000000000")
}
