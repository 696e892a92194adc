package txsched

import (
	"fmt"
	"math"
	"time"

	"github.com/sdrkit/looptx/internal/waveform"
)

// BufferCapacitySamples converts a transmit buffer size in bytes to whole
// samples.
func BufferCapacitySamples(bufBytes uint64) uint64 {
	return bufBytes / waveform.SampleBytes
}

// CheckBufferFit verifies the whole waveform fits in the device's transmit
// buffer. Looped playback replays from the buffer, so there is no way to
// stream a larger waveform in pieces.
func CheckBufferFit(samples, bufBytes uint64) error {
	capacity := BufferCapacitySamples(bufBytes)
	if samples > capacity {
		return &WaveformTooLargeError{Samples: samples, Capacity: capacity}
	}
	return nil
}

// CheckGranularity reports whether back-to-back playback will have gaps.
// With a nonzero period the device idles between repetitions anyway, so
// padding is invisible and no warning applies.
func CheckGranularity(samples uint64, granularity int, period time.Duration) *GapWarning {
	if period != 0 || granularity <= 1 {
		return nil
	}
	if samples%uint64(granularity) == 0 {
		return nil
	}
	return &GapWarning{Samples: samples, Granularity: granularity}
}

// Repetitions converts the requested run duration into a repetition count.
// Zero means repeat until stopped, which is what a zero period asks for.
func Repetitions(duration, period time.Duration) uint64 {
	if period <= 0 {
		return 0
	}
	return uint64(math.Round(float64(duration) / float64(period)))
}

// Plan is a fully validated transmission request.
type Plan struct {
	Samples          uint64
	Rate             float64
	Duration         time.Duration
	Period           time.Duration
	Reps             uint64
	WaveformDuration time.Duration
}

// NewPlan validates the request shape and derives the repetition count.
// Buffer fit and granularity are device properties and checked separately.
func NewPlan(w waveform.Waveform, rate float64, duration, period time.Duration) (Plan, error) {
	if len(w) == 0 {
		return Plan{}, fmt.Errorf("empty waveform")
	}
	if rate <= 0 {
		return Plan{}, fmt.Errorf("tx rate must be positive, got %g", rate)
	}
	if duration <= 0 {
		return Plan{}, fmt.Errorf("duration must be positive, got %v", duration)
	}
	if period < 0 {
		return Plan{}, fmt.Errorf("period must not be negative, got %v", period)
	}

	waveDur := w.Duration(rate)
	if period > 0 && waveDur > period {
		return Plan{}, &WaveformExceedsPeriodError{WaveformDuration: waveDur, Period: period}
	}

	return Plan{
		Samples:          uint64(len(w)),
		Rate:             rate,
		Duration:         duration,
		Period:           period,
		Reps:             Repetitions(duration, period),
		WaveformDuration: waveDur,
	}, nil
}
