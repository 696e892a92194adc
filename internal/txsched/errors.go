package txsched

import (
	"fmt"
	"time"
)

// WaveformTooLargeError is a waveform that cannot fit in the device's
// transmit buffer, so looped playback is impossible.
type WaveformTooLargeError struct {
	Samples  uint64
	Capacity uint64 // buffer capacity in samples
}

func (e *WaveformTooLargeError) Error() string {
	return fmt.Sprintf("waveform of %d samples exceeds transmit buffer capacity of %d samples", e.Samples, e.Capacity)
}

// GapWarning is advisory: the device pads each repetition to its sample
// granularity, so back-to-back playback will carry short silent gaps.
type GapWarning struct {
	Samples     uint64
	Granularity int
}

func (w *GapWarning) Error() string {
	return fmt.Sprintf("waveform length %d is not a multiple of the device granularity %d; repetitions will have short gaps between them", w.Samples, w.Granularity)
}

// WaveformExceedsPeriodError means one playback takes longer than the
// requested spacing between repetition starts.
type WaveformExceedsPeriodError struct {
	WaveformDuration time.Duration
	Period           time.Duration
}

func (e *WaveformExceedsPeriodError) Error() string {
	return fmt.Sprintf("waveform playback of %v does not fit in repeat period %v", e.WaveformDuration, e.Period)
}

// UploadIncompleteError means the device acked fewer samples than were
// sent. The transmit buffer holds a truncated waveform; starting the loop
// would play garbage.
type UploadIncompleteError struct {
	Sent     uint64
	Accepted uint64
}

func (e *UploadIncompleteError) Error() string {
	return fmt.Sprintf("device accepted %d of %d samples", e.Accepted, e.Sent)
}

// LoopStartError is a rejected or lost loop start command.
type LoopStartError struct {
	Cause error
}

func (e *LoopStartError) Error() string {
	return fmt.Sprintf("starting transmit loop: %v", e.Cause)
}

func (e *LoopStartError) Unwrap() error { return e.Cause }
