package radio

import (
	"context"
	"time"

	"github.com/sdrkit/looptx/internal/waveform"
)

// Radio captures the device operations the transmit scheduler needs.
type Radio interface {
	// Info returns the identification block captured at connect time.
	Info() Info

	// TimeNow reads the device clock.
	TimeNow(ctx context.Context) (time.Time, error)
	// SetTimeNow loads the device clock immediately.
	SetTimeNow(ctx context.Context, t time.Time) error
	// SetTimeNextPPS arms a clock load on the next PPS edge.
	SetTimeNextPPS(ctx context.Context, t time.Time) error

	// TxBufferBytes reports the device's transmit buffer capacity.
	TxBufferBytes(ctx context.Context) (uint64, error)

	TxRate(ctx context.Context) (float64, error)
	SetTxRate(ctx context.Context, rate float64) error
	TxFreq(ctx context.Context) (float64, error)
	SetTxFreq(ctx context.Context, freq float64) error
	TxGain(ctx context.Context) (float64, error)
	SetTxGain(ctx context.Context, gain float64) error

	// TxPorts lists the transmit port names in index order.
	TxPorts(ctx context.Context) ([]string, error)
	SetTxPort(ctx context.Context, port int) error

	SetTxIQBias(ctx context.Context, i, q float64) error
	SetTxIQCorr(ctx context.Context, aii, aiq, aqi, aqq float64) error

	// Upload loads a waveform into the transmit buffer and returns how many
	// samples the device accepted.
	Upload(ctx context.Context, w waveform.Waveform) (uint64, error)
	// StartTxLoop schedules looped playback of the uploaded waveform.
	StartTxLoop(ctx context.Context, start time.Time, samples uint64, period time.Duration, reps uint64) error
	// StopTx aborts any scheduled or running transmission.
	StopTx(ctx context.Context) error

	Close() error
}
