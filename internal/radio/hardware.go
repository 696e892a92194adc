package radio

import (
	"context"
	"fmt"
	"time"

	"github.com/sdrkit/looptx/internal/waveform"
	"github.com/sdrkit/looptx/radiolink"
)

// Hardware drives a physical radio over its command channel.
type Hardware struct {
	client *radiolink.Client
	info   Info
}

// NewHardware wraps an established command channel.
func NewHardware(client *radiolink.Client) *Hardware {
	return &Hardware{
		client: client,
		info:   DecodeHello(client.DeviceInfo()),
	}
}

func (h *Hardware) Info() Info { return h.info }

func (h *Hardware) TimeNow(ctx context.Context) (time.Time, error) {
	return h.client.TimeNow(ctx)
}

func (h *Hardware) SetTimeNow(ctx context.Context, t time.Time) error {
	return h.client.SetTimeNow(ctx, t)
}

func (h *Hardware) SetTimeNextPPS(ctx context.Context, t time.Time) error {
	return h.client.SetTimeNextPPS(ctx, t)
}

func (h *Hardware) TxBufferBytes(ctx context.Context) (uint64, error) {
	tx, _, err := h.client.BufferInfo(ctx)
	return tx, err
}

func (h *Hardware) TxRate(ctx context.Context) (float64, error) {
	return h.client.TxRate(ctx)
}

func (h *Hardware) SetTxRate(ctx context.Context, rate float64) error {
	return h.client.SetTxRate(ctx, rate)
}

func (h *Hardware) TxFreq(ctx context.Context) (float64, error) {
	return h.client.TxFreq(ctx)
}

func (h *Hardware) SetTxFreq(ctx context.Context, freq float64) error {
	return h.client.SetTxFreq(ctx, freq)
}

func (h *Hardware) TxGain(ctx context.Context) (float64, error) {
	return h.client.TxGain(ctx)
}

func (h *Hardware) SetTxGain(ctx context.Context, gain float64) error {
	return h.client.SetTxGain(ctx, gain)
}

func (h *Hardware) TxPorts(ctx context.Context) ([]string, error) {
	count, err := h.client.TxPortCount(ctx)
	if err != nil {
		return nil, err
	}
	ports := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name, err := h.client.TxPortName(ctx, i)
		if err != nil {
			return nil, fmt.Errorf("name of tx port %d: %w", i, err)
		}
		ports = append(ports, name)
	}
	return ports, nil
}

func (h *Hardware) SetTxPort(ctx context.Context, port int) error {
	return h.client.SetTxPort(ctx, port)
}

func (h *Hardware) SetTxIQBias(ctx context.Context, i, q float64) error {
	return h.client.SetTxIQBias(ctx, i, q)
}

func (h *Hardware) SetTxIQCorr(ctx context.Context, aii, aiq, aqi, aqq float64) error {
	return h.client.SetTxIQCorr(ctx, aii, aiq, aqi, aqq)
}

// Upload sends the waveform and reports accepted whole samples.
func (h *Hardware) Upload(ctx context.Context, w waveform.Waveform) (uint64, error) {
	acceptedBytes, err := h.client.Upload(ctx, w.Bytes())
	return acceptedBytes / waveform.SampleBytes, err
}

func (h *Hardware) StartTxLoop(ctx context.Context, start time.Time, samples uint64, period time.Duration, reps uint64) error {
	return h.client.StartTxLoop(ctx, start, samples, period, reps)
}

func (h *Hardware) StopTx(ctx context.Context) error {
	return h.client.StopTx(ctx)
}

func (h *Hardware) Close() error {
	return h.client.Close()
}
