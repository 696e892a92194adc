package radio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sdrkit/looptx/internal/waveform"
)

// Mock is an in-memory radio for tests. Error fields, when set, are
// returned by the matching operations; everything else is recorded so
// tests can inspect what the scheduler asked the device to do.
type Mock struct {
	mu sync.Mutex

	DeviceInfo Info
	BufBytes   uint64
	Ports      []string

	// NowFunc supplies the host side of the simulated device clock.
	NowFunc func() time.Time

	TimeErr         error
	ClockSetErr     error
	StartErr        error
	UploadShortfall uint64 // samples withheld from the accepted count

	offset    time.Duration
	PPSTarget time.Time

	Rate, Freq, Gain float64
	Port             int
	BiasI, BiasQ     float64
	Corr             [4]float64

	Uploaded    waveform.Waveform
	LoopStart   time.Time
	LoopSamples uint64
	LoopPeriod  time.Duration
	LoopReps    uint64
	Started     bool
	Stopped     bool
}

func NewMock() *Mock {
	return &Mock{
		DeviceInfo: Info{
			DeviceType:    1,
			FPGAVersion:   Version{1, 0, 0},
			MCUVersion:    Version{1, 0, 0},
			UniqueID:      0x4D4F434B,
			PacketVersion: Version{4, 2, 0},
			Format:        WireFormat{SampleBits: 16, Complex: true, Granularity: 1},
			Subdevices:    1,
			MaxPayload:    8192,
		},
		BufBytes: 1 << 22,
		Ports:    []string{"TX/RX"},
		NowFunc:  time.Now,
	}
}

func (m *Mock) Info() Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.DeviceInfo
}

func (m *Mock) TimeNow(_ context.Context) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.TimeErr != nil {
		return time.Time{}, m.TimeErr
	}
	return m.NowFunc().Add(m.offset), nil
}

func (m *Mock) SetTimeNow(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClockSetErr != nil {
		return m.ClockSetErr
	}
	m.offset = t.Sub(m.NowFunc())
	return nil
}

// SetTimeNextPPS applies t as the device time at the next whole host
// second, which is where a real PPS edge would land in a synced setup.
func (m *Mock) SetTimeNextPPS(_ context.Context, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClockSetErr != nil {
		return m.ClockSetErr
	}
	m.PPSTarget = t
	edge := m.NowFunc().Truncate(time.Second).Add(time.Second)
	m.offset = t.Sub(edge)
	return nil
}

func (m *Mock) TxBufferBytes(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.BufBytes, nil
}

func (m *Mock) TxRate(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Rate, nil
}

func (m *Mock) SetTxRate(_ context.Context, rate float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Rate = rate
	return nil
}

func (m *Mock) TxFreq(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Freq, nil
}

func (m *Mock) SetTxFreq(_ context.Context, freq float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Freq = freq
	return nil
}

func (m *Mock) TxGain(_ context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Gain, nil
}

func (m *Mock) SetTxGain(_ context.Context, gain float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gain = gain
	return nil
}

func (m *Mock) TxPorts(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Ports))
	copy(out, m.Ports)
	return out, nil
}

func (m *Mock) SetTxPort(_ context.Context, port int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if port < 0 || port >= len(m.Ports) {
		return fmt.Errorf("no tx port %d", port)
	}
	m.Port = port
	return nil
}

func (m *Mock) SetTxIQBias(_ context.Context, i, q float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BiasI, m.BiasQ = i, q
	return nil
}

func (m *Mock) SetTxIQCorr(_ context.Context, aii, aiq, aqi, aqq float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Corr = [4]float64{aii, aiq, aqi, aqq}
	return nil
}

func (m *Mock) Upload(_ context.Context, w waveform.Waveform) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Uploaded = make(waveform.Waveform, len(w))
	copy(m.Uploaded, w)
	accepted := uint64(len(w))
	if m.UploadShortfall > accepted {
		return 0, nil
	}
	return accepted - m.UploadShortfall, nil
}

func (m *Mock) StartTxLoop(_ context.Context, start time.Time, samples uint64, period time.Duration, reps uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return m.StartErr
	}
	m.LoopStart = start
	m.LoopSamples = samples
	m.LoopPeriod = period
	m.LoopReps = reps
	m.Started = true
	return nil
}

func (m *Mock) StopTx(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Stopped = true
	return nil
}

func (m *Mock) Close() error { return nil }
