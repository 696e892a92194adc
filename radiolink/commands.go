package radiolink

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

// Hello asks the device to identify itself.
func (c *Client) Hello(ctx context.Context) (Hello, error) {
	resp, err := c.command(ctx, opHello, nil)
	if err != nil {
		return Hello{}, err
	}
	return parseHello(resp)
}

// ----------------------------------------------------------------------
// Device clock
// ----------------------------------------------------------------------

// TimeNow reads the device's current clock.
func (c *Client) TimeNow(ctx context.Context) (time.Time, error) {
	resp, err := c.command(ctx, opTimeNow, nil)
	if err != nil {
		return time.Time{}, err
	}
	return parseTimestamp(resp)
}

// SetTimeNow loads the device clock immediately.
func (c *Client) SetTimeNow(ctx context.Context, t time.Time) error {
	_, err := c.command(ctx, opSetTimeNow, appendTimestamp(nil, t))
	return err
}

// SetTimeNextPPS arms the device to load t into its clock on the next
// rising PPS edge. The command returns as soon as the load is armed, not
// when the edge arrives.
func (c *Client) SetTimeNextPPS(ctx context.Context, t time.Time) error {
	_, err := c.command(ctx, opSetTimeNextPPS, appendTimestamp(nil, t))
	return err
}

// ----------------------------------------------------------------------
// Buffers
// ----------------------------------------------------------------------

// BufferInfo reports the device's transmit and receive sample buffer
// capacities in bytes.
func (c *Client) BufferInfo(ctx context.Context) (txBytes, rxBytes uint64, err error) {
	resp, err := c.command(ctx, opBufferInfo, nil)
	if err != nil {
		return 0, 0, err
	}
	if len(resp) < 16 {
		return 0, 0, fmt.Errorf("buffer info response too short: %d bytes", len(resp))
	}
	txBytes = binary.LittleEndian.Uint64(resp[0:8])
	rxBytes = binary.LittleEndian.Uint64(resp[8:16])
	return txBytes, rxBytes, nil
}

// ----------------------------------------------------------------------
// Transmit front end
// ----------------------------------------------------------------------

func (c *Client) TxRate(ctx context.Context) (float64, error) {
	resp, err := c.command(ctx, opGetTxRate, nil)
	if err != nil {
		return 0, err
	}
	return parseFloat64(resp)
}

func (c *Client) SetTxRate(ctx context.Context, rate float64) error {
	_, err := c.command(ctx, opSetTxRate, appendFloat64(nil, rate))
	return err
}

func (c *Client) TxFreq(ctx context.Context) (float64, error) {
	resp, err := c.command(ctx, opGetTxFreq, nil)
	if err != nil {
		return 0, err
	}
	return parseFloat64(resp)
}

func (c *Client) SetTxFreq(ctx context.Context, freq float64) error {
	_, err := c.command(ctx, opSetTxFreq, appendFloat64(nil, freq))
	return err
}

func (c *Client) TxGain(ctx context.Context) (float64, error) {
	resp, err := c.command(ctx, opGetTxGain, nil)
	if err != nil {
		return 0, err
	}
	return parseFloat64(resp)
}

func (c *Client) SetTxGain(ctx context.Context, gain float64) error {
	_, err := c.command(ctx, opSetTxGain, appendFloat64(nil, gain))
	return err
}

// TxPortCount reports how many transmit ports the front end exposes.
func (c *Client) TxPortCount(ctx context.Context) (int, error) {
	resp, err := c.command(ctx, opTxPortCount, nil)
	if err != nil {
		return 0, err
	}
	if len(resp) < 4 {
		return 0, fmt.Errorf("port count response too short: %d bytes", len(resp))
	}
	return int(binary.LittleEndian.Uint32(resp[0:4])), nil
}

// TxPortName returns the front end's name for a transmit port index.
func (c *Client) TxPortName(ctx context.Context, port int) (string, error) {
	resp, err := c.command(ctx, opTxPortName, binary.LittleEndian.AppendUint32(nil, uint32(port)))
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(resp, "\x00")), nil
}

func (c *Client) SetTxPort(ctx context.Context, port int) error {
	_, err := c.command(ctx, opSetTxPort, binary.LittleEndian.AppendUint32(nil, uint32(port)))
	return err
}

// SetTxIQBias sets the DC bias added to the I and Q rails, in full-scale
// units.
func (c *Client) SetTxIQBias(ctx context.Context, i, q float64) error {
	payload := appendFloat64(nil, i)
	payload = appendFloat64(payload, q)
	_, err := c.command(ctx, opSetTxIQBias, payload)
	return err
}

// SetTxIQCorr sets the 2x2 I/Q correction matrix, row major.
func (c *Client) SetTxIQCorr(ctx context.Context, aii, aiq, aqi, aqq float64) error {
	payload := appendFloat64(nil, aii)
	payload = appendFloat64(payload, aiq)
	payload = appendFloat64(payload, aqi)
	payload = appendFloat64(payload, aqq)
	_, err := c.command(ctx, opSetTxIQCorr, payload)
	return err
}

// ----------------------------------------------------------------------
// Looped transmission
// ----------------------------------------------------------------------

// StartTxLoop starts looped playback of the uploaded waveform at the given
// device time. samples is the waveform length, period the spacing between
// repetition starts (zero for back to back), reps the repetition count
// (zero to repeat until stopped).
func (c *Client) StartTxLoop(ctx context.Context, start time.Time, samples uint64, period time.Duration, reps uint64) error {
	payload := appendTimestamp(nil, start)
	payload = binary.LittleEndian.AppendUint64(payload, samples)
	payload = binary.LittleEndian.AppendUint64(payload, uint64(period))
	payload = binary.LittleEndian.AppendUint64(payload, reps)
	_, err := c.command(ctx, opStartTxLoop, payload)
	return err
}

// StopTx aborts any scheduled or running transmission.
func (c *Client) StopTx(ctx context.Context) error {
	_, err := c.command(ctx, opStopTx, nil)
	return err
}
