package radiolink

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Upload streams waveform bytes to the device's transmit buffer in chunks
// sized by the device's advertised payload limit. Each chunk is acked with
// the cumulative byte count the device has accepted; Upload returns the
// final count. The caller decides whether a short count is an error.
func (c *Client) Upload(ctx context.Context, data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, errors.New("no waveform data to send")
	}

	var accepted uint64
	chunks := 0
	for off := 0; off < len(data); off += c.maxData {
		end := off + c.maxData
		if end > len(data) {
			end = len(data)
		}

		var flags uint8
		if off == 0 {
			flags |= flagFirst
		}
		if end == len(data) {
			flags |= flagLast
		}

		status, resp, err := c.roundTrip(ctx, opTxData, flags, data[off:end])
		if err != nil {
			return accepted, fmt.Errorf("send waveform chunk at byte %d: %w", off, err)
		}
		if status != statusOK {
			return accepted, &DeviceError{Op: opTxData, Status: status}
		}
		if len(resp) < 8 {
			return accepted, fmt.Errorf("waveform chunk ack too short: %d bytes", len(resp))
		}
		accepted = binary.LittleEndian.Uint64(resp[0:8])
		chunks++
	}

	c.log.Debug("waveform upload finished",
		zap.Int("bytes", len(data)),
		zap.Int("chunks", chunks),
		zap.Uint64("accepted", accepted))
	return accepted, nil
}
