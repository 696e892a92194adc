package radiolink

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"
)

// DefaultTimeout bounds each command round trip.
const DefaultTimeout = 3 * time.Second

// helloProbeRetries is how many extra hello attempts Dial makes. Datagram
// loss while the link comes up is normal; a command lost mid-run is not,
// so nothing after Dial ever retries.
const helloProbeRetries = 3

// Options configures a connection. The zero value is usable.
type Options struct {
	// LocalAddress optionally pins the local UDP endpoint, for hosts with
	// more than one interface facing radios.
	LocalAddress string

	// Timeout bounds each command round trip. Zero means DefaultTimeout.
	Timeout time.Duration

	// SendBufferBytes and ReceiveBufferBytes size the socket buffers.
	// Zero leaves the kernel defaults.
	SendBufferBytes    int
	ReceiveBufferBytes int

	Logger *zap.Logger
}

// Client is a command-channel connection to one radio. All commands are
// strictly serialized: one request in flight at a time, each matched to its
// response by sequence number.
type Client struct {
	addr    string
	conn    net.Conn
	timeout time.Duration
	log     *zap.Logger

	mu  sync.Mutex
	seq uint16

	hello   Hello
	maxData int
}

// Dial connects to the radio's command port and verifies it answers a hello
// probe. The probe is retried a few times with backoff before giving up.
func Dial(ctx context.Context, addr string, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	d := net.Dialer{Timeout: opts.Timeout}
	if opts.LocalAddress != "" {
		laddr, err := net.ResolveUDPAddr("udp", opts.LocalAddress)
		if err != nil {
			return nil, fmt.Errorf("resolve local address %s: %w", opts.LocalAddress, err)
		}
		d.LocalAddr = laddr
	}

	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect to radio at %s: %w", addr, err)
	}

	if u, ok := conn.(*net.UDPConn); ok {
		if err := setSocketBuffers(u, opts.SendBufferBytes, opts.ReceiveBufferBytes); err != nil {
			opts.Logger.Warn("socket buffer sizing failed", zap.Error(err))
		}
	}

	c := &Client{
		addr:    addr,
		conn:    conn,
		timeout: opts.Timeout,
		log:     opts.Logger,
	}

	probe := func() error {
		h, err := c.Hello(ctx)
		if err != nil {
			return err
		}
		c.hello = h
		return nil
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = 0
	if err := backoff.Retry(probe, backoff.WithContext(backoff.WithMaxRetries(bo, helloProbeRetries), ctx)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("radio at %s not answering hello: %w", addr, err)
	}

	c.maxData = dataChunkBytes(c.hello.MaxPayload)
	c.log.Info("radio command channel up",
		zap.String("addr", addr),
		zap.Uint32("device_type", c.hello.DeviceType),
		zap.Uint32("unique_id", c.hello.UniqueID),
		zap.Int("chunk_bytes", c.maxData))
	return c, nil
}

// DeviceInfo returns the hello block captured when the connection came up.
func (c *Client) DeviceInfo() Hello {
	return c.hello
}

// MaxDataBytes is the waveform chunk size used by Upload.
func (c *Client) MaxDataBytes() int {
	return c.maxData
}

// RemoteAddr returns the radio's command endpoint.
func (c *Client) RemoteAddr() string {
	return c.addr
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// ----------------------------------------------------------------------
// Round trip
// ----------------------------------------------------------------------

// roundTrip sends one command datagram and waits for its matching response.
// Responses carrying a stale sequence number, left over from an earlier
// timeout, are discarded.
func (c *Client) roundTrip(ctx context.Context, op, flags uint8, payload []byte) (uint8, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if len(payload) > maxDatagram-headerLen {
		return 0, nil, fmt.Errorf("payload too large: %d bytes", len(payload))
	}

	c.seq++
	seq := c.seq

	pkt := appendHeader(make([]byte, 0, headerLen+len(payload)), op, flags, seq, uint32(len(payload)))
	pkt = append(pkt, payload...)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.conn.SetWriteDeadline(deadline)
	if _, err := c.conn.Write(pkt); err != nil {
		return 0, nil, fmt.Errorf("send command 0x%02x: %w", op, err)
	}

	buf := make([]byte, maxDatagram)
	for {
		c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(buf)
		if err != nil {
			return 0, nil, fmt.Errorf("response to command 0x%02x: %w", op, err)
		}
		if n < headerLen {
			continue
		}
		rop, status, rseq, length := parseHeader(buf[:headerLen])
		if rseq != seq || rop != op {
			continue
		}
		if int(length) != n-headerLen {
			return 0, nil, fmt.Errorf("response to command 0x%02x: length field %d does not match datagram payload %d", op, length, n-headerLen)
		}
		resp := make([]byte, length)
		copy(resp, buf[headerLen:n])
		return status, resp, nil
	}
}

// command is roundTrip plus the common OK check.
func (c *Client) command(ctx context.Context, op uint8, payload []byte) ([]byte, error) {
	status, resp, err := c.roundTrip(ctx, op, 0, payload)
	if err != nil {
		return nil, err
	}
	if status != statusOK {
		return nil, &DeviceError{Op: op, Status: status}
	}
	return resp, nil
}
