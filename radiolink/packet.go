package radiolink

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// ----------------------------------------------------------------------
// Command Protocol Constants
// ----------------------------------------------------------------------

// Every command is a single UDP datagram: an 8-byte little-endian header
// followed by an op-specific payload. The device answers each command with
// one datagram of the same shape, echoing op and sequence number and
// carrying a status byte where the request carried flags.
//
//	request:  op(u8) flags(u8) seq(u16) length(u32) payload...
//	response: op(u8) status(u8) seq(u16) length(u32) payload...

const (
	opHello          = 0x01 // identify device, report capabilities
	opTimeNow        = 0x02
	opSetTimeNow     = 0x03
	opSetTimeNextPPS = 0x04 // arm a time load on the next PPS edge
	opBufferInfo     = 0x05

	opGetTxRate   = 0x10
	opSetTxRate   = 0x11
	opGetTxFreq   = 0x12
	opSetTxFreq   = 0x13
	opGetTxGain   = 0x14
	opSetTxGain   = 0x15
	opTxPortCount = 0x16
	opTxPortName  = 0x17
	opSetTxPort   = 0x18
	opSetTxIQBias = 0x19
	opSetTxIQCorr = 0x1A

	opTxData      = 0x20 // waveform chunk, acked with cumulative byte count
	opStartTxLoop = 0x21
	opStopTx      = 0x22
)

const (
	statusOK            = 0x00
	statusBadOp         = 0x01
	statusBadPayload    = 0x02
	statusBusy          = 0x03
	statusOutOfRange    = 0x04
	statusNoBufferSpace = 0x05
	statusNotReady      = 0x06
	statusInternal      = 0x07
)

// Chunk flags for opTxData.
const (
	flagFirst = 0x01
	flagLast  = 0x02
)

const (
	headerLen = 8
	helloLen  = 32

	// Largest UDP payload over IPv4 without fragmentation games.
	maxDatagram = 65507

	defaultChunkBytes = 8192
)

func statusText(s uint8) string {
	switch s {
	case statusOK:
		return "ok"
	case statusBadOp:
		return "unsupported command"
	case statusBadPayload:
		return "malformed payload"
	case statusBusy:
		return "device busy"
	case statusOutOfRange:
		return "value out of range"
	case statusNoBufferSpace:
		return "no buffer space"
	case statusNotReady:
		return "device not ready"
	case statusInternal:
		return "internal device error"
	default:
		return fmt.Sprintf("status 0x%02x", s)
	}
}

// DeviceError is a command the device received and rejected.
type DeviceError struct {
	Op     uint8
	Status uint8
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected command 0x%02x: %s", e.Op, statusText(e.Status))
}

// ----------------------------------------------------------------------
// Header framing
// ----------------------------------------------------------------------

func appendHeader(b []byte, op, flags uint8, seq uint16, length uint32) []byte {
	b = append(b, op, flags)
	b = binary.LittleEndian.AppendUint16(b, seq)
	b = binary.LittleEndian.AppendUint32(b, length)
	return b
}

func parseHeader(b []byte) (op, flags uint8, seq uint16, length uint32) {
	_ = b[7]
	return b[0], b[1], binary.LittleEndian.Uint16(b[2:4]), binary.LittleEndian.Uint32(b[4:8])
}

// ----------------------------------------------------------------------
// Payload field encoding
// ----------------------------------------------------------------------

// Timestamps travel as whole seconds and nanoseconds, both uint32.
func appendTimestamp(b []byte, t time.Time) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(t.Unix()))
	b = binary.LittleEndian.AppendUint32(b, uint32(t.Nanosecond()))
	return b
}

func parseTimestamp(b []byte) (time.Time, error) {
	if len(b) < 8 {
		return time.Time{}, fmt.Errorf("timestamp payload too short: %d bytes", len(b))
	}
	sec := binary.LittleEndian.Uint32(b[0:4])
	ns := binary.LittleEndian.Uint32(b[4:8])
	return time.Unix(int64(sec), int64(ns)).UTC(), nil
}

func appendFloat64(b []byte, v float64) []byte {
	return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
}

func parseFloat64(b []byte) (float64, error) {
	if len(b) < 8 {
		return 0, fmt.Errorf("float payload too short: %d bytes", len(b))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b[0:8])), nil
}

// ----------------------------------------------------------------------
// Hello response
// ----------------------------------------------------------------------

// Hello is the device's identification block: eight little-endian uint32
// words. Interpretation of the packed version and wire-format words is up
// to the caller; the transport only needs MaxPayload.
type Hello struct {
	DeviceType    uint32
	FPGAVersion   uint32
	MCUVersion    uint32
	UniqueID      uint32
	PacketVersion uint32
	WireFormat    uint32
	Subdevices    uint32
	MaxPayload    uint32
}

func parseHello(b []byte) (Hello, error) {
	if len(b) < helloLen {
		return Hello{}, fmt.Errorf("hello response too short: %d bytes", len(b))
	}
	return Hello{
		DeviceType:    binary.LittleEndian.Uint32(b[0:4]),
		FPGAVersion:   binary.LittleEndian.Uint32(b[4:8]),
		MCUVersion:    binary.LittleEndian.Uint32(b[8:12]),
		UniqueID:      binary.LittleEndian.Uint32(b[12:16]),
		PacketVersion: binary.LittleEndian.Uint32(b[16:20]),
		WireFormat:    binary.LittleEndian.Uint32(b[20:24]),
		Subdevices:    binary.LittleEndian.Uint32(b[24:28]),
		MaxPayload:    binary.LittleEndian.Uint32(b[28:32]),
	}, nil
}

// dataChunkBytes picks the waveform chunk size from the device's advertised
// per-packet payload limit, clamped to what a datagram can carry and floored
// to whole samples.
func dataChunkBytes(maxPayload uint32) int {
	n := int(maxPayload)
	if n <= 0 {
		n = defaultChunkBytes
	}
	if lim := maxDatagram - headerLen; n > lim {
		n = lim
	}
	n -= n % 4
	if n < 4 {
		n = defaultChunkBytes
	}
	return n
}
