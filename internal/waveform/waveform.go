package waveform

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// SampleBytes is the wire size of one complex sample: 16-bit signed I
// followed by 16-bit signed Q, little endian.
const SampleBytes = 4

// fullScale is the normalization for 16-bit signed samples.
const fullScale = 32768.0

// IQ is a single complex sample in the radio's native 16-bit format.
type IQ struct {
	I int16
	Q int16
}

// Waveform is an ordered, non-empty sequence of complex samples. The caller
// owns it until it is handed to the device for upload.
type Waveform []IQ

// FromBytes decodes a flat little-endian I/Q byte buffer into a Waveform.
func FromBytes(data []byte) (Waveform, error) {
	if len(data)%SampleBytes != 0 {
		return nil, fmt.Errorf("waveform data length %d is not a multiple of %d", len(data), SampleBytes)
	}
	w := make(Waveform, len(data)/SampleBytes)
	for n := range w {
		off := n * SampleBytes
		w[n].I = int16(binary.LittleEndian.Uint16(data[off : off+2]))
		w[n].Q = int16(binary.LittleEndian.Uint16(data[off+2 : off+4]))
	}
	return w, nil
}

// Bytes encodes the waveform in the radio's wire format.
func (w Waveform) Bytes() []byte {
	data := make([]byte, len(w)*SampleBytes)
	for n, s := range w {
		off := n * SampleBytes
		binary.LittleEndian.PutUint16(data[off:off+2], uint16(s.I))
		binary.LittleEndian.PutUint16(data[off+2:off+4], uint16(s.Q))
	}
	return data
}

// Duration returns the playback time of the waveform at the given sample
// rate, rounded to the nearest nanosecond.
func (w Waveform) Duration(rate float64) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(math.Round(float64(len(w)) / rate * 1e9))
}

// Complex returns the samples normalized to [-1, 1) as complex128, the form
// the analysis helpers work on.
func (w Waveform) Complex() []complex128 {
	out := make([]complex128, len(w))
	for n, s := range w {
		out[n] = complex(float64(s.I)/fullScale, float64(s.Q)/fullScale)
	}
	return out
}
