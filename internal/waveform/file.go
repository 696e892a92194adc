package waveform

import (
	"fmt"
	"os"
)

// ReadFile loads a waveform from a flat binary file of 16-bit little-endian
// I/Q pairs. Trailing bytes that do not form a whole sample are dropped.
func ReadFile(name string) (Waveform, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read waveform file: %w", err)
	}
	data = data[:len(data)-len(data)%SampleBytes]
	return FromBytes(data)
}

// WriteFile stores a waveform as a flat binary file of 16-bit little-endian
// I/Q pairs, the same format ReadFile loads.
func WriteFile(name string, w Waveform) error {
	if err := os.WriteFile(name, w.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write waveform file: %w", err)
	}
	return nil
}
