package timesync

import (
	"fmt"
	"strings"
)

// Source selects where the device clock is set from.
type Source int

const (
	// SourceHost loads the host clock into the device immediately. Accuracy
	// is whatever the command round trip allows.
	SourceHost Source = iota
	// SourcePPS aligns the device clock to its PPS input, using the host
	// clock only to pick which second the next edge marks.
	SourcePPS
)

func (s Source) String() string {
	switch s {
	case SourceHost:
		return "host"
	case SourcePPS:
		return "pps"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// UnknownSourceError is a time source name this build does not implement.
// Callers must treat it as fatal; guessing a clock source risks
// transmitting at the wrong time.
type UnknownSourceError struct {
	Name string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown time source %q (want host or pps)", e.Name)
}

// ParseSource resolves a configured time source name.
func ParseSource(name string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "host":
		return SourceHost, nil
	case "pps":
		return SourcePPS, nil
	default:
		return 0, &UnknownSourceError{Name: name}
	}
}
