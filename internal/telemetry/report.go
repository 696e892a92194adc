package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// Stage names one step of a transmission run.
type Stage string

const (
	StageConnected      Stage = "connected"
	StageClockSynced    Stage = "clock_synced"
	StageWaveformLoaded Stage = "waveform_loaded"
	StageValidated      Stage = "validated"
	StageUploaded       Stage = "uploaded"
	StageArmed          Stage = "armed"
	StageRunning        Stage = "running"
	StageComplete       Stage = "complete"
	StageWarning        Stage = "warning"
	StageFailed         Stage = "failed"
)

// Event is one progress update from a run.
type Event struct {
	Time    time.Time `json:"time"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message,omitempty"`
}

// Reporter observes run progress.
type Reporter interface {
	Report(e Event)
}

// LogReporter writes run events to the process log.
type LogReporter struct {
	logger *zap.Logger
}

// NewLogReporter builds a log-backed reporter.
func NewLogReporter(logger *zap.Logger) LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return LogReporter{logger: logger}
}

func (r LogReporter) Report(e Event) {
	fields := []zap.Field{zap.String("stage", string(e.Stage))}
	if e.Message != "" {
		fields = append(fields, zap.String("detail", e.Message))
	}
	switch e.Stage {
	case StageWarning:
		r.logger.Warn("run event", fields...)
	case StageFailed:
		r.logger.Error("run event", fields...)
	default:
		r.logger.Info("run event", fields...)
	}
}
