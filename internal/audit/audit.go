// Package audit records delivery-attempt events for the adapter. The sink is
// injected wherever a dispatch outcome must be observable; implementations
// must never fail the calling request.
package audit

import (
	"context"

	"github.com/chatflow-io/whatsapp-adapter/pkg/logging"
)

// Recorder is the observability sink for delivery events.
type Recorder interface {
	Record(ctx context.Context, category, message string)
}

// LogRecorder writes audit events to the structured log.
type LogRecorder struct {
	logger *logging.Logger
}

// NewLogRecorder builds a log-backed recorder.
func NewLogRecorder(logger *logging.Logger) *LogRecorder {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogRecorder{logger: logger}
}

// Record emits the event as a structured log record.
func (r *LogRecorder) Record(ctx context.Context, category, message string) {
	r.logger.Info("audit", "category", category, "content", message)
}

// MultiRecorder fans one event out to several sinks.
type MultiRecorder []Recorder

// Record forwards the event to every sink.
func (m MultiRecorder) Record(ctx context.Context, category, message string) {
	for _, recorder := range m {
		if recorder != nil {
			recorder.Record(ctx, category, message)
		}
	}
}
