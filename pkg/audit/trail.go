package audit

import (
	"context"

	"go.uber.org/zap"
)

// Trail fans audit events out to all configured sinks. A sink failure is
// logged and never interrupts the send loop.
type Trail struct {
	runID  string
	sinks  []Sink
	logger *zap.SugaredLogger
}

// NewTrail creates a Trail for one run.
func NewTrail(runID string, logger *zap.SugaredLogger, sinks ...Sink) *Trail {
	return &Trail{runID: runID, sinks: sinks, logger: logger.Named("audit")}
}

// RunID returns the identifier shared by all events of this trail.
func (t *Trail) RunID() string { return t.runID }

// Record emits the event to every sink.
func (t *Trail) Record(ctx context.Context, event *Event) {
	for _, sink := range t.sinks {
		if err := sink.Write(ctx, event); err != nil {
			t.logger.Warnw("Audit sink write failed", "sink", sink.Name(), "error", err)
		}
	}
}

// Event creates a new event bound to this trail's run.
func (t *Trail) Event(typ EventType) *Event {
	return NewEvent(t.runID, typ)
}

// Close closes all sinks.
func (t *Trail) Close() error {
	var firstErr error
	for _, sink := range t.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
