package gateway

import (
	"log/slog"

	"arbchain/core/events"
)

// LogEmitter publishes dispute lifecycle events to the structured log and the
// event counter. The core never depends on anything consuming these.
type LogEmitter struct {
	log *slog.Logger
}

// NewLogEmitter wraps the supplied logger; a nil logger falls back to the
// process default.
func NewLogEmitter(log *slog.Logger) *LogEmitter {
	if log == nil {
		log = slog.Default()
	}
	return &LogEmitter{log: log}
}

// Emit implements the events.Emitter interface.
func (e *LogEmitter) Emit(event events.Event) {
	if e == nil || event == nil {
		return
	}
	eventsTotal.WithLabelValues(event.EventType()).Inc()
	e.log.Info("event", slog.String("type", event.EventType()), slog.Any("payload", event))
}
