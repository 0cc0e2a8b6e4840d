package events

import (
	"context"
	"log/slog"

	"github.com/yanqian/flat-price/internal/domain/valuation"
)

// LogPublisher is used when no broker is configured; it only logs the event.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs the publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger.With("component", "events.log")}
}

// Publish logs the event key and payload size.
func (p *LogPublisher) Publish(_ context.Context, key string, payload []byte) error {
	p.logger.Info("prediction event", "event_type", EventType, "key", key, "bytes", len(payload))
	return nil
}

var _ valuation.EventPublisher = (*LogPublisher)(nil)
