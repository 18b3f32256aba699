package services

import (
	"context"
	"log/slog"

	"despesas/internal/amqp"
)

// EventPublisher publishes ledger events; *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, event *amqp.LedgerEvent) error
}

// publish is best effort: the write already succeeded, so failures are
// only logged.
func publish(ctx context.Context, p EventPublisher, event *amqp.LedgerEvent) {
	if p == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping ledger event", "type", event.Type)
		return
	}
	if err := p.PublishLedgerEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			"record_id", event.RecordID,
			"error", err)
	}
}
