package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/platform/messaging/producers"
	"github.com/tienda-register-ledger/internal/projector/service"
)

// LedgerEventHandler handles committed ledger events from Kafka
type LedgerEventHandler struct {
	archiveService service.ArchiveService
	producer       producers.DeadLetterPublisher
	logger         *slog.Logger
}

// NewLedgerEventHandler creates a new handler; producer may be nil when the DLQ is disabled
func NewLedgerEventHandler(
	logger *slog.Logger,
	archiveService service.ArchiveService,
	producer producers.DeadLetterPublisher,
) *LedgerEventHandler {
	return &LedgerEventHandler{
		archiveService: archiveService,
		producer:       producer,
		logger:         logger,
	}
}

// HandleMessage processes Kafka messages. Returning nil commits the offset.
func (h *LedgerEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event ledger.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, fmt.Errorf("failed to unmarshal ledger event: %w", err))
	}
	if !event.Entry.Kind.Valid() || event.Entry.ID <= 0 {
		return h.deadLetter(ctx, key, value, fmt.Errorf("ledger event carries an invalid entry (id=%d kind=%q)", event.Entry.ID, event.Entry.Kind))
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	if err := h.archiveService.Archive(ctx, &event); err != nil {
		logger.Error("Failed to archive ledger event",
			"entry_id", event.Entry.ID,
			"error", err,
		)
		return fmt.Errorf("archiving ledger entry %d failed: %w", event.Entry.ID, err)
	}

	return nil
}

// deadLetter parks an unprocessable message; without a DLQ the error is returned so the offset stays uncommitted
func (h *LedgerEventHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	h.logger.Error("Unprocessable ledger event", "error", cause, "message_key", string(key))

	if h.producer == nil {
		return cause
	}
	if err := h.producer.PublishToDLQ(ctx, string(key), value, cause.Error()); err != nil {
		h.logger.Error("Failed to publish message to DLQ",
			"dlq_error", err,
			"original_error", cause,
			"message_key", string(key),
		)
		return cause
	}
	return nil
}
