package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tienda-register-ledger/internal/domain/outbox"
	"github.com/tienda-register-ledger/internal/domain/shared"
	"github.com/tienda-register-ledger/internal/platform/messaging/producers"
)

// LedgerPublisher publishes one outbox message to the ledger topic
type LedgerPublisher interface {
	PublishToLedger(ctx context.Context, message *outbox.Message) error
}

// ErrUndecodablePayload marks a message that can never be published
type ErrUndecodablePayload struct {
	OutboxID int64
	Err      error
}

func (e ErrUndecodablePayload) Error() string {
	return fmt.Sprintf("outbox message %d has an undecodable payload: %v", e.OutboxID, e.Err)
}

func (e ErrUndecodablePayload) Unwrap() error { return e.Err }

// KafkaLedgerPublisher implements LedgerPublisher over a Kafka event producer
type KafkaLedgerPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.EventPublisher
	logger     *slog.Logger
}

// NewLedgerPublisher creates a new publisher
func NewLedgerPublisher(
	outboxRepo outbox.Repository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) LedgerPublisher {
	return &KafkaLedgerPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishToLedger decodes the stored event, writes it to Kafka and marks the message PROCESSED
func (p *KafkaLedgerPublisher) PublishToLedger(ctx context.Context, message *outbox.Message) error {
	event, err := message.Event()
	if err != nil {
		p.logger.Error("Failed to decode ledger event from outbox payload",
			"outbox_id", message.ID, "entry_id", message.EntryID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to mark undecodable outbox message", "outbox_id", message.ID, "error", updateErr)
		}
		return ErrUndecodablePayload{OutboxID: message.ID, Err: err}
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.producer.PublishEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to publish ledger entry %d: %w", event.Entry.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "entry_id", event.Entry.ID, "error", err,
		)
		return fmt.Errorf("ledger entry %d published, but failed to mark outbox %d as PROCESSED: %w", event.Entry.ID, message.ID, err)
	}

	logger.Debug("Published ledger entry", "outbox_id", message.ID, "entry_id", event.Entry.ID, "kind", event.Entry.Kind)
	return nil
}
