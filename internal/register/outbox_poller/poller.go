package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tienda-register-ledger/internal/config"
	"github.com/tienda-register-ledger/internal/domain/outbox"
	"github.com/tienda-register-ledger/internal/domain/shared"
	"github.com/tienda-register-ledger/internal/platform/metrics"
)

// Poller publishes pending outbox messages in ledger entry order
type Poller struct {
	outboxRepo       outbox.Repository
	ledgerPublisher  LedgerPublisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	ledgerPublisher LedgerPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		ledgerPublisher:  ledgerPublisher,
		metrics:          m,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
			p.reportBacklog(ctx)
		}
	}
}

// processPendingMessages publishes a batch and stops at the first failure so
// a later entry is never published ahead of an earlier one
func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := p.ledgerPublisher.PublishToLedger(ctx, msg)
		if err == nil {
			p.observe(metrics.ResultOK)
			continue
		}

		var undecodable ErrUndecodablePayload
		if errors.As(err, &undecodable) {
			// Already marked FAILED_TO_PUBLISH; the projector reports the gap
			p.observe(metrics.ResultError)
			continue
		}

		p.observe(metrics.ResultError)
		p.logger.Error("Failed to publish outbox message",
			"outbox_id", msg.ID, "entry_id", msg.EntryID, "current_attempts", msg.Attempts, "error", err,
		)

		if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
			p.logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", errInc)
			return nil
		}

		if msg.Attempts+1 >= p.maxRetryAttempts {
			p.logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
				"outbox_id", msg.ID, "entry_id", msg.EntryID, "attempts_made", msg.Attempts+1,
			)
			if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
				p.logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "outbox_id", msg.ID, "error", errUpdate)
			}
		}
		return nil
	}
	return nil
}

func (p *Poller) observe(result string) {
	if p.metrics != nil {
		p.metrics.OutboxPublish.WithLabelValues(result).Inc()
	}
}

// reportBacklog publishes pending and failed counts as gauges
func (p *Poller) reportBacklog(ctx context.Context) {
	if p.metrics == nil {
		return
	}
	for _, status := range []shared.OutboxStatus{shared.OutboxStatusPending, shared.OutboxStatusFailedToPublish} {
		count, err := p.outboxRepo.CountByStatus(ctx, status)
		if err != nil {
			p.logger.Warn("Failed to count outbox messages", "status", status, "error", err)
			continue
		}
		p.metrics.OutboxMessages.WithLabelValues(string(status)).Set(float64(count))
	}
}
