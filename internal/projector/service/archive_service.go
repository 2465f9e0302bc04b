package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/platform/metrics"
)

// ErrChainBroken reports an event that does not follow the latest archived entry
type ErrChainBroken struct {
	EntryID  int64
	LatestID int64
	Err      error
}

func (e ErrChainBroken) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ledger entry %d does not extend archived entry %d: %v", e.EntryID, e.LatestID, e.Err)
	}
	return fmt.Sprintf("ledger entry %d does not follow archived entry %d", e.EntryID, e.LatestID)
}

func (e ErrChainBroken) Unwrap() error { return e.Err }

// ArchiveServiceImpl re-checks each entry's snapshot against the archive head
// before storing it. A broken chain is stored unverified, never dropped.
type ArchiveServiceImpl struct {
	archive ledger.ArchiveRepository
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewArchiveService(archive ledger.ArchiveRepository, m *metrics.Metrics, logger *slog.Logger) ArchiveService {
	return &ArchiveServiceImpl{
		archive: archive,
		metrics: m,
		logger:  logger,
	}
}

// Archive stores the event's entry once
func (s *ArchiveServiceImpl) Archive(ctx context.Context, event *ledger.Event) error {
	entry := event.Entry
	logger := s.logger.With("entry_id", entry.ID, "event_id", event.EventID.String())
	if event.CorrelationID != "" {
		logger = logger.With("correlation_id", event.CorrelationID)
	}

	existing, err := s.archive.GetByID(ctx, entry.ID)
	if err != nil && !errors.Is(err, ledger.ErrEntryNotFound{}) {
		return fmt.Errorf("failed to check archived entry %d: %w", entry.ID, err)
	}
	if existing != nil {
		logger.Debug("Ledger entry already archived")
		s.metrics.ObserveArchive(metrics.ArchiveDuplicate, entry.ID)
		return nil
	}

	latest, err := s.archive.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to read archive head: %w", err)
	}

	chainErr := checkChain(latest, entry)
	verified := chainErr == nil
	if !verified {
		logger.Warn("Ledger entry failed chain check, archiving as unverified", "error", chainErr)
	}

	if err := s.archive.Upsert(ctx, &entry, verified); err != nil {
		s.metrics.ObserveArchive(metrics.ArchiveFailed, entry.ID)
		return fmt.Errorf("failed to archive ledger entry %d: %w", entry.ID, err)
	}

	if verified {
		s.metrics.ObserveArchive(metrics.ArchiveStored, entry.ID)
	} else {
		s.metrics.ObserveArchive(metrics.ArchiveGap, entry.ID)
	}
	logger.Info("Archived ledger entry", "kind", entry.Kind, "verified", verified)
	return nil
}

// checkChain verifies that entry directly follows latest and that its snapshot
// equals latest's snapshot plus its own amount
func checkChain(latest *ledger.Entry, entry ledger.Entry) error {
	var prev ledger.Balances
	var latestID int64
	if latest != nil {
		prev = latest.Snapshot()
		latestID = latest.ID
	}
	if entry.ID != latestID+1 {
		return ErrChainBroken{EntryID: entry.ID, LatestID: latestID}
	}
	if _, err := ledger.Check(prev, entry); err != nil {
		return ErrChainBroken{EntryID: entry.ID, LatestID: latestID, Err: err}
	}
	return nil
}
