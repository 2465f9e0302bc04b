package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/tienda-register-ledger/internal/domain/ledger"
)

// ArchiveQueryServiceImpl implements the ArchiveQueryService interface
type ArchiveQueryServiceImpl struct {
	archive ledger.ArchiveRepository
	logger  *slog.Logger
}

// NewArchiveQueryService creates a new archive query service
func NewArchiveQueryService(logger *slog.Logger, archive ledger.ArchiveRepository) ArchiveQueryService {
	return &ArchiveQueryServiceImpl{
		archive: archive,
		logger:  logger,
	}
}

// GetEntry retrieves an archived entry by id. Returns nil if not found
func (s *ArchiveQueryServiceImpl) GetEntry(ctx context.Context, id int64) (*ledger.Entry, error) {
	res, err := s.archive.GetByID(ctx, id)
	if err != nil {
		var errEntryNotFound ledger.ErrEntryNotFound
		if errors.As(err, &errEntryNotFound) {
			s.logger.Info("Archived entry not found", "entry_id", id)
			return nil, nil
		}
		s.logger.Error("Failed to get archived entry", "entry_id", id, "error", err)
		return nil, err
	}
	return res, nil
}

// GetEntriesByTimeRange retrieves a page of archived entries in [from, to]
// Returns entries, total count, and any error
func (s *ArchiveQueryServiceImpl) GetEntriesByTimeRange(ctx context.Context, from, to time.Time, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset := (page - 1) * perPage

	entries, err := s.archive.GetByTimeRange(ctx, from, to, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.archive.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

// Status returns the archive head and the unverified entry count
func (s *ArchiveQueryServiceImpl) Status(ctx context.Context) (*ArchiveStatus, error) {
	latest, err := s.archive.Latest(ctx)
	if err != nil {
		return nil, err
	}
	unverified, err := s.archive.CountUnverified(ctx)
	if err != nil {
		return nil, err
	}

	status := &ArchiveStatus{Unverified: unverified}
	if latest != nil {
		status.LatestID = latest.ID
		ts := latest.Timestamp
		status.LatestAt = &ts
	}
	return status, nil
}
