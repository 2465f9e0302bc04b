package ledger

import (
	"context"
	"strconv"
	"time"
)

// ArchiveRepository stores published ledger entries for history queries
type ArchiveRepository interface {
	// Upsert stores the entry with the outcome of its chain check; re-delivery of the same id is a no-op
	Upsert(ctx context.Context, entry *Entry, verified bool) error
	GetByID(ctx context.Context, id int64) (*Entry, error)
	// Latest returns the entry with the highest id, or nil when the archive is empty
	Latest(ctx context.Context) (*Entry, error)
	GetByTimeRange(ctx context.Context, startTime, endTime time.Time, limit, offset int) ([]*Entry, error)
	CountByTimeRange(ctx context.Context, startTime, endTime time.Time) (int64, error)
	// CountUnverified counts entries stored without a passing chain check
	CountUnverified(ctx context.Context) (int64, error)
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	ID int64
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + strconv.FormatInt(e.ID, 10)
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// A zero target ID matches any ErrEntryNotFound
	if t.ID == 0 {
		return true
	}
	return e.ID == t.ID
}
