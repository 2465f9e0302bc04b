package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownKind    = errors.New("unknown ledger entry kind")
	ErrWorkerRequired = errors.New("cash shortage entry requires a worker")
)

// NextID returns max(existing ids)+1, or 1 for an empty log
func NextID(entries []Entry) int64 {
	var maxID int64
	for _, e := range entries {
		if e.ID > maxID {
			maxID = e.ID
		}
	}
	return maxID + 1
}

// Log is the transition-local view of the ledger: the pending entries plus the
// balances they produce. The next id is tracked locally so a transition that
// appends several entries never reuses an id.
type Log struct {
	entries  []Entry
	balances Balances
	nextID   int64
	appended []Entry
}

// Open starts a transition over the committed entries and balances
func Open(entries []Entry, balances Balances) *Log {
	return &Log{
		// clipped so appends never write into the committed backing array
		entries:  entries[:len(entries):len(entries)],
		balances: balances,
		nextID:   NextID(entries),
	}
}

// Append moves amount into the pool of kind, snapshots both balances and
// records the entry.
func (l *Log) Append(at time.Time, kind Kind, amount decimal.Decimal, description string, links Links) (Entry, error) {
	if !kind.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if kind == KindCashShortage && links.WorkerID == nil {
		return Entry{}, ErrWorkerRequired
	}

	l.balances = l.balances.Apply(kind.Pool(), amount)
	entry := Entry{
		ID:              l.nextID,
		Timestamp:       at,
		Kind:            kind,
		Description:     description,
		Amount:          amount,
		SaleID:          links.SaleID,
		PurchaseID:      links.PurchaseID,
		WorkerID:        links.WorkerID,
		InvestmentAfter: l.balances.Investment,
		PayoutAfter:     l.balances.Payout,
	}
	l.nextID++
	l.entries = append(l.entries, entry)
	l.appended = append(l.appended, entry)
	return entry, nil
}

// Entries returns the full pending log
func (l *Log) Entries() []Entry {
	return l.entries
}

// Appended returns only the entries added during this transition, in order
func (l *Log) Appended() []Entry {
	return l.appended
}

// Balances returns the balances after every appended entry
func (l *Log) Balances() Balances {
	return l.balances
}
