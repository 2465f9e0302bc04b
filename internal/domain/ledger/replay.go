package ledger

import (
	"fmt"
)

// ErrSnapshotMismatch reports an entry whose recorded balances differ from the replay
type ErrSnapshotMismatch struct {
	EntryID  int64
	Recorded Balances
	Replayed Balances
}

func (e ErrSnapshotMismatch) Error() string {
	return fmt.Sprintf("ledger entry %d snapshot (investment=%s payout=%s) differs from replay (investment=%s payout=%s)",
		e.EntryID, e.Recorded.Investment, e.Recorded.Payout, e.Replayed.Investment, e.Replayed.Payout)
}

// ErrBalanceDrift reports live balances that the ledger cannot reproduce
type ErrBalanceDrift struct {
	Live     Balances
	Replayed Balances
}

func (e ErrBalanceDrift) Error() string {
	return fmt.Sprintf("live balances (investment=%s payout=%s) differ from ledger replay (investment=%s payout=%s)",
		e.Live.Investment, e.Live.Payout, e.Replayed.Investment, e.Replayed.Payout)
}

// ErrOutOfOrder reports a non-increasing id in the log
type ErrOutOfOrder struct {
	Previous int64
	Current  int64
}

func (e ErrOutOfOrder) Error() string {
	return fmt.Sprintf("ledger entry id %d follows %d", e.Current, e.Previous)
}

// Replay folds every entry's amount into its pool starting from zero
func Replay(entries []Entry) Balances {
	var b Balances
	for _, e := range entries {
		b = b.Apply(e.Kind.Pool(), e.Amount)
	}
	return b
}

// Check verifies one entry against the balances that preceded it and returns
// the balances after it.
func Check(prev Balances, e Entry) (Balances, error) {
	next := prev.Apply(e.Kind.Pool(), e.Amount)
	if !next.Equal(e.Snapshot()) {
		return next, ErrSnapshotMismatch{EntryID: e.ID, Recorded: e.Snapshot(), Replayed: next}
	}
	return next, nil
}

// Verify replays the log, checks every snapshot and id ordering, and compares the
// result with the live balances.
func Verify(entries []Entry, live Balances) error {
	var running Balances
	var prevID int64
	for i, e := range entries {
		if i > 0 && e.ID <= prevID {
			return ErrOutOfOrder{Previous: prevID, Current: e.ID}
		}
		prevID = e.ID

		var err error
		if running, err = Check(running, e); err != nil {
			return err
		}
	}
	if !running.Equal(live) {
		return ErrBalanceDrift{Live: live, Replayed: running}
	}
	return nil
}
