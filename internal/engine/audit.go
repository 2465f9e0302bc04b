package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

// Expectation is what the register should hold for the open audit window
type Expectation struct {
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	SalesCount  int          `json:"sales_count"`
	HasSales    bool         `json:"has_sales"`
	Totals      audit.Totals `json:"totals"`
}

// auditWindow is today in the register's time zone, starting after the
// latest close of the same day. covered is the last sale that close counted.
func (e *Engine) auditWindow(s State, now time.Time) (start, end time.Time, covered int64) {
	dayStart, end := dayBounds(now)
	start = dayStart
	for _, r := range s.Audits {
		ts := r.Timestamp
		if ts.Before(dayStart) || ts.After(end) {
			continue
		}
		if r.LastSaleID >= covered {
			start = ts
			covered = r.LastSaleID
		}
	}
	return start, end, covered
}

// dayBounds is the local day holding now, to the millisecond
func dayBounds(now time.Time) (start, end time.Time) {
	y, m, d := now.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1).Add(-time.Millisecond)
}

// ExpectedTotals sums what today's sales should have left in the drawer.
// A day without sales is reported with HasSales false; it is not an error.
func (e *Engine) ExpectedTotals(s State) Expectation {
	return e.expected(s, e.clock())
}

func (e *Engine) expected(s State, now time.Time) Expectation {
	start, end, covered := e.auditWindow(s, now)
	dayStart, _ := dayBounds(now)
	exp := Expectation{WindowStart: start, WindowEnd: end}
	for _, sl := range s.Sales {
		// sales are ordered by id, so a close's cutoff holds even when a
		// sale shares its timestamp
		if sl.ID <= covered || sl.Timestamp.Before(dayStart) || sl.Timestamp.After(end) {
			continue
		}
		amount := sl.Payment.AmountPaid
		if sl.Payment.Currency == shared.CurrencyCUP {
			amount = amount.Sub(sl.Payment.ChangeInCUP)
		}
		exp.Totals = exp.Totals.Add(sl.Payment.Currency, amount)
		exp.SalesCount++
	}
	exp.HasSales = exp.SalesCount > 0
	return exp
}

type CloseCommand struct {
	WorkerID      int64                     `json:"worker_id"`
	Denominations []audit.DenominationCount `json:"denominations"`
	CountedMLC    decimal.Decimal           `json:"counted_mlc"`
	CountedUSD    decimal.Decimal           `json:"counted_usd"`
}

func (cmd CloseCommand) validate() error {
	seen := map[int64]bool{}
	for _, c := range cmd.Denominations {
		if !audit.IsDenomination(c.Value) || seen[c.Value] {
			return shared.Reject(shared.ErrInvalidAmount, "denomination %d", c.Value)
		}
		seen[c.Value] = true
		if c.Quantity < 0 {
			return shared.Reject(shared.ErrInvalidQuantity, "denomination %d: quantity %d", c.Value, c.Quantity)
		}
	}
	if cmd.CountedMLC.IsNegative() {
		return shared.Reject(shared.ErrInvalidAmount, "counted MLC %s", cmd.CountedMLC)
	}
	if cmd.CountedUSD.IsNegative() {
		return shared.Reject(shared.ErrInvalidAmount, "counted USD %s", cmd.CountedUSD)
	}
	return nil
}

// CloseRegister reconciles the counted drawer against today's sales and files
// an audit report. A CUP shortfall is recorded as a CASH_SHORTAGE entry
// against the closing worker; it moves no balance.
func (e *Engine) CloseRegister(s State, cmd CloseCommand) (Transition, error) {
	if err := cmd.validate(); err != nil {
		return Transition{}, err
	}
	worker, ok := s.Workers[cmd.WorkerID]
	if !ok {
		return Transition{}, shared.Reject(shared.ErrWorkerNotFound, "worker %d", cmd.WorkerID)
	}

	now := e.clock()
	exp := e.expected(s, now)
	counted := audit.Totals{
		CUP: audit.CountCash(cmd.Denominations),
		MLC: cmd.CountedMLC,
		USD: cmd.CountedUSD,
	}
	diff := counted.Sub(exp.Totals)

	next := s.fork()
	var changes Changes
	report := audit.Report{
		ID:            nextID(s.Audits, func(r audit.Report) int64 { return r.ID }),
		Timestamp:     now,
		WorkerID:      worker.ID,
		WorkerName:    worker.Name,
		WindowStart:   exp.WindowStart,
		SalesCount:    exp.SalesCount,
		LastSaleID:    lastSaleID(s),
		Expected:      exp.Totals,
		Counted:       counted,
		Discrepancy:   diff,
		Denominations: cmd.Denominations,
	}

	if diff.CUP.IsNegative() {
		log := ledger.Open(s.Ledger, s.Balances)
		entry, err := log.Append(now, ledger.KindCashShortage, diff.CUP,
			fmt.Sprintf("Cash shortage at close #%d by %s", report.ID, worker.Name),
			ledger.Links{WorkerID: ptr(worker.ID)})
		if err != nil {
			return Transition{}, fmt.Errorf("append %s: %w", ledger.KindCashShortage, err)
		}
		report.ShortageEntry = ptr(entry.ID)
		next.Ledger = log.Entries()
		next.Balances = log.Balances()
		changes.Entries = log.Appended()
	}
	changes.Balances = next.Balances

	next.Audits = append(next.Audits, report)
	changes.Audit = &report
	return Transition{State: next, Changes: changes}, nil
}

func lastSaleID(s State) int64 {
	var id int64
	for _, sl := range s.Sales {
		id = max(id, sl.ID)
	}
	return id
}
