package engine

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

var (
	adminShare  = shared.Pct(30)
	workerShare = shared.Pct(70)
)

type PayrollCommand struct {
	ProcessedBy string `json:"processed_by"`
}

// RunPayroll distributes the payout pool among workers for the period since
// the previous run and resets the pool with a PAYROLL_PAYOUT_RESET entry.
func (e *Engine) RunPayroll(s State, cmd PayrollCommand) (Transition, error) {
	pool := s.Balances.Payout
	if !pool.IsPositive() {
		return Transition{}, shared.Reject(shared.ErrNothingToDistribute, "payout balance is %s CUP", pool)
	}

	now := e.clock()
	periodStart := time.Unix(0, 0).In(now.Location())
	if last, ok := s.LastPayroll(); ok {
		periodStart = last.Timestamp
	}
	inPeriod := func(ts time.Time) bool {
		return ts.After(periodStart) && !ts.After(now)
	}

	contributions := map[int64]decimal.Decimal{}
	for _, sl := range s.Sales {
		if inPeriod(sl.Timestamp) {
			contributions[sl.WorkerID] = contributions[sl.WorkerID].Add(sl.Profit().Mul(payoutShare))
		}
	}
	shortages := map[int64]decimal.Decimal{}
	for _, en := range s.Ledger {
		if en.Kind == ledger.KindCashShortage && en.WorkerID != nil && inPeriod(en.Timestamp) {
			shortages[*en.WorkerID] = shortages[*en.WorkerID].Add(en.Amount)
		}
	}

	report := payroll.Report{
		ID:               nextID(s.Payrolls, func(r payroll.Report) int64 { return r.ID }),
		Timestamp:        now,
		ProcessedBy:      cmp.Or(strings.TrimSpace(cmd.ProcessedBy), e.settings.Operator),
		PeriodStart:      periodStart,
		PeriodEnd:        now,
		TotalDistributed: pool,
		AdminShare:       pool.Mul(adminShare),
		WorkerSharePool:  pool.Mul(workerShare),
	}
	report.Details = distribute(s.WorkerList(), contributions, shortages, report.AdminShare, report.WorkerSharePool)

	next := s.fork()
	log := ledger.Open(s.Ledger, s.Balances)
	entry, err := log.Append(now, ledger.KindPayrollPayoutReset, pool.Neg(),
		fmt.Sprintf("Payroll #%d processed by %s", report.ID, report.ProcessedBy), ledger.Links{})
	if err != nil {
		return Transition{}, fmt.Errorf("append %s: %w", ledger.KindPayrollPayoutReset, err)
	}
	report.ResetEntryID = entry.ID
	next.Ledger = log.Entries()
	next.Balances = log.Balances()
	next.Payrolls = append(next.Payrolls, report)

	return Transition{State: next, Changes: Changes{
		Entries:  log.Appended(),
		Balances: next.Balances,
		Payroll:  &report,
	}}, nil
}

// distribute splits the worker pool by contribution and the admin share evenly.
// A negative contribution counts as zero in the split so that the shares of the
// others never exceed the pool.
func distribute(workers []catalog.Worker, contributions, shortages map[int64]decimal.Decimal, adminPool, workerPool decimal.Decimal) []payroll.Detail {
	denominator := decimal.Zero
	admins := 0
	for _, w := range workers {
		if w.IsAdmin() {
			admins++
			continue
		}
		denominator = denominator.Add(allocationKey(contributions[w.ID]))
	}

	details := make([]payroll.Detail, 0, len(workers))
	for _, w := range workers {
		d := payroll.Detail{
			WorkerID:          w.ID,
			WorkerName:        w.Name,
			Role:              w.Role,
			Contribution:      contributions[w.ID],
			GrossPay:          decimal.Zero,
			ShortageDeduction: decimal.Zero,
		}
		if w.IsAdmin() {
			d.GrossPay = shared.Cents(adminPool.Div(decimal.NewFromInt(int64(admins))))
			d.FinalPay = d.GrossPay
		} else {
			if denominator.IsPositive() {
				d.GrossPay = shared.Cents(workerPool.Mul(allocationKey(d.Contribution)).Div(denominator))
			}
			d.ShortageDeduction = shortages[w.ID].Abs()
			d.FinalPay = decimal.Max(decimal.Zero, d.GrossPay.Sub(d.ShortageDeduction))
		}
		details = append(details, d)
	}

	slices.SortStableFunc(details, func(a, b payroll.Detail) int {
		return cmp.Or(b.FinalPay.Cmp(a.FinalPay), cmp.Compare(a.WorkerID, b.WorkerID))
	})
	return details
}

func allocationKey(contribution decimal.Decimal) decimal.Decimal {
	return decimal.Max(decimal.Zero, contribution)
}
