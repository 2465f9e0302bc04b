package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies a monetary movement recorded in the ledger
type Kind string

const (
	KindReimbursement      Kind = "REIMBURSEMENT"
	KindProfitToInvestment Kind = "PROFIT_TO_INVESTMENT"
	KindProfitToPayout     Kind = "PROFIT_TO_PAYOUT"
	KindPurchase           Kind = "PURCHASE"
	KindManualAdjustment   Kind = "MANUAL_ADJUSTMENT"
	KindPayrollPayoutReset Kind = "PAYROLL_PAYOUT_RESET"
	KindCashShortage       Kind = "CASH_SHORTAGE"
)

// Pool names the balance an entry kind moves
type Pool string

const (
	PoolInvestment Pool = "INVESTMENT"
	PoolPayout     Pool = "PAYOUT"
	// PoolNone marks record-only entries; their amount never touches a balance
	PoolNone Pool = "NONE"
)

// Pool returns the balance this kind of entry applies to
func (k Kind) Pool() Pool {
	switch k {
	case KindReimbursement, KindProfitToInvestment, KindPurchase, KindManualAdjustment:
		return PoolInvestment
	case KindProfitToPayout, KindPayrollPayoutReset:
		return PoolPayout
	default:
		return PoolNone
	}
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	switch k {
	case KindReimbursement, KindProfitToInvestment, KindProfitToPayout, KindPurchase,
		KindManualAdjustment, KindPayrollPayoutReset, KindCashShortage:
		return true
	}
	return false
}

// Balances are the two running pools the ledger keeps consistent
type Balances struct {
	Investment decimal.Decimal `json:"investment"`
	Payout     decimal.Decimal `json:"payout"`
}

// Apply returns the balances after moving amount into pool
func (b Balances) Apply(pool Pool, amount decimal.Decimal) Balances {
	switch pool {
	case PoolInvestment:
		b.Investment = b.Investment.Add(amount)
	case PoolPayout:
		b.Payout = b.Payout.Add(amount)
	}
	return b
}

// Equal compares balances numerically
func (b Balances) Equal(other Balances) bool {
	return b.Investment.Equal(other.Investment) && b.Payout.Equal(other.Payout)
}

// Links ties an entry to the record that produced it
type Links struct {
	SaleID     *int64
	PurchaseID *int64
	WorkerID   *int64
}

// Entry is one immutable, balance-snapshotting ledger record
type Entry struct {
	ID              int64           `json:"id"`
	Timestamp       time.Time       `json:"timestamp"`
	Kind            Kind            `json:"kind"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	SaleID          *int64          `json:"sale_id,omitempty"`
	PurchaseID      *int64          `json:"purchase_id,omitempty"`
	WorkerID        *int64          `json:"worker_id,omitempty"`
	InvestmentAfter decimal.Decimal `json:"investment_after"`
	PayoutAfter     decimal.Decimal `json:"payout_after"`
}

// Snapshot returns the balances recorded on the entry
func (e Entry) Snapshot() Balances {
	return Balances{Investment: e.InvestmentAfter, Payout: e.PayoutAfter}
}
