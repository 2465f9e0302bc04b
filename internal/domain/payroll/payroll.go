package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/catalog"
)

// Detail is one worker's line of a payroll run
type Detail struct {
	WorkerID          int64           `json:"worker_id"`
	WorkerName        string          `json:"worker_name"`
	Role              catalog.Role    `json:"role"`
	Contribution      decimal.Decimal `json:"contribution"`
	GrossPay          decimal.Decimal `json:"gross_pay"`
	ShortageDeduction decimal.Decimal `json:"shortage_deduction"`
	FinalPay          decimal.Decimal `json:"final_pay"`
}

// Report is the immutable record of a payroll run
type Report struct {
	ID               int64           `json:"id"`
	Timestamp        time.Time       `json:"timestamp"`
	ProcessedBy      string          `json:"processed_by"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	TotalDistributed decimal.Decimal `json:"total_distributed"` // payout pool before the run
	AdminShare       decimal.Decimal `json:"admin_share"`
	WorkerSharePool  decimal.Decimal `json:"worker_share_pool"`
	Details          []Detail        `json:"details"`
	ResetEntryID     int64           `json:"reset_entry_id"`
}

// TotalPaid sums final pay over every detail
func (r Report) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, d := range r.Details {
		total = total.Add(d.FinalPay)
	}
	return total
}
