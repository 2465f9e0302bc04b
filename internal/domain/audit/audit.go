// Package audit holds the register-close report and the cash count it is built from.
package audit

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

// Denominations is the fixed set of CUP notes counted at close
var Denominations = []int64{1, 3, 5, 10, 20, 50, 100, 200, 500, 1000}

// IsDenomination reports whether value is part of the counted note set
func IsDenomination(value int64) bool {
	for _, d := range Denominations {
		if d == value {
			return true
		}
	}
	return false
}

// DenominationCount is how many notes of one value were counted
type DenominationCount struct {
	Value    int64 `json:"value"`
	Quantity int   `json:"quantity"`
}

// Subtotal is value times quantity
func (c DenominationCount) Subtotal() decimal.Decimal {
	return decimal.NewFromInt(c.Value).Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// CountCash sums a denomination breakdown into a CUP amount
func CountCash(counts []DenominationCount) decimal.Decimal {
	total := decimal.Zero
	for _, c := range counts {
		total = total.Add(c.Subtotal())
	}
	return total
}

// Totals carries one amount per accepted currency
type Totals struct {
	CUP decimal.Decimal `json:"cup"`
	MLC decimal.Decimal `json:"mlc"`
	USD decimal.Decimal `json:"usd"`
}

// Add accumulates amount into the currency's bucket
func (t Totals) Add(currency shared.Currency, amount decimal.Decimal) Totals {
	switch currency {
	case shared.CurrencyCUP:
		t.CUP = t.CUP.Add(amount)
	case shared.CurrencyMLC:
		t.MLC = t.MLC.Add(amount)
	case shared.CurrencyUSD:
		t.USD = t.USD.Add(amount)
	}
	return t
}

// Sub returns t - other per currency
func (t Totals) Sub(other Totals) Totals {
	return Totals{
		CUP: t.CUP.Sub(other.CUP),
		MLC: t.MLC.Sub(other.MLC),
		USD: t.USD.Sub(other.USD),
	}
}

// IsZero reports whether every currency is zero
func (t Totals) IsZero() bool {
	return t.CUP.IsZero() && t.MLC.IsZero() && t.USD.IsZero()
}

// Report is the immutable record of a register close
type Report struct {
	ID            int64               `json:"id"`
	Timestamp     time.Time           `json:"timestamp"`
	WorkerID      int64               `json:"worker_id"`
	WorkerName    string              `json:"worker_name"`
	WindowStart   time.Time           `json:"window_start"`
	SalesCount    int                 `json:"sales_count"`
	LastSaleID    int64               `json:"last_sale_id"`
	Expected      Totals              `json:"expected"`
	Counted       Totals              `json:"counted"`
	Discrepancy   Totals              `json:"discrepancy"`
	Denominations []DenominationCount `json:"denominations,omitempty"`
	ShortageEntry *int64              `json:"shortage_entry_id,omitempty"`
}
