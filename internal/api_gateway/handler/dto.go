package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/register"
)

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

func (p PaginationParams) page() register.Page {
	return register.Page{Page: p.Page, PerPage: p.PerPage}
}

// TimeRangeParams bounds an archive query; both ends are inclusive
type TimeRangeParams struct {
	PaginationParams
	From time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00" binding:"required"`
	To   time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00" binding:"required,gtfield=From"`
}

// DebtFilterParams selects which debts are listed
type DebtFilterParams struct {
	Open bool `form:"open"`
}

// SaleResponse is a settled sale with the ledger entries it appended
type SaleResponse struct {
	Sale    sale.Sale      `json:"sale"`
	Entries []ledger.Entry `json:"entries"`
}

// PurchaseResponse is a settled purchase with its ledger entry
type PurchaseResponse struct {
	Purchase purchase.Purchase `json:"purchase"`
	Entries  []ledger.Entry    `json:"entries"`
}

// VerifyResponse reports whether the ledger replays to the live balances
type VerifyResponse struct {
	Consistent bool            `json:"consistent"`
	Balances   ledger.Balances `json:"balances"`
	Problem    string          `json:"problem,omitempty"`
}

// SettingsResponse represents the register policies in API responses
type SettingsResponse struct {
	MLCRate  decimal.Decimal `json:"mlc_rate"`
	USDRate  decimal.Decimal `json:"usd_rate"`
	TimeZone string          `json:"time_zone"`
	Operator string          `json:"operator"`
}

func mapSettingsToResponse(s engine.Settings) SettingsResponse {
	res := SettingsResponse{
		MLCRate:  s.MLCRate,
		USDRate:  s.USDRate,
		TimeZone: time.UTC.String(),
		Operator: s.Operator,
	}
	if s.Location != nil {
		res.TimeZone = s.Location.String()
	}
	return res
}
