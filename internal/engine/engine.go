// Package engine applies register commands to an in-memory State.
// Every operation is a pure reducer: it validates against the given state,
// and on success returns the next state together with the records it produced.
// A rejected command returns a shared.RejectionError and leaves the input untouched.
package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

// Settings are the register policies the reducers depend on
type Settings struct {
	MLCRate  decimal.Decimal // CUP per MLC
	USDRate  decimal.Decimal // CUP per USD
	Location *time.Location  // defines the local calendar day for audits
	Operator string          // payroll operator when a command names none
}

type Engine struct {
	settings Settings
	now      func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now, mostly for tests
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(settings Settings, opts ...Option) *Engine {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	e := &Engine{
		settings: settings,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Settings returns the policies the engine was built with
func (e *Engine) Settings() Settings {
	return e.settings
}

// Rate returns how many CUP one unit of currency is worth
func (e *Engine) Rate(currency shared.Currency) decimal.Decimal {
	switch currency {
	case shared.CurrencyMLC:
		return e.settings.MLCRate
	case shared.CurrencyUSD:
		return e.settings.USDRate
	default:
		return decimal.NewFromInt(1)
	}
}

// ToCUP converts an amount tendered in currency into CUP
func (e *Engine) ToCUP(currency shared.Currency, amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(e.Rate(currency))
}

func (e *Engine) clock() time.Time {
	return e.now().In(e.settings.Location)
}
