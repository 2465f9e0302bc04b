package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func newTestEngine(t *testing.T) (*Engine, *testClock) {
	t.Helper()
	clock := &testClock{now: time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)}
	e := New(Settings{
		MLCRate:  dec("120"),
		USDRate:  dec("300"),
		Location: time.UTC,
		Operator: "Ana",
	}, WithClock(clock.Now))
	return e, clock
}

// baseState is a small shop: one admin, two sellers, two products and 100 CUP invested
func baseState() State {
	s := NewState()
	s.Balances = ledger.Balances{Investment: dec("100"), Payout: decimal.Zero}
	s.Ledger = []ledger.Entry{{
		ID:              1,
		Timestamp:       time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
		Kind:            ledger.KindManualAdjustment,
		Description:     "opening capital",
		Amount:          dec("100"),
		InvestmentAfter: dec("100"),
		PayoutAfter:     decimal.Zero,
	}}
	s.Workers[1] = catalog.Worker{ID: 1, Name: "Ana", Role: catalog.RoleAdmin}
	s.Workers[2] = catalog.Worker{ID: 2, Name: "Luis", Role: catalog.RoleSeller}
	s.Workers[3] = catalog.Worker{ID: 3, Name: "Marta", Role: catalog.RoleSeller}
	s.Categories[1] = catalog.Category{ID: 1, Name: "Bebidas", Prefix: "BEB"}
	s.Products[1] = catalog.Product{ID: 1, SKU: "BEB0001", Name: "Cola", CategoryID: 1, Stock: 5, CostPrice: dec("10"), SalePrice: dec("20")}
	s.Products[2] = catalog.Product{ID: 2, SKU: "BEB0002", Name: "Malta", CategoryID: 1, Stock: 10, CostPrice: dec("2"), SalePrice: dec("3")}
	s.Debtors[1] = catalog.Debtor{ID: 1, Name: "Pedro", TotalDebt: decimal.Zero}
	return s
}

func requireConsistent(t *testing.T, s State) {
	t.Helper()
	require.NoError(t, ledger.Verify(s.Ledger, s.Balances))
}

func TestEngine_Rate(t *testing.T) {
	e, _ := newTestEngine(t)
	assertDecimal(t, "1", e.Rate("CUP"))
	assertDecimal(t, "240", e.ToCUP("MLC", dec("2")))
	assertDecimal(t, "150", e.ToCUP("USD", dec("0.5")))
}

func TestState_Fork(t *testing.T) {
	s := baseState()
	next := s.fork()
	next.Products[1] = catalog.Product{ID: 1, Stock: 0}
	next.Ledger = append(next.Ledger, ledger.Entry{ID: 2})

	assert.Equal(t, 5, s.Products[1].Stock)
	assert.Len(t, s.Ledger, 1)

	var empty State
	forked := empty.fork()
	assert.NotNil(t, forked.Products)
	assert.NotNil(t, forked.Debts)
}

func TestState_LastPayroll(t *testing.T) {
	s := NewState()
	_, ok := s.LastPayroll()
	assert.False(t, ok)
}
