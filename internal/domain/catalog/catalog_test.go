package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDebt_Pay(t *testing.T) {
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	debt := Debt{
		ID:             1,
		Amount:         decimal.NewFromInt(50),
		OriginalAmount: decimal.NewFromInt(50),
		Status:         DebtStatusPending,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	paidAt := created.Add(time.Hour)

	partial := debt.Pay(decimal.NewFromInt(20), paidAt)
	assert.Equal(t, DebtStatusPartial, partial.Status)
	assert.True(t, decimal.NewFromInt(30).Equal(partial.Amount))
	assert.Equal(t, paidAt, partial.UpdatedAt)
	assert.True(t, decimal.NewFromInt(50).Equal(debt.Amount), "receiver is a value")

	paid := partial.Pay(decimal.NewFromInt(30), paidAt)
	assert.Equal(t, DebtStatusPaid, paid.Status)
	assert.True(t, paid.Amount.IsZero())
	assert.False(t, paid.Status.Open())
}

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleAdmin.Valid())
	assert.True(t, RoleSeller.Valid())
	assert.False(t, Role("OWNER").Valid())
	assert.True(t, Worker{Role: RoleAdmin}.IsAdmin())
}
