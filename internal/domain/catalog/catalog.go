// Package catalog holds the records the register reads from its collaborators:
// categories and products, the worker directory and debtors with their debts.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups products and provides the SKU prefix
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

// Product is a sellable item with its current stock and prices
type Product struct {
	ID         int64           `json:"id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	CategoryID int64           `json:"category_id"`
	Stock      int             `json:"stock"`
	CostPrice  decimal.Decimal `json:"cost_price"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	Sold       int             `json:"sold"` // lifetime units sold
}

// Role decides how a worker takes part in payroll
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleSeller Role = "SELLER"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSeller
}

// Worker is an entry of the worker directory
type Worker struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the worker takes the admin share of payroll
func (w Worker) IsAdmin() bool {
	return w.Role == RoleAdmin
}

// Debtor is a customer allowed to buy on credit
type Debtor struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	TotalDebt decimal.Decimal `json:"total_debt"`
}

// DebtStatus tracks repayment of a credit sale
type DebtStatus string

const (
	DebtStatusPending   DebtStatus = "PENDING"
	DebtStatusPartial   DebtStatus = "PARTIAL"
	DebtStatusPaid      DebtStatus = "PAID"
	DebtStatusOverdue   DebtStatus = "OVERDUE"
	DebtStatusCancelled DebtStatus = "CANCELLED"
)

// Open reports whether the debt still accepts payments
func (s DebtStatus) Open() bool {
	return s == DebtStatusPending || s == DebtStatusPartial || s == DebtStatusOverdue
}

// Debt is the deferred remainder of a credit sale
type Debt struct {
	ID             int64           `json:"id"`
	DebtorID       int64           `json:"debtor_id"`
	SaleID         int64           `json:"sale_id"`
	Amount         decimal.Decimal `json:"amount"` // remaining
	OriginalAmount decimal.Decimal `json:"original_amount"`
	Status         DebtStatus      `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Pay reduces the remaining amount and moves the status along
func (d Debt) Pay(amount decimal.Decimal, at time.Time) Debt {
	d.Amount = d.Amount.Sub(amount)
	if d.Amount.Sign() <= 0 {
		d.Amount = decimal.Zero
		d.Status = DebtStatusPaid
	} else {
		d.Status = DebtStatusPartial
	}
	d.UpdatedAt = at
	return d
}
