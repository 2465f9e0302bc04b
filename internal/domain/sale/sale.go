package sale

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

// LineItem copies the product identity and both prices at the moment of sale
type LineItem struct {
	ProductID int64           `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// Subtotal is quantity times the captured sale price
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cost is quantity times the captured cost price
func (li LineItem) Cost() decimal.Decimal {
	return li.UnitCost.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Payment records how the customer paid
type Payment struct {
	Currency    shared.Currency `json:"currency"`
	AmountPaid  decimal.Decimal `json:"amount_paid"` // in Currency
	PaidInCUP   decimal.Decimal `json:"paid_in_cup"` // AmountPaid converted at the sale's rate
	ChangeInCUP decimal.Decimal `json:"change_in_cup"`
	Credit      bool            `json:"credit"`
	DebtorID    *int64          `json:"debtor_id,omitempty"`
}

// Sale is the immutable record of a finalized sale
type Sale struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	WorkerID  int64           `json:"worker_id"`
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	Total     decimal.Decimal `json:"total"`
	Payment   Payment         `json:"payment"`
}

// Cost sums captured cost over every line item
func (s Sale) Cost() decimal.Decimal {
	total := decimal.Zero
	for _, li := range s.Items {
		total = total.Add(li.Cost())
	}
	return total
}

// Profit is the sum of (price - cost) * quantity over the captured line items
func (s Sale) Profit() decimal.Decimal {
	profit := decimal.Zero
	for _, li := range s.Items {
		profit = profit.Add(li.Subtotal().Sub(li.Cost()))
	}
	return profit
}
