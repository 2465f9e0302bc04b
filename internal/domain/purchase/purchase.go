package purchase

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMode selects how a purchase line states its quantity and cost
type PricingMode string

const (
	// PricingModeUnit gives the received quantity and the cost of one unit
	PricingModeUnit PricingMode = "UNIT"
	// PricingModePackage gives whole packages, units per package and the cost of one package
	PricingModePackage PricingMode = "PACKAGE"
)

// Valid reports whether m is a known pricing mode
func (m PricingMode) Valid() bool {
	return m == PricingModeUnit || m == PricingModePackage
}

// LineItem is one received product with the prices applied to the catalog
type LineItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	SalePrice decimal.Decimal `json:"sale_price"`
	// LineCost is what was paid for the line; in package mode it is packages
	// times package cost, not quantity times the rounded unit cost
	LineCost decimal.Decimal `json:"line_cost"`
	IsNew    bool            `json:"is_new"`
}

// Purchase is the immutable record of a completed restock
type Purchase struct {
	ID        int64           `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Items     []LineItem      `json:"items"`
	ItemCount int             `json:"item_count"`
	TotalCost decimal.Decimal `json:"total_cost"`
}
