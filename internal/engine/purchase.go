package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

// maxStock is the most units a product can hold; stock is stored as a 32-bit integer
const maxStock = math.MaxInt32

// PurchaseItem restocks ProductID, or declares a new product when ProductID is 0.
// In package mode Quantity counts packages and Cost is the price of one package.
type PurchaseItem struct {
	ProductID       int64                `json:"product_id"`
	Name            string               `json:"name"`
	CategoryID      int64                `json:"category_id"`
	Mode            purchase.PricingMode `json:"mode"`
	Quantity        int                  `json:"quantity"`
	UnitsPerPackage int                  `json:"units_per_package"`
	Cost            decimal.Decimal      `json:"cost"`
	SalePrice       decimal.Decimal      `json:"sale_price"`
}

func (it PurchaseItem) IsNew() bool {
	return it.ProductID == 0
}

// units returns received units, unit cost and what the line cost in total
func (it PurchaseItem) units() (int, decimal.Decimal, decimal.Decimal) {
	qty := decimal.NewFromInt(int64(it.Quantity))
	if it.Mode == purchase.PricingModePackage {
		per := decimal.NewFromInt(int64(it.UnitsPerPackage))
		return it.Quantity * it.UnitsPerPackage, it.Cost.Div(per).Round(shared.CentPlaces), it.Cost.Mul(qty)
	}
	return it.Quantity, it.Cost, it.Cost.Mul(qty)
}

func (it PurchaseItem) validate(s State) error {
	if !it.Mode.Valid() {
		return shared.Reject(shared.ErrInvalidPricingMode, "%q", it.Mode)
	}
	if it.Quantity <= 0 || it.Quantity > maxStock {
		return shared.Reject(shared.ErrInvalidQuantity, "quantity %d", it.Quantity)
	}
	if it.Mode == purchase.PricingModePackage {
		if it.UnitsPerPackage <= 0 || it.UnitsPerPackage > maxStock/it.Quantity {
			return shared.Reject(shared.ErrInvalidQuantity, "%d packages of %d units", it.Quantity, it.UnitsPerPackage)
		}
	}
	if !it.Cost.IsPositive() {
		return shared.Reject(shared.ErrInvalidPrice, "cost %s", it.Cost)
	}
	if !it.SalePrice.IsPositive() {
		return shared.Reject(shared.ErrInvalidPrice, "sale price %s", it.SalePrice)
	}
	if !it.IsNew() {
		if _, ok := s.Products[it.ProductID]; !ok {
			return shared.Reject(shared.ErrProductNotFound, "product %d", it.ProductID)
		}
		return nil
	}
	if strings.TrimSpace(it.Name) == "" {
		return shared.ErrInvalidName
	}
	if _, ok := s.Categories[it.CategoryID]; !ok {
		return shared.Reject(shared.ErrInvalidCategory, "category %d", it.CategoryID)
	}
	return nil
}

type PurchaseCommand struct {
	Items []PurchaseItem `json:"items"`
}

// SettlePurchase applies a restock and debits its total cost from the
// investment pool. Nothing is applied unless every item is valid and the
// pool covers the total.
func (e *Engine) SettlePurchase(s State, cmd PurchaseCommand) (Transition, error) {
	if len(cmd.Items) == 0 {
		return Transition{}, shared.ErrEmptyCart
	}
	total := decimal.Zero
	incoming := map[int64]int{}
	for i, it := range cmd.Items {
		if err := it.validate(s); err != nil {
			return Transition{}, fmt.Errorf("item %d: %w", i, err)
		}
		qty, _, lineCost := it.units()
		if !it.IsNew() {
			room := maxStock - s.Products[it.ProductID].Stock - incoming[it.ProductID]
			if qty > room {
				return Transition{}, shared.Reject(shared.ErrInvalidQuantity,
					"item %d: product %d can take %d more units", i, it.ProductID, room)
			}
			incoming[it.ProductID] += qty
		}
		total = total.Add(lineCost)
	}
	if total.GreaterThan(s.Balances.Investment) {
		return Transition{}, shared.Reject(shared.ErrInsufficientFunds,
			"purchase costs %s CUP, investment balance is %s CUP", total, s.Balances.Investment)
	}

	now := e.clock()
	next := s.fork()
	var changes Changes

	touched := map[int64]bool{}
	items := make([]purchase.LineItem, 0, len(cmd.Items))
	count := 0
	for _, it := range cmd.Items {
		qty, unitCost, lineCost := it.units()
		var p catalog.Product
		if it.IsNew() {
			category := next.Categories[it.CategoryID]
			p = catalog.Product{
				ID:         nextKey(next.Products),
				SKU:        nextSKU(next, category),
				Name:       strings.TrimSpace(it.Name),
				CategoryID: category.ID,
			}
		} else {
			p = next.Products[it.ProductID]
		}
		p.Stock += qty
		p.CostPrice = unitCost
		p.SalePrice = it.SalePrice
		next.Products[p.ID] = p
		touched[p.ID] = true

		items = append(items, purchase.LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  qty,
			UnitCost:  unitCost,
			SalePrice: it.SalePrice,
			LineCost:  lineCost,
			IsNew:     it.IsNew(),
		})
		count += qty
	}
	for id := range touched {
		changes.Products = append(changes.Products, next.Products[id])
	}
	sortByID(changes.Products, func(p catalog.Product) int64 { return p.ID })

	rec := purchase.Purchase{
		ID:        nextID(s.Purchases, func(x purchase.Purchase) int64 { return x.ID }),
		Timestamp: now,
		Items:     items,
		ItemCount: count,
		TotalCost: total,
	}
	next.Purchases = append(next.Purchases, rec)
	changes.Purchase = &rec

	log := ledger.Open(s.Ledger, s.Balances)
	if _, err := log.Append(now, ledger.KindPurchase, total.Neg(),
		fmt.Sprintf("Purchase #%d (%d units)", rec.ID, count),
		ledger.Links{PurchaseID: ptr(rec.ID)}); err != nil {
		return Transition{}, fmt.Errorf("append %s: %w", ledger.KindPurchase, err)
	}
	next.Ledger = log.Entries()
	next.Balances = log.Balances()
	changes.Entries = log.Appended()
	changes.Balances = next.Balances

	return Transition{State: next, Changes: changes}, nil
}

// nextSKU numbers products per category: prefix followed by a four digit
// sequence. A SKU already held by another product is skipped.
func nextSKU(s State, category catalog.Category) string {
	seq := 0
	used := make(map[string]bool, len(s.Products))
	for _, p := range s.Products {
		used[p.SKU] = true
		if p.CategoryID == category.ID {
			seq++
		}
	}
	for {
		seq++
		sku := fmt.Sprintf("%s%04d", category.Prefix, seq)
		if !used[sku] {
			return sku
		}
	}
}
