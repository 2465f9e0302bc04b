package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/domain/shared"
)

var (
	// investmentShare of every sale's profit goes to the investment pool,
	// the remainder to the worker payout pool
	investmentShare = shared.Pct(60)
	payoutShare     = shared.Pct(40)
)

type SaleItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type SaleCommand struct {
	WorkerID   int64           `json:"worker_id"`
	Items      []SaleItem      `json:"items"`
	Currency   shared.Currency `json:"currency"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	Credit     bool            `json:"credit"`
	DebtorID   *int64          `json:"debtor_id,omitempty"`
}

func (cmd SaleCommand) validate() error {
	if len(cmd.Items) == 0 {
		return shared.ErrEmptyCart
	}
	for i, it := range cmd.Items {
		if it.Quantity <= 0 {
			return shared.Reject(shared.ErrInvalidQuantity, "item %d: quantity %d", i, it.Quantity)
		}
	}
	if !cmd.Currency.Valid() {
		return shared.Reject(shared.ErrInvalidCurrency, "%q", cmd.Currency)
	}
	if cmd.AmountPaid.IsNegative() {
		return shared.Reject(shared.ErrInvalidAmount, "amount paid %s", cmd.AmountPaid)
	}
	return nil
}

// SettleSale turns a cart into a Sale, decrements stock and credits the
// ledger with the reimbursement and the two profit shares, in that order.
// A credit sale also opens a Debt for the unpaid remainder.
func (e *Engine) SettleSale(s State, cmd SaleCommand) (Transition, error) {
	if err := cmd.validate(); err != nil {
		return Transition{}, err
	}
	if _, ok := s.Workers[cmd.WorkerID]; !ok {
		return Transition{}, shared.Reject(shared.ErrWorkerNotFound, "worker %d", cmd.WorkerID)
	}

	// stock is checked against the whole cart, so repeated lines of one product add up
	wanted := make(map[int64]int, len(cmd.Items))
	items := make([]sale.LineItem, 0, len(cmd.Items))
	total := decimal.Zero
	count := 0
	for _, it := range cmd.Items {
		p, ok := s.Products[it.ProductID]
		if !ok {
			return Transition{}, shared.Reject(shared.ErrProductNotFound, "product %d", it.ProductID)
		}
		if it.Quantity > p.Stock-wanted[p.ID] {
			return Transition{}, shared.Reject(shared.ErrInsufficientStock,
				"%s: requested %d more, %d left", p.Name, it.Quantity, p.Stock-wanted[p.ID])
		}
		wanted[p.ID] += it.Quantity
		li := sale.LineItem{
			ProductID: p.ID,
			SKU:       p.SKU,
			Name:      p.Name,
			Quantity:  it.Quantity,
			UnitPrice: p.SalePrice,
			UnitCost:  p.CostPrice,
		}
		items = append(items, li)
		total = total.Add(li.Subtotal())
		count += it.Quantity
	}

	paidInCUP := e.ToCUP(cmd.Currency, cmd.AmountPaid)
	payment := sale.Payment{
		Currency:    cmd.Currency,
		AmountPaid:  cmd.AmountPaid,
		PaidInCUP:   paidInCUP,
		ChangeInCUP: decimal.Zero,
		Credit:      cmd.Credit,
	}
	var debtor catalog.Debtor
	if cmd.Credit {
		if cmd.DebtorID == nil {
			return Transition{}, shared.ErrDebtorRequired
		}
		var ok bool
		if debtor, ok = s.Debtors[*cmd.DebtorID]; !ok {
			return Transition{}, shared.Reject(shared.ErrDebtorNotFound, "debtor %d", *cmd.DebtorID)
		}
		if paidInCUP.GreaterThanOrEqual(total) {
			return Transition{}, shared.Reject(shared.ErrCreditPaymentTooLarge,
				"paid %s CUP of %s CUP", paidInCUP, total)
		}
		payment.DebtorID = ptr(debtor.ID)
	} else {
		if paidInCUP.LessThan(total) {
			return Transition{}, shared.Reject(shared.ErrInsufficientPayment,
				"paid %s CUP of %s CUP", paidInCUP, total)
		}
		payment.ChangeInCUP = paidInCUP.Sub(total)
	}

	// commit
	now := e.clock()
	next := s.fork()
	var changes Changes

	for _, li := range items {
		p := next.Products[li.ProductID]
		p.Stock -= li.Quantity
		p.Sold += li.Quantity
		next.Products[p.ID] = p
	}
	for id := range wanted {
		changes.Products = append(changes.Products, next.Products[id])
	}
	sortByID(changes.Products, func(p catalog.Product) int64 { return p.ID })

	rec := sale.Sale{
		ID:        nextID(s.Sales, func(x sale.Sale) int64 { return x.ID }),
		Timestamp: now,
		WorkerID:  cmd.WorkerID,
		Items:     items,
		ItemCount: count,
		Total:     total,
		Payment:   payment,
	}
	next.Sales = append(next.Sales, rec)
	changes.Sale = &rec

	cost := rec.Cost()
	profit := total.Sub(cost)
	toInvestment := shared.Cents(profit.Mul(investmentShare))
	// the payout share is the exact remainder so the three entries sum to the total
	toPayout := profit.Sub(toInvestment)

	log := ledger.Open(s.Ledger, s.Balances)
	links := ledger.Links{SaleID: ptr(rec.ID), WorkerID: ptr(cmd.WorkerID)}
	appends := []struct {
		kind   ledger.Kind
		amount decimal.Decimal
		desc   string
	}{
		{ledger.KindReimbursement, cost, fmt.Sprintf("Cost recovery for sale #%d", rec.ID)},
		{ledger.KindProfitToInvestment, toInvestment, fmt.Sprintf("60%% of profit from sale #%d", rec.ID)},
		{ledger.KindProfitToPayout, toPayout, fmt.Sprintf("40%% of profit from sale #%d", rec.ID)},
	}
	for _, a := range appends {
		if _, err := log.Append(now, a.kind, a.amount, a.desc, links); err != nil {
			return Transition{}, fmt.Errorf("append %s: %w", a.kind, err)
		}
	}
	next.Ledger = log.Entries()
	next.Balances = log.Balances()
	changes.Entries = log.Appended()
	changes.Balances = next.Balances

	if cmd.Credit {
		remainder := total.Sub(paidInCUP)
		debt := catalog.Debt{
			ID:             nextKey(s.Debts),
			DebtorID:       debtor.ID,
			SaleID:         rec.ID,
			Amount:         remainder,
			OriginalAmount: remainder,
			Status:         catalog.DebtStatusPending,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		next.Debts[debt.ID] = debt
		debtor.TotalDebt = debtor.TotalDebt.Add(remainder)
		next.Debtors[debtor.ID] = debtor
		changes.Debts = append(changes.Debts, debt)
		changes.Debtors = append(changes.Debtors, debtor)
	}

	return Transition{State: next, Changes: changes}, nil
}
