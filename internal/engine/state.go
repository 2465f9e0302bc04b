package engine

import (
	"cmp"
	"maps"
	"slices"

	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/sale"
)

// State is everything the register reducers read and write.
// Record streams are append-only and ordered by id.
type State struct {
	Balances  ledger.Balances
	Ledger    []ledger.Entry
	Sales     []sale.Sale
	Purchases []purchase.Purchase
	Audits    []audit.Report
	Payrolls  []payroll.Report

	Products   map[int64]catalog.Product
	Categories map[int64]catalog.Category
	Workers    map[int64]catalog.Worker
	Debtors    map[int64]catalog.Debtor
	Debts      map[int64]catalog.Debt
}

// NewState returns an empty register with zero balances
func NewState() State {
	return State{
		Products:   map[int64]catalog.Product{},
		Categories: map[int64]catalog.Category{},
		Workers:    map[int64]catalog.Worker{},
		Debtors:    map[int64]catalog.Debtor{},
		Debts:      map[int64]catalog.Debt{},
	}
}

// Changes lists what one transition created or updated, for persistence
type Changes struct {
	Entries  []ledger.Entry
	Balances ledger.Balances

	Sale     *sale.Sale
	Purchase *purchase.Purchase
	Audit    *audit.Report
	Payroll  *payroll.Report

	Products   []catalog.Product
	Categories []catalog.Category
	Workers    []catalog.Worker
	Debtors    []catalog.Debtor
	Debts      []catalog.Debt
}

// Transition is the outcome of an accepted command
type Transition struct {
	State   State
	Changes Changes
}

// fork copies the maps so the next state can be written without touching s.
// Slices are clipped, so an append always reallocates.
func (s State) fork() State {
	next := s
	next.Ledger = slices.Clip(s.Ledger)
	next.Sales = slices.Clip(s.Sales)
	next.Purchases = slices.Clip(s.Purchases)
	next.Audits = slices.Clip(s.Audits)
	next.Payrolls = slices.Clip(s.Payrolls)
	next.Products = cloneMap(s.Products)
	next.Categories = cloneMap(s.Categories)
	next.Workers = cloneMap(s.Workers)
	next.Debtors = cloneMap(s.Debtors)
	next.Debts = cloneMap(s.Debts)
	return next
}

func cloneMap[V any](m map[int64]V) map[int64]V {
	if m == nil {
		return map[int64]V{}
	}
	return maps.Clone(m)
}

func nextKey[V any](m map[int64]V) int64 {
	var maxID int64
	for id := range m {
		maxID = max(maxID, id)
	}
	return maxID + 1
}

func nextID[T any](items []T, id func(T) int64) int64 {
	var maxID int64
	for _, it := range items {
		maxID = max(maxID, id(it))
	}
	return maxID + 1
}

// sortedValues returns the map's values ordered by key
func sortedValues[V any](m map[int64]V) []V {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// ProductList returns the catalog ordered by id
func (s State) ProductList() []catalog.Product { return sortedValues(s.Products) }

// CategoryList returns categories ordered by id
func (s State) CategoryList() []catalog.Category { return sortedValues(s.Categories) }

// WorkerList returns the worker directory ordered by id
func (s State) WorkerList() []catalog.Worker { return sortedValues(s.Workers) }

// DebtorList returns debtors ordered by id
func (s State) DebtorList() []catalog.Debtor { return sortedValues(s.Debtors) }

// DebtList returns debts ordered by id
func (s State) DebtList() []catalog.Debt { return sortedValues(s.Debts) }

// LastPayroll returns the most recent payroll report, if any
func (s State) LastPayroll() (payroll.Report, bool) {
	if len(s.Payrolls) == 0 {
		return payroll.Report{}, false
	}
	return slices.MaxFunc(s.Payrolls, func(a, b payroll.Report) int {
		return cmp.Or(a.Timestamp.Compare(b.Timestamp), cmp.Compare(a.ID, b.ID))
	}), true
}

func ptr[T any](v T) *T {
	return &v
}

func sortByID[T any](items []T, id func(T) int64) {
	slices.SortFunc(items, func(a, b T) int {
		return cmp.Compare(id(a), id(b))
	})
}
