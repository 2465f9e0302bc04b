package register

import (
	"slices"

	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/engine"
)

// Page selects a window of a newest-first list
type Page struct {
	Page    int
	PerPage int
}

func (p Page) bounds(total int) (int, int) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = 20
	}
	start := (p.Page - 1) * p.PerPage
	if start > total {
		start = total
	}
	return start, min(start+p.PerPage, total)
}

// newestFirst returns the page of items in reverse order without touching items
func newestFirst[T any](items []T, p Page) []T {
	rev := slices.Clone(items)
	slices.Reverse(rev)
	start, end := p.bounds(len(rev))
	return rev[start:end]
}

func (s *Service) read() engine.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Balances returns the current investment and payout pools
func (s *Service) Balances() ledger.Balances {
	return s.read().Balances
}

// Ledger returns a newest-first page of entries and the total count
func (s *Service) Ledger(p Page) ([]ledger.Entry, int) {
	st := s.read()
	return newestFirst(st.Ledger, p), len(st.Ledger)
}

// Sales returns a newest-first page of sales and the total count
func (s *Service) Sales(p Page) ([]sale.Sale, int) {
	st := s.read()
	return newestFirst(st.Sales, p), len(st.Sales)
}

// Purchases returns a newest-first page of purchases and the total count
func (s *Service) Purchases(p Page) ([]purchase.Purchase, int) {
	st := s.read()
	return newestFirst(st.Purchases, p), len(st.Purchases)
}

// Audits returns a newest-first page of audit reports and the total count
func (s *Service) Audits(p Page) ([]audit.Report, int) {
	st := s.read()
	return newestFirst(st.Audits, p), len(st.Audits)
}

// Payrolls returns a newest-first page of payroll reports and the total count
func (s *Service) Payrolls(p Page) ([]payroll.Report, int) {
	st := s.read()
	return newestFirst(st.Payrolls, p), len(st.Payrolls)
}

func (s *Service) Products() []catalog.Product   { return s.read().ProductList() }
func (s *Service) Categories() []catalog.Category { return s.read().CategoryList() }
func (s *Service) Workers() []catalog.Worker       { return s.read().WorkerList() }
func (s *Service) Debtors() []catalog.Debtor       { return s.read().DebtorList() }

// Debts lists debts, only the open ones when openOnly is set
func (s *Service) Debts(openOnly bool) []catalog.Debt {
	debts := s.read().DebtList()
	if !openOnly {
		return debts
	}
	return slices.DeleteFunc(debts, func(d catalog.Debt) bool { return !d.Status.Open() })
}

// ExpectedTotals previews what a close would expect in the drawer right now
func (s *Service) ExpectedTotals() engine.Expectation {
	return s.engine.ExpectedTotals(s.read())
}

// Verify replays the installed ledger against the live balances
func (s *Service) Verify() error {
	st := s.read()
	return ledger.Verify(st.Ledger, st.Balances)
}

// Settings exposes the rates and location commands are evaluated with
func (s *Service) Settings() engine.Settings {
	return s.engine.Settings()
}
