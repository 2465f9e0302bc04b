package service

import (
	"context"
	"time"

	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/register"
)

// RegisterService is the register's command and query surface used by the HTTP handlers.
// *register.Service implements it.
type RegisterService interface {
	SettleSale(ctx context.Context, cmd engine.SaleCommand) (sale.Sale, []ledger.Entry, error)
	SettlePurchase(ctx context.Context, cmd engine.PurchaseCommand) (purchase.Purchase, []ledger.Entry, error)
	CloseRegister(ctx context.Context, cmd engine.CloseCommand) (audit.Report, error)
	RunPayroll(ctx context.Context, cmd engine.PayrollCommand) (payroll.Report, error)
	AdjustInvestment(ctx context.Context, cmd engine.AdjustmentCommand) (ledger.Entry, error)
	RecordDebtPayment(ctx context.Context, cmd engine.DebtPaymentCommand) (catalog.Debt, error)
	SaveCategory(ctx context.Context, cmd engine.CategoryCommand) (catalog.Category, error)
	SaveWorker(ctx context.Context, cmd engine.WorkerCommand) (catalog.Worker, error)
	SaveDebtor(ctx context.Context, cmd engine.DebtorCommand) (catalog.Debtor, error)

	Balances() ledger.Balances
	Ledger(p register.Page) ([]ledger.Entry, int)
	Sales(p register.Page) ([]sale.Sale, int)
	Purchases(p register.Page) ([]purchase.Purchase, int)
	Audits(p register.Page) ([]audit.Report, int)
	Payrolls(p register.Page) ([]payroll.Report, int)
	Products() []catalog.Product
	Categories() []catalog.Category
	Workers() []catalog.Worker
	Debtors() []catalog.Debtor
	Debts(openOnly bool) []catalog.Debt
	ExpectedTotals() engine.Expectation
	Verify() error
	Settings() engine.Settings
}

var _ RegisterService = (*register.Service)(nil)

// ArchiveQueryService reads the projected ledger archive
type ArchiveQueryService interface {
	// GetEntry retrieves an archived entry by id
	// Returns nil if the entry has not been archived yet
	GetEntry(ctx context.Context, id int64) (*ledger.Entry, error)

	// GetEntriesByTimeRange retrieves a newest-first page of archived entries
	// Returns entries, total count within the range, and any error
	GetEntriesByTimeRange(ctx context.Context, from, to time.Time, page, perPage int) ([]*ledger.Entry, int64, error)

	// Status summarises how far the archive has caught up with the register
	Status(ctx context.Context) (*ArchiveStatus, error)
}

// ArchiveStatus reports the archive head and how many entries failed the chain check
type ArchiveStatus struct {
	LatestID   int64      `json:"latest_id"`
	LatestAt   *time.Time `json:"latest_at,omitempty"`
	Unverified int64      `json:"unverified"`
}
