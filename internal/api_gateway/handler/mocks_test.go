package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/tienda-register-ledger/internal/api_gateway/service"
	"github.com/tienda-register-ledger/internal/domain/audit"
	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/ledger"
	"github.com/tienda-register-ledger/internal/domain/payroll"
	"github.com/tienda-register-ledger/internal/domain/purchase"
	"github.com/tienda-register-ledger/internal/domain/sale"
	"github.com/tienda-register-ledger/internal/engine"
	"github.com/tienda-register-ledger/internal/register"
)

type MockRegisterService struct {
	mock.Mock
}

func (m *MockRegisterService) SettleSale(ctx context.Context, cmd engine.SaleCommand) (sale.Sale, []ledger.Entry, error) {
	args := m.Called(ctx, cmd)
	entries, _ := args.Get(1).([]ledger.Entry)
	return args.Get(0).(sale.Sale), entries, args.Error(2)
}

func (m *MockRegisterService) SettlePurchase(ctx context.Context, cmd engine.PurchaseCommand) (purchase.Purchase, []ledger.Entry, error) {
	args := m.Called(ctx, cmd)
	entries, _ := args.Get(1).([]ledger.Entry)
	return args.Get(0).(purchase.Purchase), entries, args.Error(2)
}

func (m *MockRegisterService) CloseRegister(ctx context.Context, cmd engine.CloseCommand) (audit.Report, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(audit.Report), args.Error(1)
}

func (m *MockRegisterService) RunPayroll(ctx context.Context, cmd engine.PayrollCommand) (payroll.Report, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(payroll.Report), args.Error(1)
}

func (m *MockRegisterService) AdjustInvestment(ctx context.Context, cmd engine.AdjustmentCommand) (ledger.Entry, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(ledger.Entry), args.Error(1)
}

func (m *MockRegisterService) RecordDebtPayment(ctx context.Context, cmd engine.DebtPaymentCommand) (catalog.Debt, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(catalog.Debt), args.Error(1)
}

func (m *MockRegisterService) SaveCategory(ctx context.Context, cmd engine.CategoryCommand) (catalog.Category, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(catalog.Category), args.Error(1)
}

func (m *MockRegisterService) SaveWorker(ctx context.Context, cmd engine.WorkerCommand) (catalog.Worker, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(catalog.Worker), args.Error(1)
}

func (m *MockRegisterService) SaveDebtor(ctx context.Context, cmd engine.DebtorCommand) (catalog.Debtor, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(catalog.Debtor), args.Error(1)
}

func (m *MockRegisterService) Balances() ledger.Balances {
	return m.Called().Get(0).(ledger.Balances)
}

func (m *MockRegisterService) Ledger(p register.Page) ([]ledger.Entry, int) {
	args := m.Called(p)
	return args.Get(0).([]ledger.Entry), args.Int(1)
}

func (m *MockRegisterService) Sales(p register.Page) ([]sale.Sale, int) {
	args := m.Called(p)
	return args.Get(0).([]sale.Sale), args.Int(1)
}

func (m *MockRegisterService) Purchases(p register.Page) ([]purchase.Purchase, int) {
	args := m.Called(p)
	return args.Get(0).([]purchase.Purchase), args.Int(1)
}

func (m *MockRegisterService) Audits(p register.Page) ([]audit.Report, int) {
	args := m.Called(p)
	return args.Get(0).([]audit.Report), args.Int(1)
}

func (m *MockRegisterService) Payrolls(p register.Page) ([]payroll.Report, int) {
	args := m.Called(p)
	return args.Get(0).([]payroll.Report), args.Int(1)
}

func (m *MockRegisterService) Products() []catalog.Product {
	return m.Called().Get(0).([]catalog.Product)
}

func (m *MockRegisterService) Categories() []catalog.Category {
	return m.Called().Get(0).([]catalog.Category)
}

func (m *MockRegisterService) Workers() []catalog.Worker {
	return m.Called().Get(0).([]catalog.Worker)
}

func (m *MockRegisterService) Debtors() []catalog.Debtor {
	return m.Called().Get(0).([]catalog.Debtor)
}

func (m *MockRegisterService) Debts(openOnly bool) []catalog.Debt {
	return m.Called(openOnly).Get(0).([]catalog.Debt)
}

func (m *MockRegisterService) ExpectedTotals() engine.Expectation {
	return m.Called().Get(0).(engine.Expectation)
}

func (m *MockRegisterService) Verify() error {
	return m.Called().Error(0)
}

func (m *MockRegisterService) Settings() engine.Settings {
	return m.Called().Get(0).(engine.Settings)
}

type MockArchiveQueryService struct {
	mock.Mock
}

func (m *MockArchiveQueryService) GetEntry(ctx context.Context, id int64) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockArchiveQueryService) GetEntriesByTimeRange(ctx context.Context, from, to time.Time, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, from, to, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockArchiveQueryService) Status(ctx context.Context) (*service.ArchiveStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ArchiveStatus), args.Error(1)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// envelope decodes the standard response with the data left raw
type envelope struct {
	Data          json.RawMessage `json:"data"`
	Error         *ErrorInfo      `json:"error,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Meta          *MetaInfo       `json:"meta,omitempty"`
}

func serve(router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewBuffer(raw)
	}
	req, _ := http.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	var env envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return rr, env
}
