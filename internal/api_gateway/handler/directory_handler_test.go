package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tienda-register-ledger/internal/domain/catalog"
	"github.com/tienda-register-ledger/internal/domain/shared"
	"github.com/tienda-register-ledger/internal/engine"
)

func newDirectoryRouter(svc *MockRegisterService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDirectoryHandler(newTestLogger(), svc)
	r := gin.New()
	r.GET("/products", h.Products)
	r.GET("/categories", h.Categories)
	r.POST("/categories", h.SaveCategory)
	r.PUT("/categories/:id", h.SaveCategory)
	r.GET("/workers", h.Workers)
	r.POST("/workers", h.SaveWorker)
	r.PUT("/workers/:id", h.SaveWorker)
	r.GET("/debtors", h.Debtors)
	r.POST("/debtors", h.SaveDebtor)
	r.GET("/debts", h.Debts)
	r.POST("/debts/:id/payments", h.RecordDebtPayment)
	return r
}

func TestDirectoryHandler_SaveCategory(t *testing.T) {
	t.Run("CreateIgnoresBodyID", func(t *testing.T) {
		svc := new(MockRegisterService)
		svc.On("SaveCategory", mock.Anything, engine.CategoryCommand{Name: "Bebidas", Prefix: "BEB"}).
			Return(catalog.Category{ID: 1, Name: "Bebidas", Prefix: "BEB"}, nil).Once()

		rr, env := serve(newDirectoryRouter(svc), http.MethodPost, "/categories", `{"id":9,"name":"Bebidas","prefix":"BEB"}`)

		require.Equal(t, http.StatusCreated, rr.Code)
		var got catalog.Category
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, int64(1), got.ID)
		svc.AssertExpectations(t)
	})

	t.Run("RenameUsesPathID", func(t *testing.T) {
		svc := new(MockRegisterService)
		svc.On("SaveCategory", mock.Anything, engine.CategoryCommand{ID: 3, Name: "Refrescos", Prefix: "REF"}).
			Return(catalog.Category{ID: 3, Name: "Refrescos", Prefix: "REF"}, nil).Once()

		rr, _ := serve(newDirectoryRouter(svc), http.MethodPut, "/categories/3", `{"name":"Refrescos","prefix":"REF"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidPathID", func(t *testing.T) {
		svc := new(MockRegisterService)
		rr, _ := serve(newDirectoryRouter(svc), http.MethodPut, "/categories/abc", `{"name":"x","prefix":"XX"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "SaveCategory", mock.Anything, mock.Anything)
	})

	t.Run("BadPrefix", func(t *testing.T) {
		svc := new(MockRegisterService)
		svc.On("SaveCategory", mock.Anything, mock.Anything).
			Return(catalog.Category{}, shared.Reject(shared.ErrInvalidCategory, "prefix %q must be 2-4 letters", "B1")).Once()

		rr, env := serve(newDirectoryRouter(svc), http.MethodPost, "/categories", `{"name":"Bebidas","prefix":"B1"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "INVALID_CATEGORY", env.Error.Code)
	})
}

func TestDirectoryHandler_SaveWorker(t *testing.T) {
	svc := new(MockRegisterService)
	svc.On("SaveWorker", mock.Anything, engine.WorkerCommand{Name: "Luis", Role: catalog.RoleSeller}).
		Return(catalog.Worker{ID: 2, Name: "Luis", Role: catalog.RoleSeller}, nil).Once()

	rr, _ := serve(newDirectoryRouter(svc), http.MethodPost, "/workers", `{"name":"Luis","role":"SELLER"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestDirectoryHandler_Lists(t *testing.T) {
	svc := new(MockRegisterService)
	svc.On("Products").Return([]catalog.Product{{ID: 1, SKU: "BEB0001", Name: "Cola"}})
	svc.On("Workers").Return([]catalog.Worker{{ID: 1, Name: "Ana", Role: catalog.RoleAdmin}})
	svc.On("Debtors").Return([]catalog.Debtor{{ID: 1, Name: "Pedro", TotalDebt: decimal.NewFromInt(25)}})
	svc.On("Debts", true).Return([]catalog.Debt{{ID: 1, Status: catalog.DebtStatusPending}})
	router := newDirectoryRouter(svc)

	for _, path := range []string{"/products", "/workers", "/debtors", "/debts?open=true"} {
		rr, env := serve(router, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, env.Data, path)
	}
	svc.AssertExpectations(t)
}

func TestDirectoryHandler_RecordDebtPayment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := new(MockRegisterService)
		svc.On("RecordDebtPayment", mock.Anything, mock.MatchedBy(func(cmd engine.DebtPaymentCommand) bool {
			return cmd.DebtID == 4 && cmd.Amount.Equal(decimal.NewFromInt(10))
		})).Return(catalog.Debt{ID: 4, Status: catalog.DebtStatusPartial, Amount: decimal.NewFromInt(15)}, nil).Once()

		rr, env := serve(newDirectoryRouter(svc), http.MethodPost, "/debts/4/payments", `{"amount":"10"}`)

		require.Equal(t, http.StatusOK, rr.Code)
		var got catalog.Debt
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, catalog.DebtStatusPartial, got.Status)
	})

	t.Run("Overpayment", func(t *testing.T) {
		svc := new(MockRegisterService)
		svc.On("RecordDebtPayment", mock.Anything, mock.Anything).
			Return(catalog.Debt{}, shared.Reject(shared.ErrOverpayment, "pay 30 of 25")).Once()

		rr, env := serve(newDirectoryRouter(svc), http.MethodPost, "/debts/4/payments", `{"amount":"30"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "DEBT_OVERPAYMENT", env.Error.Code)
	})

	t.Run("InvalidDebtID", func(t *testing.T) {
		svc := new(MockRegisterService)
		rr, _ := serve(newDirectoryRouter(svc), http.MethodPost, "/debts/0/payments", `{"amount":"10"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
