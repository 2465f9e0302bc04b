package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tienda-register-ledger/internal/api_gateway/service"
	"github.com/tienda-register-ledger/internal/engine"
)

// RegisterHandler handles HTTP requests for the money-moving register commands
// and the register's history
type RegisterHandler struct {
	registerService service.RegisterService
	logger          *slog.Logger
}

// NewRegisterHandler creates a new register handler
func NewRegisterHandler(logger *slog.Logger, registerService service.RegisterService) *RegisterHandler {
	return &RegisterHandler{
		registerService: registerService,
		logger:          logger,
	}
}

// SettleSale checks out a cart and returns the sale with its three ledger entries
func (h *RegisterHandler) SettleSale(c *gin.Context) {
	var cmd engine.SaleCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	s, entries, err := h.registerService.SettleSale(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "settle_sale", err)
		return
	}
	RespondCreated(c, SaleResponse{Sale: s, Entries: entries})
}

// SettlePurchase records a restock paid from the investment pool
func (h *RegisterHandler) SettlePurchase(c *gin.Context) {
	var cmd engine.PurchaseCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	p, entries, err := h.registerService.SettlePurchase(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "settle_purchase", err)
		return
	}
	RespondCreated(c, PurchaseResponse{Purchase: p, Entries: entries})
}

// ExpectedTotals previews what closing the register now would expect
func (h *RegisterHandler) ExpectedTotals(c *gin.Context) {
	RespondOK(c, h.registerService.ExpectedTotals())
}

// CloseRegister reconciles the counted drawer and files an audit report
func (h *RegisterHandler) CloseRegister(c *gin.Context) {
	var cmd engine.CloseCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.registerService.CloseRegister(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "close_register", err)
		return
	}
	RespondCreated(c, report)
}

// RunPayroll distributes the payout pool. An empty body uses the configured operator.
func (h *RegisterHandler) RunPayroll(c *gin.Context) {
	var cmd engine.PayrollCommand
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&cmd); err != nil {
			h.logger.Error("Invalid request body", "error", err)
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	report, err := h.registerService.RunPayroll(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "run_payroll", err)
		return
	}
	RespondCreated(c, report)
}

// AdjustInvestment sets the investment pool to an absolute target
func (h *RegisterHandler) AdjustInvestment(c *gin.Context) {
	var cmd engine.AdjustmentCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	entry, err := h.registerService.AdjustInvestment(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "adjust_investment", err)
		return
	}
	RespondCreated(c, entry)
}

// Balances returns the investment and payout pools
func (h *RegisterHandler) Balances(c *gin.Context) {
	RespondOK(c, h.registerService.Balances())
}

// Ledger returns a newest-first page of ledger entries
func (h *RegisterHandler) Ledger(c *gin.Context) {
	pagination, ok := h.bindPagination(c)
	if !ok {
		return
	}
	entries, total := h.registerService.Ledger(pagination.page())
	RespondWithPaginatedData(c, http.StatusOK, entries, pagination.Page, pagination.PerPage, total)
}

// Verify replays the ledger and compares it with the live balances
func (h *RegisterHandler) Verify(c *gin.Context) {
	res := VerifyResponse{Consistent: true, Balances: h.registerService.Balances()}
	if err := h.registerService.Verify(); err != nil {
		h.logger.Warn("Ledger verification failed", "error", err)
		res.Consistent = false
		res.Problem = err.Error()
	}
	RespondOK(c, res)
}

// Sales returns a newest-first page of sales
func (h *RegisterHandler) Sales(c *gin.Context) {
	pagination, ok := h.bindPagination(c)
	if !ok {
		return
	}
	items, total := h.registerService.Sales(pagination.page())
	RespondWithPaginatedData(c, http.StatusOK, items, pagination.Page, pagination.PerPage, total)
}

// Purchases returns a newest-first page of purchases
func (h *RegisterHandler) Purchases(c *gin.Context) {
	pagination, ok := h.bindPagination(c)
	if !ok {
		return
	}
	items, total := h.registerService.Purchases(pagination.page())
	RespondWithPaginatedData(c, http.StatusOK, items, pagination.Page, pagination.PerPage, total)
}

// Audits returns a newest-first page of audit reports
func (h *RegisterHandler) Audits(c *gin.Context) {
	pagination, ok := h.bindPagination(c)
	if !ok {
		return
	}
	items, total := h.registerService.Audits(pagination.page())
	RespondWithPaginatedData(c, http.StatusOK, items, pagination.Page, pagination.PerPage, total)
}

// Payrolls returns a newest-first page of payroll reports
func (h *RegisterHandler) Payrolls(c *gin.Context) {
	pagination, ok := h.bindPagination(c)
	if !ok {
		return
	}
	items, total := h.registerService.Payrolls(pagination.page())
	RespondWithPaginatedData(c, http.StatusOK, items, pagination.Page, pagination.PerPage, total)
}

// Settings returns the exchange rates, time zone and payroll operator
func (h *RegisterHandler) Settings(c *gin.Context) {
	RespondOK(c, mapSettingsToResponse(h.registerService.Settings()))
}

func (h *RegisterHandler) bindPagination(c *gin.Context) (PaginationParams, bool) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return pagination, false
	}
	return pagination, true
}
