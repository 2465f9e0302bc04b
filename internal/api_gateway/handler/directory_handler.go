package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tienda-register-ledger/internal/api_gateway/service"
	"github.com/tienda-register-ledger/internal/engine"
)

// DirectoryHandler handles HTTP requests for categories, workers, debtors and debts
type DirectoryHandler struct {
	registerService service.RegisterService
	logger          *slog.Logger
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(logger *slog.Logger, registerService service.RegisterService) *DirectoryHandler {
	return &DirectoryHandler{
		registerService: registerService,
		logger:          logger,
	}
}

func (h *DirectoryHandler) Products(c *gin.Context) {
	RespondOK(c, h.registerService.Products())
}

func (h *DirectoryHandler) Categories(c *gin.Context) {
	RespondOK(c, h.registerService.Categories())
}

func (h *DirectoryHandler) Workers(c *gin.Context) {
	RespondOK(c, h.registerService.Workers())
}

func (h *DirectoryHandler) Debtors(c *gin.Context) {
	RespondOK(c, h.registerService.Debtors())
}

// Debts lists debts; ?open=true keeps only pending and partially paid ones
func (h *DirectoryHandler) Debts(c *gin.Context) {
	var filter DebtFilterParams
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.logger.Error("Invalid debt filter", "error", err)
		RespondBadRequest(c, "Invalid debt filter")
		return
	}
	RespondOK(c, h.registerService.Debts(filter.Open))
}

// SaveCategory creates a category, or renames the one named by the :id path parameter
func (h *DirectoryHandler) SaveCategory(c *gin.Context) {
	var cmd engine.CategoryCommand
	if !h.bindCommand(c, &cmd, &cmd.ID) {
		return
	}
	category, err := h.registerService.SaveCategory(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "save_category", err)
		return
	}
	h.respondSaved(c, category)
}

// SaveWorker creates a worker, or updates the one named by the :id path parameter
func (h *DirectoryHandler) SaveWorker(c *gin.Context) {
	var cmd engine.WorkerCommand
	if !h.bindCommand(c, &cmd, &cmd.ID) {
		return
	}
	worker, err := h.registerService.SaveWorker(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "save_worker", err)
		return
	}
	h.respondSaved(c, worker)
}

// SaveDebtor creates a debtor, or renames the one named by the :id path parameter
func (h *DirectoryHandler) SaveDebtor(c *gin.Context) {
	var cmd engine.DebtorCommand
	if !h.bindCommand(c, &cmd, &cmd.ID) {
		return
	}
	debtor, err := h.registerService.SaveDebtor(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "save_debtor", err)
		return
	}
	h.respondSaved(c, debtor)
}

// RecordDebtPayment applies a repayment to the debt named by the :id path parameter
func (h *DirectoryHandler) RecordDebtPayment(c *gin.Context) {
	var cmd engine.DebtPaymentCommand
	if !h.bindCommand(c, &cmd, &cmd.DebtID) {
		return
	}
	debt, err := h.registerService.RecordDebtPayment(c.Request.Context(), cmd)
	if err != nil {
		RespondServiceError(c, h.logger, "record_debt_payment", err)
		return
	}
	RespondOK(c, debt)
}

// bindCommand decodes the JSON body into cmd and, when the route carries an
// :id parameter, overrides *id with it
func (h *DirectoryHandler) bindCommand(c *gin.Context, cmd any, id *int64) bool {
	if err := c.ShouldBindJSON(cmd); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	idParam := c.Param("id")
	if idParam == "" {
		*id = 0
		return true
	}
	parsed, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || parsed <= 0 {
		h.logger.Error("Invalid ID", "id", idParam)
		RespondBadRequest(c, "Invalid ID")
		return false
	}
	*id = parsed
	return true
}

func (h *DirectoryHandler) respondSaved(c *gin.Context, v any) {
	if c.Param("id") == "" {
		RespondCreated(c, v)
		return
	}
	RespondOK(c, v)
}
