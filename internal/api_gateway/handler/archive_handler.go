package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tienda-register-ledger/internal/api_gateway/service"
)

// ArchiveHandler serves the ledger archive the projector builds in MongoDB
type ArchiveHandler struct {
	archiveService service.ArchiveQueryService
	logger         *slog.Logger
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(logger *slog.Logger, archiveService service.ArchiveQueryService) *ArchiveHandler {
	return &ArchiveHandler{
		archiveService: archiveService,
		logger:         logger,
	}
}

// GetByID retrieves an archived entry by id, returns 404 if it has not been archived
func (h *ArchiveHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error("Invalid entry ID", "id", idParam)
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.archiveService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get archived entry", "id", id, "error", err)
		RespondInternalError(c)
		return
	}
	if entry == nil {
		RespondNotFound(c, "Entry not archived")
		return
	}

	RespondOK(c, entry)
}

// List retrieves a newest-first page of archived entries within ?from and ?to
func (h *ArchiveHandler) List(c *gin.Context) {
	var params TimeRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid archive query", "error", err)
		RespondBadRequest(c, "Invalid archive query: "+err.Error())
		return
	}

	entries, total, err := h.archiveService.GetEntriesByTimeRange(
		c.Request.Context(),
		params.From,
		params.To,
		params.Page,
		params.PerPage,
	)
	if err != nil {
		h.logger.Error("Failed to list archived entries", "error", err)
		RespondInternalError(c)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, entries, params.Page, params.PerPage, int(total))
}

// Status reports the archive head and the number of unverified entries
func (h *ArchiveHandler) Status(c *gin.Context) {
	status, err := h.archiveService.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read archive status", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, status)
}
