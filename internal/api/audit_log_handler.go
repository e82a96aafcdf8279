package api

import (
	"net/http"
	"strconv"

	"libraryapi/internal/api/middleware"
	"libraryapi/internal/api/response"
	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

type AuditLogHandler struct {
	service domain.AuditLogService
	auth    *middleware.Auth
	logger  logger.Logger
}

func NewAuditLogHandler(service domain.AuditLogService, auth *middleware.Auth, logger logger.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *AuditLogHandler) GetAllLogs(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r, "page_size", 50, 100)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	logs, err := h.service.GetAllLogs(r.Context(), page.Page, page.PerPage)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, logs)
}

func (h *AuditLogHandler) GetEntityLogs(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(r.URL.Query().Get("entity_type"))
	switch entityType {
	case domain.EntityTypeBook, domain.EntityTypeUser, domain.EntityTypeBorrow:
	default:
		response.Error(w, r, h.logger, domain.NewValidationError("entity_type must be one of book, user, borrow"))
		return
	}

	entityID, err := strconv.ParseInt(r.URL.Query().Get("entity_id"), 10, 64)
	if err != nil {
		response.Error(w, r, h.logger, domain.NewValidationError("entity_id must be an integer"))
		return
	}

	logs, err := h.service.GetEntityLogs(r.Context(), entityType, entityID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, logs)
}

func (h *AuditLogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /admin/audit-logs", h.auth.Admin(http.HandlerFunc(h.GetAllLogs)))
	mux.Handle("GET /admin/entity-logs", h.auth.Admin(http.HandlerFunc(h.GetEntityLogs)))
}
