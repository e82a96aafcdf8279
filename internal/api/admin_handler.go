package api

import (
	"net/http"

	"libraryapi/internal/api/middleware"
	"libraryapi/internal/api/response"
	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

type AdminHandler struct {
	service domain.AdminService
	auth    *middleware.Auth
	logger  logger.Logger
}

func NewAdminHandler(service domain.AdminService, auth *middleware.Auth, logger logger.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *AdminHandler) ListBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.ListBorrowRecords(r.Context())
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"borrowed_books": records})
}

func (h *AdminHandler) DeleteBorrow(w http.ResponseWriter, r *http.Request) {
	borrowID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	adminID, _ := middleware.CallerID(r)

	if err := h.service.DeleteBorrowRecord(r.Context(), adminID, borrowID); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /admin/users", h.auth.Admin(http.HandlerFunc(h.ListUsers)))
	mux.Handle("GET /admin/borrowed-books", h.auth.Admin(http.HandlerFunc(h.ListBorrowedBooks)))
	mux.Handle("DELETE /admin/borrow/{id}", h.auth.Admin(http.HandlerFunc(h.DeleteBorrow)))
}
