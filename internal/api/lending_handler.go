package api

import (
	"net/http"
	"time"

	"libraryapi/internal/api/middleware"
	"libraryapi/internal/api/response"
	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

type LendingHandler struct {
	service domain.LendingService
	auth    *middleware.Auth
	logger  logger.Logger
}

func NewLendingHandler(service domain.LendingService, auth *middleware.Auth, logger logger.Logger) *LendingHandler {
	return &LendingHandler{
		service: service,
		auth:    auth,
		logger:  logger,
	}
}

type BorrowResponse struct {
	Message    string    `json:"message"`
	BookID     int64     `json:"book_id"`
	UserID     int64     `json:"user_id"`
	BorrowDate time.Time `json:"borrow_date"`
}

type ReturnResponse struct {
	Message     string    `json:"message"`
	BookID      int64     `json:"book_id"`
	ReturnDate  time.Time `json:"return_date"`
	OverdueFine float64   `json:"overdue_fine"`
}

type PayFineRequest struct {
	BookID *int64 `json:"book_id"`
}

type PayFineResponse struct {
	Message    string  `json:"message"`
	BookID     int64   `json:"book_id"`
	PaidAmount float64 `json:"paid_amount"`
}

func (h *LendingHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	callerID, _ := middleware.CallerID(r)

	res, err := h.service.Borrow(r.Context(), bookID, callerID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, BorrowResponse{
		Message:    "Book borrowed successfully",
		BookID:     res.BookID,
		UserID:     res.UserID,
		BorrowDate: res.BorrowDate,
	})
}

func (h *LendingHandler) Return(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	callerID, _ := middleware.CallerID(r)

	res, err := h.service.Return(r.Context(), bookID, callerID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, ReturnResponse{
		Message:     "Book returned successfully",
		BookID:      res.BookID,
		ReturnDate:  res.ReturnDate,
		OverdueFine: res.OverdueFine,
	})
}

func (h *LendingHandler) PayFine(w http.ResponseWriter, r *http.Request) {
	var req PayFineRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	if req.BookID == nil || *req.BookID <= 0 {
		response.Error(w, r, h.logger, domain.NewValidationError("Book ID is required"))
		return
	}
	callerID, _ := middleware.CallerID(r)

	res, err := h.service.PayFine(r.Context(), *req.BookID, callerID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, PayFineResponse{
		Message:    "Fine paid successfully",
		BookID:     res.BookID,
		PaidAmount: res.PaidAmount,
	})
}

func (h *LendingHandler) BorrowedBooks(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.CallerID(r)

	books, err := h.service.ListBorrowedBooks(r.Context(), callerID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]interface{}{"borrowed_books": books})
}

func (h *LendingHandler) OutstandingFines(w http.ResponseWriter, r *http.Request) {
	callerID, _ := middleware.CallerID(r)

	summary, err := h.service.ListOutstandingFines(r.Context(), callerID)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, summary)
}

func (h *LendingHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("POST /books/{id}/borrow", h.auth.Authenticate(http.HandlerFunc(h.Borrow)))
	mux.Handle("POST /books/{id}/return", h.auth.Authenticate(http.HandlerFunc(h.Return)))
	mux.Handle("POST /users/pay-fine", h.auth.Authenticate(http.HandlerFunc(h.PayFine)))
	mux.Handle("GET /users/borrowed-books", h.auth.Authenticate(http.HandlerFunc(h.BorrowedBooks)))
	mux.Handle("GET /users/outstanding-fines", h.auth.Authenticate(http.HandlerFunc(h.OutstandingFines)))
}
