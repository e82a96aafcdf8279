package api

import (
	"net/http"

	"libraryapi/internal/api/response"
	"libraryapi/internal/domain"
	"libraryapi/pkg/logger"
)

type BookHandler struct {
	service domain.BookService
	// guard wraps catalog writes; it is the admin guard when catalog
	// writes are restricted and a pass-through otherwise.
	guard  func(http.Handler) http.Handler
	logger logger.Logger
}

func NewBookHandler(service domain.BookService, guard func(http.Handler) http.Handler, logger logger.Logger) *BookHandler {
	if guard == nil {
		guard = identity
	}
	return &BookHandler{
		service: service,
		guard:   guard,
		logger:  logger,
	}
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var book domain.Book
	if err := decodeJSON(r, &book); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}
	book.ID = 0

	created, err := h.service.CreateBook(r.Context(), &book)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusCreated, created)
}

// GetBooks lists the whole catalog unless per_page is given.
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r, "per_page", 0, 0)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	books, err := h.service.GetBooks(r.Context(), page)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, books)
}

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	book, err := h.service.GetBookByID(r.Context(), id)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, book)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	var patch domain.BookPatch
	if err := decodeJSON(r, &patch); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, patch)
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	response.JSON(w, http.StatusOK, book)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		response.Error(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *BookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /books", h.GetBooks)
	mux.HandleFunc("GET /books/{id}", h.GetBook)
	mux.Handle("POST /books", h.guard(http.HandlerFunc(h.CreateBook)))
	mux.Handle("PUT /books/{id}", h.guard(http.HandlerFunc(h.UpdateBook)))
	mux.Handle("DELETE /books/{id}", h.guard(http.HandlerFunc(h.DeleteBook)))
}
