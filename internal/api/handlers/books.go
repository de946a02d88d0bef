package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Togather-Foundation/books/internal/api/problem"
	"github.com/Togather-Foundation/books/internal/domain/books"
	"github.com/Togather-Foundation/books/internal/metrics"
)

type BooksHandler struct {
	Service *books.Service
	Env     string
}

func NewBooksHandler(service *books.Service, env string) *BooksHandler {
	return &BooksHandler{Service: service, Env: env}
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	filters, pagination, err := books.ParseFilters(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items, err := h.Service.List(r.Context(), filters, pagination)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []books.Book{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	book, err := h.Service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input books.BookInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.Service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.BookWrites.WithLabelValues("create").Inc()

	w.Header().Set("Location", "/api/books/"+strconv.FormatInt(book.ID, 10))
	writeJSON(w, http.StatusCreated, book)
}

func (h *BooksHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	var input books.BookInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.Service.Replace(r.Context(), id, input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.BookWrites.WithLabelValues("replace").Inc()
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	var patch books.BookPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}

	book, err := h.Service.Patch(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.BookWrites.WithLabelValues("patch").Inc()
	writeJSON(w, http.StatusOK, book)
}

func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookID(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	metrics.BookWrites.WithLabelValues("delete").Inc()
	w.WriteHeader(http.StatusNoContent)
}

func (h *BooksHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *BooksHandler) bookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(r)
	if err != nil {
		problem.BadRequest.Write(w, r, err, h.Env, problem.WithErrors(map[string]any{"id": "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

// writeError maps domain and decoding errors onto problem responses.
func (h *BooksHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		bodyErr       *bodyError
		validationErr books.ValidationError
		filterErr     books.FilterError
	)
	switch {
	case errors.Is(err, books.ErrNotFound):
		problem.NotFound.Write(w, r, err, h.Env, problem.WithDetail("book not found"))
	case errors.As(err, &validationErr):
		errs := make(map[string]any, len(validationErr.Fields))
		for field, msg := range validationErr.Fields {
			errs[field] = msg
		}
		problem.ValidationFailed.Write(w, r, err, h.Env, problem.WithErrors(errs))
	case errors.As(err, &filterErr):
		problem.ValidationFailed.Write(w, r, err, h.Env,
			problem.WithErrors(map[string]any{filterErr.Field: filterErr.Message}))
	case errors.As(err, &bodyErr):
		h.writeBodyError(w, r, bodyErr)
	default:
		problem.ServerError.Write(w, r, fmt.Errorf("books handler: %w", err), h.Env)
	}
}

func (h *BooksHandler) writeBodyError(w http.ResponseWriter, r *http.Request, err *bodyError) {
	switch err.status {
	case http.StatusRequestEntityTooLarge:
		problem.PayloadTooLarge.Write(w, r, err, h.Env)
	case http.StatusUnprocessableEntity:
		problem.ValidationFailed.Write(w, r, err, h.Env, problem.WithErrors(map[string]any{err.field: err.msg}))
	default:
		problem.BadRequest.Write(w, r, err, h.Env)
	}
}
