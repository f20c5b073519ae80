package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/expense-tracker/internal/apperror"
	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/model"
	"github.com/sakif/expense-tracker/internal/repository"
	"github.com/sakif/expense-tracker/internal/service"
)

// maxReceiptSize caps a single receipt upload at 10 MiB.
const maxReceiptSize = 10 << 20

// ExpenseHandler manages CRUD for expense records, including receipt photo
// upload and retrieval.
//
// TWO REQUEST SHAPES:
// Create and update accept either a plain JSON body or a multipart form.
// Multipart is for uploads — browsers can't attach a file to a JSON body —
// with the expense fields as form values and the photo under "receipt".
// JSON stays supported for clients that don't attach anything.
type ExpenseHandler struct {
	expenses *service.ExpenseService
	logger   *slog.Logger
}

func NewExpenseHandler(expenses *service.ExpenseService, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, logger: logger}
}

// HandleList returns a page of the user's expenses, newest first.
//
// HTTP: GET /api/expenses?category=&from=&to=&limit=&offset=
// Dates accept "2006-01-02" or full RFC 3339. The "to" date is exclusive.
func (h *ExpenseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	opts := repository.ListOptions{
		CategoryID: r.URL.Query().Get("category"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		opts.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		opts.Offset, _ = strconv.Atoi(v)
	}

	var err error
	if opts.From, err = parseDateParam(r.URL.Query().Get("from")); err != nil {
		writeError(w, err)
		return
	}
	if opts.To, err = parseDateParam(r.URL.Query().Get("to")); err != nil {
		writeError(w, err)
		return
	}

	expenses, err := h.expenses.List(r.Context(), userID, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// HandleCreate records a new expense, optionally with a receipt photo.
//
// HTTP: POST /api/expenses
// JSON BODY:      {"amount": 12.34, "description": "...", "categoryId": "...", "date": "..."}
// MULTIPART FORM: amount, description, categoryId, date + file field "receipt"
func (h *ExpenseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	in, receipt, cleanup, err := h.parseExpenseRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	expense, err := h.expenses.Create(r.Context(), userID, in, receipt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, expense)
}

// HandleGet returns a single expense.
//
// HTTP: GET /api/expenses/{id}
func (h *ExpenseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	expense, err := h.expenses.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// HandleUpdate modifies an expense; an attached receipt replaces the old one.
//
// HTTP: PUT /api/expenses/{id}
func (h *ExpenseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	in, receipt, cleanup, err := h.parseExpenseRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	expense, err := h.expenses.Update(r.Context(), userID, r.PathValue("id"), in, receipt)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// HandleDelete removes an expense and its receipt photo.
//
// HTTP: DELETE /api/expenses/{id}
func (h *ExpenseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.expenses.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleReceipt streams the stored receipt photo.
//
// HTTP: GET /api/expenses/{id}/receipt
func (h *ExpenseHandler) HandleReceipt(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	path, err := h.expenses.ReceiptPath(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	// ServeFile sets Content-Type from the extension and handles range
	// requests for free.
	http.ServeFile(w, r, path)
}

// parseExpenseRequest reads an expense payload from either encoding.
// The returned cleanup closes the multipart file (a no-op for JSON bodies)
// and must run after the service call consumed the reader.
func (h *ExpenseHandler) parseExpenseRequest(r *http.Request) (service.ExpenseInput, *service.ReceiptUpload, func(), error) {
	var in service.ExpenseInput
	noop := func() {}

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return in, nil, noop, apperror.ValidationFailed("body", "invalid JSON body")
		}
		return in, nil, noop, nil
	}

	if err := r.ParseMultipartForm(maxReceiptSize); err != nil {
		return in, nil, noop, apperror.ValidationFailed("body", "invalid multipart form")
	}

	amount, err := model.ParseMoney(r.FormValue("amount"))
	if err != nil {
		return in, nil, noop, apperror.ValidationFailed("amount", "amount must be a positive decimal")
	}
	in.Amount = amount
	in.Description = r.FormValue("description")
	in.CategoryID = r.FormValue("categoryId")

	if v := r.FormValue("date"); v != "" {
		date, err := parseDate(v)
		if err != nil {
			return in, nil, noop, err
		}
		in.Date = &date
	}

	file, header, err := r.FormFile("receipt")
	if err == http.ErrMissingFile {
		return in, nil, noop, nil
	}
	if err != nil {
		return in, nil, noop, apperror.ValidationFailed("receipt", "invalid receipt upload")
	}

	receipt := &service.ReceiptUpload{
		Content: file,
		Ext:     filepath.Ext(header.Filename),
	}
	return in, receipt, func() { file.Close() }, nil
}

// parseDateParam parses an optional query-string date; empty means unset.
func parseDateParam(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return parseDate(v)
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperror.ValidationFailed("date", "date must be YYYY-MM-DD or RFC 3339")
}
