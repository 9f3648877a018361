package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/apiserver/internal/services"
	"github.com/librarium/apiserver/types"
)

// LoanHandler exposes the borrow/return workflow to borrowers.
type LoanHandler struct {
	loanService *services.LoanService
}

func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// BorrowerRouter registers borrower routes on the given router.
func BorrowerRouter(r chi.Router, loanService *services.LoanService, gate *Gate) {
	handler := NewLoanHandler(loanService)

	r.Use(gate.Require(services.CapLoanBorrow))
	r.Get("/reading-history", handler.ReadingHistory)
	r.Post("/borrow/{bookId}", handler.Borrow)
	r.Put("/return/{recordId}", handler.Return)
}

// LoanResponse wraps a borrow record with a human readable message.
type LoanResponse struct {
	Message string             `json:"message"`
	Record  types.BorrowRecord `json:"borrowRecord"`
}

// HistoryResponse is the paginated reading history payload.
type HistoryResponse struct {
	Records     []types.BorrowRecord `json:"records"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
	Total       int                  `json:"total"`
}

func (h *LoanHandler) ReadingHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, total, err := h.loanService.History(r.Context(), user.ID, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HistoryResponse{
		Records:     records,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}

func (h *LoanHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	bookID, err := parseIDParam(r, "bookId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.loanService.Borrow(r.Context(), user, bookID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, LoanResponse{Message: "book borrowed successfully", Record: record})
}

func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	recordID, err := parseIDParam(r, "recordId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.loanService.Return(r.Context(), user, recordID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LoanResponse{Message: "book returned successfully", Record: record})
}
