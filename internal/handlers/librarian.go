package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/apiserver/internal/services"
	"github.com/librarium/apiserver/types"
)

// LibrarianHandler serves the librarian dashboard.
type LibrarianHandler struct {
	dashboard   *services.DashboardService
	bookService *services.BookService
}

func NewLibrarianHandler(dashboard *services.DashboardService, bookService *services.BookService) *LibrarianHandler {
	return &LibrarianHandler{dashboard: dashboard, bookService: bookService}
}

// LibrarianRouter registers librarian routes on the given router.
func LibrarianRouter(r chi.Router, dashboard *services.DashboardService, bookService *services.BookService, gate *Gate) {
	handler := NewLibrarianHandler(dashboard, bookService)

	r.Use(gate.Require(services.CapLibrarianDashboard))
	r.Get("/dashboard", handler.Dashboard)
	r.Get("/my-books", handler.MyBooks)
}

func (h *LibrarianHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.dashboard.LibrarianStats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *LibrarianHandler) MyBooks(w http.ResponseWriter, r *http.Request) {
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

	books, total, err := h.bookService.List(r.Context(), types.BookFilter{UploaderID: user.ID}, offset, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BookListResponse{
		Books:       books,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		Total:       total,
	})
}
