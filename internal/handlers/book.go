package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/apiserver/internal/services"
	"github.com/librarium/apiserver/types"
)

const (
	formFieldTitle         = "title"
	formFieldAuthor        = "author"
	formFieldDesc          = "description"
	formFieldCategory      = "category"
	formFieldPublishedYear = "publishedYear"
	formFieldPages         = "pages"
	formFieldISBN          = "isbn"
	formFieldCover         = "coverImage"
	formFieldPDF           = "pdfFile"
)

// BookHandler provides HTTP handlers for the catalog.
type BookHandler struct {
	bookService *services.BookService
}

// NewBookHandler constructs a handler with the provided service.
func NewBookHandler(bookService *services.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

// BookRouter registers catalog routes on the given router.
func BookRouter(r chi.Router, bookService *services.BookService, gate *Gate) {
	handler := NewBookHandler(bookService)

	r.Get("/", handler.ListBooks)
	r.With(gate.Require(services.CapBookManage)).Post("/", handler.CreateBook)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", handler.GetBook)
		r.With(gate.Require(services.CapBookManage)).Put("/", handler.UpdateBook)
		r.With(gate.Require(services.CapBookManage)).Delete("/", handler.DeleteBook)
	})
}

// BookListResponse is the paginated catalog payload.
type BookListResponse struct {
	Books       []types.Book `json:"books"`
	TotalPages  int          `json:"totalPages"`
	CurrentPage int          `json:"currentPage"`
	Total       int          `json:"total"`
}

// UpdateBookRequest is the JSON body of a book edit. Omitted fields are kept.
type UpdateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Description   *string `json:"description"`
	Category      *string `json:"category"`
	PublishedYear *int    `json:"publishedYear"`
	Pages         *int    `json:"pages"`
	ISBN          *string `json:"isbn"`
}

func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := types.BookFilter{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	books, total, err := h.bookService.List(r.Context(), filter, offset, limit)
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

func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.bookService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageUpload+maxPDFUpload+maxMultipartOverhead)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	input := services.BookInput{
		Title:       r.FormValue(formFieldTitle),
		Author:      r.FormValue(formFieldAuthor),
		Description: r.FormValue(formFieldDesc),
		Category:    r.FormValue(formFieldCategory),
		ISBN:        r.FormValue(formFieldISBN),
	}
	var err error
	if input.PublishedYear, err = parseOptionalInt(r.FormValue(formFieldPublishedYear)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid publishedYear")
		return
	}
	if input.Pages, err = parseOptionalInt(r.FormValue(formFieldPages)); err != nil {
		writeError(w, http.StatusBadRequest, "invalid pages")
		return
	}

	cover, err := formFile(r.MultipartForm, formFieldCover, maxImageUpload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	content, err := formFile(r.MultipartForm, formFieldPDF, maxPDFUpload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.bookService.Create(r.Context(), actor, input, cover, content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateBookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.bookService.Update(r.Context(), actor, id, services.BookUpdate{
		Title:         req.Title,
		Author:        req.Author,
		Description:   req.Description,
		Category:      req.Category,
		PublishedYear: req.PublishedYear,
		Pages:         req.Pages,
		ISBN:          req.ISBN,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	actor, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.bookService.Delete(r.Context(), actor, id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "book deleted"})
}

func parseOptionalInt(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
