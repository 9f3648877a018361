package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/librarium/apiserver/internal/services"
)

// AdminHandler serves user, category and statistics administration.
type AdminHandler struct {
	userService     *services.UserService
	categoryService *services.CategoryService
	dashboard       *services.DashboardService
}

func NewAdminHandler(userService *services.UserService, categoryService *services.CategoryService, dashboard *services.DashboardService) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		categoryService: categoryService,
		dashboard:       dashboard,
	}
}

// AdminRouter registers admin routes on the given router.
func AdminRouter(r chi.Router, handler *AdminHandler, gate *Gate) {
	r.Use(gate.Require(services.CapAdmin))
	r.Get("/dashboard/stats", handler.Stats)
	r.Get("/users", handler.ListUsers)
	r.Put("/users/{id}/toggle-ban", handler.ToggleBan)
	r.Put("/users/{id}/toggle-approval", handler.ToggleApproval)
	r.Get("/categories", handler.ListCategories)
	r.Post("/categories", handler.CreateCategory)
	r.Delete("/categories/{id}", handler.DeleteCategory)
}

// CategoryRequest is the body of a category creation.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.AdminStats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ToggleBan(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.userService.ToggleBan(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) ToggleApproval(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.userService.ToggleApproval(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categoryService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.categoryService.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, category)
}

func (h *AdminHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "category deleted"})
}
