package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/web"
)

// Handler exposes the platform user directory to the super-admin.
type Handler struct {
	service Service
	guard   func(http.Handler) http.Handler
}

// NewHandler builds the handler; guard must admit only super-admins.
func NewHandler(service Service, guard func(http.Handler) http.Handler) *Handler {
	return &Handler{service: service, guard: guard}
}

func (h *Handler) RegisterRoutes(router *chi.Mux) {
	router.With(h.guard).Get("/api/admin/users", h.listUsers)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	if users == nil {
		users = []*User{}
	}
	web.Respond(w, http.StatusOK, users)
}
