package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

type Handler struct {
	service Service
	stores  store.Service
}

func NewHandler(service Service, stores store.Service) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.With(auth.RequireAuth).Get("/api/analytics", h.summary) // GET /api/analytics?store_id=&days=
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	days, err := ParseDays(r.URL.Query().Get("days"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := store.AuthorizeOnboarded(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	sum, err := h.service.Summary(r.Context(), st.ID, days)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, sum)
}
