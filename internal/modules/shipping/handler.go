package shipping

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// Handler exposes the dashboard shipping rate endpoints.
type Handler struct {
	service Service
	stores  store.Service
}

func NewHandler(service Service, stores store.Service) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/shipping-rates", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.listRates)                    // GET    /api/shipping-rates?store_id=
		r.Get("/governorates", h.listGovernorates) // GET    /api/shipping-rates/governorates
		r.Put("/", h.upsertRates)                  // PUT    /api/shipping-rates
		r.Delete("/{governorate}", h.deleteRate)   // DELETE /api/shipping-rates/{governorate}?store_id=
	})
}

func (h *Handler) listRates(w http.ResponseWriter, r *http.Request) {
	st, ok := store.Authorize(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	rates, err := h.service.ListRates(r.Context(), st.ID)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, rates)
}

func (h *Handler) listGovernorates(w http.ResponseWriter, r *http.Request) {
	web.Respond(w, http.StatusOK, Governorates)
}

// upsertRates accepts either a single rate or a "rates" batch.
func (h *Handler) upsertRates(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID string `json:"store_id"`
		RateInput
		Rates []RateInput `json:"rates"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := store.Authorize(h.stores, w, r, req.StoreID)
	if !ok {
		return
	}
	inputs := req.Rates
	if len(inputs) == 0 && req.Governorate != "" {
		inputs = []RateInput{req.RateInput}
	}
	rates, err := h.service.UpsertRates(r.Context(), st.ID, inputs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, rates)
}

func (h *Handler) deleteRate(w http.ResponseWriter, r *http.Request) {
	st, ok := store.Authorize(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	governorate, err := url.PathUnescape(chi.URLParam(r, "governorate"))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "invalid governorate")
		return
	}
	if err := h.service.DeleteRate(r.Context(), st.ID, governorate); err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]string{"status": "rate deleted"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrNoRate):
		web.Fail(w, http.StatusNotFound, msg)
	case strings.Contains(msg, "required") || strings.Contains(msg, "invalid"):
		web.Fail(w, http.StatusBadRequest, msg)
	default:
		web.ServerError(w, r, err)
	}
}
