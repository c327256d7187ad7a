package order

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// Handler exposes the dashboard order endpoints.
type Handler struct {
	service Service
	stores  store.Service
}

func NewHandler(service Service, stores store.Service) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.listOrders)                // GET   /api/orders?store_id=&status=
		r.Get("/{id}", h.getOrder)              // GET   /api/orders/{id}?store_id=
		r.Patch("/{id}/status", h.updateStatus) // PATCH /api/orders/{id}/status
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	st, ok := store.AuthorizeOnboarded(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	orders, err := h.service.ListOrders(r.Context(), st.ID, r.URL.Query().Get("status"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	st, ok := store.AuthorizeOnboarded(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	o, err := h.service.GetOrder(r.Context(), st.ID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, o)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := store.AuthorizeOnboarded(h.stores, w, r, req.StoreID)
	if !ok {
		return
	}
	o, err := h.service.UpdateStatus(r.Context(), st.ID, chi.URLParam(r, "id"), req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, o)
}

// WriteError maps order failures to responses.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrNotFound):
		web.Fail(w, http.StatusNotFound, msg)
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrInsufficientStock):
		web.Fail(w, http.StatusUnprocessableEntity, msg)
	case errors.Is(err, ErrStatusConflict), errors.Is(err, ErrRequestInProgress):
		web.Fail(w, http.StatusConflict, msg)
	case errors.Is(err, ErrPaymentUnavailable):
		web.Fail(w, http.StatusBadGateway, msg)
	case strings.Contains(msg, "required") || strings.Contains(msg, "invalid") || strings.Contains(msg, "at least one"):
		web.Fail(w, http.StatusBadRequest, msg)
	default:
		web.ServerError(w, r, err)
	}
}
