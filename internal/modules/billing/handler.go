package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/payment"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

const maxWebhookBytes = 64 << 10

// Handler exposes billing HTTP endpoints.
type Handler struct {
	service Service
	stores  store.Service
}

func NewHandler(service Service, stores store.Service) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/billing", func(r chi.Router) {
		r.Post("/webhook", h.webhook) // POST /api/billing/webhook

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Get("/", h.status)            // GET  /api/billing?store_id=
			r.Post("/checkout", h.checkout) // POST /api/billing/checkout
			r.Post("/portal", h.portal)     // POST /api/billing/portal
		})
	})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	st, ok := store.Authorize(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	web.Respond(w, http.StatusOK, h.service.Status(st))
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := store.Authorize(h.stores, w, r, req.StoreID)
	if !ok {
		return
	}
	url, err := h.service.Checkout(r.Context(), st, req.Plan, auth.FromContext(r.Context()).Email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, SessionResponse{URL: url})
}

func (h *Handler) portal(w http.ResponseWriter, r *http.Request) {
	var req PortalRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := store.Authorize(h.stores, w, r, req.StoreID)
	if !ok {
		return
	}
	url, err := h.service.Portal(r.Context(), st)
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, SessionResponse{URL: url})
}

// webhook answers 2xx only once the event is applied; any other answer
// makes the provider redeliver it.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		web.Fail(w, http.StatusBadRequest, "unreadable body")
		return
	}
	err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		web.Respond(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, payment.ErrInvalidSignature):
		hlog.FromRequest(r).Warn().Err(err).Msg("rejected billing webhook")
		web.Fail(w, http.StatusBadRequest, "invalid signature")
	default:
		writeError(w, r, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrDisabled):
		web.Fail(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrPlanUnavailable):
		web.Fail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoCustomer):
		web.Fail(w, http.StatusConflict, err.Error())
	default:
		web.ServerError(w, r, err)
	}
}
