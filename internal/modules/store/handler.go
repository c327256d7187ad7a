package store

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/user"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// Handler exposes store management, onboarding and super-admin endpoints.
type Handler struct {
	service  Service
	sessions auth.Service
	cookies  auth.Cookies
	limit    func(http.Handler) http.Handler
}

func NewHandler(service Service, sessions auth.Service, cookies auth.Cookies, limit func(http.Handler) http.Handler) *Handler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{service: service, sessions: sessions, cookies: cookies, limit: limit}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.With(h.limit).Post("/api/auth/register-merchant", h.registerMerchant)

	r.Route("/api/stores", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Post("/create", h.createStore) // POST /api/stores/create
		r.Post("/update", h.updateStore) // POST /api/stores/update
		r.Get("/mine", h.myStores)       // GET  /api/stores/mine
	})

	r.Route("/api/onboarding", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.onboarding)                  // GET  /api/onboarding?store_id=
		r.Post("/complete", h.completeOnboarding) // POST /api/onboarding/complete
	})

	r.Route("/api/admin/stores", func(r chi.Router) {
		r.Use(auth.RequireSuperAdmin)
		r.Get("/", h.listStores)             // GET   /api/admin/stores
		r.Patch("/{id}/status", h.setStatus) // PATCH /api/admin/stores/{id}/status
	})
}

func (h *Handler) registerMerchant(w http.ResponseWriter, r *http.Request) {
	var req RegisterMerchantRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	u, st, err := h.service.RegisterMerchant(r.Context(), req)
	if errors.Is(err, user.ErrEmailTaken) {
		web.Fail(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	sess, err := h.sessions.Issue(u)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	h.cookies.Set(w, r, sess.Token, sess.ExpiresAt)
	web.Respond(w, http.StatusCreated, map[string]interface{}{"user": u, "store": st})
}

func (h *Handler) createStore(w http.ResponseWriter, r *http.Request) {
	var req CreateStoreRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.service.CreateStore(r.Context(), auth.FromContext(r.Context()), req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	web.Respond(w, http.StatusCreated, st)
}

func (h *Handler) updateStore(w http.ResponseWriter, r *http.Request) {
	var req UpdateStoreRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := Authorize(h.service, w, r, req.StoreID)
	if !ok {
		return
	}
	updated, err := h.service.UpdateStore(r.Context(), st, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, updated)
}

func (h *Handler) myStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.MyStores(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, stores)
}

func (h *Handler) onboarding(w http.ResponseWriter, r *http.Request) {
	st, ok := Authorize(h.service, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	o, err := h.service.Onboarding(r.Context(), st)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, o)
}

func (h *Handler) completeOnboarding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID string `json:"store_id"`
	}
	// The body is optional; an empty one targets the caller's store.
	_ = web.Decode(r, &req)
	st, ok := Authorize(h.service, w, r, req.StoreID)
	if !ok {
		return
	}
	o, err := h.service.CompleteOnboarding(r.Context(), st)
	if errors.Is(err, ErrOnboardingIncomplete) {
		web.Respond(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":      ErrOnboardingIncomplete.Error(),
			"onboarding": o,
		})
		return
	}
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, o)
}

func (h *Handler) listStores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, stores)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status Status `json:"status"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, st)
}
