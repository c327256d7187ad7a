package settings

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

const platformScope = "platform"

// Handler exposes store settings; the super-admin can also edit the
// platform-wide defaults with scope=platform.
type Handler struct {
	service Service
	stores  store.Service
}

func NewHandler(service Service, stores store.Service) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/settings", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.getSettings)    // GET /api/settings?store_id=|scope=platform
		r.Put("/", h.updateSettings) // PUT /api/settings
	})
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("scope") == platformScope {
		if !h.superAdmin(w, r) {
			return
		}
		values, err := h.service.GetPlatform(r.Context())
		if err != nil {
			web.ServerError(w, r, err)
			return
		}
		web.Respond(w, http.StatusOK, values)
		return
	}

	st, ok := store.Authorize(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	values, err := h.service.Get(r.Context(), st.ID)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, values)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StoreID  string `json:"store_id"`
		Scope    string `json:"scope"`
		Settings Values `json:"settings"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Scope == platformScope {
		if !h.superAdmin(w, r) {
			return
		}
		h.write(w, r, nil, req.Settings)
		return
	}
	st, ok := store.Authorize(h.stores, w, r, req.StoreID)
	if !ok {
		return
	}
	h.write(w, r, &st.ID, req.Settings)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, storeID *uuid.UUID, values Values) {
	updated, err := h.service.Update(r.Context(), storeID, values)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "required") || strings.Contains(msg, "invalid") {
			web.Fail(w, http.StatusBadRequest, msg)
			return
		}
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, updated)
}

func (h *Handler) superAdmin(w http.ResponseWriter, r *http.Request) bool {
	id := auth.FromContext(r.Context())
	if id.Anonymous() {
		web.Fail(w, http.StatusUnauthorized, auth.MsgUnauthenticated)
		return false
	}
	if !id.SuperAdmin() {
		web.Fail(w, http.StatusForbidden, "super-admin access required")
		return false
	}
	return true
}
