package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// Handler exposes the dashboard product endpoints.
type Handler struct {
	service Service
	stores  store.Service
}

func NewHandler(service Service, stores store.Service) *Handler {
	return &Handler{service: service, stores: stores}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(auth.RequireAuth)
		r.Get("/", h.listProducts)         // GET    /api/products?store_id=&category=
		r.Post("/", h.createProduct)       // POST   /api/products
		r.Put("/{id}", h.updateProduct)    // PUT    /api/products/{id}
		r.Delete("/{id}", h.deleteProduct) // DELETE /api/products/{id}?store_id=
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	st, ok := store.Authorize(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	products, err := h.service.ListProducts(r.Context(), st.ID, r.URL.Query().Get("category"))
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st, ok := store.Authorize(h.stores, w, r, req.StoreID)
	if !ok {
		return
	}
	p, err := h.service.CreateProduct(r.Context(), st.ID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusCreated, p)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	storeID := req.StoreID
	if storeID == "" {
		storeID = r.URL.Query().Get("store_id")
	}
	st, ok := store.Authorize(h.stores, w, r, storeID)
	if !ok {
		return
	}
	p, err := h.service.UpdateProduct(r.Context(), st.ID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, p)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	st, ok := store.Authorize(h.stores, w, r, r.URL.Query().Get("store_id"))
	if !ok {
		return
	}
	if err := h.service.DeleteProduct(r.Context(), st.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]string{"status": "product deleted"})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrNotFound):
		web.Fail(w, http.StatusNotFound, msg)
	case strings.Contains(msg, "required") || strings.Contains(msg, "invalid"):
		web.Fail(w, http.StatusBadRequest, msg)
	default:
		web.ServerError(w, r, err)
	}
}
