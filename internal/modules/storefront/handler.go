// Package storefront serves the public, tenant-resolved shop API.
package storefront

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/georgemunganga/souq-backend/internal/modules/cart"
	"github.com/georgemunganga/souq-backend/internal/modules/catalog"
	"github.com/georgemunganga/souq-backend/internal/modules/checkout"
	"github.com/georgemunganga/souq-backend/internal/modules/order"
	"github.com/georgemunganga/souq-backend/internal/modules/settings"
	"github.com/georgemunganga/souq-backend/internal/modules/shipping"
	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/tenant"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// CartCookie holds the shopper's cart id.
const CartCookie = "souq_cart"

const cartCookieTTL = 30 * 24 * time.Hour

type Handler struct {
	resolver *tenant.Resolver
	products catalog.Service
	rates    shipping.Service
	settings settings.Service
	carts    cart.Service
	checkout *checkout.Orchestrator
	secure   bool
}

func NewHandler(resolver *tenant.Resolver, products catalog.Service, rates shipping.Service, settings settings.Service, carts cart.Service, checkout *checkout.Orchestrator, secureCookies bool) *Handler {
	return &Handler{
		resolver: resolver,
		products: products,
		rates:    rates,
		settings: settings,
		carts:    carts,
		checkout: checkout,
		secure:   secureCookies,
	}
}

// RegisterRoutes mounts the storefront for subdomain hosts and for
// path-routed hosts.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/storefront", h.routes)
	r.Route("/store/{slug}/api/storefront", h.routes)
}

func (h *Handler) routes(r chi.Router) {
	r.Use(tenant.Middleware(h.resolver))

	r.Get("/", h.getStore)
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/shipping-rates", h.listRates)
	r.Post("/checkout/quote", h.quote)
	r.Post("/checkout", h.placeOrder)

	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addToCart)
	r.Delete("/cart/items/{product_id}", h.removeFromCart)
	r.Delete("/cart", h.clearCart)
}

type storeResponse struct {
	Store        store.Public `json:"store"`
	Announcement string       `json:"announcement,omitempty"`
	FreeShipping bool         `json:"free_shipping"`
}

func (h *Handler) getStore(w http.ResponseWriter, r *http.Request) {
	st := current(r)
	values, err := h.settings.Get(r.Context(), st.ID)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, storeResponse{
		Store:        st.Public(),
		Announcement: values[settings.KeyAnnouncement],
		FreeShipping: settings.PromotionFrom(values).Active(time.Now()),
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.ListProducts(r.Context(), current(r).ID, r.URL.Query().Get("category"))
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetProduct(r.Context(), current(r).ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, p)
}

func (h *Handler) listRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.rates.ListRates(r.Context(), current(r).ID)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, rates)
}

type quoteRequest struct {
	Items       []order.LineRequest `json:"items"`
	Governorate string              `json:"governorate"`
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st := current(r)
	items, err := h.lines(r, st, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	flow, err := h.checkout.Start(r.Context(), st, items, "")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := flow.SetAddress(r.Context(), order.Customer{}, order.Address{Governorate: req.Governorate}); err != nil {
		writeError(w, r, err)
		return
	}
	q, err := flow.Quote(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, q)
}

type checkoutRequest struct {
	Customer      order.Customer      `json:"customer"`
	Address       order.Address       `json:"address"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	Notes         string              `json:"notes"`
	Items         []order.LineRequest `json:"items"`
}

// placeOrder drives the checkout flow through every step in one request.
// Items come from the body, or from the cart when the body has none.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	st := current(r)
	fromCart := len(req.Items) == 0
	items, err := h.lines(r, st, req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	flow, err := h.checkout.Start(r.Context(), st, items, strings.TrimSpace(r.Header.Get("Idempotency-Key")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	steps := []func() error{
		func() error { return flow.SetAddress(r.Context(), req.Customer, req.Address) },
		flow.Next,
		func() error { return flow.SetPayment(req.PaymentMethod, req.Notes) },
		flow.Next,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			writeError(w, r, err)
			return
		}
	}
	o, err := flow.Submit(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if fromCart {
		if id := cartID(r); id != "" {
			if err := h.carts.Clear(r.Context(), st.ID, id); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Msg("clear cart after checkout")
			}
		}
	}
	web.Respond(w, http.StatusCreated, o)
}

// lines returns the requested lines, falling back to the shopper's cart.
func (h *Handler) lines(r *http.Request, st *store.Store, items []order.LineRequest) ([]order.LineRequest, error) {
	if len(items) > 0 {
		return items, nil
	}
	id := cartID(r)
	if id == "" {
		return nil, nil
	}
	c, err := h.carts.Get(r.Context(), st.ID, id)
	if err != nil {
		return nil, err
	}
	lines := make([]order.LineRequest, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, order.LineRequest{ProductID: it.ProductID.String(), Quantity: it.Quantity})
	}
	return lines, nil
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	st := current(r)
	id := cartID(r)
	if id == "" {
		empty := &cart.Cart{StoreID: st.ID}
		web.Respond(w, http.StatusOK, empty.View())
		return
	}
	c, err := h.carts.Get(r.Context(), st.ID, id)
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, c.View())
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	st := current(r)
	id := h.ensureCart(w, r)
	c, err := h.carts.AddItem(r.Context(), st.ID, id, req.ProductID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, c.View())
}

func (h *Handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	st := current(r)
	id := cartID(r)
	if id == "" {
		web.Fail(w, http.StatusNotFound, "cart is empty")
		return
	}
	c, err := h.carts.RemoveItem(r.Context(), st.ID, id, chi.URLParam(r, "product_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, c.View())
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if id := cartID(r); id != "" {
		if err := h.carts.Clear(r.Context(), current(r).ID, id); err != nil {
			web.ServerError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func current(r *http.Request) *store.Store {
	st, _ := tenant.FromContext(r.Context())
	return st
}

func cartID(r *http.Request) string {
	c, err := r.Cookie(CartCookie)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) ensureCart(w http.ResponseWriter, r *http.Request) string {
	if id := cartID(r); id != "" {
		return id
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CartCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(cartCookieTTL),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		web.Fail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cart.ErrOutOfStock):
		web.Fail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		order.WriteError(w, r, err)
	}
}
