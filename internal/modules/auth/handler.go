package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// Handler exposes login, signup and session endpoints.
type Handler struct {
	service Service
	users   user.Service
	cookies Cookies
	limit   func(http.Handler) http.Handler
}

// NewHandler wires the auth endpoints. limit guards the credential endpoints
// (login, signup) and may be nil.
func NewHandler(service Service, users user.Service, cookies Cookies, limit func(http.Handler) http.Handler) *Handler {
	if limit == nil {
		limit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{service: service, users: users, cookies: cookies, limit: limit}
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(h.limit).Post("/login", h.login)   // POST /api/auth/login
		r.With(h.limit).Post("/signup", h.signup) // POST /api/auth/signup
		r.With(RequireAuth).Get("/me", h.me)      // GET  /api/auth/me
		r.Post("/logout", h.logout)               // POST /api/auth/logout
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		web.Fail(w, http.StatusBadRequest, "email and password are required")
		return
	}
	sess, err := h.service.Login(r.Context(), req.Email, req.Password)
	if errors.Is(err, user.ErrInvalidCredentials) {
		web.Fail(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	h.cookies.Set(w, r, sess.Token, sess.ExpiresAt)
	web.Respond(w, http.StatusOK, map[string]interface{}{"user": sess.User})
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req user.RegisterRequest
	if err := web.Decode(r, &req); err != nil {
		web.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := h.service.Signup(r.Context(), req)
	if err != nil {
		WriteUserError(w, r, err)
		return
	}
	h.cookies.Set(w, r, sess.Token, sess.ExpiresAt)
	web.Respond(w, http.StatusCreated, map[string]interface{}{"user": sess.User})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := FromContext(r.Context())
	u, err := h.users.GetUser(r.Context(), id.ID.String())
	if errors.Is(err, user.ErrNotFound) {
		// Signed token for a deleted account.
		h.cookies.Clear(w, r)
		web.Fail(w, http.StatusUnauthorized, MsgUnauthenticated)
		return
	}
	if err != nil {
		web.ServerError(w, r, err)
		return
	}
	web.Respond(w, http.StatusOK, map[string]interface{}{"user": u})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w, r)
	web.Respond(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// WriteUserError maps account creation failures to responses.
func WriteUserError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		web.Fail(w, http.StatusConflict, msg)
	case strings.Contains(msg, "required") || strings.Contains(msg, "invalid") || strings.Contains(msg, "at least"):
		web.Fail(w, http.StatusBadRequest, msg)
	default:
		web.ServerError(w, r, err)
	}
}
