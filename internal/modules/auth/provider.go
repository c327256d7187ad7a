package auth

import (
	"net"
	"net/http"
	"strings"
	"time"
)

const SessionCookie = "souq_session"

// IdentityProvider turns a request into the caller's identity. It never
// fails: anything short of a valid session is anonymous.
type IdentityProvider interface {
	Identify(r *http.Request) Identity
}

// CookieProvider reads the signed session cookie.
type CookieProvider struct {
	tokens *TokenIssuer
}

func NewCookieProvider(tokens *TokenIssuer) *CookieProvider {
	return &CookieProvider{tokens: tokens}
}

func (p *CookieProvider) Identify(r *http.Request) Identity {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return Identity{}
	}
	id, err := p.tokens.Verify(c.Value)
	if err != nil {
		return Identity{}
	}
	return id
}

// Middleware stores the identity of every request in its context.
func Middleware(p IdentityProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), p.Identify(r))))
		})
	}
}

// Cookies writes and clears the session cookie. On hosts under the root
// domain the cookie is scoped to every subdomain so the dashboard and the
// storefronts share a session; localhost and preview hosts get a host-only
// cookie.
type Cookies struct {
	RootDomain       string
	PathRoutingHosts []string
	Secure           bool
}

func (c Cookies) Set(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Domain:   c.Domain(r.Host),
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c Cookies) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   c.Domain(r.Host),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Domain returns the cookie domain for a request host, empty for a
// host-only cookie.
func (c Cookies) Domain(host string) string {
	h := strings.ToLower(host)
	if hh, _, err := net.SplitHostPort(h); err == nil {
		h = hh
	}
	if h == "localhost" || strings.HasSuffix(h, ".localhost") || c.RootDomain == "localhost" {
		return ""
	}
	for _, preview := range c.PathRoutingHosts {
		if h == preview {
			return ""
		}
	}
	if h == c.RootDomain || strings.HasSuffix(h, "."+c.RootDomain) {
		return "." + c.RootDomain
	}
	return ""
}
