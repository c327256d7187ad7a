package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

type ownedStore struct{ owner uuid.UUID }

func (s ownedStore) Owner() uuid.UUID { return s.owner }

func testUser() *user.User {
	return &user.User{ID: uuid.New(), Email: "owner@example.com", Role: user.RoleStoreOwner}
}

func TestCanAdminister(t *testing.T) {
	owner := uuid.New()
	store := ownedStore{owner: owner}

	tests := []struct {
		name string
		id   Identity
		want bool
	}{
		{name: "owner", id: Identity{ID: owner, Role: user.RoleStoreOwner}, want: true},
		{name: "super admin", id: Identity{ID: uuid.New(), Role: user.RoleSuperAdmin}, want: true},
		{name: "other owner", id: Identity{ID: uuid.New(), Role: user.RoleStoreOwner}, want: false},
		{name: "plain user", id: Identity{ID: uuid.New(), Role: user.RoleUser}, want: false},
		{name: "anonymous", id: Identity{}, want: false},
		{name: "anonymous claiming super admin", id: Identity{Role: user.RoleSuperAdmin}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(CanAdminister(store, tt.id), qt.Equals, tt.want)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	c := qt.New(t)

	u := testUser()
	issuer := NewTokenIssuer("secret-a")
	token, expires, err := issuer.Issue(u)
	c.Assert(err, qt.IsNil)
	c.Assert(time.Until(expires) > 23*time.Hour, qt.IsTrue)

	id, err := issuer.Verify(token)
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.DeepEquals, Identity{ID: u.ID, Email: u.Email, Role: user.RoleStoreOwner})
}

func TestTokenRejections(t *testing.T) {
	u := testUser()
	good := NewTokenIssuer("secret-a")

	expiredIssuer := NewTokenIssuer("secret-a")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(u)
	qt.Assert(t, err, qt.IsNil)

	foreign, _, err := NewTokenIssuer("secret-b").Issue(u)
	qt.Assert(t, err, qt.IsNil)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &claims{
		StandardClaims: jwt.StandardClaims{Subject: u.ID.String(), ExpiresAt: time.Now().Add(time.Hour).Unix()},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	qt.Assert(t, err, qt.IsNil)

	tests := []struct {
		name  string
		token string
	}{
		{name: "wrong secret", token: foreign},
		{name: "expired", token: expired},
		{name: "alg none", token: unsigned},
		{name: "garbage", token: "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := good.Verify(tt.token)
			c.Assert(err, qt.Equals, ErrInvalidToken)

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.token})
			c.Assert(NewCookieProvider(good).Identify(r).Anonymous(), qt.IsTrue)
		})
	}
}

func TestMiddlewareAttachesIdentity(t *testing.T) {
	c := qt.New(t)

	issuer := NewTokenIssuer("secret-a")
	u := testUser()
	token, _, err := issuer.Issue(u)
	c.Assert(err, qt.IsNil)

	var got Identity
	h := Middleware(NewCookieProvider(issuer))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	h.ServeHTTP(httptest.NewRecorder(), r)
	c.Assert(got.ID, qt.Equals, u.ID)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	c.Assert(got.Anonymous(), qt.IsTrue)
}

func TestRequireAuthAndSuperAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name    string
		handler http.Handler
		id      Identity
		want    int
	}{
		{name: "auth anonymous", handler: RequireAuth(ok), want: http.StatusUnauthorized},
		{name: "auth user", handler: RequireAuth(ok), id: Identity{ID: uuid.New(), Role: user.RoleUser}, want: http.StatusNoContent},
		{name: "admin anonymous", handler: RequireSuperAdmin(ok), want: http.StatusUnauthorized},
		{name: "admin owner", handler: RequireSuperAdmin(ok), id: Identity{ID: uuid.New(), Role: user.RoleStoreOwner}, want: http.StatusForbidden},
		{name: "admin super", handler: RequireSuperAdmin(ok), id: Identity{ID: uuid.New(), Role: user.RoleSuperAdmin}, want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r = r.WithContext(NewContext(r.Context(), tt.id))
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, r)
			c.Assert(rec.Code, qt.Equals, tt.want)
		})
	}
}

func TestCookieDomain(t *testing.T) {
	cookies := Cookies{RootDomain: "souq.app", PathRoutingHosts: []string{"souq-preview.vercel.app"}}

	tests := []struct {
		host string
		want string
	}{
		{host: "souq.app", want: ".souq.app"},
		{host: "my-shop.souq.app:443", want: ".souq.app"},
		{host: "localhost:8080", want: ""},
		{host: "souq-preview.vercel.app", want: ""},
		{host: "elsewhere.com", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			qt.New(t).Assert(cookies.Domain(tt.host), qt.Equals, tt.want)
		})
	}
}
