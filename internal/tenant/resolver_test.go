package tenant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/georgemunganga/souq-backend/internal/modules/store"
)

type fakeFinder struct {
	stores map[string]*store.Store
	calls  int
	err    error
}

func (f *fakeFinder) GetStoreBySlug(_ context.Context, slug string) (*store.Store, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if s, ok := f.stores[slug]; ok {
		return s, nil
	}
	return nil, store.ErrStoreNotFound
}

type mapCache map[string]*store.Store

func (m mapCache) Get(_ context.Context, slug string) (*store.Store, bool) {
	s, ok := m[slug]
	return s, ok
}
func (m mapCache) Set(_ context.Context, s *store.Store) { m[s.Slug] = s }
func (m mapCache) Delete(_ context.Context, slug string) { delete(m, slug) }

func newFinder() *fakeFinder {
	return &fakeFinder{stores: map[string]*store.Store{
		"my-shop": {ID: uuid.New(), Slug: "my-shop", Name: "My Shop", Template: "modern", Status: store.StatusActive},
		"closed":  {ID: uuid.New(), Slug: "closed", Name: "Closed", Template: "default", Status: store.StatusSuspended},
	}}
}

func TestSlug(t *testing.T) {
	r := NewResolver(newFinder(), nil, "souq.app", []string{"souq-preview.vercel.app"}, zerolog.Nop())

	tests := []struct {
		name string
		host string
		path string
		want string
	}{
		{name: "subdomain", host: "my-shop.souq.app", path: "/api/storefront", want: "my-shop"},
		{name: "subdomain with port", host: "My-Shop.souq.app:8443", path: "/", want: "my-shop"},
		{name: "www is the apex", host: "www.souq.app", path: "/api/storefront", want: ""},
		{name: "apex uses path", host: "souq.app", path: "/store/my-shop/api/storefront", want: "my-shop"},
		{name: "www uses path", host: "www.souq.app", path: "/store/my-shop", want: "my-shop"},
		{name: "localhost uses path", host: "localhost:8080", path: "/store/my-shop/api/storefront/products", want: "my-shop"},
		{name: "ip uses path", host: "127.0.0.1:8080", path: "/store/my-shop/", want: "my-shop"},
		{name: "preview host uses path", host: "souq-preview.vercel.app", path: "/store/demo/api/storefront", want: "demo"},
		{name: "nested subdomain", host: "a.b.souq.app", path: "/", want: ""},
		{name: "apex without prefix", host: "souq.app", path: "/api/storefront", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qt.New(t).Assert(r.Slug(tt.host, tt.path), qt.Equals, tt.want)
		})
	}
}

func TestResolve(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r := NewResolver(newFinder(), nil, "souq.app", nil, zerolog.Nop())

	s, err := r.Resolve(ctx, "my-shop.souq.app", "/")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Name, qt.Equals, "My Shop")

	_, err = r.Resolve(ctx, "missing.souq.app", "/")
	c.Assert(err, qt.Equals, ErrStoreNotFound)

	_, err = r.Resolve(ctx, "closed.souq.app", "/")
	c.Assert(err, qt.Equals, ErrStoreNotFound)

	_, err = r.Resolve(ctx, "souq.app", "/")
	c.Assert(err, qt.Equals, ErrStoreNotFound)
}

func TestResolveDemoFallback(t *testing.T) {
	c := qt.New(t)

	r := NewResolver(newFinder(), nil, "souq.app", nil, zerolog.Nop())
	s, err := r.Resolve(context.Background(), "demo.souq.app", "/")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Slug, qt.Equals, DemoSlug)
	c.Assert(s.Template, qt.Equals, store.DefaultTemplate)
	c.Assert(s.ID, qt.Equals, uuid.Nil)
	c.Assert(s.Public().Demo, qt.IsTrue)

	// A real store named demo wins over the showcase.
	f := newFinder()
	f.stores["demo"] = &store.Store{ID: uuid.New(), Slug: "demo", Name: "Real Demo", Template: "classic", Status: store.StatusActive}
	r = NewResolver(f, nil, "souq.app", nil, zerolog.Nop())
	s, err = r.Resolve(context.Background(), "localhost", "/store/demo")
	c.Assert(err, qt.IsNil)
	c.Assert(s.Name, qt.Equals, "Real Demo")
}

func TestResolveBackendError(t *testing.T) {
	c := qt.New(t)

	f := &fakeFinder{err: errors.New("connection refused")}
	r := NewResolver(f, nil, "souq.app", nil, zerolog.Nop())
	_, err := r.Resolve(context.Background(), "my-shop.souq.app", "/")
	c.Assert(err, qt.ErrorMatches, "connection refused")
}

func TestResolveCaches(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	f := newFinder()
	cache := mapCache{}
	r := NewResolver(f, cache, "souq.app", nil, zerolog.Nop())

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(ctx, "my-shop.souq.app", "/")
		c.Assert(err, qt.IsNil)
	}
	c.Assert(f.calls, qt.Equals, 1)

	r.Invalidate(ctx, "my-shop")
	_, err := r.Resolve(ctx, "my-shop.souq.app", "/")
	c.Assert(err, qt.IsNil)
	c.Assert(f.calls, qt.Equals, 2)
}

func TestMiddleware(t *testing.T) {
	c := qt.New(t)

	r := NewResolver(newFinder(), nil, "souq.app", nil, zerolog.Nop())
	var got *store.Store
	h := Middleware(r)(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = FromContext(req.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/storefront", nil)
	req.Host = "my-shop.souq.app"
	h.ServeHTTP(httptest.NewRecorder(), req)
	c.Assert(got, qt.Not(qt.IsNil))
	c.Assert(got.Slug, qt.Equals, "my-shop")

	req = httptest.NewRequest(http.MethodGet, "/api/storefront", nil)
	req.Host = "nobody.souq.app"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	c.Assert(rec.Body.String(), qt.Contains, "store not found")
}
