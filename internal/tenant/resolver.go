// Package tenant maps storefront requests to the store they address.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/georgemunganga/souq-backend/internal/modules/store"
)

// ErrStoreNotFound is returned for hosts and paths that address no live store.
var ErrStoreNotFound = errors.New("store not found")

// DemoSlug resolves to a built-in showcase store when no real store owns it.
const DemoSlug = "demo"

// Finder looks stores up by slug.
type Finder interface {
	GetStoreBySlug(ctx context.Context, slug string) (*store.Store, error)
}

// Cache holds recently resolved stores.
type Cache interface {
	Get(ctx context.Context, slug string) (*store.Store, bool)
	Set(ctx context.Context, s *store.Store)
	Delete(ctx context.Context, slug string)
}

// Resolver turns a host and path into a store. Stores are addressed by
// subdomain of the root domain, or by a /store/{slug} path prefix on hosts
// that cannot carry wildcard subdomains.
type Resolver struct {
	finder     Finder
	cache      Cache
	rootDomain string
	pathHosts  map[string]bool
	log        zerolog.Logger
}

// NewResolver builds a resolver. cache may be nil.
func NewResolver(finder Finder, cache Cache, rootDomain string, pathRoutingHosts []string, log zerolog.Logger) *Resolver {
	hosts := make(map[string]bool, len(pathRoutingHosts))
	for _, h := range pathRoutingHosts {
		hosts[strings.ToLower(h)] = true
	}
	return &Resolver{
		finder:     finder,
		cache:      cache,
		rootDomain: strings.ToLower(strings.TrimPrefix(rootDomain, ".")),
		pathHosts:  hosts,
		log:        log,
	}
}

// Slug extracts the candidate slug from a request, or "" when the request
// addresses no store.
func (r *Resolver) Slug(host, path string) string {
	h := strings.ToLower(strings.TrimSuffix(host, "."))
	if hh, _, err := net.SplitHostPort(h); err == nil {
		h = hh
	}

	if !r.pathRouted(h) && strings.HasSuffix(h, "."+r.rootDomain) {
		sub := strings.TrimSuffix(h, "."+r.rootDomain)
		if sub != "www" {
			if strings.Contains(sub, ".") {
				return ""
			}
			return sub
		}
	}
	return slugFromPath(path)
}

func (r *Resolver) pathRouted(host string) bool {
	if host == "localhost" || host == r.rootDomain || r.pathHosts[host] {
		return true
	}
	return net.ParseIP(host) != nil
}

// slugFromPath reads /store/{slug}/...
func slugFromPath(path string) string {
	rest, ok := strings.CutPrefix(path, "/store/")
	if !ok {
		return ""
	}
	slug, _, _ := strings.Cut(rest, "/")
	return strings.ToLower(slug)
}

// Resolve returns the store a request addresses.
func (r *Resolver) Resolve(ctx context.Context, host, path string) (*store.Store, error) {
	slug := r.Slug(host, path)
	if slug == "" {
		return nil, ErrStoreNotFound
	}
	return r.Lookup(ctx, slug)
}

// Lookup finds a live store by slug. Suspended stores are not found; the
// demo slug falls back to the showcase store.
func (r *Resolver) Lookup(ctx context.Context, slug string) (*store.Store, error) {
	if r.cache != nil {
		if s, ok := r.cache.Get(ctx, slug); ok {
			return s, nil
		}
	}

	s, err := r.finder.GetStoreBySlug(ctx, slug)
	if errors.Is(err, store.ErrStoreNotFound) {
		if slug == DemoSlug {
			return DemoStore(), nil
		}
		return nil, ErrStoreNotFound
	}
	if err != nil {
		return nil, err
	}
	if s.Status != store.StatusActive {
		return nil, ErrStoreNotFound
	}

	if r.cache != nil {
		r.cache.Set(ctx, s)
	}
	return s, nil
}

// Invalidate drops a cached store; called whenever a store changes.
func (r *Resolver) Invalidate(ctx context.Context, slug string) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, slug)
	r.log.Debug().Str("slug", slug).Msg("tenant cache invalidated")
}

// DemoStore is the showcase store rendered with the default template. It has
// no id, owner or catalog.
func DemoStore() *store.Store {
	return &store.Store{
		Slug:     DemoSlug,
		Name:     "Demo Store",
		Template: store.DefaultTemplate,
		Status:   store.StatusActive,
		Plan:     "free",
	}
}
