package tenant

import (
	"context"
	"errors"
	"net/http"

	"github.com/georgemunganga/souq-backend/internal/modules/store"
	"github.com/georgemunganga/souq-backend/internal/web"
)

type ctxKey int

const storeKey ctxKey = iota

func NewContext(ctx context.Context, s *store.Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// FromContext returns the store resolved for the request.
func FromContext(ctx context.Context) (*store.Store, bool) {
	s, ok := ctx.Value(storeKey).(*store.Store)
	return s, ok && s != nil
}

// Middleware resolves the store for every request and answers 404 when the
// request addresses none.
func Middleware(r *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s, err := r.Resolve(req.Context(), req.Host, req.URL.Path)
			if errors.Is(err, ErrStoreNotFound) {
				web.Fail(w, http.StatusNotFound, err.Error())
				return
			}
			if err != nil {
				web.ServerError(w, req, err)
				return
			}
			next.ServeHTTP(w, req.WithContext(NewContext(req.Context(), s)))
		})
	}
}
