package auth

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/web"
)

// Denial messages are deliberately generic; they never carry ids.
const (
	MsgUnauthenticated = "authentication required"
	MsgForbidden       = "you do not have access to this store"
)

// Owned is anything administered by a single owner.
type Owned interface {
	Owner() uuid.UUID
}

// CanAdminister reports whether id may manage s: its owner or a super-admin.
func CanAdminister(s Owned, id Identity) bool {
	if id.Anonymous() {
		return false
	}
	if id.SuperAdmin() {
		return true
	}
	return s.Owner() == id.ID
}

// RequireAuth answers 401 for anonymous callers.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()).Anonymous() {
			web.Fail(w, http.StatusUnauthorized, MsgUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSuperAdmin answers 401 for anonymous callers and 403 for everyone
// but the platform super-admin.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !FromContext(r.Context()).SuperAdmin() {
			web.Fail(w, http.StatusForbidden, "super-admin access required")
			return
		}
		next.ServeHTTP(w, r)
	}))
}
