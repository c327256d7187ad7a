package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

// Identity is the caller of a request. The zero value is anonymous.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
}

// Anonymous reports whether no valid session was presented.
func (i Identity) Anonymous() bool {
	return i.ID == uuid.Nil
}

func (i Identity) SuperAdmin() bool {
	return !i.Anonymous() && i.Role == user.RoleSuperAdmin
}

type ctxKey int

const identityKey ctxKey = iota

// NewContext returns a copy of ctx carrying id.
func NewContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the request identity, anonymous when none was set.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
