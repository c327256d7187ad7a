package auth

import (
	"context"
	"time"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

// Session is a freshly issued login.
type Session struct {
	User      *user.User
	Token     string
	ExpiresAt time.Time
}

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Signup(ctx context.Context, req user.RegisterRequest) (*Session, error)
	// Issue starts a session for an already authenticated user.
	Issue(u *user.User) (*Session, error)
}
