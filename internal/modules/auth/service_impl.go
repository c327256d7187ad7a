package auth

import (
	"context"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

type service struct {
	users  user.Service
	tokens *TokenIssuer
}

// NewService creates a new auth service.
func NewService(users user.Service, tokens *TokenIssuer) Service {
	return &service{users: users, tokens: tokens}
}

func (s *service) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.Issue(u)
}

func (s *service) Signup(ctx context.Context, req user.RegisterRequest) (*Session, error) {
	req.Role = user.RoleUser
	u, err := s.users.RegisterUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Issue(u)
}

func (s *service) Issue(u *user.User) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, ExpiresAt: expiresAt}, nil
}
