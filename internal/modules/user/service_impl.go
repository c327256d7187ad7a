package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	u, err := NewUser(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, NormaliseEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *service) Promote(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetUserByEmail(ctx, NormaliseEmail(email))
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, u.ID.String(), RoleSuperAdmin); err != nil {
		return nil, fmt.Errorf("promote %s: %w", u.Email, err)
	}
	u.Role = RoleSuperAdmin
	return u, nil
}

// NewUser validates a signup and hashes its password without persisting
// anything; store registration uses it to create owner and store together.
func NewUser(req RegisterRequest) (*User, error) {
	email := NormaliseEmail(req.Email)
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	role := req.Role
	if role == "" {
		role = RoleUser
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(req.FullName),
		Role:         role,
	}, nil
}

func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
