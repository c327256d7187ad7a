package user

import (
	"context"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
)

type memRepo struct {
	mu    sync.Mutex
	users map[string]*User
}

func newMemRepo() *memRepo { return &memRepo{users: map[string]*User{}} }

func (m *memRepo) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	m.users[u.ID.String()] = u
	return nil
}

func (m *memRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRepo) GetUserByID(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, ErrNotFound
}

func (m *memRepo) ListUsers(context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memRepo) UpdateRole(_ context.Context, id string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Role = role
	return nil
}

func TestRegisterAndAuthenticate(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := NewService(newMemRepo())

	u, err := svc.RegisterUser(ctx, RegisterRequest{Email: "  Owner@Example.com ", Password: "s3cret-pass", FullName: "Owner"})
	c.Assert(err, qt.IsNil)
	c.Assert(u.Email, qt.Equals, "owner@example.com")
	c.Assert(u.Role, qt.Equals, RoleUser)
	c.Assert(u.PasswordHash, qt.Not(qt.Equals), "s3cret-pass")

	got, err := svc.Authenticate(ctx, "OWNER@example.com", "s3cret-pass")
	c.Assert(err, qt.IsNil)
	c.Assert(got.ID, qt.Equals, u.ID)

	_, err = svc.Authenticate(ctx, "owner@example.com", "wrong-pass")
	c.Assert(err, qt.Equals, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	c.Assert(err, qt.Equals, ErrInvalidCredentials)

	_, err = svc.RegisterUser(ctx, RegisterRequest{Email: "owner@example.com", Password: "another-pass"})
	c.Assert(err, qt.Equals, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr string
	}{
		{name: "missing email", req: RegisterRequest{Password: "long-enough"}, wantErr: "email is required"},
		{name: "bad email", req: RegisterRequest{Email: "not-an-email", Password: "long-enough"}, wantErr: "invalid email address"},
		{name: "short password", req: RegisterRequest{Email: "a@b.co", Password: "short"}, wantErr: "password must be at least 8 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := NewService(newMemRepo()).RegisterUser(context.Background(), tt.req)
			c.Assert(err, qt.ErrorMatches, tt.wantErr)
		})
	}
}

func TestPromote(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := NewService(newMemRepo())

	_, err := svc.RegisterUser(ctx, RegisterRequest{Email: "root@souq.app", Password: "s3cret-pass"})
	c.Assert(err, qt.IsNil)

	u, err := svc.Promote(ctx, "ROOT@souq.app")
	c.Assert(err, qt.IsNil)
	c.Assert(u.Role, qt.Equals, RoleSuperAdmin)

	_, err = svc.Promote(ctx, "missing@souq.app")
	c.Assert(err, qt.Equals, ErrNotFound)
}
