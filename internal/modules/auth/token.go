package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/georgemunganga/souq-backend/internal/modules/user"
)

const sessionTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

type claims struct {
	Email string    `json:"email"`
	Role  user.Role `json:"role"`
	jwt.StandardClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: sessionTTL, now: time.Now}
}

// Issue returns a signed token for u and its expiry.
func (t *TokenIssuer) Issue(u *user.User) (string, time.Time, error) {
	issuedAt := t.now()
	expiresAt := issuedAt.Add(t.ttl)
	c := &claims{
		Email: u.Email,
		Role:  u.Role,
		StandardClaims: jwt.StandardClaims{
			Subject:   u.ID.String(),
			IssuedAt:  issuedAt.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the identity the
// token carries.
func (t *TokenIssuer) Verify(token string) (Identity, error) {
	c := &claims{}
	parsed, err := jwt.ParseWithClaims(token, c, func(tok *jwt.Token) (interface{}, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Identity{}, ErrInvalidToken
	}
	if c.ExpiresAt == 0 {
		return Identity{}, ErrInvalidToken
	}
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: id, Email: c.Email, Role: c.Role}, nil
}
