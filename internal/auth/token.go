// Package auth is the admin session gate: password login against stored
// bcrypt hashes, signed session tokens, revocation and the permission check
// applied to admin routes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrRateLimited  = errors.New("too many login attempts")
)

// Claims are carried by a session token. Subject is the user id.
type Claims struct {
	Username string `json:"usr"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, issuer: "gamelink", now: time.Now}, nil
}

func (t *Tokens) Sign(userID, username, role string) (string, *Claims, error) {
	now := t.now()
	c := &Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return s, c, nil
}

// Verify checks signature, algorithm, issuer and expiry.
func (t *Tokens) Verify(raw string) (*Claims, error) {
	var c Claims
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	_, err := parser.ParseWithClaims(raw, &c, func(*jwt.Token) (any, error) { return t.secret, nil })
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if !c.VerifyIssuer(t.issuer, true) || c.Subject == "" || c.ID == "" {
		return nil, fmt.Errorf("%w: malformed claims", ErrUnauthorized)
	}
	if c.ExpiresAt == nil || !c.ExpiresAt.After(t.now()) {
		return nil, fmt.Errorf("%w: token expired", ErrUnauthorized)
	}
	return &c, nil
}
