package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash is compared against when the username is unknown so both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, _ := bcrypt.GenerateFromPassword([]byte("gamelink"), bcrypt.DefaultCost)
	return h
})

// Principal is the authenticated caller of an admin request.
type Principal struct {
	UserID    string
	Username  string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
}

type Service struct {
	db      *gorm.DB
	tokens  *Tokens
	revoked Revocations
	limiter *Limiter
}

func NewService(db *gorm.DB, tokens *Tokens, revoked Revocations, limiter *Limiter) *Service {
	if revoked == nil {
		revoked = NewMemoryRevocations()
	}
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}
	return &Service{db: db, tokens: tokens, revoked: revoked, limiter: limiter}
}

// Login verifies the password of an active user and issues a session
// token. clientKey identifies the caller for rate limiting.
func (s *Service) Login(ctx context.Context, username, password, clientKey string) (*Session, error) {
	username = strings.TrimSpace(username)
	if !s.limiter.Allow(clientKey + "|" + strings.ToLower(username)) {
		return nil, ErrRateLimited
	}
	var u catalog.User
	err := s.db.WithContext(ctx).Where("username = ? AND is_active = ?", username, true).Take(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		logx.WithContext(ctx).Infof("auth: login rejected for unknown or inactive user %q", username)
		return nil, ErrUnauthorized
	case err != nil:
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		logx.WithContext(ctx).Infof("auth: bad password for %q", username)
		return nil, ErrUnauthorized
	}
	tok, c, err := s.tokens.Sign(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, ExpiresAt: c.ExpiresAt.Time, UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Authenticate resolves a bearer token to its principal. Revoked tokens and
// tokens of deactivated users are rejected.
func (s *Service) Authenticate(ctx context.Context, raw string) (*Principal, error) {
	c, err := s.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}
	revoked, err := s.revoked.IsRevoked(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrUnauthorized
	}
	var n int64
	err = s.db.WithContext(ctx).Model(&catalog.User{}).
		Where("id = ? AND is_active = ?", c.Subject, true).Count(&n).Error
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrUnauthorized
	}
	return &Principal{UserID: c.Subject, Username: c.Username, Role: c.Role, TokenID: c.ID, ExpiresAt: c.ExpiresAt.Time}, nil
}

// Logout revokes the token until its expiry.
func (s *Service) Logout(ctx context.Context, raw string) error {
	c, err := s.tokens.Verify(raw)
	if err != nil {
		return err
	}
	return s.revoked.Revoke(ctx, c.ID, c.ExpiresAt.Time)
}
