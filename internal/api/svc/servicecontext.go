package svc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cuihairu/gamelink/internal/auth"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/config"
	"github.com/cuihairu/gamelink/internal/db"
	"github.com/cuihairu/gamelink/internal/media"
	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/cuihairu/gamelink/internal/provision"
	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

type ServiceContext struct {
	Config config.Config

	DB     *gorm.DB
	Store  objstore.Store
	Images *media.Ingestor
	Repo   *catalog.Repo
	Query  *catalog.Query
	Auth   *auth.Service
	Gate   *auth.Gate

	redis redis.UniversalClient
}

// Open connects the database and object store, provisions the schema and
// builds the service context.
func Open(ctx context.Context, c config.Config) (*ServiceContext, error) {
	gdb, err := db.Open(c.DB)
	if err != nil {
		return nil, err
	}
	rep, err := provision.Run(ctx, gdb, c.ProvisionOptions())
	if err != nil {
		_ = db.Close(gdb)
		return nil, err
	}
	logx.Infof("provisioned in %s, search engine %s", rep.Duration, rep.SearchEngine)
	store, err := objstore.Open(ctx, c.Storage)
	if err != nil {
		_ = db.Close(gdb)
		return nil, fmt.Errorf("storage: %w", err)
	}
	sc, err := New(c, gdb, store)
	if err != nil {
		_ = db.Close(gdb)
		return nil, err
	}
	return sc, nil
}

// New wires the services on top of an opened database and store.
func New(c config.Config, gdb *gorm.DB, store objstore.Store) (*ServiceContext, error) {
	tokens, err := auth.NewTokens(c.Auth.Secret, c.Auth.TokenTTL)
	if err != nil {
		return nil, err
	}
	gate, err := auth.NewGate()
	if err != nil {
		return nil, err
	}
	sc := &ServiceContext{Config: c, DB: gdb, Store: store, Gate: gate}

	var revoked auth.Revocations = auth.NewMemoryRevocations()
	if addr := strings.TrimSpace(c.Auth.RedisAddr); addr != "" {
		sc.redis = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    strings.Split(addr, ","),
			Password: c.Auth.RedisPassword,
		})
		revoked = auth.NewRedisRevocations(sc.redis)
	}

	sc.Images = media.NewIngestor(store)
	sc.Repo = catalog.NewRepo(gdb, sc.Images)
	sc.Query = catalog.NewQuery(gdb)
	sc.Auth = auth.NewService(gdb, tokens, revoked, auth.NewLimiter(c.Auth.LoginPerMinute, c.Auth.LoginBurst))
	return sc, nil
}

func (s *ServiceContext) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	errs = append(errs, db.Close(s.DB))
	return errors.Join(errs...)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate resolves the caller of r.
func (s *ServiceContext) Authenticate(r *http.Request) (*auth.Principal, error) {
	raw := BearerToken(r)
	if raw == "" {
		return nil, auth.ErrUnauthorized
	}
	return s.Auth.Authenticate(r.Context(), raw)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(catalog.WithActor(ctx, p.UserID), principalKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*auth.Principal)
	return p, ok
}
