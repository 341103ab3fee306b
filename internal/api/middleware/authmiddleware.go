package middleware

import (
	"errors"
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/auth"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// AuthMiddleware requires a valid session and lets the gate decide whether
// the caller's role may use the route.
type AuthMiddleware struct {
	ctx *svc.ServiceContext
}

func NewAuthMiddleware(ctx *svc.ServiceContext) *AuthMiddleware {
	return &AuthMiddleware{ctx: ctx}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := m.ctx.Authenticate(r)
		if err != nil {
			if !errors.Is(err, auth.ErrUnauthorized) {
				logx.WithContext(r.Context()).Errorf("authenticate: %v", err)
				httpx.WriteJsonCtx(r.Context(), w, http.StatusInternalServerError, map[string]any{
					"code":    http.StatusInternalServerError,
					"message": "internal error",
				})
				return
			}
			httpx.WriteJsonCtx(r.Context(), w, http.StatusUnauthorized, map[string]any{
				"code":    http.StatusUnauthorized,
				"message": "unauthorized",
			})
			return
		}
		if !m.ctx.Gate.Can(p.Role, r.URL.Path, r.Method) {
			logx.WithContext(r.Context()).Infof("permission denied: user=%s role=%s %s %s", p.Username, p.Role, r.Method, r.URL.Path)
			httpx.WriteJsonCtx(r.Context(), w, http.StatusForbidden, map[string]any{
				"code":    http.StatusForbidden,
				"message": "forbidden",
			})
			return
		}
		next(w, r.WithContext(svc.WithPrincipal(r.Context(), p)))
	}
}
