package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/auth"
	"github.com/zeromicro/go-zero/core/logx"
)

type AuthLoginLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAuthLoginLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AuthLoginLogic {
	return &AuthLoginLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Login issues a session token. clientAddr keys the attempt budget.
func (l *AuthLoginLogic) Login(req *types.LoginRequest, clientAddr string) (*auth.Session, error) {
	if req.Username == "" || req.Password == "" {
		return nil, auth.ErrUnauthorized
	}
	sess, err := l.svcCtx.Auth.Login(l.ctx, req.Username, req.Password, clientAddr)
	if err != nil {
		return nil, err
	}
	l.Infof("admin %s logged in from %s", sess.Username, clientAddr)
	return sess, nil
}
