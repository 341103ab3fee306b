package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/zeromicro/go-zero/core/logx"
)

// GameActionLogic covers the single-click admin actions on games and
// images.
type GameActionLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGameActionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GameActionLogic {
	return &GameActionLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GameActionLogic) TogglePublish(req *types.IDRequest) (*types.PublishResponse, error) {
	published, err := l.svcCtx.Repo.TogglePublish(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &types.PublishResponse{Id: req.Id, IsPublished: published}, nil
}

func (l *GameActionLogic) DeleteGame(req *types.IDRequest) (*types.DeleteResponse, error) {
	cleanup, err := l.svcCtx.Repo.DeleteGame(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	if !cleanup.OK() {
		l.Errorf("game %s deleted, %d files left in storage", req.Id, len(cleanup.Failed))
	}
	return &types.DeleteResponse{Id: req.Id, Deleted: true}, nil
}

func (l *GameActionLogic) SetCover(req *types.IDRequest) (*types.CoverResponse, error) {
	if err := l.svcCtx.Repo.SetCover(l.ctx, req.Id); err != nil {
		return nil, err
	}
	return &types.CoverResponse{Id: req.Id, IsCover: true}, nil
}

func (l *GameActionLogic) DeleteImage(req *types.IDRequest) (*types.DeleteResponse, error) {
	cleanup, err := l.svcCtx.Repo.DeleteImage(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	if !cleanup.OK() {
		l.Errorf("image %s deleted, %d files left in storage", req.Id, len(cleanup.Failed))
	}
	return &types.DeleteResponse{Id: req.Id, Deleted: true}, nil
}
