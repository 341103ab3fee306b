package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/auth"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/media"
	"github.com/zeromicro/go-zero/core/logx"
)

// GameForm is a decoded create or update submission.
type GameForm struct {
	Input    catalog.GameInput
	GenreIDs []uint
	Mode     catalog.ImageMode
	Uploads  []media.Upload
}

type GameSaveLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewGameSaveLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GameSaveLogic {
	return &GameSaveLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GameSaveLogic) Create(form *GameForm) (*types.SaveGameResponse, error) {
	p, ok := svc.PrincipalFrom(l.ctx)
	if !ok {
		return nil, auth.ErrUnauthorized
	}
	res, err := l.svcCtx.Repo.CreateGame(l.ctx, form.Input, form.GenreIDs, form.Uploads, p.UserID)
	if err != nil {
		return nil, err
	}
	return l.reload(res.Game.ID, res.Failures)
}

func (l *GameSaveLogic) Update(id string, form *GameForm) (*types.SaveGameResponse, error) {
	batch := catalog.ImageBatch{Mode: form.Mode, Uploads: form.Uploads}
	res, err := l.svcCtx.Repo.UpdateGame(l.ctx, id, form.Input, form.GenreIDs, batch)
	if err != nil {
		return nil, err
	}
	if !res.Cleanup.OK() {
		l.Errorf("game %s: %d replaced files left in storage", id, len(res.Cleanup.Failed))
	}
	resp, err := l.reload(id, res.Failures)
	if err != nil {
		return nil, err
	}
	if form.Mode == catalog.ImagesReplace {
		replaced := res.Replaced
		resp.Replaced = &replaced
	}
	return resp, nil
}

func (l *GameSaveLogic) reload(id string, failures []catalog.ImageFailure) (*types.SaveGameResponse, error) {
	v, err := l.svcCtx.Query.GetForEdit(l.ctx, id)
	if err != nil {
		return nil, err
	}
	return editResponse(v, failures), nil
}
