package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/zeromicro/go-zero/core/logx"
)

type AdminGamesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewAdminGamesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AdminGamesLogic {
	return &AdminGamesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *AdminGamesLogic) List() (*types.AdminGamesResponse, error) {
	items, err := l.svcCtx.Query.AdminList(l.ctx)
	if err != nil {
		return nil, err
	}
	return &types.AdminGamesResponse{Items: items}, nil
}

// Get returns a game with its genre ids and images for the edit form.
func (l *AdminGamesLogic) Get(req *types.IDRequest) (*types.SaveGameResponse, error) {
	v, err := l.svcCtx.Query.GetForEdit(l.ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return editResponse(v, nil), nil
}

func editResponse(v *catalog.EditView, failures []catalog.ImageFailure) *types.SaveGameResponse {
	genres := v.GenreIDs
	if genres == nil {
		genres = []uint{}
	}
	images := v.Images
	if images == nil {
		images = []catalog.GameImage{}
	}
	resp := &types.SaveGameResponse{
		Game:     types.GameView{Game: v.Game, GenreIDs: genres, FinalPrice: v.Game.FinalPrice()},
		Images:   images,
		Failures: make([]types.ImageFailure, 0, len(failures)),
	}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, types.ImageFailure{FileName: f.FileName, Error: f.Err.Error()})
	}
	return resp
}
