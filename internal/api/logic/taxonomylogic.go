package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/zeromicro/go-zero/core/logx"
)

// TaxonomyLogic serves the platform and genre lists used by filters and
// the game form.
type TaxonomyLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewTaxonomyLogic(ctx context.Context, svcCtx *svc.ServiceContext) *TaxonomyLogic {
	return &TaxonomyLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *TaxonomyLogic) Platforms() (*types.PlatformsResponse, error) {
	items, err := l.svcCtx.Query.Platforms(l.ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []catalog.Platform{}
	}
	return &types.PlatformsResponse{Items: items}, nil
}

func (l *TaxonomyLogic) Genres() (*types.GenresResponse, error) {
	items, err := l.svcCtx.Query.Genres(l.ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []catalog.Genre{}
	}
	return &types.GenresResponse{Items: items}, nil
}
