package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/zeromicro/go-zero/core/logx"
)

type CatalogSearchLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewCatalogSearchLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CatalogSearchLogic {
	return &CatalogSearchLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CatalogSearchLogic) Search(req *types.SearchRequest) (*types.SearchResponse, error) {
	items, err := l.svcCtx.Query.Search(l.ctx, catalog.SearchParams{Query: req.Q, PlatformID: req.Platform})
	if err != nil {
		return nil, err
	}
	mode, err := l.svcCtx.Query.SearchMode(l.ctx)
	if err != nil {
		return nil, err
	}
	return &types.SearchResponse{Items: items, Mode: mode}, nil
}
