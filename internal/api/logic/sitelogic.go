package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/zeromicro/go-zero/core/logx"
)

type SiteLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSiteLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SiteLogic {
	return &SiteLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SiteLogic) Site() (*types.SiteResponse, error) {
	q := l.svcCtx.Query
	resp := &types.SiteResponse{MediaPrefix: l.svcCtx.Config.Storage.PublicPrefix}
	var err error
	if resp.Name, _, err = q.Setting(l.ctx, catalog.SettingSiteName); err != nil {
		return nil, err
	}
	if resp.WhatsappNumber, _, err = q.Setting(l.ctx, catalog.SettingWhatsapp); err != nil {
		return nil, err
	}
	if resp.SearchEngine, err = q.SearchMode(l.ctx); err != nil {
		return nil, err
	}
	return resp, nil
}
