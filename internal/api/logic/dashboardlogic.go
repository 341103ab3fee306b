package logic

import (
	"context"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/zeromicro/go-zero/core/logx"
)

type DashboardLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDashboardLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DashboardLogic {
	return &DashboardLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DashboardLogic) Dashboard() (*types.DashboardResponse, error) {
	d, err := l.svcCtx.Query.Dashboard(l.ctx)
	if err != nil {
		return nil, err
	}
	mode, err := l.svcCtx.Query.SearchMode(l.ctx)
	if err != nil {
		return nil, err
	}
	return &types.DashboardResponse{Dashboard: d, SearchEngine: mode}, nil
}
