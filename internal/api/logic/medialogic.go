package logic

import (
	"context"
	"os"
	"strings"

	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/zeromicro/go-zero/core/logx"
)

var mediaAreas = map[string]bool{"originals": true, "thumbs": true}

// MediaTarget says where a media request is served from: a local file, or
// a redirect to the object store.
type MediaTarget struct {
	LocalPath string
	URL       string
}

type MediaLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMediaLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MediaLogic {
	return &MediaLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *MediaLogic) Resolve(req *types.MediaRequest) (*MediaTarget, error) {
	if !mediaAreas[req.Area] || req.Name == "" || strings.HasPrefix(req.Name, ".") ||
		strings.ContainsAny(req.Name, `/\`) {
		return nil, catalog.ErrNotFound
	}
	key := req.Area + "/" + req.Name
	if fs, ok := l.svcCtx.Store.(*objstore.FileStore); ok {
		p := fs.LocalPath(key)
		if st, err := os.Stat(p); err != nil || st.IsDir() {
			return nil, catalog.ErrNotFound
		}
		return &MediaTarget{LocalPath: p}, nil
	}
	u, err := l.svcCtx.Store.SignedURL(l.ctx, key, "GET", l.svcCtx.Config.Storage.SignedURLTTL)
	if err != nil {
		return nil, err
	}
	return &MediaTarget{URL: u}, nil
}
