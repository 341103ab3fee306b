package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/zeromicro/go-zero/rest/httpx"
)

// gameAction adapts a path-id action of GameActionLogic to a handler.
func gameAction[T any](svcCtx *svc.ServiceContext, run func(*logic.GameActionLogic, *types.IDRequest) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.IDRequest
		if err := httpx.ParsePath(r, &req); err != nil {
			writeError(r.Context(), w, invalid(err))
			return
		}
		resp, err := run(logic.NewGameActionLogic(r.Context(), svcCtx), &req)
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func GamePublishHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return gameAction(svcCtx, (*logic.GameActionLogic).TogglePublish)
}

func GameDeleteHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return gameAction(svcCtx, (*logic.GameActionLogic).DeleteGame)
}

func ImageCoverHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return gameAction(svcCtx, (*logic.GameActionLogic).SetCover)
}

func ImageDeleteHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return gameAction(svcCtx, (*logic.GameActionLogic).DeleteImage)
}
