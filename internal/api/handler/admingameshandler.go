package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func AdminGamesListHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := logic.NewAdminGamesLogic(r.Context(), svcCtx).List()
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}

func AdminGameGetHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.IDRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(r.Context(), w, invalid(err))
			return
		}
		resp, err := logic.NewAdminGamesLogic(r.Context(), svcCtx).Get(&req)
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
