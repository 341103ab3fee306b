package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func GameCreateHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, done, err := parseGameForm(w, r)
		defer done()
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		resp, err := logic.NewGameSaveLogic(r.Context(), svcCtx).Create(form)
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusCreated, resp)
		}
	}
}

func GameUpdateHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.IDRequest
		if err := httpx.ParsePath(r, &req); err != nil {
			writeError(r.Context(), w, invalid(err))
			return
		}
		form, done, err := parseGameForm(w, r)
		defer done()
		if err != nil {
			writeError(r.Context(), w, err)
			return
		}
		resp, err := logic.NewGameSaveLogic(r.Context(), svcCtx).Update(req.Id, form)
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
