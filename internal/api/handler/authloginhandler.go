package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/api/types"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func AuthLoginHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := httpx.Parse(r, &req); err != nil {
			writeError(r.Context(), w, invalid(err))
			return
		}
		l := logic.NewAuthLoginLogic(r.Context(), svcCtx)
		resp, err := l.Login(&req, httpx.GetRemoteAddr(r))
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
