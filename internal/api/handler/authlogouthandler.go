package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func AuthLogoutHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewAuthLogoutLogic(r.Context(), svcCtx)
		resp, err := l.Logout(svc.BearerToken(r))
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
