package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func DashboardHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp, err := logic.NewDashboardLogic(r.Context(), svcCtx).Dashboard()
		if err != nil {
			writeError(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
