package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/auth"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/media"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		httpx.WriteJsonCtx(ctx, w, http.StatusBadRequest, map[string]any{
			"code":    http.StatusBadRequest,
			"message": ve.Error(),
			"field":   ve.Field,
		})
	case errors.Is(err, logic.ErrInvalidRequest), errors.Is(err, media.ErrUnsupportedFormat):
		writeStatus(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		writeStatus(ctx, w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrUnauthorized):
		writeStatus(ctx, w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrForbidden):
		writeStatus(ctx, w, http.StatusForbidden, "forbidden")
	case errors.Is(err, auth.ErrRateLimited):
		writeStatus(ctx, w, http.StatusTooManyRequests, "too many login attempts")
	default:
		logx.WithContext(ctx).Errorf("request failed: %v", err)
		writeStatus(ctx, w, http.StatusInternalServerError, "internal error")
	}
}

func writeStatus(ctx context.Context, w http.ResponseWriter, code int, msg string) {
	httpx.WriteJsonCtx(ctx, w, code, map[string]any{"code": code, "message": msg})
}

// invalid wraps a request decoding error so it maps to 400.
func invalid(err error) error {
	return fmt.Errorf("%w: %v", logic.ErrInvalidRequest, err)
}
