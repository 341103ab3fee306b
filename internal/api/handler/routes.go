package handler

import (
	"net/http"

	"github.com/cuihairu/gamelink/internal/api/middleware"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/zeromicro/go-zero/rest"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{
				Method:  http.MethodGet,
				Path:    "/api/site",
				Handler: SiteHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/games",
				Handler: GamesListHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/games/:slug",
				Handler: GameDetailHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/catalog",
				Handler: CatalogSearchHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/platforms",
				Handler: PlatformsHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/api/genres",
				Handler: GenresHandler(serverCtx),
			},
			{
				Method:  http.MethodGet,
				Path:    "/uploads/:area/:name",
				Handler: MediaHandler(serverCtx),
			},
			{
				Method:  http.MethodPost,
				Path:    "/api/admin/login",
				Handler: AuthLoginHandler(serverCtx),
			},
		},
	)

	authn := middleware.NewAuthMiddleware(serverCtx)
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{authn.Handle},
			[]rest.Route{
				{
					Method:  http.MethodPost,
					Path:    "/api/admin/logout",
					Handler: AuthLogoutHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/api/admin/dashboard",
					Handler: DashboardHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/api/admin/games",
					Handler: AdminGamesListHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/api/admin/games/:id",
					Handler: AdminGameGetHandler(serverCtx),
				},
				{
					Method:  http.MethodPost,
					Path:    "/api/admin/games/:id/publish",
					Handler: GamePublishHandler(serverCtx),
				},
				{
					Method:  http.MethodDelete,
					Path:    "/api/admin/games/:id",
					Handler: GameDeleteHandler(serverCtx),
				},
				{
					Method:  http.MethodPost,
					Path:    "/api/admin/images/:id/cover",
					Handler: ImageCoverHandler(serverCtx),
				},
				{
					Method:  http.MethodDelete,
					Path:    "/api/admin/images/:id",
					Handler: ImageDeleteHandler(serverCtx),
				},
			}...,
		),
	)

	// Uploads may carry several full size images.
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{authn.Handle},
			[]rest.Route{
				{
					Method:  http.MethodPost,
					Path:    "/api/admin/games",
					Handler: GameCreateHandler(serverCtx),
				},
				{
					Method:  http.MethodPut,
					Path:    "/api/admin/games/:id",
					Handler: GameUpdateHandler(serverCtx),
				},
			}...,
		),
		rest.WithMaxBytes(maxGameForm),
		rest.WithTimeout(uploadTimeout),
	)
}
