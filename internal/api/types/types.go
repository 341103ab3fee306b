package types

import (
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/shopspring/decimal"
)

type GamesListRequest struct {
	Limit int `form:"limit,optional,range=[0:100]"`
}

type SearchRequest struct {
	Q        string `form:"q,optional"`
	Platform uint   `form:"platform,optional"`
}

type SlugRequest struct {
	Slug string `path:"slug"`
}

type IDRequest struct {
	Id string `path:"id"`
}

type MediaRequest struct {
	Area string `path:"area"`
	Name string `path:"name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CardsResponse struct {
	Items []catalog.Card `json:"items"`
}

type SearchResponse struct {
	Items []catalog.Card `json:"items"`
	Mode  string         `json:"mode"`
}

type PlatformsResponse struct {
	Items []catalog.Platform `json:"items"`
}

type GenresResponse struct {
	Items []catalog.Genre `json:"items"`
}

type SiteResponse struct {
	Name           string `json:"name"`
	WhatsappNumber string `json:"whatsapp_number"`
	SearchEngine   string `json:"search_engine"`
	MediaPrefix    string `json:"media_prefix"`
}

type LogoutResponse struct {
	LoggedOut bool `json:"logged_out"`
}

// GameView is a game as the admin screens see it.
type GameView struct {
	catalog.Game
	GenreIDs   []uint          `json:"genre_ids"`
	FinalPrice decimal.Decimal `json:"final_price"`
}

type ImageFailure struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

type SaveGameResponse struct {
	Game     GameView            `json:"game"`
	Images   []catalog.GameImage `json:"images"`
	Failures []ImageFailure      `json:"failures"`
	// Replaced is set on updates that asked for image replacement.
	Replaced *bool `json:"replaced,omitempty"`
}

type PublishResponse struct {
	Id          string `json:"id"`
	IsPublished bool   `json:"is_published"`
}

type DeleteResponse struct {
	Id      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type CoverResponse struct {
	Id      string `json:"id"`
	IsCover bool   `json:"is_cover"`
}

type DashboardResponse struct {
	catalog.Dashboard
	SearchEngine string `json:"search_engine"`
}

type AdminGamesResponse struct {
	Items []catalog.Card `json:"items"`
}
