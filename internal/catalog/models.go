// Package catalog holds the game listings: the gorm models, the write-side
// Repo and the read-side Query used by the storefront and the admin pages.
package catalog

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// RoleAdmin is the only role a user row may carry.
const RoleAdmin = "ADMIN"

// Game is a sellable listing.
type Game struct {
	ID               string          `gorm:"primaryKey;size:40" json:"id"`
	Slug             string          `gorm:"size:200;not null;uniqueIndex" json:"slug"`
	Title            string          `gorm:"size:200;not null" json:"title"`
	Description      string          `gorm:"type:text;not null;default:''" json:"description"`
	PlatformID       uint            `gorm:"not null;index" json:"platform_id"`
	Platform         *Platform       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	BasePrice        decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_games_base_price,base_price >= 0" json:"base_price"`
	DiscountPct      decimal.Decimal `gorm:"type:numeric(5,2);not null;check:chk_games_discount_pct,discount_pct >= 0 AND discount_pct <= 95" json:"discount_pct"`
	WhatsappOverride *string         `gorm:"size:32" json:"whatsapp_override"`
	IsPublished      bool            `gorm:"not null;index" json:"is_published"`
	CreatedBy        string          `gorm:"size:40;not null;index" json:"created_by"`
	Creator          *User           `gorm:"foreignKey:CreatedBy;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt        time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Images     []GameImage `gorm:"constraint:OnDelete:CASCADE" json:"images,omitempty"`
	GenreLinks []GameGenre `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Game) TableName() string { return "games" }

// FinalPrice is the base price with the discount applied, rounded to cents.
func (g *Game) FinalPrice() decimal.Decimal { return FinalPrice(g.BasePrice, g.DiscountPct) }

// FinalPrice computes base * (100 - pct) / 100 rounded to two decimals.
func FinalPrice(base, pct decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return base.Mul(hundred.Sub(pct)).Div(hundred).Round(2)
}

type Platform struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

func (Platform) TableName() string { return "platforms" }

type Genre struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;not null;uniqueIndex" json:"name"`
}

func (Genre) TableName() string { return "genres" }

// GameGenre links a game to one genre.
type GameGenre struct {
	GameID  string `gorm:"primaryKey;size:40" json:"game_id"`
	GenreID uint   `gorm:"primaryKey;index" json:"genre_id"`
	Genre   *Genre `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

func (GameGenre) TableName() string { return "game_genres" }

// GameImage is one uploaded picture of a game. FilePath and ThumbPath are
// storage keys relative to the storage root. At most one image per game is
// the cover; OrderIdx starts at 0 and may have gaps.
type GameImage struct {
	ID        string `gorm:"primaryKey;size:40" json:"id"`
	GameID    string `gorm:"size:40;not null;index" json:"game_id"`
	FileName  string `gorm:"size:255;not null" json:"file_name"`
	FilePath  string `gorm:"size:512;not null" json:"file_path"`
	ThumbPath string `gorm:"size:512;not null" json:"thumb_path"`
	IsCover   bool   `gorm:"not null" json:"is_cover"`
	OrderIdx  int    `gorm:"not null" json:"order_idx"`
}

func (GameImage) TableName() string { return "game_images" }

// Setting keys read by the application.
const (
	SettingSiteName     = "site_name"
	SettingWhatsapp     = "whatsapp_number"
	SettingSearchEngine = "search_engine"

	SearchFTS  = "fts"
	SearchLike = "like"
)

type Setting struct {
	Key   string `gorm:"primaryKey;size:64" json:"key"`
	Value string `gorm:"type:text;not null" json:"value"`
}

func (Setting) TableName() string { return "settings" }

// User is an admin account. Rows are only created by provisioning.
type User struct {
	ID           string    `gorm:"primaryKey;size:40" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null;check:chk_users_role,role IN ('ADMIN')" json:"role"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// AuditLog records one catalog mutation.
type AuditLog struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ActorID   *string        `gorm:"size:40;index" json:"actor_id"`
	Actor     *User          `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL" json:"-"`
	Action    string         `gorm:"size:32;not null" json:"action"`
	Entity    string         `gorm:"size:32;not null" json:"entity"`
	EntityID  string         `gorm:"size:40;not null;index" json:"entity_id"`
	OldData   datatypes.JSON `json:"old_data"`
	NewData   datatypes.JSON `json:"new_data"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Models lists every table in dependency order, for migrations.
func Models() []any {
	return []any{&User{}, &Platform{}, &Genre{}, &Setting{}, &Game{}, &GameImage{}, &GameGenre{}, &AuditLog{}}
}

// NewID returns prefix + "_" + 32 random hex digits.
func NewID(prefix string) string {
	u := uuid.New()
	return prefix + "_" + hex.EncodeToString(u[:])
}
