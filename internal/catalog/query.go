package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// DefaultListLimit is the home page size.
	DefaultListLimit = 8
	// SearchLimit caps catalog search results.
	SearchLimit = 50

	contactMessage = "Hola, quiero comprar %s (%s)"
)

// Card is a game as shown in listings.
type Card struct {
	ID           string          `json:"id"`
	Slug         string          `json:"slug"`
	Title        string          `json:"title"`
	PlatformID   uint            `json:"platform_id"`
	PlatformName string          `json:"platform"`
	BasePrice    decimal.Decimal `json:"base_price"`
	DiscountPct  decimal.Decimal `json:"discount_pct"`
	FinalPrice   decimal.Decimal `json:"final_price" gorm:"-"`
	IsPublished  bool            `json:"is_published"`
	CoverThumb   *string         `json:"cover_thumb"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ImageView struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	FilePath  string `json:"file_path"`
	ThumbPath string `json:"thumb_path"`
	IsCover   bool   `json:"is_cover"`
	OrderIdx  int    `json:"order_idx"`
}

// Detail is a published game with everything the detail page shows.
type Detail struct {
	Card
	Description string      `json:"description"`
	Genres      []string    `json:"genres"`
	Images      []ImageView `json:"images"`
	ContactURL  string      `json:"contact_url"`
}

type SearchParams struct {
	Query      string
	PlatformID uint
}

type Dashboard struct {
	Total     int64 `json:"total"`
	Published int64 `json:"published"`
	Drafts    int64 `json:"drafts"`
}

// EditView is a game loaded for the admin edit form.
type EditView struct {
	Game     Game        `json:"game"`
	GenreIDs []uint      `json:"genre_ids"`
	Images   []GameImage `json:"images"`
}

// Query serves the read side of the catalog.
type Query struct {
	db *gorm.DB
}

func NewQuery(db *gorm.DB) *Query { return &Query{db: db} }

const cardColumns = `g.id, g.slug, g.title, g.platform_id, p.name AS platform_name,
g.base_price, g.discount_pct, g.is_published, g.created_at,
(SELECT i.thumb_path FROM game_images i WHERE i.game_id = g.id AND i.is_cover ORDER BY i.order_idx LIMIT 1) AS cover_thumb`

func (q *Query) cards(ctx context.Context) *gorm.DB {
	return q.db.WithContext(ctx).Table("games AS g").
		Select(cardColumns).
		Joins("JOIN platforms p ON p.id = g.platform_id")
}

// ListPublished returns the newest published games. A non-positive limit
// means DefaultListLimit.
func (q *Query) ListPublished(ctx context.Context, limit int) ([]Card, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var out []Card
	err := q.cards(ctx).Where("g.is_published = ?", true).
		Order("g.created_at DESC").Limit(limit).Scan(&out).Error
	return withPrices(out), err
}

// Search filters published games by platform and keyword. The keyword goes
// through the FTS index when the search_engine setting says so, otherwise
// through a case-insensitive substring match on title and description.
func (q *Query) Search(ctx context.Context, p SearchParams) ([]Card, error) {
	tx := q.cards(ctx).Where("g.is_published = ?", true)
	if p.PlatformID != 0 {
		tx = tx.Where("g.platform_id = ?", p.PlatformID)
	}
	if kw := strings.TrimSpace(p.Query); kw != "" {
		mode, err := q.SearchMode(ctx)
		if err != nil {
			return nil, err
		}
		if expr := ftsExpr(kw); mode == SearchFTS && expr != "" {
			tx = tx.Where("g.rowid IN (SELECT rowid FROM games_fts WHERE games_fts MATCH ?)", expr)
		} else {
			// Both sides go through the database LOWER so they fold alike.
			pat := "%" + escapeLike(kw) + "%"
			tx = tx.Where(`(LOWER(g.title) LIKE LOWER(?) ESCAPE '\' OR LOWER(g.description) LIKE LOWER(?) ESCAPE '\')`, pat, pat)
		}
	}
	var out []Card
	err := tx.Order("g.created_at DESC").Limit(SearchLimit).Scan(&out).Error
	return withPrices(out), err
}

// SearchMode reads the search_engine setting, defaulting to like.
func (q *Query) SearchMode(ctx context.Context) (string, error) {
	v, ok, err := q.Setting(ctx, SettingSearchEngine)
	if err != nil || !ok || v != SearchFTS {
		return SearchLike, err
	}
	return SearchFTS, nil
}

// GetBySlug loads a published game for its detail page.
func (q *Query) GetBySlug(ctx context.Context, slug string) (*Detail, error) {
	var row struct {
		Card
		Description      string
		WhatsappOverride *string
	}
	err := q.cards(ctx).Select(cardColumns+", g.description, g.whatsapp_override").
		Where("g.slug = ? AND g.is_published = ?", slug, true).
		Take(&row).Error
	if err != nil {
		return nil, translate(err)
	}
	d := &Detail{Card: row.Card, Description: row.Description}
	d.FinalPrice = FinalPrice(d.BasePrice, d.DiscountPct)

	sess := q.db.WithContext(ctx)
	err = sess.Table("genres AS ge").Joins("JOIN game_genres gg ON gg.genre_id = ge.id").
		Where("gg.game_id = ?", d.ID).Order("ge.name").Pluck("ge.name", &d.Genres).Error
	if err != nil {
		return nil, err
	}
	err = sess.Model(&GameImage{}).Where("game_id = ?", d.ID).
		Order("is_cover DESC").Order("order_idx").Scan(&d.Images).Error
	if err != nil {
		return nil, err
	}

	number := ""
	if row.WhatsappOverride != nil {
		number = strings.TrimSpace(*row.WhatsappOverride)
	}
	if number == "" {
		if number, _, err = q.Setting(ctx, SettingWhatsapp); err != nil {
			return nil, err
		}
	}
	d.ContactURL = ContactLink(number, d.Title, d.PlatformName)
	return d, nil
}

// ContactLink builds the wa.me purchase link for number, or "" when number
// has no digits.
func ContactLink(number, title, platform string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}
	msg := url.QueryEscape(fmt.Sprintf(contactMessage, title, platform))
	return "https://wa.me/" + digits + "?text=" + strings.ReplaceAll(msg, "+", "%20")
}

func (q *Query) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	sess := q.db.WithContext(ctx).Model(&Game{})
	if err := sess.Count(&d.Total).Error; err != nil {
		return d, err
	}
	if err := q.db.WithContext(ctx).Model(&Game{}).Where("is_published = ?", true).Count(&d.Published).Error; err != nil {
		return d, err
	}
	d.Drafts = d.Total - d.Published
	return d, nil
}

// AdminList returns every game, drafts included, newest first.
func (q *Query) AdminList(ctx context.Context) ([]Card, error) {
	var out []Card
	err := q.cards(ctx).Order("g.created_at DESC").Scan(&out).Error
	return withPrices(out), err
}

func (q *Query) GetForEdit(ctx context.Context, id string) (*EditView, error) {
	sess := q.db.WithContext(ctx)
	var v EditView
	if err := sess.Where("id = ?", id).Take(&v.Game).Error; err != nil {
		return nil, translate(err)
	}
	if err := sess.Model(&GameGenre{}).Where("game_id = ?", id).Order("genre_id").Pluck("genre_id", &v.GenreIDs).Error; err != nil {
		return nil, err
	}
	if err := sess.Where("game_id = ?", id).Order("order_idx").Find(&v.Images).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (q *Query) Platforms(ctx context.Context) ([]Platform, error) {
	var out []Platform
	err := q.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

func (q *Query) Genres(ctx context.Context) ([]Genre, error) {
	var out []Genre
	err := q.db.WithContext(ctx).Order("name").Find(&out).Error
	return out, err
}

// Setting returns the value of key and whether the row exists.
func (q *Query) Setting(ctx context.Context, key string) (string, bool, error) {
	var s Setting
	err := q.db.WithContext(ctx).Where("key = ?", key).Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return s.Value, true, nil
}

func withPrices(cards []Card) []Card {
	if cards == nil {
		return []Card{}
	}
	for i := range cards {
		cards[i].FinalPrice = FinalPrice(cards[i].BasePrice, cards[i].DiscountPct)
	}
	return cards
}

// ftsExpr turns free text into an FTS5 query of quoted prefix terms, so
// user input is never parsed as FTS syntax. Terms match from the start of a
// word: "Sha" finds "Shadow Quest", "adow" does not.
func ftsExpr(s string) string {
	var terms []string
	for _, f := range strings.Fields(s) {
		f = strings.ReplaceAll(f, `"`, "")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+f+`"*`)
	}
	return strings.Join(terms, " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
