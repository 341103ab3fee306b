package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cuihairu/gamelink/internal/media"
	"github.com/shopspring/decimal"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ImageStore is the part of the ingestion pipeline the repository drives.
type ImageStore interface {
	Ingest(ctx context.Context, up media.Upload, slug string) (media.Stored, error)
	Remove(ctx context.Context, paths ...string) media.Cleanup
}

// GameInput carries the editable fields of a game.
type GameInput struct {
	Title            string
	Description      string
	PlatformID       uint
	BasePrice        decimal.Decimal
	DiscountPct      decimal.Decimal
	WhatsappOverride string
	IsPublished      bool
}

type ImageMode int

const (
	// ImagesKeep leaves the current images untouched.
	ImagesKeep ImageMode = iota
	// ImagesReplace swaps the whole image set, but only once at least one
	// new upload was ingested.
	ImagesReplace
	// ImagesAppend adds uploads after the current images.
	ImagesAppend
)

type ImageBatch struct {
	Mode    ImageMode
	Uploads []media.Upload
}

type CreateResult struct {
	Game     *Game
	Images   []GameImage
	Failures []ImageFailure
}

type UpdateResult struct {
	Game     *Game
	Images   []GameImage
	Failures []ImageFailure
	// Replaced is false when a replacement batch had no usable upload and
	// the existing images were kept.
	Replaced bool
	Cleanup  media.Cleanup
}

// Repo performs catalog writes. Every operation runs in one transaction on
// a session bound to the caller's context.
type Repo struct {
	db     *gorm.DB
	images ImageStore
	now    func() time.Time
}

func NewRepo(db *gorm.DB, images ImageStore) *Repo {
	return &Repo{db: db, images: images, now: time.Now}
}

// CreateGame inserts a game with its genre links and the images of uploads
// that could be ingested. The first ingested image becomes the cover.
func (r *Repo) CreateGame(ctx context.Context, in GameInput, genreIDs []uint, uploads []media.Upload, actorID string) (*CreateResult, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(actorID) == "" {
		return nil, invalid("created_by", "is required")
	}
	slug := Slugify(in.Title)
	if slug == "" {
		return nil, invalid("title", "has no characters usable in a slug")
	}
	genreIDs = dedupe(genreIDs)
	sess := r.db.WithContext(ctx)
	if err := r.checkRefs(sess, slug, "", in.PlatformID, genreIDs); err != nil {
		return nil, err
	}

	rows, failures := r.ingestAll(ctx, uploads, slug)
	now := r.now()
	g := &Game{
		ID:          NewID("game"),
		Slug:        slug,
		CreatedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsPublished: in.IsPublished,
	}
	in.apply(g)
	for i := range rows {
		rows[i].GameID = g.ID
		rows[i].OrderIdx = i
		rows[i].IsCover = i == 0
	}

	err = sess.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(g).Error; err != nil {
			return err
		}
		if err := linkGenres(tx, g.ID, genreIDs); err != nil {
			return err
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return audit(tx, actorID, "create", "game", g.ID, nil, snapshot(g, genreIDs))
	})
	if err != nil {
		r.images.Remove(ctx, imagePaths(rows)...)
		return nil, translate(err)
	}
	logx.WithContext(ctx).Infof("catalog: created game %s (%s) with %d images, %d rejected", g.ID, g.Slug, len(rows), len(failures))
	return &CreateResult{Game: g, Images: rows, Failures: failures}, nil
}

// UpdateGame rewrites the fields of game id, reconciles its genre set and
// applies batch. Replaced image files are removed after commit.
func (r *Repo) UpdateGame(ctx context.Context, id string, in GameInput, genreIDs []uint, batch ImageBatch) (*UpdateResult, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}
	sess := r.db.WithContext(ctx)
	var g Game
	if err := sess.Where("id = ?", id).Take(&g).Error; err != nil {
		return nil, translate(err)
	}
	before := snapshot(&g, nil)
	slug := Slugify(in.Title)
	if slug == "" {
		return nil, invalid("title", "has no characters usable in a slug")
	}
	genreIDs = dedupe(genreIDs)
	if err := r.checkRefs(sess, slug, id, in.PlatformID, genreIDs); err != nil {
		return nil, err
	}

	var (
		rows     []GameImage
		failures []ImageFailure
	)
	if batch.Mode != ImagesKeep && len(batch.Uploads) > 0 {
		rows, failures = r.ingestAll(ctx, batch.Uploads, slug)
	}
	res := &UpdateResult{Failures: failures}
	replace := batch.Mode == ImagesReplace && len(rows) > 0
	var old []GameImage

	g.Slug = slug
	in.apply(&g)
	g.IsPublished = in.IsPublished
	g.UpdatedAt = r.now()

	err = sess.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Game{}).Where("id = ?", id).Updates(map[string]any{
			"slug":              g.Slug,
			"title":             g.Title,
			"description":       g.Description,
			"platform_id":       g.PlatformID,
			"base_price":        g.BasePrice,
			"discount_pct":      g.DiscountPct,
			"whatsapp_override": g.WhatsappOverride,
			"is_published":      g.IsPublished,
			"updated_at":        g.UpdatedAt,
		}).Error
		if err != nil {
			return err
		}
		if err := reconcileGenres(tx, id, genreIDs); err != nil {
			return err
		}
		switch {
		case replace:
			if err := tx.Where("game_id = ?", id).Find(&old).Error; err != nil {
				return err
			}
			if err := tx.Where("game_id = ?", id).Delete(&GameImage{}).Error; err != nil {
				return err
			}
			for i := range rows {
				rows[i].GameID = id
				rows[i].OrderIdx = i
				rows[i].IsCover = i == 0
			}
		case batch.Mode == ImagesAppend && len(rows) > 0:
			var tail struct {
				MaxIdx *int
				Covers int64
			}
			err := tx.Model(&GameImage{}).Where("game_id = ?", id).
				Select("MAX(order_idx) AS max_idx, COALESCE(SUM(CASE WHEN is_cover THEN 1 ELSE 0 END), 0) AS covers").
				Scan(&tail).Error
			if err != nil {
				return err
			}
			next := 0
			if tail.MaxIdx != nil {
				next = *tail.MaxIdx + 1
			}
			for i := range rows {
				rows[i].GameID = id
				rows[i].OrderIdx = next + i
				rows[i].IsCover = tail.Covers == 0 && i == 0
			}
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return audit(tx, actorOf(ctx), "update", "game", id, before, snapshot(&g, genreIDs))
	})
	if err != nil {
		r.images.Remove(ctx, imagePaths(rows)...)
		return nil, translate(err)
	}
	if replace {
		res.Replaced = true
		res.Cleanup = r.images.Remove(ctx, imagePaths(old)...)
	} else if batch.Mode == ImagesReplace && len(batch.Uploads) > 0 {
		logx.WithContext(ctx).Infof("catalog: game %s kept its images, no replacement upload was usable", id)
	}
	res.Game = &g
	res.Images = rows
	return res, nil
}

// SetCover makes imageID the only cover of its game.
func (r *Repo) SetCover(ctx context.Context, imageID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var img GameImage
		if err := tx.Where("id = ?", imageID).Take(&img).Error; err != nil {
			return translate(err)
		}
		if err := tx.Model(&GameImage{}).Where("game_id = ?", img.GameID).Update("is_cover", false).Error; err != nil {
			return err
		}
		if err := tx.Model(&GameImage{}).Where("id = ?", imageID).Update("is_cover", true).Error; err != nil {
			return err
		}
		return audit(tx, actorOf(ctx), "set_cover", "image", imageID, nil, map[string]any{"game_id": img.GameID})
	})
}

// DeleteImage removes the image row and then, best effort, its files.
func (r *Repo) DeleteImage(ctx context.Context, imageID string) (media.Cleanup, error) {
	var img GameImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", imageID).Take(&img).Error; err != nil {
			return translate(err)
		}
		if err := tx.Delete(&GameImage{}, "id = ?", imageID).Error; err != nil {
			return err
		}
		return audit(tx, actorOf(ctx), "delete", "image", imageID, map[string]any{"game_id": img.GameID, "file_path": img.FilePath}, nil)
	})
	if err != nil {
		return media.Cleanup{}, err
	}
	return r.images.Remove(ctx, img.FilePath, img.ThumbPath), nil
}

// TogglePublish flips the publish flag of gameID and returns the new value.
func (r *Repo) TogglePublish(ctx context.Context, gameID string) (bool, error) {
	var published bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Game
		if err := tx.Select("id", "is_published").Where("id = ?", gameID).Take(&g).Error; err != nil {
			return translate(err)
		}
		published = !g.IsPublished
		err := tx.Model(&Game{}).Where("id = ?", gameID).
			Updates(map[string]any{"is_published": published, "updated_at": r.now()}).Error
		if err != nil {
			return err
		}
		return audit(tx, actorOf(ctx), "toggle_publish", "game", gameID,
			map[string]any{"is_published": g.IsPublished}, map[string]any{"is_published": published})
	})
	return published, err
}

// DeleteGame deletes the game with its image rows and genre links, then
// removes every image file best effort.
func (r *Repo) DeleteGame(ctx context.Context, gameID string) (media.Cleanup, error) {
	var imgs []GameImage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g Game
		if err := tx.Where("id = ?", gameID).Take(&g).Error; err != nil {
			return translate(err)
		}
		if err := tx.Where("game_id = ?", gameID).Find(&imgs).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&GameImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", gameID).Delete(&GameGenre{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Game{}, "id = ?", gameID).Error; err != nil {
			return err
		}
		return audit(tx, actorOf(ctx), "delete", "game", gameID, snapshot(&g, nil), nil)
	})
	if err != nil {
		return media.Cleanup{}, err
	}
	return r.images.Remove(ctx, imagePaths(imgs)...), nil
}

func (r *Repo) ingestAll(ctx context.Context, uploads []media.Upload, slug string) ([]GameImage, []ImageFailure) {
	var (
		rows     []GameImage
		failures []ImageFailure
	)
	for _, up := range uploads {
		st, err := r.images.Ingest(ctx, up, slug)
		if err != nil {
			logx.WithContext(ctx).Infof("catalog: upload %q rejected: %v", up.FileName, err)
			failures = append(failures, ImageFailure{FileName: up.FileName, Err: err})
			continue
		}
		rows = append(rows, GameImage{
			ID:        NewID("img"),
			FileName:  st.FileName,
			FilePath:  st.OriginalPath,
			ThumbPath: st.ThumbPath,
		})
	}
	return rows, failures
}

// checkRefs validates the references of a write before any mutation. self
// is the id of the game being updated, empty on create.
func (r *Repo) checkRefs(sess *gorm.DB, slug, self string, platformID uint, genreIDs []uint) error {
	var n int64
	if err := sess.Model(&Platform{}).Where("id = ?", platformID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return invalid("platform_id", "does not exist")
	}
	if len(genreIDs) > 0 {
		if err := sess.Model(&Genre{}).Where("id IN ?", genreIDs).Count(&n).Error; err != nil {
			return err
		}
		if int(n) != len(genreIDs) {
			return invalid("genre_ids", "contains an unknown genre")
		}
	}
	q := sess.Model(&Game{}).Where("slug = ?", slug)
	if self != "" {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return invalid("title", "produces slug "+slug+" which is already used")
	}
	return nil
}

func normalize(in GameInput) (GameInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.WhatsappOverride = strings.TrimSpace(in.WhatsappOverride)
	switch {
	case in.Title == "":
		return in, invalid("title", "is required")
	case in.PlatformID == 0:
		return in, invalid("platform_id", "is required")
	case in.BasePrice.IsNegative():
		return in, invalid("base_price", "must not be negative")
	case in.DiscountPct.IsNegative() || in.DiscountPct.GreaterThan(decimal.NewFromInt(95)):
		return in, invalid("discount_pct", "must be between 0 and 95")
	}
	return in, nil
}

func (in GameInput) apply(g *Game) {
	g.Title = in.Title
	g.Description = in.Description
	g.PlatformID = in.PlatformID
	g.BasePrice = in.BasePrice
	g.DiscountPct = in.DiscountPct
	g.WhatsappOverride = nil
	if in.WhatsappOverride != "" {
		v := in.WhatsappOverride
		g.WhatsappOverride = &v
	}
}

func linkGenres(tx *gorm.DB, gameID string, genreIDs []uint) error {
	if len(genreIDs) == 0 {
		return nil
	}
	links := make([]GameGenre, 0, len(genreIDs))
	for _, gid := range genreIDs {
		links = append(links, GameGenre{GameID: gameID, GenreID: gid})
	}
	return tx.Omit(clause.Associations).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
}

// reconcileGenres inserts the added ids and deletes the removed ones,
// leaving unchanged links alone.
func reconcileGenres(tx *gorm.DB, gameID string, want []uint) error {
	var have []uint
	if err := tx.Model(&GameGenre{}).Where("game_id = ?", gameID).Pluck("genre_id", &have).Error; err != nil {
		return err
	}
	add, remove := diff(have, want)
	if len(remove) > 0 {
		if err := tx.Where("game_id = ? AND genre_id IN ?", gameID, remove).Delete(&GameGenre{}).Error; err != nil {
			return err
		}
	}
	return linkGenres(tx, gameID, add)
}

// diff returns want minus have and have minus want.
func diff(have, want []uint) (add, remove []uint) {
	h := make(map[uint]struct{}, len(have))
	for _, id := range have {
		h[id] = struct{}{}
	}
	w := make(map[uint]struct{}, len(want))
	for _, id := range want {
		w[id] = struct{}{}
		if _, ok := h[id]; !ok {
			add = append(add, id)
		}
	}
	for _, id := range have {
		if _, ok := w[id]; !ok {
			remove = append(remove, id)
		}
	}
	return add, remove
}

func dedupe(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func imagePaths(imgs []GameImage) []string {
	out := make([]string, 0, 2*len(imgs))
	for _, img := range imgs {
		out = append(out, img.FilePath, img.ThumbPath)
	}
	return out
}

func actorOf(ctx context.Context) string {
	id, _ := ActorFrom(ctx)
	return id
}

func snapshot(g *Game, genreIDs []uint) map[string]any {
	m := map[string]any{
		"slug":         g.Slug,
		"title":        g.Title,
		"platform_id":  g.PlatformID,
		"base_price":   g.BasePrice.String(),
		"discount_pct": g.DiscountPct.String(),
		"is_published": g.IsPublished,
	}
	if genreIDs != nil {
		m["genre_ids"] = genreIDs
	}
	return m
}

func audit(tx *gorm.DB, actorID, action, entity, entityID string, before, after map[string]any) error {
	row := AuditLog{Action: action, Entity: entity, EntityID: entityID}
	if actorID != "" {
		row.ActorID = &actorID
	}
	var err error
	if row.OldData, err = toJSON(before); err != nil {
		return err
	}
	if row.NewData, err = toJSON(after); err != nil {
		return err
	}
	return tx.Omit(clause.Associations).Create(&row).Error
}

func toJSON(m map[string]any) (datatypes.JSON, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("audit payload: %w", err)
	}
	return datatypes.JSON(b), nil
}
