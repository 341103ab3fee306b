package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/db"
	"github.com/cuihairu/gamelink/internal/media"
	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/cuihairu/gamelink/internal/provision"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type env struct {
	db        *gorm.DB
	files     *objstore.FileStore
	repo      *catalog.Repo
	query     *catalog.Query
	adminID   string
	platforms map[string]uint
	genres    map[string]uint
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	gdb, err := db.Open(db.Config{DSN: filepath.Join(t.TempDir(), "market.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	_, err = provision.Run(ctx, gdb, provision.Options{
		Admins:     []provision.Admin{{Username: "admin", Password: "secret"}},
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	files, err := objstore.OpenFile(ctx, objstore.Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	e := &env{
		db:        gdb,
		files:     files,
		repo:      catalog.NewRepo(gdb, media.NewIngestor(files)),
		query:     catalog.NewQuery(gdb),
		platforms: map[string]uint{},
		genres:    map[string]uint{},
	}
	require.NoError(t, gdb.Model(&catalog.User{}).Where("username = ?", "admin").Pluck("id", &e.adminID).Error)
	var ps []catalog.Platform
	require.NoError(t, gdb.Find(&ps).Error)
	for _, p := range ps {
		e.platforms[p.Name] = p.ID
	}
	var gs []catalog.Genre
	require.NoError(t, gdb.Find(&gs).Error)
	for _, g := range gs {
		e.genres[g.Name] = g.ID
	}
	return e
}

func pngUpload(t *testing.T, name string, w, h int) media.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return media.Upload{FileName: name, Body: bytes.NewReader(buf.Bytes())}
}

func (e *env) input(title string) catalog.GameInput {
	return catalog.GameInput{
		Title:       title,
		Description: "Un juego de " + title,
		PlatformID:  e.platforms["Steam"],
		BasePrice:   decimal.RequireFromString("100"),
		DiscountPct: decimal.RequireFromString("15"),
		IsPublished: true,
	}
}

func (e *env) create(t *testing.T, title string, uploads ...media.Upload) *catalog.CreateResult {
	t.Helper()
	res, err := e.repo.CreateGame(context.Background(), e.input(title), []uint{e.genres["RPG"]}, uploads, e.adminID)
	require.NoError(t, err)
	return res
}

func (e *env) count(t *testing.T, model any, where ...any) int64 {
	t.Helper()
	var n int64
	q := e.db.Model(model)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (e *env) exists(key string) bool {
	_, err := os.Stat(e.files.LocalPath(key))
	return err == nil
}

func TestCreateGameAssignsOrderAndCover(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Shadow Quest",
		pngUpload(t, "a.png", 40, 20),
		media.Upload{FileName: "art.bmp", Body: bytes.NewReader([]byte("BM"))},
		pngUpload(t, "b.png", 20, 40),
	)
	assert.Equal(t, "shadow-quest", res.Game.Slug)
	require.Len(t, res.Images, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "art.bmp", res.Failures[0].FileName)
	assert.True(t, errors.Is(res.Failures[0].Err, media.ErrUnsupportedFormat))

	assert.True(t, res.Images[0].IsCover)
	assert.False(t, res.Images[1].IsCover)
	assert.Equal(t, 0, res.Images[0].OrderIdx)
	assert.Equal(t, 1, res.Images[1].OrderIdx)
	for _, img := range res.Images {
		assert.True(t, e.exists(img.FilePath))
		assert.True(t, e.exists(img.ThumbPath))
	}
	assert.EqualValues(t, 1, e.count(t, &catalog.GameGenre{}, "game_id = ?", res.Game.ID))
	assert.EqualValues(t, 1, e.count(t, &catalog.AuditLog{}, "entity_id = ? AND action = ?", res.Game.ID, "create"))
}

func TestCreateGameValidationMutatesNothing(t *testing.T) {
	e := newEnv(t)
	e.create(t, "Existing")
	games := e.count(t, &catalog.Game{})
	links := e.count(t, &catalog.GameGenre{})
	images := e.count(t, &catalog.GameImage{})

	ctx := context.Background()
	cases := map[string]catalog.GameInput{
		"empty title":      func() catalog.GameInput { in := e.input("  "); return in }(),
		"missing platform": func() catalog.GameInput { in := e.input("X"); in.PlatformID = 0; return in }(),
		"unknown platform": func() catalog.GameInput { in := e.input("X"); in.PlatformID = 9999; return in }(),
		"negative price":   func() catalog.GameInput { in := e.input("X"); in.BasePrice = decimal.NewFromInt(-1); return in }(),
		"discount too big": func() catalog.GameInput { in := e.input("X"); in.DiscountPct = decimal.NewFromInt(96); return in }(),
		"duplicate slug":   e.input("existing"),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := e.repo.CreateGame(ctx, in, nil, []media.Upload{pngUpload(t, "x.png", 4, 4)}, e.adminID)
			var ve *catalog.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.True(t, errors.Is(err, catalog.ErrValidation))
		})
	}
	assert.Equal(t, games, e.count(t, &catalog.Game{}))
	assert.Equal(t, links, e.count(t, &catalog.GameGenre{}))
	assert.Equal(t, images, e.count(t, &catalog.GameImage{}))
}

func TestSetCoverKeepsOneCover(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Covers", pngUpload(t, "a.png", 8, 8), pngUpload(t, "b.png", 8, 8), pngUpload(t, "c.png", 8, 8))
	ctx := context.Background()
	x, y := res.Images[1].ID, res.Images[2].ID

	require.NoError(t, e.repo.SetCover(ctx, x))
	require.NoError(t, e.repo.SetCover(ctx, y))

	var covers []string
	require.NoError(t, e.db.Model(&catalog.GameImage{}).Where("game_id = ? AND is_cover = ?", res.Game.ID, true).Pluck("id", &covers).Error)
	assert.Equal(t, []string{y}, covers)

	assert.ErrorIs(t, e.repo.SetCover(ctx, "img_missing"), catalog.ErrNotFound)
}

func TestDeleteGameLeavesNoOrphans(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Doomed", pngUpload(t, "a.png", 8, 8), pngUpload(t, "b.png", 8, 8))
	keep := e.create(t, "Survivor", pngUpload(t, "c.png", 8, 8))

	cleanup, err := e.repo.DeleteGame(context.Background(), res.Game.ID)
	require.NoError(t, err)
	assert.True(t, cleanup.OK())
	assert.Len(t, cleanup.Attempted, 4)

	assert.Zero(t, e.count(t, &catalog.Game{}, "id = ?", res.Game.ID))
	assert.Zero(t, e.count(t, &catalog.GameImage{}, "game_id = ?", res.Game.ID))
	assert.Zero(t, e.count(t, &catalog.GameGenre{}, "game_id = ?", res.Game.ID))
	for _, img := range res.Images {
		assert.False(t, e.exists(img.FilePath))
		assert.False(t, e.exists(img.ThumbPath))
	}
	assert.True(t, e.exists(keep.Images[0].FilePath))

	_, err = e.repo.DeleteGame(context.Background(), res.Game.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestDeleteImageRemovesFilesBestEffort(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Pics", pngUpload(t, "a.png", 8, 8))
	img := res.Images[0]
	require.NoError(t, os.Remove(e.files.LocalPath(img.ThumbPath)))

	cleanup, err := e.repo.DeleteImage(context.Background(), img.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{img.FilePath, img.ThumbPath}, cleanup.Attempted)
	assert.True(t, cleanup.OK())
	assert.False(t, e.exists(img.FilePath))
	assert.Zero(t, e.count(t, &catalog.GameImage{}, "id = ?", img.ID))

	_, err = e.repo.DeleteImage(context.Background(), img.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestTogglePublishIsItsOwnInverse(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Toggle")
	ctx := context.Background()

	first, err := e.repo.TogglePublish(ctx, res.Game.ID)
	require.NoError(t, err)
	assert.False(t, first)
	second, err := e.repo.TogglePublish(ctx, res.Game.ID)
	require.NoError(t, err)
	assert.True(t, second)

	var g catalog.Game
	require.NoError(t, e.db.Where("id = ?", res.Game.ID).Take(&g).Error)
	assert.Equal(t, res.Game.IsPublished, g.IsPublished)

	_, err = e.repo.TogglePublish(ctx, "game_missing")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUpdateGameReconcilesFieldsAndGenres(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Old Name", pngUpload(t, "a.png", 8, 8))
	ctx := context.Background()

	in := e.input("New Name")
	in.PlatformID = e.platforms["PC"]
	in.WhatsappOverride = "+591 700 00000"
	up, err := e.repo.UpdateGame(ctx, res.Game.ID, in, []uint{e.genres["Indie"], e.genres["RPG"], e.genres["Indie"]}, catalog.ImageBatch{})
	require.NoError(t, err)
	assert.Equal(t, "new-name", up.Game.Slug)
	assert.False(t, up.Replaced)

	view, err := e.query.GetForEdit(ctx, res.Game.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", view.Game.Title)
	assert.Equal(t, e.platforms["PC"], view.Game.PlatformID)
	require.NotNil(t, view.Game.WhatsappOverride)
	assert.ElementsMatch(t, []uint{e.genres["Indie"], e.genres["RPG"]}, view.GenreIDs)
	assert.Len(t, view.Images, 1, "images untouched without a batch")

	_, err = e.repo.UpdateGame(ctx, "game_missing", in, nil, catalog.ImageBatch{})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestUpdateGameReplaceIsValidateThenSwap(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Swap", pngUpload(t, "a.png", 8, 8), pngUpload(t, "b.png", 8, 8))
	ctx := context.Background()

	bad := catalog.ImageBatch{Mode: catalog.ImagesReplace, Uploads: []media.Upload{
		{FileName: "one.bmp", Body: bytes.NewReader(nil)},
		{FileName: "two.png", Body: bytes.NewReader([]byte("garbage"))},
	}}
	up, err := e.repo.UpdateGame(ctx, res.Game.ID, e.input("Swap"), nil, bad)
	require.NoError(t, err)
	assert.False(t, up.Replaced)
	assert.Len(t, up.Failures, 2)
	assert.EqualValues(t, 2, e.count(t, &catalog.GameImage{}, "game_id = ?", res.Game.ID))
	for _, img := range res.Images {
		assert.True(t, e.exists(img.FilePath))
	}

	good := catalog.ImageBatch{Mode: catalog.ImagesReplace, Uploads: []media.Upload{
		{FileName: "three.bmp", Body: bytes.NewReader(nil)},
		pngUpload(t, "four.png", 10, 6),
	}}
	up, err = e.repo.UpdateGame(ctx, res.Game.ID, e.input("Swap"), nil, good)
	require.NoError(t, err)
	assert.True(t, up.Replaced)
	assert.Len(t, up.Failures, 1)
	require.Len(t, up.Images, 1)
	assert.True(t, up.Images[0].IsCover)
	assert.Equal(t, 0, up.Images[0].OrderIdx)
	assert.Len(t, up.Cleanup.Attempted, 4)

	var ids []string
	require.NoError(t, e.db.Model(&catalog.GameImage{}).Where("game_id = ?", res.Game.ID).Pluck("id", &ids).Error)
	assert.Equal(t, []string{up.Images[0].ID}, ids)
	for _, img := range res.Images {
		assert.False(t, e.exists(img.FilePath))
		assert.False(t, e.exists(img.ThumbPath))
	}
}

func TestUpdateGameAppendContinuesOrdering(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Append", pngUpload(t, "a.png", 8, 8), pngUpload(t, "b.png", 8, 8))
	ctx := context.Background()

	up, err := e.repo.UpdateGame(ctx, res.Game.ID, e.input("Append"), nil, catalog.ImageBatch{
		Mode:    catalog.ImagesAppend,
		Uploads: []media.Upload{pngUpload(t, "c.png", 8, 8)},
	})
	require.NoError(t, err)
	require.Len(t, up.Images, 1)
	assert.Equal(t, 2, up.Images[0].OrderIdx)
	assert.False(t, up.Images[0].IsCover)
	assert.EqualValues(t, 3, e.count(t, &catalog.GameImage{}, "game_id = ?", res.Game.ID))
	assert.EqualValues(t, 1, e.count(t, &catalog.GameImage{}, "game_id = ? AND is_cover = ?", res.Game.ID, true))
}

func TestUpdateGameAppendAssignsCoverWhenMissing(t *testing.T) {
	e := newEnv(t)
	res := e.create(t, "Bare")
	up, err := e.repo.UpdateGame(context.Background(), res.Game.ID, e.input("Bare"), nil, catalog.ImageBatch{
		Mode:    catalog.ImagesAppend,
		Uploads: []media.Upload{pngUpload(t, "a.png", 8, 8), pngUpload(t, "b.png", 8, 8)},
	})
	require.NoError(t, err)
	require.Len(t, up.Images, 2)
	assert.True(t, up.Images[0].IsCover)
	assert.Equal(t, 0, up.Images[0].OrderIdx)
	assert.False(t, up.Images[1].IsCover)
}
