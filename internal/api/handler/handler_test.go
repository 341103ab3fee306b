package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cuihairu/gamelink/internal/api/middleware"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/auth"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/config"
	"github.com/cuihairu/gamelink/internal/db"
	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/cuihairu/gamelink/internal/provision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/rest/pathvar"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	sc       *svc.ServiceContext
	token    string
	platform uint
	genres   []uint
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	gdb, err := db.Open(db.Config{DSN: filepath.Join(dir, "market.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	_, err = provision.Run(ctx, gdb, provision.Options{
		Admins:     []provision.Admin{{Username: "admin", Password: "pw"}},
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)

	storeConf := objstore.Config{Driver: "file", BaseDir: filepath.Join(dir, "uploads"), PublicPrefix: "/uploads/"}
	store, err := objstore.OpenFile(ctx, storeConf)
	require.NoError(t, err)
	c := config.Config{
		Storage: storeConf,
		Auth:    config.AuthConfig{Secret: "0123456789abcdef0123", TokenTTL: time.Hour, LoginPerMinute: 1, LoginBurst: 3},
	}
	sc, err := svc.New(c, gdb, store)
	require.NoError(t, err)

	sess, err := sc.Auth.Login(ctx, "admin", "pw", "setup")
	require.NoError(t, err)

	env := &testEnv{sc: sc, token: sess.Token}
	ps, err := sc.Query.Platforms(ctx)
	require.NoError(t, err)
	for _, p := range ps {
		if p.Name == "Steam" {
			env.platform = p.ID
		}
	}
	gs, err := sc.Query.Genres(ctx)
	require.NoError(t, err)
	env.genres = []uint{gs[0].ID, gs[1].ID}
	return env
}

func (e *testEnv) admin(h http.HandlerFunc) http.HandlerFunc {
	return middleware.NewAuthMiddleware(e.sc).Handle(h)
}

func do(h http.HandlerFunc, r *http.Request, vars map[string]string) *httptest.ResponseRecorder {
	if vars != nil {
		r = pathvar.WithVars(r, vars)
	}
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 40))
	for x := 0; x < 64; x++ {
		img.Set(x, x%40, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type upload struct {
	name string
	body []byte
}

func multipartRequest(t *testing.T, method, target, token string, fields url.Values, files ...upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile("images", f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(method, target, &body)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func (e *testEnv) gameFields(title string, published bool) url.Values {
	v := url.Values{
		"title":        {title},
		"description":  {"A dark adventure"},
		"platform_id":  {strconv.Itoa(int(e.platform))},
		"base_price":   {"59.99"},
		"discount_pct": {"33"},
		"genre_ids":    {strconv.Itoa(int(e.genres[0])) + "," + strconv.Itoa(int(e.genres[1]))},
	}
	if published {
		v.Set("is_published", "on")
	}
	return v
}

func (e *testEnv) createGame(t *testing.T, title string, published bool, files ...upload) map[string]any {
	t.Helper()
	r := multipartRequest(t, http.MethodPost, "/api/admin/games", e.token, e.gameFields(title, published), files...)
	w := do(e.admin(GameCreateHandler(e.sc)), r, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func TestCreateGameAndBrowsePublicly(t *testing.T) {
	e := newTestEnv(t)
	created := e.createGame(t, "Shadow Quest", true, upload{"cover.png", pngImage(t)})

	game := created["game"].(map[string]any)
	assert.Equal(t, "shadow-quest", game["slug"])
	assert.Equal(t, "40.19", game["final_price"])
	assert.Len(t, game["genre_ids"], 2)
	images := created["images"].([]any)
	require.Len(t, images, 1)
	assert.Equal(t, true, images[0].(map[string]any)["is_cover"])
	assert.Empty(t, created["failures"])

	w := do(GamesListHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/games?limit=4", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	thumb := items[0].(map[string]any)["cover_thumb"].(string)
	assert.True(t, strings.HasPrefix(thumb, "thumbs/shadow-quest-"))

	w = do(GameDetailHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/games/shadow-quest", nil),
		map[string]string{"slug": "shadow-quest"})
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	assert.Contains(t, detail["contact_url"], "https://wa.me/59177676446?text=")
	assert.Len(t, detail["genres"], 2)

	w = do(MediaHandler(e.sc), httptest.NewRequest(http.MethodGet, "/uploads/"+thumb, nil),
		map[string]string{"area": "thumbs", "name": path.Base(thumb)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
}

func TestAdminRoutesNeedAValidToken(t *testing.T) {
	e := newTestEnv(t)
	h := e.admin(DashboardHandler(e.sc))

	w := do(h, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r := httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	r.Header.Set("Authorization", "Bearer "+e.token+"x")
	assert.Equal(t, http.StatusUnauthorized, do(h, r, nil).Code)

	r = httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil)
	r.Header.Set("Authorization", "Bearer "+e.token)
	w = do(h, r, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode(t, w)["total"])
}

func TestCreateGameRejectsInvalidInput(t *testing.T) {
	e := newTestEnv(t)
	create := e.admin(GameCreateHandler(e.sc))

	fields := e.gameFields("", false)
	w := do(create, multipartRequest(t, http.MethodPost, "/api/admin/games", e.token, fields), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title", decode(t, w)["field"])

	fields = e.gameFields("Priceless", false)
	fields.Set("base_price", "cheap")
	w = do(create, multipartRequest(t, http.MethodPost, "/api/admin/games", e.token, fields), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	fields = e.gameFields("Too Much Off", false)
	fields.Set("discount_pct", "96")
	w = do(create, multipartRequest(t, http.MethodPost, "/api/admin/games", e.token, fields), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "discount_pct", decode(t, w)["field"])

	e.createGame(t, "Shadow Quest", false)
	w = do(create, multipartRequest(t, http.MethodPost, "/api/admin/games", e.token, e.gameFields("Shadow Quest", false)), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnsupportedUploadIsReportedNotFatal(t *testing.T) {
	e := newTestEnv(t)
	created := e.createGame(t, "Bitmap Game", false,
		upload{"shot.bmp", []byte("BM....")}, upload{"ok.png", pngImage(t)})

	failures := created["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, "shot.bmp", failures[0].(map[string]any)["file_name"])
	assert.Len(t, created["images"], 1)
}

func TestUpdateReplaceKeepsImagesWhenNothingIngested(t *testing.T) {
	e := newTestEnv(t)
	created := e.createGame(t, "Replace Me", false, upload{"a.png", pngImage(t)})
	id := created["game"].(map[string]any)["id"].(string)
	update := e.admin(GameUpdateHandler(e.sc))

	fields := e.gameFields("Replace Me", true)
	fields.Set("image_mode", "replace")
	r := multipartRequest(t, http.MethodPut, "/api/admin/games/"+id, e.token, fields, upload{"bad.gif", []byte("GIF89a")})
	w := do(update, r, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode(t, w)
	assert.Equal(t, false, resp["replaced"])
	assert.Len(t, resp["images"], 1)
	assert.Equal(t, true, resp["game"].(map[string]any)["is_published"])

	r = multipartRequest(t, http.MethodPut, "/api/admin/games/"+id, e.token, fields, upload{"b.png", pngImage(t)}, upload{"c.png", pngImage(t)})
	w = do(update, r, map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode(t, w)
	assert.Equal(t, true, resp["replaced"])
	assert.Len(t, resp["images"], 2)

	fields.Set("image_mode", "sideways")
	r = multipartRequest(t, http.MethodPut, "/api/admin/games/"+id, e.token, fields)
	assert.Equal(t, http.StatusBadRequest, do(update, r, map[string]string{"id": id}).Code)

	r = multipartRequest(t, http.MethodPut, "/api/admin/games/game_missing", e.token, e.gameFields("Ghost", false))
	assert.Equal(t, http.StatusNotFound, do(update, r, map[string]string{"id": "game_missing"}).Code)
}

func TestPublishCoverAndDelete(t *testing.T) {
	e := newTestEnv(t)
	created := e.createGame(t, "Toggle Me", false, upload{"a.png", pngImage(t)}, upload{"b.png", pngImage(t)})
	id := created["game"].(map[string]any)["id"].(string)
	second := created["images"].([]any)[1].(map[string]any)["id"].(string)
	authed := func(method, target string) *http.Request {
		r := httptest.NewRequest(method, target, nil)
		r.Header.Set("Authorization", "Bearer "+e.token)
		return r
	}
	detail := func() int {
		return do(GameDetailHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/games/toggle-me", nil),
			map[string]string{"slug": "toggle-me"}).Code
	}

	assert.Equal(t, http.StatusNotFound, detail())
	w := do(e.admin(GamePublishHandler(e.sc)), authed(http.MethodPost, "/api/admin/games/"+id+"/publish"), map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["is_published"])
	assert.Equal(t, http.StatusOK, detail())

	w = do(e.admin(ImageCoverHandler(e.sc)), authed(http.MethodPost, "/api/admin/images/"+second+"/cover"), map[string]string{"id": second})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(e.admin(AdminGameGetHandler(e.sc)), authed(http.MethodGet, "/api/admin/games/"+id), map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code)
	covers := 0
	for _, it := range decode(t, w)["images"].([]any) {
		img := it.(map[string]any)
		if img["is_cover"] == true {
			covers++
			assert.Equal(t, second, img["id"])
		}
	}
	assert.Equal(t, 1, covers)

	w = do(e.admin(ImageDeleteHandler(e.sc)), authed(http.MethodDelete, "/api/admin/images/"+second), map[string]string{"id": second})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(e.admin(GameDeleteHandler(e.sc)), authed(http.MethodDelete, "/api/admin/games/"+id), map[string]string{"id": id})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, detail())
	w = do(e.admin(GameDeleteHandler(e.sc)), authed(http.MethodDelete, "/api/admin/games/"+id), map[string]string{"id": id})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSearchAndTaxonomies(t *testing.T) {
	e := newTestEnv(t)
	e.createGame(t, "Shadow Quest", true)
	e.createGame(t, "Sunny Farm", true)
	e.createGame(t, "Shadow Draft", false)

	w := do(CatalogSearchHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/catalog?q=shadow", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, catalog.SearchFTS, resp["mode"])
	items := resp["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Shadow Quest", items[0].(map[string]any)["title"])

	w = do(CatalogSearchHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/catalog?platform=9999", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["items"])

	w = do(PlatformsHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/platforms", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], len(provision.DefaultPlatforms))

	w = do(SiteHandler(e.sc), httptest.NewRequest(http.MethodGet, "/api/site", nil), nil)
	require.Equal(t, http.StatusOK, w.Code)
	site := decode(t, w)
	assert.Equal(t, provision.DefaultSiteName, site["name"])
	assert.Equal(t, "/uploads/", site["media_prefix"])
}

func TestLoginLogoutAndRateLimit(t *testing.T) {
	e := newTestEnv(t)
	login := func(body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.RemoteAddr = "10.1.1.1:5000"
		return do(AuthLoginHandler(e.sc), r, nil)
	}

	w := login(`{"username":"admin","password":"pw"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["token"].(string)

	r := httptest.NewRequest(http.MethodPost, "/api/admin/logout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, do(e.admin(AuthLogoutHandler(e.sc)), r, nil).Code)
	_, err := e.sc.Auth.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	assert.Equal(t, http.StatusUnauthorized, login(`{"username":"admin","password":"nope"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, login(`{"username":"admin","password":"nope"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, login(`{"username":"admin","password":"pw"}`).Code)
}

func TestMediaRejectsUnknownAreasAndNames(t *testing.T) {
	e := newTestEnv(t)
	for _, vars := range []map[string]string{
		{"area": "etc", "name": "passwd"},
		{"area": "thumbs", "name": "..secret"},
		{"area": "thumbs", "name": "missing.jpg"},
	} {
		w := do(MediaHandler(e.sc), httptest.NewRequest(http.MethodGet, "/uploads/x/y", nil), vars)
		assert.Equal(t, http.StatusNotFound, w.Code, vars)
	}
}
