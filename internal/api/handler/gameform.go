package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cuihairu/gamelink/internal/api/logic"
	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/media"
	"github.com/shopspring/decimal"
)

const (
	maxFormMemory = 32 << 20
	// maxGameForm bounds a whole create/update request.
	maxGameForm   = 200 << 20
	uploadTimeout = 2 * time.Minute
)

// parseGameForm decodes the multipart (or urlencoded) game form. The
// returned func closes the opened upload files.
func parseGameForm(w http.ResponseWriter, r *http.Request) (*logic.GameForm, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxGameForm)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, invalid(fmt.Errorf("form: %w", err))
	}

	form := &logic.GameForm{Input: catalog.GameInput{
		Title:            r.FormValue("title"),
		Description:      r.FormValue("description"),
		WhatsappOverride: r.FormValue("whatsapp_override"),
		IsPublished:      truthy(r.FormValue("is_published")),
	}}
	var err error
	if v := strings.TrimSpace(r.FormValue("platform_id")); v != "" {
		id, perr := strconv.ParseUint(v, 10, 32)
		if perr != nil {
			return nil, func() {}, invalid(fmt.Errorf("platform_id: %q is not a number", v))
		}
		form.Input.PlatformID = uint(id)
	}
	if form.Input.BasePrice, err = decimalField(r, "base_price", true); err != nil {
		return nil, func() {}, err
	}
	if form.Input.DiscountPct, err = decimalField(r, "discount_pct", false); err != nil {
		return nil, func() {}, err
	}
	if form.GenreIDs, err = genreIDs(r.Form["genre_ids"]); err != nil {
		return nil, func() {}, err
	}
	switch mode := strings.ToLower(strings.TrimSpace(r.FormValue("image_mode"))); mode {
	case "replace":
		form.Mode = catalog.ImagesReplace
	case "append", "":
		form.Mode = catalog.ImagesAppend
	case "keep":
		form.Mode = catalog.ImagesKeep
	default:
		return nil, func() {}, invalid(fmt.Errorf("image_mode: unknown mode %q", mode))
	}

	var files []multipart.File
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["images"] {
			if fh.Filename == "" && fh.Size == 0 {
				continue
			}
			f, err := fh.Open()
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("open upload %s: %w", fh.Filename, err)
			}
			files = append(files, f)
			form.Uploads = append(form.Uploads, media.Upload{FileName: fh.Filename, Body: f})
		}
	}
	if len(form.Uploads) == 0 && form.Mode == catalog.ImagesAppend {
		form.Mode = catalog.ImagesKeep
	}
	return form, closeAll, nil
}

func decimalField(r *http.Request, name string, required bool) (decimal.Decimal, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		if required {
			return decimal.Zero, invalid(fmt.Errorf("%s: required", name))
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return decimal.Zero, invalid(fmt.Errorf("%s: %q is not a number", name, v))
	}
	return d, nil
}

// genreIDs accepts repeated fields as well as comma separated lists.
func genreIDs(values []string) ([]uint, error) {
	out := []uint{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 32)
			if err != nil {
				return nil, invalid(fmt.Errorf("genre_ids: %q is not a number", part))
			}
			out = append(out, uint(id))
		}
	}
	return out, nil
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}
