// Package media stores uploaded game images and derives their thumbnails.
package media

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	OriginalsArea = "originals"
	ThumbsArea    = "thumbs"

	ThumbSize    = 512
	ThumbQuality = 90

	// MaxImageBytes bounds a single upload read into memory.
	MaxImageBytes  = 32 << 20
	// MaxImagePixels bounds the decoded size; compressed bytes say little
	// about it.
	MaxImagePixels = 40_000_000
)

var allowedExt = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

var errTooLarge = fmt.Errorf("upload exceeds %d bytes", MaxImageBytes)

type Upload struct {
	FileName string
	Body     io.Reader
}

// Stored holds the storage keys of an ingested image, relative to the
// storage root.
type Stored struct {
	FileName     string
	OriginalPath string
	ThumbPath    string
}

type Ingestor struct {
	store objstore.Store
	token func() string
}

func NewIngestor(store objstore.Store) *Ingestor {
	return &Ingestor{store: store, token: randomToken}
}

// Store exposes the underlying object store (used for media serving).
func (in *Ingestor) Store() objstore.Store { return in.store }

// CheckExtension returns the lower-cased extension of name when it is one of
// jpg, jpeg, png or webp.
func CheckExtension(name string) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExt[ext]; !ok {
		return "", &FormatError{FileName: name, Ext: ext}
	}
	return ext, nil
}

// Ingest validates, stores the original bytes untouched and writes a
// 512x512 JPEG thumbnail. Nothing is written unless the image decodes, and
// the original is removed again if the thumbnail cannot be stored.
func (in *Ingestor) Ingest(ctx context.Context, up Upload, slug string) (Stored, error) {
	ext, err := CheckExtension(up.FileName)
	if err != nil {
		return Stored{}, err
	}
	raw, err := io.ReadAll(io.LimitReader(up.Body, MaxImageBytes+1))
	if err != nil {
		return Stored{}, &ProcessingError{Op: "read", Err: err}
	}
	if len(raw) > MaxImageBytes {
		return Stored{}, &ProcessingError{Op: "read", Err: errTooLarge}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Stored{}, &ProcessingError{Op: "decode", Err: err}
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > MaxImagePixels {
		return Stored{}, &ProcessingError{Op: "decode", Err: fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxImagePixels)}
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Stored{}, &ProcessingError{Op: "decode", Err: err}
	}
	thumb, err := Thumbnail(src)
	if err != nil {
		return Stored{}, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: ThumbQuality}); err != nil {
		return Stored{}, &ProcessingError{Op: "encode", Err: err}
	}

	name := BaseName(slug, in.token(), ext)
	out := Stored{
		FileName:     path.Base(filepath.ToSlash(up.FileName)),
		OriginalPath: path.Join(OriginalsArea, name),
		ThumbPath:    path.Join(ThumbsArea, strings.TrimSuffix(name, ext)+".jpg"),
	}
	if err := in.store.Put(ctx, out.OriginalPath, bytes.NewReader(raw), int64(len(raw)), allowedExt[ext]); err != nil {
		return Stored{}, &StorageError{Op: "write", Path: out.OriginalPath, Err: err}
	}
	if err := in.store.Put(ctx, out.ThumbPath, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "image/jpeg"); err != nil {
		in.Remove(ctx, out.OriginalPath)
		return Stored{}, &StorageError{Op: "write", Path: out.ThumbPath, Err: err}
	}
	logx.WithContext(ctx).Debugf("media: stored %s (%d bytes) and %s", out.OriginalPath, len(raw), out.ThumbPath)
	return out, nil
}

// Thumbnail center-crops src to a square of side min(w, h), flattens it onto
// an opaque white RGB canvas and resamples it to ThumbSize x ThumbSize.
func Thumbnail(src image.Image) (*image.RGBA, error) {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	side := min(w, h)
	if side <= 0 {
		return nil, &ProcessingError{Op: "crop", Err: errors.New("empty image")}
	}
	offset := image.Pt(b.Min.X+(w-side)/2, b.Min.Y+(h-side)/2)
	crop := image.Rectangle{Min: offset, Max: offset.Add(image.Pt(side, side))}

	dst := image.NewRGBA(image.Rect(0, 0, ThumbSize, ThumbSize))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Over, nil)
	return dst, nil
}

// BaseName builds "<slug>-<token><ext>" with the slug reduced to
// [a-z0-9-] so it is always a single safe path segment.
func BaseName(slug, token, ext string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(slug) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' {
			sb.WriteRune(r)
		}
	}
	s := strings.Trim(sb.String(), "-")
	if s == "" {
		s = "image"
	}
	return s + "-" + token + ext
}

func randomToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
