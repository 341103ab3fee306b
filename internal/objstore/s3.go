package objstore

import (
	"context"
	"io"
	"time"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"
)

type s3Store struct {
	bk  *blob.Bucket
	ttl time.Duration
}

func openS3(ctx context.Context, c Config) (Store, error) {
	exportCredentials(c)
	bk, err := blob.OpenBucket(ctx, buildS3URL(c))
	if err != nil {
		return nil, err
	}
	return &s3Store{bk: bk, ttl: c.SignedURLTTL}, nil
}

func (s *s3Store) Put(ctx context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	w, err := s.bk.NewWriter(ctx, SanitizeKey(key), &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (s *s3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rd, err := s.bk.NewReader(ctx, SanitizeKey(key), nil)
	if gcerrors.Code(err) == gcerrors.NotFound {
		return nil, ErrNotExist
	}
	return rd, err
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	return s.bk.Delete(ctx, SanitizeKey(key))
}

func (s *s3Store) SignedURL(ctx context.Context, key string, method string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	return s.bk.SignedURL(ctx, SanitizeKey(key), &blob.SignedURLOptions{Method: method, Expiry: expiry})
}
