package objstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	oss "github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type ossStore struct {
	bk  *oss.Bucket
	ttl time.Duration
}

func openOSS(_ context.Context, c Config) (Store, error) {
	cli, err := oss.New(c.Endpoint, c.AccessKey, c.SecretKey)
	if err != nil {
		return nil, err
	}
	bk, err := cli.Bucket(c.Bucket)
	if err != nil {
		return nil, err
	}
	return &ossStore{bk: bk, ttl: c.SignedURLTTL}, nil
}

func (s *ossStore) Put(_ context.Context, key string, r io.ReadSeeker, _ int64, contentType string) error {
	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	return s.bk.PutObject(SanitizeKey(key), r, opts...)
}

func (s *ossStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bk.GetObject(SanitizeKey(key))
	if se, ok := err.(oss.ServiceError); ok && se.StatusCode == http.StatusNotFound {
		return nil, ErrNotExist
	}
	return rc, err
}

func (s *ossStore) Delete(_ context.Context, key string) error {
	return s.bk.DeleteObject(SanitizeKey(key))
}

func (s *ossStore) SignedURL(_ context.Context, key string, method string, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = s.ttl
	}
	var m oss.HTTPMethod
	switch method {
	case http.MethodGet, "":
		m = oss.HTTPGet
	case http.MethodPut:
		m = oss.HTTPPut
	case http.MethodDelete:
		m = oss.HTTPDelete
	default:
		return "", fmt.Errorf("oss: unsupported method %s", method)
	}
	return s.bk.SignURL(SanitizeKey(key), m, int64(expiry/time.Second))
}
