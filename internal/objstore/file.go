package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps objects under a local directory. It is the default driver
// and the one used on a single host with a persistent (or ephemeral) disk.
type FileStore struct {
	base         string
	publicPrefix string
}

func OpenFile(_ context.Context, c Config) (*FileStore, error) {
	if c.BaseDir == "" {
		return nil, fmt.Errorf("base_dir required for file driver")
	}
	if err := os.MkdirAll(c.BaseDir, 0o755); err != nil {
		return nil, err
	}
	prefix := c.PublicPrefix
	if prefix == "" {
		prefix = "/uploads/"
	}
	return &FileStore{base: c.BaseDir, publicPrefix: prefix}, nil
}

// Root is the absolute-or-relative directory objects live under.
func (s *FileStore) Root() string { return s.base }

// LocalPath maps a key onto the filesystem.
func (s *FileStore) LocalPath(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(SanitizeKey(key)))
}

func (s *FileStore) Put(_ context.Context, key string, r io.ReadSeeker, _ int64, _ string) error {
	p := s.LocalPath(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.Create(p)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(p)
		return err
	}
	return f.Close()
}

func (s *FileStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.LocalPath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotExist
	}
	return f, err
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	return os.Remove(s.LocalPath(key))
}

func (s *FileStore) SignedURL(_ context.Context, key string, method string, _ time.Duration) (string, error) {
	if method != "" && method != http.MethodGet {
		return "", fmt.Errorf("file driver: method %s not supported", method)
	}
	u := url.URL{Path: s.publicPrefix + SanitizeKey(key)}
	return u.String(), nil
}
