// Package objstore is the storage root for uploaded media. Keys are slash
// separated paths relative to that root ("originals/x.png"), so the database
// never records where the root actually lives.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// ErrNotExist is returned by Get when the key has no object.
var ErrNotExist = errors.New("object does not exist")

type Store interface {
	Put(ctx context.Context, key string, r io.ReadSeeker, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// SignedURL returns a URL a client can fetch the object from. For the
	// file driver this is a path under the public prefix.
	SignedURL(ctx context.Context, key string, method string, expiry time.Duration) (string, error)
}

type Config struct {
	Driver         string        `json:"driver,default=file"`
	BaseDir        string        `json:"base_dir,optional"`
	Bucket         string        `json:"bucket,optional"`
	Region         string        `json:"region,optional"`
	Endpoint       string        `json:"endpoint,optional"`
	AccessKey      string        `json:"access_key,optional"`
	SecretKey      string        `json:"secret_key,optional"`
	ForcePathStyle bool          `json:"force_path_style,optional"`
	PublicPrefix   string        `json:"public_prefix,default=/uploads/"`
	SignedURLTTL   time.Duration `json:"signed_url_ttl,default=15m"`
}

func Validate(c Config) error {
	switch strings.ToLower(c.Driver) {
	case "file", "":
		if c.BaseDir == "" {
			return errors.New("base_dir required for file driver")
		}
	case "s3":
		if c.Bucket == "" {
			return errors.New("bucket required for s3 driver")
		}
	case "oss":
		if c.Bucket == "" || c.Endpoint == "" {
			return errors.New("bucket and endpoint required for oss driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access_key/secret_key required for oss driver")
		}
	case "cos":
		if c.Bucket == "" {
			return errors.New("bucket required for cos driver")
		}
		if c.Region == "" && c.Endpoint == "" {
			return errors.New("region or endpoint required for cos driver")
		}
		if c.AccessKey == "" || c.SecretKey == "" {
			return errors.New("access_key/secret_key required for cos driver")
		}
	default:
		return fmt.Errorf("unknown storage driver: %s", c.Driver)
	}
	return nil
}

// Open validates c and returns the store for its driver.
func Open(ctx context.Context, c Config) (Store, error) {
	if err := Validate(c); err != nil {
		return nil, err
	}
	if c.SignedURLTTL <= 0 {
		c.SignedURLTTL = 15 * time.Minute
	}
	switch strings.ToLower(c.Driver) {
	case "s3":
		return openS3(ctx, c)
	case "oss":
		return openOSS(ctx, c)
	case "cos":
		return openCOS(ctx, c)
	default:
		return OpenFile(ctx, c)
	}
}

// SanitizeKey normalizes a key and drops empty, "." and ".." segments so a
// key can never escape the storage root.
func SanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "\\", "/")
	parts := strings.Split(key, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return path.Join(out...)
}

func buildS3URL(c Config) string {
	u := url.URL{Scheme: "s3", Host: c.Bucket}
	q := url.Values{}
	if c.Region != "" {
		q.Set("region", c.Region)
	}
	if c.Endpoint != "" {
		q.Set("endpoint", c.Endpoint)
	}
	if c.ForcePathStyle {
		q.Set("s3ForcePathStyle", "true")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// exportCredentials makes static keys visible to the AWS SDK default chain.
func exportCredentials(c Config) {
	if c.AccessKey != "" && os.Getenv("AWS_ACCESS_KEY_ID") == "" {
		_ = os.Setenv("AWS_ACCESS_KEY_ID", c.AccessKey)
	}
	if c.SecretKey != "" && os.Getenv("AWS_SECRET_ACCESS_KEY") == "" {
		_ = os.Setenv("AWS_SECRET_ACCESS_KEY", c.SecretKey)
	}
}
