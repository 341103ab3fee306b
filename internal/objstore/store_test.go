package objstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, Config{Driver: "file", BaseDir: dir})
	require.NoError(t, err)

	body := []byte("hello")
	require.NoError(t, s.Put(ctx, "thumbs/a.jpg", bytes.NewReader(body), int64(len(body)), "image/jpeg"))
	_, err = os.Stat(filepath.Join(dir, "thumbs", "a.jpg"))
	require.NoError(t, err)

	rc, err := s.Get(ctx, "thumbs/a.jpg")
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, body, got)

	u, err := s.SignedURL(ctx, "thumbs/a.jpg", "GET", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/thumbs/a.jpg", u)
	_, err = s.SignedURL(ctx, "thumbs/a.jpg", "PUT", time.Minute)
	assert.Error(t, err)

	require.NoError(t, s.Delete(ctx, "thumbs/a.jpg"))
	_, err = s.Get(ctx, "thumbs/a.jpg")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestKeysStayUnderRoot(t *testing.T) {
	assert.Equal(t, "originals/x.png", SanitizeKey("../../originals/./x.png"))
	assert.Equal(t, "a/b", SanitizeKey(`a\..\b`))

	fs, err := OpenFile(context.Background(), Config{BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fs.Root(), "etc", "passwd"), fs.LocalPath("/../etc/passwd"))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		c    Config
		ok   bool
	}{
		{"file", Config{Driver: "file", BaseDir: "x"}, true},
		{"file without dir", Config{Driver: "file"}, false},
		{"s3", Config{Driver: "s3", Bucket: "b"}, true},
		{"oss without keys", Config{Driver: "oss", Bucket: "b", Endpoint: "e"}, false},
		{"cos", Config{Driver: "cos", Bucket: "b", Region: "ap", AccessKey: "k", SecretKey: "s"}, true},
		{"unknown", Config{Driver: "ftp"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.c)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	assert.Equal(t, "s3://b?endpoint=http%3A%2F%2Fminio%3A9000&region=us-east-1&s3ForcePathStyle=true",
		buildS3URL(Config{Bucket: "b", Region: "us-east-1", Endpoint: "http://minio:9000", ForcePathStyle: true}))
}
