package media

import (
	"context"
	"errors"
	"io/fs"

	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/zeromicro/go-zero/core/logx"
)

// Cleanup is the outcome of a best-effort file removal. Failures are kept
// for inspection and logging; they are never returned as errors because the
// database is the authority on catalog state.
type Cleanup struct {
	Attempted []string
	Failed    map[string]error
}

func (c Cleanup) OK() bool { return len(c.Failed) == 0 }

// Merge appends o into c.
func (c *Cleanup) Merge(o Cleanup) {
	c.Attempted = append(c.Attempted, o.Attempted...)
	for k, v := range o.Failed {
		if c.Failed == nil {
			c.Failed = make(map[string]error)
		}
		c.Failed[k] = v
	}
}

// Remove deletes each non-empty path. A path that is already gone counts as
// removed.
func (in *Ingestor) Remove(ctx context.Context, paths ...string) Cleanup {
	var out Cleanup
	for _, p := range paths {
		if p == "" {
			continue
		}
		out.Attempted = append(out.Attempted, p)
		err := in.store.Delete(ctx, p)
		if err == nil || errors.Is(err, fs.ErrNotExist) || errors.Is(err, objstore.ErrNotExist) {
			continue
		}
		if out.Failed == nil {
			out.Failed = make(map[string]error)
		}
		out.Failed[p] = &StorageError{Op: "delete", Path: p, Err: err}
		logx.WithContext(ctx).Errorf("media: remove %s: %v", p, err)
	}
	return out
}
