package provision

import (
	"context"
	"errors"

	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/cuihairu/gamelink/internal/db"
	"github.com/zeromicro/go-zero/core/logx"
	"gorm.io/gorm"
)

var errNoFTS = errors.New("full-text index needs sqlite")

var dropFTS = []string{
	"DROP TRIGGER IF EXISTS games_ai",
	"DROP TRIGGER IF EXISTS games_ad",
	"DROP TRIGGER IF EXISTS games_au",
	"DROP TABLE IF EXISTS games_fts",
}

// createFTS builds an external-content FTS5 index over games and keeps it
// in sync with triggers. Removals use the FTS5 'delete' command with the
// old column values, which external-content tables require.
var createFTS = []string{
	`CREATE VIRTUAL TABLE games_fts USING fts5(
  title, description,
  content='games',
  content_rowid='rowid'
)`,
	`CREATE TRIGGER games_ai AFTER INSERT ON games BEGIN
  INSERT INTO games_fts(rowid, title, description) VALUES (new.rowid, new.title, new.description);
END`,
	`CREATE TRIGGER games_ad AFTER DELETE ON games BEGIN
  INSERT INTO games_fts(games_fts, rowid, title, description) VALUES ('delete', old.rowid, old.title, old.description);
END`,
	`CREATE TRIGGER games_au AFTER UPDATE OF title, description ON games BEGIN
  INSERT INTO games_fts(games_fts, rowid, title, description) VALUES ('delete', old.rowid, old.title, old.description);
  INSERT INTO games_fts(rowid, title, description) VALUES (new.rowid, new.title, new.description);
END`,
	`INSERT INTO games_fts(games_fts) VALUES ('rebuild')`,
}

// enableSearch recreates the FTS index and reports the mode to record. Any
// failure leaves the previous state in place and yields like.
func enableSearch(ctx context.Context, gdb *gorm.DB, disabled bool) (string, error) {
	log := logx.WithContext(ctx)
	sess := gdb.WithContext(ctx)
	if !db.IsSQLite(gdb) {
		log.Infof("provision: %v, using like search", errNoFTS)
		return catalog.SearchLike, errNoFTS
	}
	if disabled {
		for _, stmt := range dropFTS {
			if err := sess.Exec(stmt).Error; err != nil {
				log.Errorf("provision: drop stale fts objects: %v", err)
			}
		}
		log.Info("provision: fts disabled by configuration, using like search")
		return catalog.SearchLike, nil
	}
	err := sess.Transaction(func(tx *gorm.DB) error {
		for _, stmt := range append(append([]string{}, dropFTS...), createFTS...) {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("provision: fts5 unavailable, using like search: %v", err)
		return catalog.SearchLike, err
	}
	log.Info("provision: fts5 search enabled")
	return catalog.SearchFTS, nil
}
