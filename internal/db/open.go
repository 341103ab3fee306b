package db

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	glebarez "github.com/glebarez/sqlite"
	gpostgres "gorm.io/driver/postgres"
	gsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	// Driver: sqlite (pure Go, default) | sqlite3 (cgo) | postgres
	Driver string `json:"driver,default=sqlite"`
	// DSN is a file path / file: URI for sqlite drivers, a URL for postgres.
	DSN          string `json:"dsn,optional"`
	MaxOpenConns int    `json:"max_open_conns,default=8"`
	Debug        bool   `json:"debug,optional"`
}

// DefaultPath is where the database file lives when no DSN is configured.
const DefaultPath = "data/market.db"

// Open opens a gorm.DB for c. SQLite connections get foreign keys, WAL and
// synchronous=NORMAL on every pooled connection.
func Open(c Config) (*gorm.DB, error) {
	gc := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn), TranslateError: true}
	if c.Debug {
		gc.Logger = logger.Default.LogMode(logger.Info)
	}
	var dialector gorm.Dialector
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql", "pgx":
		dialector = gpostgres.Open(c.DSN)
	case "sqlite3":
		dsn, err := sqliteDSN(c.DSN, mattnPragmas)
		if err != nil {
			return nil, err
		}
		dialector = gsqlite.Open(dsn)
	case "sqlite", "":
		dsn, err := sqliteDSN(c.DSN, modernPragmas)
		if err != nil {
			return nil, err
		}
		dialector = glebarez.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver: %s", c.Driver)
	}
	gdb, err := gorm.Open(dialector, gc)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Driver, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	if c.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	return gdb, nil
}

// Close releases the pool behind gdb.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsSQLite reports whether gdb talks to one of the sqlite drivers.
func IsSQLite(gdb *gorm.DB) bool {
	return gdb.Dialector.Name() == "sqlite"
}

var modernPragmas = url.Values{"_pragma": {
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}}

var mattnPragmas = url.Values{
	"_foreign_keys": {"on"},
	"_journal_mode": {"WAL"},
	"_synchronous":  {"NORMAL"},
	"_busy_timeout": {"5000"},
}

// sqliteDSN turns a plain path (or file: URI) into a file: URI carrying the
// pragmas. Parent directories are created for file-backed databases.
func sqliteDSN(dsn string, pragmas url.Values) (string, error) {
	if dsn == "" {
		dsn = DefaultPath
	}
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	path, rawQuery, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("sqlite dsn: %w", err)
	}
	if path != ":memory:" && q.Get("mode") != "memory" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", err
			}
		}
	}
	for k, vs := range pragmas {
		if q.Has(k) && k != "_pragma" {
			continue
		}
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return "file:" + path + "?" + q.Encode(), nil
}
