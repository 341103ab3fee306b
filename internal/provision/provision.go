// Package provision creates the catalog schema and brings reference data,
// settings and admin accounts to a known state. Run is idempotent and is
// executed on every start.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cuihairu/gamelink/internal/catalog"
	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultSiteName = "GameLinkBo"
	DefaultWhatsapp = "59177676446"
)

var (
	DefaultPlatforms = []string{"Steam", "PlayStation", "Xbox", "Switch", "PC"}
	DefaultGenres    = []string{"Acción", "Aventura", "RPG", "Shooter", "Indie", "Deportes", "Estrategia"}
)

type Admin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type Options struct {
	SiteName       string
	WhatsappNumber string
	Admins         []Admin
	DisableFTS     bool
	// SeedFile optionally names a YAML file with extra platforms, genres and
	// settings.
	SeedFile string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Report describes what a run did.
type Report struct {
	SearchEngine   string
	FTSError       error
	AdminsCreated  []string
	AdminsExisting []string
	Duration       time.Duration
}

// Run migrates the schema, seeds taxonomies and settings without
// overwriting existing rows, ensures the admins exist and tries to enable
// full-text search. Only schema, seed and admin failures are returned.
func Run(ctx context.Context, gdb *gorm.DB, opt Options) (*Report, error) {
	start := time.Now()
	sess := gdb.WithContext(ctx)
	if err := sess.AutoMigrate(catalog.Models()...); err != nil {
		return nil, fmt.Errorf("provision: migrate: %w", err)
	}
	if err := sess.Exec("CREATE UNIQUE INDEX IF NOT EXISTS ux_game_images_cover ON game_images (game_id) WHERE is_cover").Error; err != nil {
		return nil, fmt.Errorf("provision: cover index: %w", err)
	}

	seed := Seed{Platforms: DefaultPlatforms, Genres: DefaultGenres, Settings: map[string]string{
		catalog.SettingSiteName:     orDefault(opt.SiteName, DefaultSiteName),
		catalog.SettingWhatsapp:     orDefault(opt.WhatsappNumber, DefaultWhatsapp),
		catalog.SettingSearchEngine: catalog.SearchLike,
	}}
	if opt.SeedFile != "" {
		extra, err := LoadSeedFile(opt.SeedFile)
		if err != nil {
			return nil, err
		}
		seed = seed.Merge(extra)
	}
	if err := sess.Transaction(func(tx *gorm.DB) error { return seed.Apply(tx) }); err != nil {
		return nil, fmt.Errorf("provision: seed: %w", err)
	}

	rep := &Report{}
	for _, a := range opt.Admins {
		created, err := ensureAdmin(sess, a, opt.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("provision: admin %s: %w", a.Username, err)
		}
		if created {
			rep.AdminsCreated = append(rep.AdminsCreated, a.Username)
		} else {
			rep.AdminsExisting = append(rep.AdminsExisting, a.Username)
		}
	}

	rep.SearchEngine, rep.FTSError = enableSearch(ctx, gdb, opt.DisableFTS)
	if err := sess.Model(&catalog.Setting{}).Where("key = ?", catalog.SettingSearchEngine).
		Update("value", rep.SearchEngine).Error; err != nil {
		return nil, fmt.Errorf("provision: search mode: %w", err)
	}
	rep.Duration = time.Since(start)
	logx.WithContext(ctx).Infof("provision: done in %s, search=%s, admins created=%d existing=%d",
		rep.Duration, rep.SearchEngine, len(rep.AdminsCreated), len(rep.AdminsExisting))
	return rep, nil
}

// ensureAdmin creates the account only when the username is unknown; an
// existing row is never touched, so its password is not reset.
func ensureAdmin(sess *gorm.DB, a Admin, cost int) (bool, error) {
	a.Username = strings.TrimSpace(a.Username)
	if a.Username == "" {
		return false, errors.New("empty username")
	}
	var n int64
	if err := sess.Model(&catalog.User{}).Where("username = ?", a.Username).Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if a.Password == "" {
		return false, errors.New("empty password")
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), cost)
	if err != nil {
		return false, err
	}
	u := catalog.User{
		ID:           catalog.NewID("usr"),
		Username:     a.Username,
		PasswordHash: string(hash),
		Role:         catalog.RoleAdmin,
		IsActive:     true,
	}
	res := sess.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "username"}}, DoNothing: true}).Create(&u)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
