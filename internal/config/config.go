package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cuihairu/gamelink/internal/db"
	"github.com/cuihairu/gamelink/internal/objstore"
	"github.com/cuihairu/gamelink/internal/provision"
	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/rest"
)

// DefaultUploadDir is the file driver root when storage.base_dir is unset.
const DefaultUploadDir = "data/uploads"

type Config struct {
	rest.RestConf
	DB        db.Config         `json:"db,optional" yaml:"db"`
	Storage   objstore.Config   `json:"storage,optional" yaml:"storage"`
	Search    SearchConfig      `json:"search,optional" yaml:"search"`
	Site      SiteConfig        `json:"site,optional" yaml:"site"`
	Admins    []provision.Admin `json:"admins,optional" yaml:"admins"`
	Auth      AuthConfig        `json:"auth" yaml:"auth"`
	Provision ProvisionConfig   `json:"provision,optional" yaml:"provision"`
	// Logging is separate from the embedded go-zero Log section; it
	// configures the process writer shared by logx and slog.
	Logging LoggingConfig `json:"logging,optional" yaml:"logging"`
}

type SearchConfig struct {
	DisableFTS bool `json:"disable_fts,optional" yaml:"disable_fts"`
}

type SiteConfig struct {
	Name           string `json:"name,optional" yaml:"name"`
	WhatsappNumber string `json:"whatsapp_number,optional" yaml:"whatsapp_number"`
}

type AuthConfig struct {
	Secret         string        `json:"secret" yaml:"secret"`
	TokenTTL       time.Duration `json:"token_ttl,default=8h" yaml:"token_ttl"`
	RedisAddr      string        `json:"redis_addr,optional" yaml:"redis_addr"`
	RedisPassword  string        `json:"redis_password,optional" yaml:"redis_password"`
	LoginPerMinute float64       `json:"login_per_minute,default=10" yaml:"login_per_minute"`
	LoginBurst     int           `json:"login_burst,default=5" yaml:"login_burst"`
}

type ProvisionConfig struct {
	SeedFile string `json:"seed_file,optional" yaml:"seed_file"`
}

type LoggingConfig struct {
	Level      string `json:"level,default=info,options=debug|info|warn|error" yaml:"level"`
	Format     string `json:"format,default=console,options=console|json" yaml:"format"`
	File       string `json:"file,optional" yaml:"file"`
	MaxSize    int    `json:"max_size,default=100" yaml:"max_size"`
	MaxBackups int    `json:"max_backups,default=5" yaml:"max_backups"`
	MaxAge     int    `json:"max_age,default=30" yaml:"max_age"`
	Compress   bool   `json:"compress,optional" yaml:"compress"`
}

// FromSettings decodes a merged settings map (as produced by viper) into a
// Config, applying go-zero defaults, and validates the result.
func FromSettings(m map[string]any) (*Config, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("config: encode settings: %w", err)
	}
	var c Config
	if err := conf.LoadFromJsonBytes(raw, &c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyDefaults fills what go-zero leaves unset when a whole optional
// section is absent.
func (c *Config) applyDefaults() {
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.DSN == "" && strings.HasPrefix(c.DB.Driver, "sqlite") {
		c.DB.DSN = db.DefaultPath
	}
	if c.Storage.BaseDir == "" && (c.Storage.Driver == "" || c.Storage.Driver == "file") {
		c.Storage.BaseDir = DefaultUploadDir
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "file"
	}
	if c.Storage.PublicPrefix == "" {
		c.Storage.PublicPrefix = "/uploads/"
	}
	if c.Storage.SignedURLTTL <= 0 {
		c.Storage.SignedURLTTL = 15 * time.Minute
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

func (c *Config) Validate() error {
	if len(c.Auth.Secret) < 16 {
		return errors.New("config: auth.secret must be at least 16 bytes")
	}
	if err := objstore.Validate(c.Storage); err != nil {
		return fmt.Errorf("config: storage: %w", err)
	}
	seen := map[string]bool{}
	for i, a := range c.Admins {
		name := strings.TrimSpace(a.Username)
		if name == "" || a.Password == "" {
			return fmt.Errorf("config: admins[%d]: username and password required", i)
		}
		if seen[name] {
			return fmt.Errorf("config: admins[%d]: duplicate username %q", i, name)
		}
		seen[name] = true
	}
	return nil
}

// ProvisionOptions maps the config onto provisioning options.
func (c *Config) ProvisionOptions() provision.Options {
	return provision.Options{
		SiteName:       c.Site.Name,
		WhatsappNumber: c.Site.WhatsappNumber,
		Admins:         c.Admins,
		DisableFTS:     c.Search.DisableFTS,
		SeedFile:       c.Provision.SeedFile,
	}
}
