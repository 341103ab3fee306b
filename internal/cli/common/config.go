package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/cuihairu/gamelink/internal/config"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultConfigFile is read when --config is not given; it may be absent.
const DefaultConfigFile = "etc/gamelink.yaml"

// EnvPrefix prefixes every environment override, e.g. GAMELINK_DB_DSN.
const EnvPrefix = "GAMELINK"

// envKeys may be overridden from the environment.
var envKeys = []string{
	"name", "host", "port",
	"db.driver", "db.dsn", "db.max_open_conns", "db.debug",
	"storage.driver", "storage.base_dir", "storage.bucket", "storage.region", "storage.endpoint",
	"storage.access_key", "storage.secret_key", "storage.force_path_style", "storage.signed_url_ttl",
	"search.disable_fts",
	"site.name", "site.whatsapp_number",
	"auth.secret", "auth.token_ttl", "auth.redis_addr", "auth.redis_password",
	"auth.login_per_minute", "auth.login_burst",
	"provision.seed_file",
	"logging.level", "logging.format", "logging.file", "logging.compress",
}

var (
	boolKeys  = []string{"db.debug", "storage.force_path_style", "search.disable_fts", "logging.compress"}
	intKeys   = []string{"port", "db.max_open_conns", "auth.login_burst", "logging.max_size", "logging.max_backups", "logging.max_age"}
	floatKeys = []string{"auth.login_per_minute"}
)

// FlagKeys maps command line flags onto settings keys.
var FlagKeys = map[string]string{
	"port":        "port",
	"db":          "db.dsn",
	"uploads":     "storage.base_dir",
	"disable-fts": "search.disable_fts",
	"log-level":   "logging.level",
	"log-format":  "logging.format",
}

// LoadWithIncludes reads base config and merges includes in order.
func LoadWithIncludes(base string, includes []string) (*viper.Viper, error) {
	v := viper.New()
	if base != "" {
		v.SetConfigFile(base)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}
	for _, inc := range includes {
		iv := viper.New()
		iv.SetConfigFile(inc)
		if err := iv.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("include %s: %w", inc, err)
		}
		if err := v.MergeConfigMap(iv.AllSettings()); err != nil {
			return nil, fmt.Errorf("include %s: %w", inc, err)
		}
	}
	return v, nil
}

// mergeMaps recursively merges b into a.
func mergeMaps(a, b map[string]any) map[string]any {
	for k, vb := range b {
		if ma, ok := a[k].(map[string]any); ok {
			if mb, ok2 := vb.(map[string]any); ok2 {
				a[k] = mergeMaps(ma, mb)
				continue
			}
		}
		a[k] = vb
	}
	return a
}

// ApplyProfile overlays profiles.<name> onto the root settings.
func ApplyProfile(v *viper.Viper, profile string) (*viper.Viper, error) {
	if profile == "" {
		return v, nil
	}
	p := v.Sub("profiles." + profile)
	if p == nil {
		return nil, fmt.Errorf("profile %s not found", profile)
	}
	merged := mergeMaps(v.AllSettings(), p.AllSettings())
	delete(merged, "profiles")
	nv := viper.New()
	if err := nv.MergeConfigMap(merged); err != nil {
		return nil, err
	}
	return nv, nil
}

// LoadOptions names the sources LoadConfig merges, lowest priority first:
// config file and includes, profile overlay, environment, changed flags.
type LoadOptions struct {
	File     string
	Includes []string
	Profile  string
	Flags    *pflag.FlagSet
}

// LoadConfig merges all sources and decodes them into a validated Config.
func LoadConfig(opt LoadOptions) (*config.Config, error) {
	if opt.File == DefaultConfigFile {
		if _, err := os.Stat(opt.File); errors.Is(err, fs.ErrNotExist) {
			opt.File = ""
		}
	}
	v, err := LoadWithIncludes(opt.File, opt.Includes)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if v, err = ApplyProfile(v, opt.Profile); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	if opt.Flags != nil {
		var bindErr error
		opt.Flags.Visit(func(f *pflag.Flag) {
			if key, ok := FlagKeys[f.Name]; ok && bindErr == nil {
				bindErr = v.BindPFlag(key, f)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	m := v.AllSettings()
	coerce(v, m)
	appendEnvAdmin(m)
	return config.FromSettings(m)
}

// coerce replaces string values that came from the environment with the
// typed value for keys that are not strings.
func coerce(v *viper.Viper, m map[string]any) {
	for _, k := range boolKeys {
		if v.IsSet(k) {
			setPath(m, k, v.GetBool(k))
		}
	}
	for _, k := range intKeys {
		if v.IsSet(k) {
			setPath(m, k, v.GetInt(k))
		}
	}
	for _, k := range floatKeys {
		if v.IsSet(k) {
			setPath(m, k, v.GetFloat64(k))
		}
	}
}

func setPath(m map[string]any, key string, val any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = val
}

// appendEnvAdmin adds GAMELINK_ADMIN_USERNAME/GAMELINK_ADMIN_PASSWORD to the
// admins list unless that username is already configured.
func appendEnvAdmin(m map[string]any) {
	user := strings.TrimSpace(os.Getenv(EnvPrefix + "_ADMIN_USERNAME"))
	pass := os.Getenv(EnvPrefix + "_ADMIN_PASSWORD")
	if user == "" || pass == "" {
		return
	}
	list, _ := m["admins"].([]any)
	for _, it := range list {
		if a, ok := it.(map[string]any); ok && fmt.Sprint(a["username"]) == user {
			return
		}
	}
	m["admins"] = append(list, map[string]any{"username": user, "password": pass})
}
