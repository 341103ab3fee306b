package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
name: gamelink
port: 8080
db:
  dsn: base.db
auth:
  secret: 0123456789abcdef
admins:
  - username: root
    password: pw
profiles:
  dev:
    db:
      dsn: dev.db
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadConfigPrecedence(t *testing.T) {
	file := writeFile(t, "gamelink.yaml", sampleYAML)

	c, err := LoadConfig(LoadOptions{File: file})
	require.NoError(t, err)
	assert.Equal(t, "base.db", c.DB.DSN)
	assert.Equal(t, 8080, c.Port)

	c, err = LoadConfig(LoadOptions{File: file, Profile: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev.db", c.DB.DSN)

	t.Setenv("GAMELINK_DB_DSN", "env.db")
	t.Setenv("GAMELINK_SEARCH_DISABLE_FTS", "true")
	t.Setenv("GAMELINK_PORT", "9090")
	c, err = LoadConfig(LoadOptions{File: file})
	require.NoError(t, err)
	assert.Equal(t, "env.db", c.DB.DSN)
	assert.True(t, c.Search.DisableFTS)
	assert.Equal(t, 9090, c.Port)

	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.String("db", "", "")
	fs.Int("port", 0, "")
	require.NoError(t, fs.Parse([]string{"--db", "flag.db"}))
	c, err = LoadConfig(LoadOptions{File: file, Flags: fs})
	require.NoError(t, err)
	assert.Equal(t, "flag.db", c.DB.DSN)
	assert.Equal(t, 9090, c.Port, "unset flags do not shadow other sources")
}

func TestLoadConfigIncludesAndEnvAdmin(t *testing.T) {
	file := writeFile(t, "gamelink.yaml", sampleYAML)
	inc := writeFile(t, "site.yaml", "site:\n  name: Tienda\n")
	t.Setenv("GAMELINK_ADMIN_USERNAME", "ops")
	t.Setenv("GAMELINK_ADMIN_PASSWORD", "secret")

	c, err := LoadConfig(LoadOptions{File: file, Includes: []string{inc}})
	require.NoError(t, err)
	assert.Equal(t, "Tienda", c.Site.Name)
	require.Len(t, c.Admins, 2)
	assert.Equal(t, "ops", c.Admins[1].Username)

	_, err = LoadConfig(LoadOptions{File: file, Profile: "missing"})
	assert.Error(t, err)
}
