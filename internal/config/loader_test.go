package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, yaml string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	return root
}

const minimal = `
plugin:
  name: acme_widgets
  version: 1.0.0
database:
  driver: sqlite
  dsn: plubo.db
`

func TestLoadDefaults(t *testing.T) {
	root := writeConf(t, minimal)

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.Equal(t, "acme_widgets", cfg.Plugin.Name)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "wp_", cfg.Database.TablePrefix)
	assert.Equal(t, time.Hour, cfg.Cron.Interval)
	assert.Equal(t, 64, cfg.Views.CacheSize)
	assert.Equal(t, filepath.Join(root, "views"), cfg.Views.Dir)
	assert.False(t, cfg.Record.LegacySilent)
	assert.Equal(t, root, cfg.Paths.Root)
	assert.Same(t, cfg, Get())
}

func TestLoadEnvOverrides(t *testing.T) {
	root := writeConf(t, minimal)
	t.Setenv("PLUBO_RECORD__LEGACY_SILENT", "true")
	t.Setenv("PLUBO_HTTP__LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("PLUBO_CRON__INTERVAL", "15m")

	cfg, err := LoadFrom(root)
	require.NoError(t, err)

	assert.True(t, cfg.Record.LegacySilent)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.ListenAddr)
	assert.Equal(t, 15*time.Minute, cfg.Cron.Interval)
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"missing plugin": `
database:
  driver: sqlite
  dsn: x.db
`,
		"bad slug": `
plugin: {name: "Acme Widgets", version: "1"}
database: {driver: sqlite, dsn: x.db}
`,
		"bad driver": `
plugin: {name: acme, version: "1"}
database: {driver: postgres, dsn: x}
`,
		"bad prefix": `
plugin: {name: acme, version: "1"}
database: {driver: sqlite, dsn: x.db, table_prefix: "wp-"}
`,
		"tiny interval": `
plugin: {name: acme, version: "1"}
database: {driver: sqlite, dsn: x.db}
cron: {interval: 10ms}
`,
	}
	for name, yaml := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFrom(writeConf(t, yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	assert.Error(t, err)
}

func TestRootDirEnv(t *testing.T) {
	t.Setenv("PLUBO_ROOT", "/srv/plubo")
	assert.Equal(t, "/srv/plubo", rootDir())
}

func TestShippedConfig(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join("..", ".."))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "plubo@tcp(127.0.0.1:3306)/wordpress", cfg.Database.DSN)
	assert.NotContains(t, cfg.Database.DSN, "parseTime", "database.Open adds driver flags")
	assert.Equal(t, "vault:secret/plubo/db#password", cfg.Database.Password)
}
