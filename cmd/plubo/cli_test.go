package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/plubo/internal/record"
)

// project writes a SQLite-backed conf tree and returns its root.
func project(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "conf"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views"), 0o755))

	yaml := `plugin:
  name: plubo
  version: test
database:
  driver: sqlite
  dsn: ` + filepath.Join(root, "plubo.db") + `
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "conf", "global.yaml"), []byte(yaml), 0o644))
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestWidgetCommands(t *testing.T) {
	root := project(t)

	out, err := run(t, "--root", root, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated 2 components")

	out, err = run(t, "--root", root, "widget", "create", "--name", "Acme")
	require.NoError(t, err)
	var w struct {
		ID      int64   `json:"id"`
		Name    string  `json:"name"`
		Color   *string `json:"color"`
		Version int64   `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Equal(t, int64(1), w.ID)
	assert.Nil(t, w.Color)

	out, err = run(t, "--root", root, "widget", "set", "1", "color", "red")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	require.NotNil(t, w.Color)
	assert.Equal(t, "red", *w.Color)
	assert.Equal(t, int64(2), w.Version)

	out, err = run(t, "--root", root, "widget", "set", "1", "color", "--null")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Nil(t, w.Color)

	_, err = run(t, "--root", root, "widget", "set", "1", "version", "9")
	assert.ErrorIs(t, err, record.ErrReadOnly)

	_, err = run(t, "--root", root, "widget", "create", "--name", "Acme")
	assert.ErrorIs(t, err, record.ErrConstraint)

	out, err = run(t, "--root", root, "widget", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "deleted 1\n", out)

	_, err = run(t, "--root", root, "widget", "get", "1")
	assert.ErrorIs(t, err, record.ErrNotFound)

	_, err = run(t, "--root", root, "widget", "get", "abc")
	assert.Error(t, err)
}

func TestACLCommands(t *testing.T) {
	root := project(t)
	_, err := run(t, "--root", root, "migrate")
	require.NoError(t, err)

	out, err := run(t, "--root", root, "acl", "grant", "administrator", "manage_options")
	require.NoError(t, err)
	assert.Equal(t, "granted manage_options to administrator\n", out)

	out, err = run(t, "--root", root, "acl", "assign", "7", "administrator")
	require.NoError(t, err)
	assert.Equal(t, "assigned administrator to user 7\n", out)

	_, err = run(t, "--root", root, "acl", "assign", "7", "ghost")
	assert.Error(t, err)
}

func TestEntityCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")

	out, err := run(t, "entity", "gift", "card", "--dir", dir, "--package", "shop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "created "))

	src, err := os.ReadFile(filepath.Join(dir, "gift_card.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "type GiftCard struct")

	_, err = run(t, "entity", "gift-card", "--dir", dir, "--package", "shop")
	assert.Error(t, err)
}

func TestFunctionalityCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shop")

	cases := []struct {
		args []string
		file string
		typ  string
	}{
		{[]string{"crons"}, "crons.go", "Crons"},
		{[]string{"Admin-Menus"}, filepath.Join("admin", "admin_menus.go"), "AdminMenus"},
		{[]string{"shortcodes", "gift", "tags"}, "gift_tags.go", "GiftTags"},
		{[]string{"custom", "price", "sync"}, "price_sync.go", "PriceSync"},
		{[]string{"stock", "alerts"}, "stock_alerts.go", "StockAlerts"},
	}
	for _, tc := range cases {
		args := append([]string{"functionality"}, tc.args...)
		out, err := run(t, append(args, "--dir", dir, "--package", "shop")...)
		require.NoError(t, err, tc.args)
		assert.Equal(t, "created "+filepath.Join(dir, tc.file)+"\n", out)

		src, err := os.ReadFile(filepath.Join(dir, tc.file))
		require.NoError(t, err)
		assert.Contains(t, string(src), "type "+tc.typ+" struct")
		assert.Contains(t, string(src), "Register(bus *hook.Bus)")
	}

	_, err := run(t, "functionality", "crons", "--dir", dir, "--package", "shop")
	assert.Error(t, err, "existing file")

	_, err = run(t, "functionality", "custom", "--dir", dir)
	assert.Error(t, err, "custom without a name")
}

func TestComponentCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, "component", "gift-card", "--dir", dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "giftcard", "giftcard.go")
	assert.Equal(t, "created "+path+"\n", out)

	src, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(src), "var _ component.Component = (*Comp)(nil)")

	_, err = run(t, "component", "gift", "card", "--dir", dir)
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	_, err := run(t, "--root", t.TempDir(), "migrate")
	assert.Error(t, err)
}
