package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/plubo/components/admin"
	"github.com/yanizio/plubo/internal/acl"
	"github.com/yanizio/plubo/internal/auth"
	"github.com/yanizio/plubo/internal/component"
	"github.com/yanizio/plubo/internal/database"
	"github.com/yanizio/plubo/internal/hook"
	"github.com/yanizio/plubo/internal/plugin"
	"github.com/yanizio/plubo/internal/view"
)

func setup(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenWithOptions(ctx,
		filepath.Join(t.TempDir(), "admin.db"),
		database.DefaultOptions(database.DriverSQLite))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	viewsDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(viewsDir, "settings.html"),
		[]byte(`<h1>{{ .Plugin.Name }} {{ .Plugin.Version }}</h1>`), 0o644))
	views, err := view.New(viewsDir, 4)
	require.NoError(t, err)

	store := database.NewStore(db, "wp_")
	menu := plugin.NewMenu()
	p := plugin.Plugin{Name: "plubo", Version: "1.2.0"}

	reg := component.NewRegistry()
	require.NoError(t, reg.Add(admin.New()))
	require.NoError(t, reg.Migrate(ctx, db, database.DriverSQLite, store.Prefix()))
	require.NoError(t, reg.Init(component.Deps{Plugin: p, Store: store, Views: views, Menu: menu}))

	bus := hook.NewBus()
	plugin.NewAdminMenus(p, menu, views).Register(bus)
	require.NoError(t, bus.Fire(ctx, hook.AdminMenu))
	require.NoError(t, menu.Add(plugin.MenuPage{
		PageTitle: "About",
		MenuTitle: "About",
		Slug:      "about",
		Position:  1,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("about"))
		}),
	}))

	grants, err := acl.NewStore(db, store.Prefix())
	require.NoError(t, err)
	require.NoError(t, grants.Grant(ctx, "administrator", plugin.CapManageOptions))
	require.NoError(t, grants.Assign(ctx, 1, "administrator"))

	router := chi.NewRouter()
	router.Use(auth.FromHeader(auth.DefaultHeader))
	require.NoError(t, reg.Mount(router))
	return router
}

func get(h http.Handler, path, user string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if user != "" {
		req.Header.Set(auth.DefaultHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func slugs(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var pages []struct {
		Slug string `json:"slug"`
		URL  string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pages))
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		assert.Equal(t, "/admin/"+p.Slug, p.URL)
		out = append(out, p.Slug)
	}
	return out
}

func TestAdminIndex(t *testing.T) {
	h := setup(t)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/admin", "").Code)

	rec := get(h, "/admin", "1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"about", "plubo"}, slugs(t, rec))

	rec = get(h, "/admin", "2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"about"}, slugs(t, rec))
}

func TestAdminPage(t *testing.T) {
	h := setup(t)

	cases := []struct {
		name string
		path string
		user string
		want int
		body string
	}{
		{"settings as admin", "/admin/plubo", "1", http.StatusOK, "<h1>plubo 1.2.0</h1>"},
		{"settings as subscriber", "/admin/plubo", "2", http.StatusForbidden, ""},
		{"settings anonymous", "/admin/plubo", "", http.StatusUnauthorized, ""},
		{"open page anonymous", "/admin/about", "", http.StatusOK, "about"},
		{"unknown page", "/admin/nope", "1", http.StatusNotFound, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(h, tc.path, tc.user)
			assert.Equal(t, tc.want, rec.Code)
			if tc.body != "" {
				assert.Equal(t, tc.body, rec.Body.String())
			}
		})
	}
}

func TestAdminInitNeedsMenu(t *testing.T) {
	require.Error(t, admin.New().Init(component.Deps{}))
}
