// internal/plugin/menus.go
//
// Admin menu registry and the plugin's settings page.
//
// Context
// -------
// `Menu` is the host-side collection of admin pages; the admin component
// mounts each page at /admin/{slug} behind its capability.  `AdminMenus`
// is the plugin-side shim: on `admin_menu` it adds one settings page whose
// slug is the plugin name.
//
// Notes
// -----
// • Pages are listed by Position, then MenuTitle.
// • Oxford commas, two spaces after periods.

package plugin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/hook"
)

// Settings page defaults.
const (
	CapManageOptions = "manage_options"
	SettingsIcon     = "dashicons-admin-settings"
	SettingsPosition = 6
	SettingsView     = "settings"
)

// Renderer is the slice of the view loader the settings page needs.
type Renderer interface {
	Render(w io.Writer, name string, data any) error
}

// MenuPage is one admin page.
type MenuPage struct {
	PageTitle  string
	MenuTitle  string
	Capability string
	Slug       string
	Icon       string
	Position   int
	Handler    http.Handler
}

// Menu is safe for concurrent use.
type Menu struct {
	mu    sync.RWMutex
	pages map[string]MenuPage
}

// NewMenu returns an empty menu.
func NewMenu() *Menu {
	return &Menu{pages: make(map[string]MenuPage)}
}

// Add registers p.  Slugs are unique.
func (m *Menu) Add(p MenuPage) error {
	if p.Slug == "" || p.Handler == nil {
		return fmt.Errorf("menu page %q needs a slug and a handler", p.MenuTitle)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.pages[p.Slug]; dup {
		return fmt.Errorf("menu page %q already registered", p.Slug)
	}
	m.pages[p.Slug] = p
	return nil
}

// Page looks up one page by slug.
func (m *Menu) Page(slug string) (MenuPage, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[slug]
	return p, ok
}

// Pages returns every page in menu order.
func (m *Menu) Pages() []MenuPage {
	m.mu.RLock()
	out := make([]MenuPage, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].MenuTitle < out[j].MenuTitle
	})
	return out
}

/*────────────────────────────── AdminMenus ────────────────────────────────*/

// AdminMenus adds the plugin's settings page on `admin_menu`.
type AdminMenus struct {
	plugin Plugin
	menu   *Menu
	views  Renderer
}

// NewAdminMenus has no side effects; call Register.
func NewAdminMenus(p Plugin, menu *Menu, views Renderer) *AdminMenus {
	return &AdminMenus{plugin: p, menu: menu, views: views}
}

// Register attaches the shim to bus.
func (a *AdminMenus) Register(bus *hook.Bus) {
	bus.On(hook.AdminMenu, a.addMenus)
}

func (a *AdminMenus) addMenus(context.Context, ...any) error {
	return a.menu.Add(MenuPage{
		PageTitle:  a.plugin.Name + " settings",
		MenuTitle:  a.plugin.Name,
		Capability: CapManageOptions,
		Slug:       a.plugin.Name,
		Icon:       SettingsIcon,
		Position:   SettingsPosition,
		Handler:    http.HandlerFunc(a.settings),
	})
}

// SettingsData is passed to the settings view.
type SettingsData struct {
	Plugin Plugin
	Pages  []MenuPage
}

func (a *AdminMenus) settings(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	data := SettingsData{Plugin: a.plugin, Pages: a.menu.Pages()}
	if err := a.views.Render(&buf, SettingsView, data); err != nil {
		zap.L().Error("settings render", zap.String("plugin", a.plugin.Name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
