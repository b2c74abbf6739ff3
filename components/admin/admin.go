// components/admin/admin.go
//
// Admin component: serves the admin menu behind capability checks.
//
// Routes
// ------
//
//	GET /admin          200 JSON list of pages the user may open | 401
//	GET /admin/{slug}   the page handler | 401 | 403 | 404
//
// Context
// -------
// Pages are added to the shared plugin.Menu when the host fires
// `admin_menu`, which happens after Init.  Both routes therefore read the
// menu per request.  Grants live in the acl tables this component migrates.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/acl"
	"github.com/yanizio/plubo/internal/auth"
	"github.com/yanizio/plubo/internal/component"
	"github.com/yanizio/plubo/internal/plugin"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	acl  acl.Checker
	menu *plugin.Menu
}

// New returns an uninitialised component; the registry calls Init.
func New() *Comp { return &Comp{} }

func (c *Comp) Name() string { return "admin" }

// Init binds the acl store and the shared menu.
func (c *Comp) Init(d component.Deps) error {
	if d.Store == nil || d.Menu == nil {
		return errors.New("admin: store and menu are required")
	}
	store, err := acl.NewStore(d.Store.DB(), d.Store.Prefix())
	if err != nil {
		return err
	}
	c.acl, c.menu = store, d.Menu
	return nil
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/admin", c.index)
	r.Get("/admin/{slug}", c.page)
	return r
}

func (c *Comp) Migrations(dialect string) []string { return acl.Migrations(dialect) }

// entry is the JSON shape of one menu page.
type entry struct {
	Slug      string `json:"slug"`
	PageTitle string `json:"page_title"`
	MenuTitle string `json:"menu_title"`
	Icon      string `json:"icon,omitempty"`
	Position  int    `json:"position"`
	URL       string `json:"url"`
}

func (c *Comp) index(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	out := []entry{}
	for _, p := range c.menu.Pages() {
		if p.Capability != "" {
			allowed, err := c.acl.Can(r.Context(), uid, p.Capability)
			if err != nil {
				zap.L().Error("admin menu", zap.Int64("user", uid), zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !allowed {
				continue
			}
		}
		out = append(out, entry{
			Slug:      p.Slug,
			PageTitle: p.PageTitle,
			MenuTitle: p.MenuTitle,
			Icon:      p.Icon,
			Position:  p.Position,
			URL:       "/admin/" + p.Slug,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		zap.L().Warn("admin menu encode", zap.Error(err))
	}
}

func (c *Comp) page(w http.ResponseWriter, r *http.Request) {
	p, ok := c.menu.Page(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	acl.RequireCapability(c.acl, p.Capability)(p.Handler).ServeHTTP(w, r)
}
