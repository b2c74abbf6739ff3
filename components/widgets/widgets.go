// components/widgets/widgets.go
//
// Widgets component: a Record-backed entity with a JSON API, a shortcode,
// and its own schema.
//
// Routes
// ------
//
//	GET    /api/widgets/{id}   200 widget | 404
//	POST   /api/widgets        201 widget | 400 | 409
//	PATCH  /api/widgets/{id}   200 widget | 400 | 404 | 409
//	DELETE /api/widgets/{id}   204        | 404
//
// Writes need WriteCapability: anonymous callers get 401, users without it
// 403.  Reads stay public, like the shortcode.
//
// Shortcode
// ---------
//
//	[widget id="1"]   renders the `widget` view for row 1.
//
// Notes
// -----
// • Every record is versioned, so concurrent PATCHes of the same widget
//   surface as 409 instead of silently overwriting each other.
// • Oxford commas, two spaces after periods.
package widgets

import (
	"context"
	"errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/acl"
	"github.com/yanizio/plubo/internal/component"
	"github.com/yanizio/plubo/internal/metrics"
	"github.com/yanizio/plubo/internal/plugin"
	"github.com/yanizio/plubo/internal/record"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

const (
	// VersionColumn is the optimistic-concurrency counter.
	VersionColumn = "version"

	// WriteCapability guards POST, PATCH, and DELETE.
	WriteCapability = plugin.CapManageOptions
)

// Renderer is the slice of the view loader the shortcode needs.
type Renderer = plugin.Renderer

// Comp implements component.Component.
type Comp struct {
	backend record.Backend
	opts    []record.Option
	views   Renderer
	acl     acl.Checker
	count   func(ctx context.Context) (int64, error)
}

// New returns an uninitialised component; the registry calls Init.
func New() *Comp { return &Comp{} }

func (c *Comp) Name() string { return "widgets" }

// Init wires the backend, the capability store, the view loader, and the
// shortcode definition.
func (c *Comp) Init(d component.Deps) error {
	if d.Store == nil {
		return errors.New("widgets: no store")
	}
	grants, err := acl.NewStore(d.Store.DB(), d.Store.Prefix())
	if err != nil {
		return err
	}
	c.acl = grants
	c.backend = d.Store
	c.opts = append(append([]record.Option(nil), d.Record...), record.WithVersion(VersionColumn))
	if d.Views != nil {
		c.views = d.Views
	}
	c.count = func(ctx context.Context) (int64, error) {
		var n int64
		db := d.Store.DB()
		err := db.GetContext(ctx, &n, "SELECT COUNT(*) FROM "+d.Store.Prefix()+Widget{}.TableName())
		return n, err
	}
	if d.Shortcodes != nil {
		d.Shortcodes.Define(ShortcodeTag, c.shortcode)
	}
	return nil
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/widgets/{id}", c.get)

	w := r.With(acl.RequireCapability(c.acl, WriteCapability))
	w.Post("/api/widgets", c.create)
	w.Patch("/api/widgets/{id}", c.patch)
	w.Delete("/api/widgets/{id}", c.remove)
	return r
}

// Migrations returns the widgets DDL for dialect.
func (c *Comp) Migrations(dialect string) []string {
	if dialect == "mysql" {
		return []string{`CREATE TABLE IF NOT EXISTS {prefix}widgets (
			id      BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			name    VARCHAR(191)    NOT NULL UNIQUE,
			color   VARCHAR(32)     NULL,
			version BIGINT          NOT NULL DEFAULT 0
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`}
	}
	return []string{`CREATE TABLE IF NOT EXISTS {prefix}widgets (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		name    TEXT    NOT NULL UNIQUE,
		color   TEXT,
		version INTEGER NOT NULL DEFAULT 0
	)`}
}

// Count is the plugin's cron job: it publishes the row count as a gauge.
func (c *Comp) Count(ctx context.Context) error {
	if c.count == nil {
		return errors.New("widgets: not initialised")
	}
	n, err := c.count(ctx)
	if err != nil {
		return err
	}
	metrics.WidgetsTotal.Set(float64(n))
	zap.L().Info("widgets counted", zap.Int64("total", n))
	return nil
}
