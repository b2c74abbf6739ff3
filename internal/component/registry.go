// internal/component/registry.go
//
// Component registry.
//
// Context
// -------
// Each concrete component lives under components/<name>.  The host builds
// one Registry, adds every component explicitly, then:
//
//  1. Init(deps)     – hands shared resources to each component, in order.
//  2. Mount(router)  – copies every component route onto the host router.
//  3. Migrate(…)     – runs DDL, usually from `plubo migrate`.
//
// Nothing registers itself from an init() function.
//
// Notes
// -----
// • Routes are merged with chi.Walk, so components declare absolute paths
//   and keep their own middleware stacks.
// • Migration statements use the {prefix} placeholder for the table prefix.
// • Oxford commas, two spaces after periods.
package component

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/plubo/internal/database"
	"github.com/yanizio/plubo/internal/plugin"
	"github.com/yanizio/plubo/internal/record"
	"github.com/yanizio/plubo/internal/view"
)

// PrefixPlaceholder is replaced by the table prefix in migrations.
const PrefixPlaceholder = "{prefix}"

// Deps exposes shared resources to Components during Init.
type Deps struct {
	Plugin     plugin.Plugin
	Store      *database.Store // record.Backend; Store.DB() for raw queries
	Views      *view.Loader
	Menu       *plugin.Menu
	Shortcodes *plugin.Shortcodes
	Record     []record.Option // e.g. WithLegacySilent from config
}

// Component contract.
//
// Migrations(dialect) may return nil if the component has no schema.
// Routes() may return nil if the component serves no HTTP.  Routes use
// flat, absolute paths; nested r.Route groups would flatten to a trailing
// slash.  For example:
//
//	r := chi.NewRouter()
//	r.Post("/api/widgets", create)
//	r.Get("/api/widgets/{id}", get)
//	return r
type Component interface {
	Name() string
	Routes() chi.Router
	Migrations(dialect string) []string
	Init(Deps) error
}

// Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	comps []Component
	names map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Add appends c.  Names are unique.
func (r *Registry) Add(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[c.Name()]; dup {
		return fmt.Errorf("component %q already registered", c.Name())
	}
	r.names[c.Name()] = struct{}{}
	r.comps = append(r.comps, c)
	return nil
}

// All returns every component in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Component, len(r.comps))
	copy(out, r.comps)
	return out
}

// Init calls Init on every component and stops at the first failure.
func (r *Registry) Init(deps Deps) error {
	for _, c := range r.All() {
		if err := c.Init(deps); err != nil {
			return fmt.Errorf("component %s init: %w", c.Name(), err)
		}
		zap.L().Debug("component initialised", zap.String("component", c.Name()))
	}
	return nil
}

// Mount copies every component route onto router.
func (r *Registry) Mount(router chi.Router) error {
	for _, c := range r.All() {
		sub := c.Routes()
		if sub == nil {
			continue
		}
		err := chi.Walk(sub, func(method, route string, h http.Handler, mws ...func(http.Handler) http.Handler) error {
			router.With(mws...).Method(method, route, h)
			return nil
		})
		if err != nil {
			return fmt.Errorf("component %s mount: %w", c.Name(), err)
		}
	}
	return nil
}

// Migrate runs every component's statements for dialect, in registration
// order.  Statements must be idempotent (CREATE TABLE IF NOT EXISTS …).
func (r *Registry) Migrate(ctx context.Context, db *sqlx.DB, dialect, prefix string) error {
	for _, c := range r.All() {
		for i, stmt := range c.Migrations(dialect) {
			q := strings.ReplaceAll(stmt, PrefixPlaceholder, prefix)
			if _, err := db.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("component %s migration %d: %w", c.Name(), i, err)
			}
		}
		zap.L().Info("component migrated", zap.String("component", c.Name()), zap.String("dialect", dialect))
	}
	return nil
}
