// internal/app/app.go
//
// Startup wiring shared by cmd/web and cmd/plubo.
//
// Context
// -------
// Open builds every long-lived value from one *config.Config, in order:
//
//  1. Resolve a `vault:` database password and splice it into the DSN.
//  2. Open the pool and wrap it in a database.Store.
//  3. Build the hook bus, admin menu, shortcode registry, and view loader.
//  4. Add the components and call their Init.
//
// Nothing is scheduled and no hook fires until Start, so the CLI can open
// an App, run one command, and Close it without side effects.
//
// Start registers the plugin shims (admin menus, crons, shortcodes) on the
// bus, then fires `init` followed by `admin_menu`.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/plubo/components/admin"
	"github.com/yanizio/plubo/components/widgets"
	"github.com/yanizio/plubo/internal/auth"
	"github.com/yanizio/plubo/internal/component"
	"github.com/yanizio/plubo/internal/config"
	"github.com/yanizio/plubo/internal/database"
	"github.com/yanizio/plubo/internal/hook"
	"github.com/yanizio/plubo/internal/middleware"
	"github.com/yanizio/plubo/internal/plugin"
	"github.com/yanizio/plubo/internal/record"
	"github.com/yanizio/plubo/internal/scheduler"
	"github.com/yanizio/plubo/internal/vault"
	"github.com/yanizio/plubo/internal/view"
)

// SecretResolver turns a `vault:` reference into a secret.  *vault.Client
// implements it.
type SecretResolver interface {
	Resolve(ctx context.Context, v string) (string, error)
}

// App holds the wired host.  Fields are read-only after Open.
type App struct {
	Config     *config.Config
	Plugin     plugin.Plugin
	DB         *sqlx.DB
	Store      *database.Store
	Bus        *hook.Bus
	Menu       *plugin.Menu
	Shortcodes *plugin.ShortcodeRegistry
	Views      *view.Loader
	Registry   *component.Registry
	Widgets    *widgets.Comp

	defs   *plugin.Shortcodes
	ticker *scheduler.Ticker
}

// Open wires an App.  secrets may be nil; a vault client is then created
// on demand when the password is a reference.
func Open(ctx context.Context, cfg *config.Config, secrets SecretResolver) (*App, error) {
	dsn, err := dsnFor(ctx, cfg, secrets)
	if err != nil {
		return nil, err
	}

	opts := database.DefaultOptions(cfg.Database.Driver)
	if cfg.Database.MaxOpenConns > 0 && cfg.Database.Driver != database.DriverSQLite {
		opts.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 && cfg.Database.Driver != database.DriverSQLite {
		opts.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	db, err := database.OpenWithOptions(ctx, dsn, opts)
	if err != nil {
		return nil, err
	}
	zap.L().Info("database online", zap.String("driver", cfg.Database.Driver))

	a := &App{
		Config:     cfg,
		Plugin:     plugin.Plugin{Name: cfg.Plugin.Name, Version: cfg.Plugin.Version},
		DB:         db,
		Store:      database.NewStore(db, cfg.Database.TablePrefix),
		Bus:        hook.NewBus(),
		Menu:       plugin.NewMenu(),
		Shortcodes: plugin.NewShortcodeRegistry(),
		Registry:   component.NewRegistry(),
		Widgets:    widgets.New(),
	}
	a.defs = plugin.NewShortcodes(a.Shortcodes)

	a.Views, err = view.New(cfg.Views.Dir, cfg.Views.CacheSize,
		view.WithFuncs(map[string]any{"shortcode": a.Shortcodes.TemplateFunc()}))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	for _, c := range []component.Component{a.Widgets, admin.New()} {
		if err := a.Registry.Add(c); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	err = a.Registry.Init(component.Deps{
		Plugin:     a.Plugin,
		Store:      a.Store,
		Views:      a.Views,
		Menu:       a.Menu,
		Shortcodes: a.defs,
		Record:     []record.Option{record.WithLegacySilent(cfg.Record.LegacySilent)},
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

// dsnFor returns the configured DSN with the resolved password spliced in.
func dsnFor(ctx context.Context, cfg *config.Config, secrets SecretResolver) (string, error) {
	pw := cfg.Database.Password
	if vault.IsRef(pw) {
		if secrets == nil {
			cli, err := vault.New(ctx)
			if err != nil {
				return "", err
			}
			secrets = cli
		}
		var err error
		if pw, err = secrets.Resolve(ctx, pw); err != nil {
			return "", fmt.Errorf("database password: %w", err)
		}
	}
	return database.WithPassword(cfg.Database.Driver, cfg.Database.DSN, pw)
}

// Migrate runs every component's DDL.
func (a *App) Migrate(ctx context.Context) error {
	return a.Registry.Migrate(ctx, a.DB, a.Config.Database.Driver, a.Store.Prefix())
}

// Start registers the plugin shims and fires `init` then `admin_menu`.  The
// cron ticker lives until ctx ends or Close is called.
func (a *App) Start(ctx context.Context) error {
	if a.ticker != nil {
		return errors.New("app already started")
	}
	a.ticker = scheduler.NewTicker(ctx, a.Bus)

	plugin.NewAdminMenus(a.Plugin, a.Menu, a.Views).Register(a.Bus)
	plugin.NewCrons(a.Plugin, a.Widgets.Count, a.Config.Cron.Interval, a.ticker, nil).Register(a.Bus)
	a.defs.Register(a.Bus)

	if err := a.Bus.Fire(ctx, hook.Init); err != nil {
		return fmt.Errorf("fire %s: %w", hook.Init, err)
	}
	if err := a.Bus.Fire(ctx, hook.AdminMenu); err != nil {
		return fmt.Errorf("fire %s: %w", hook.AdminMenu, err)
	}
	zap.L().Info("plugin started",
		zap.String("plugin", a.Plugin.Name),
		zap.Strings("shortcodes", a.Shortcodes.Tags()),
		zap.Int("menu_pages", len(a.Menu.Pages())))
	return nil
}

// Router returns the host router: middleware, /metrics, and every
// component route.
func (a *App) Router() (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.ForceHTTPS(a.Config.HTTP.ForceHTTPS))
	r.Use(middleware.Security(a.Config.HTTP.ForceHTTPS))
	r.Use(auth.FromHeader(a.Config.HTTP.UserHeader))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := a.DB.PingContext(req.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})

	if err := a.Registry.Mount(r); err != nil {
		return nil, err
	}
	return r, nil
}

// Close stops the ticker and the pool.
func (a *App) Close() error {
	if a.ticker != nil {
		a.ticker.Stop()
	}
	return a.DB.Close()
}
