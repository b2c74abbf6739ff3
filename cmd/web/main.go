// cmd/web/main.go
//
// plubo – HTTP entry point.
//
// Start-up sequence
// -----------------
//
//  1. Bootstrap console logger so config errors are visible.
//
//  2. Load configuration (defaults → conf/.env → conf/global.yaml → PLUBO_*).
//
//  3. Start the daily rotating file logger (tees to console in a TTY).
//
//  4. app.Open: resolve the vault password, open the pool, build the bus,
//     menu, shortcode registry, and view loader, and Init every component.
//
//  5. app.Start: register the plugin shims, fire `init` and `admin_menu`.
//     The cron hook is now scheduled on the in-process ticker.
//
//  6. Serve the router (components, /metrics, /healthz) until SIGINT or
//     SIGTERM, then drain.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/plubo/internal/app"
	"github.com/yanizio/plubo/internal/config"
	"github.com/yanizio/plubo/internal/logger"
	"github.com/yanizio/plubo/internal/server"
)

func main() {
	boot := logger.NewConsole(zapcore.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		boot.Fatalw("load config", "err", err)
	}

	log, err := logger.New(cfg.Paths.Root, logger.IsTTY(), zapcore.InfoLevel)
	if err != nil {
		boot.Fatalw("start logger", "err", err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg); err != nil {
		log.Errorw("plubo stopped", "err", err)
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Wire and start the host ───────────────────────────────────────
	//
	a, err := app.Open(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}

	h, err := a.Router()
	if err != nil {
		return err
	}

	//
	// ── 2.  Serve until a signal arrives ──────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gctx, server.New(cfg.HTTP.ListenAddr, h))
	})

	zap.L().Info("plubo online",
		zap.String("plugin", cfg.Plugin.Name),
		zap.String("version", cfg.Plugin.Version),
		zap.String("listen_addr", cfg.HTTP.ListenAddr))
	return g.Wait()
}
