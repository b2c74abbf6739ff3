// internal/config/model.go
//
// Typed configuration model for plubo.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/global.yaml`                      – primary static file,
//   • `PLUBO_`-prefixed environment overrides – highest precedence.
//
// A `database.password` that begins with `vault:` is a reference, not a
// secret.  The host resolves it through internal/vault after Load returns
// and before the pool is opened.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// Plugin section
//

// Plugin names the plugin.  Name doubles as the admin slug and the cron
// hook prefix, so it is restricted to lower-case words and underscores.
type Plugin struct {
	Name    string `koanf:"name"    validate:"required,slug"`
	Version string `koanf:"version" validate:"required"`
}

//
// HTTP section
//

// HTTP holds web-server tunables.  UserHeader names the trusted header in
// which the host forwards the authenticated user id.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
	UserHeader string `koanf:"user_header" validate:"required"`
}

//
// Database section
//

// Database holds the DSN template and pool sizing.
//
// The *template* (`DSN`) is kept in YAML so operators can tweak host, port,
// or flags without touching Vault.  The *secret* (`Password`) is either a
// literal or a `vault:<mount>/<path>#<key>` reference injected at runtime.
type Database struct {
	Driver       string `koanf:"driver"         validate:"required,oneof=mysql sqlite"`
	DSN          string `koanf:"dsn"            validate:"required"`
	Password     string `koanf:"password"`
	TablePrefix  string `koanf:"table_prefix"   validate:"omitempty,ident"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"gte=0"`
}

//
// Record section
//

// Record toggles the silent compatibility mode for internal/record.
type Record struct {
	LegacySilent bool `koanf:"legacy_silent"`
}

//
// Views section
//

// Views points the template loader at a directory.  A relative Dir is
// resolved against Paths.Root.
type Views struct {
	Dir       string `koanf:"dir"        validate:"required"`
	CacheSize int    `koanf:"cache_size" validate:"gte=1"`
}

//
// Cron section
//

// Cron sets the recurrence of the plugin's scheduled hook.
type Cron struct {
	Interval time.Duration `koanf:"interval" validate:"gte=1s"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // PLUBO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	Plugin   Plugin   `koanf:"plugin"`
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Record   Record   `koanf:"record"`
	Views    Views    `koanf:"views"`
	Cron     Cron     `koanf:"cron"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
