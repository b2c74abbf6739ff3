// internal/scaffold/functionality.go
//
// Registration shim generator.
//
// Context
// -------
// A shim is a struct with `Register(*hook.Bus)` that attaches its callbacks
// the same way internal/plugin does.  The host builds it and calls Register
// before firing `init`:
//
//	plubo functionality crons --dir components/shop --package shop
//
//	→ components/shop/crons.go
//	  func NewCrons(p plugin.Plugin, s plugin.Scheduler) *Crons
//	  func (c *Crons) Register(bus *hook.Bus)
//
// Kinds
// -----
//   - admin-menus – adds one page on `admin_menu`.  Written to <dir>/admin.
//   - crons       – schedules `<plugin>_<name>_hook` on `init` and runs it.
//   - shortcodes  – defines `[<name>]` and publishes it on `init`.
//   - custom      – one `init` callback; needs a name.
//
// Kind names are matched on lowercase letters and digits only, so
// "Admin Menus", "admin-menus", and "adminmenus" are the same kind.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.

package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
)

// Module is the import path generated code uses for plubo packages.
const Module = "github.com/yanizio/plubo"

// ErrUnknownKind is returned for a functionality kind with no template.
var ErrUnknownKind = errors.New("scaffold: unknown functionality kind")

const menusSrc = `package {{ .Package }}

import (
	"context"
	"net/http"

	"{{ .Module }}/internal/hook"
	"{{ .Module }}/internal/plugin"
)

// {{ .Type }} adds the "{{ .Title }}" admin page.
type {{ .Type }} struct {
	plugin plugin.Plugin
	menu   *plugin.Menu
}

// New{{ .Type }} has no side effects; call Register.
func New{{ .Type }}(p plugin.Plugin, menu *plugin.Menu) *{{ .Type }} {
	return &{{ .Type }}{plugin: p, menu: menu}
}

// Register attaches the shim to bus.
func ({{ .Recv }} *{{ .Type }}) Register(bus *hook.Bus) {
	bus.On(hook.AdminMenu, {{ .Recv }}.addMenus)
}

func ({{ .Recv }} *{{ .Type }}) addMenus(context.Context, ...any) error {
	return {{ .Recv }}.menu.Add(plugin.MenuPage{
		PageTitle:  {{ .Recv }}.plugin.Name + " {{ .Title }}",
		MenuTitle:  "{{ .Title }}",
		Capability: plugin.CapManageOptions,
		Slug:       {{ .Recv }}.plugin.Name + "-{{ .Slug }}",
		Handler:    http.HandlerFunc({{ .Recv }}.page),
	})
}

func ({{ .Recv }} *{{ .Type }}) page(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte("<h1>{{ .Title }}</h1>"))
}
`

const cronsSrc = `package {{ .Package }}

import (
	"context"
	"time"

	"go.uber.org/zap"

	"{{ .Module }}/internal/hook"
	"{{ .Module }}/internal/plugin"
)

// {{ .Type }} schedules and runs the {{ .Table }} job.
type {{ .Type }} struct {
	plugin    plugin.Plugin
	scheduler plugin.Scheduler
	every     time.Duration
}

// New{{ .Type }} has no side effects; call Register.
func New{{ .Type }}(p plugin.Plugin, s plugin.Scheduler) *{{ .Type }} {
	return &{{ .Type }}{plugin: p, scheduler: s, every: plugin.Hourly}
}

// Hook returns the event name the job is bound to.
func ({{ .Recv }} *{{ .Type }}) Hook() string { return {{ .Recv }}.plugin.Name + "_{{ .Table }}_hook" }

// Register attaches the shim to bus.
func ({{ .Recv }} *{{ .Type }}) Register(bus *hook.Bus) {
	bus.On(hook.Init, {{ .Recv }}.schedule)
	bus.On({{ .Recv }}.Hook(), {{ .Recv }}.run)
}

func ({{ .Recv }} *{{ .Type }}) schedule(context.Context, ...any) error {
	if {{ .Recv }}.scheduler.Scheduled({{ .Recv }}.Hook()) {
		return nil
	}
	return {{ .Recv }}.scheduler.ScheduleRecurring(time.Now(), {{ .Recv }}.every, {{ .Recv }}.Hook(), {{ .Recv }}.plugin.Name)
}

func ({{ .Recv }} *{{ .Type }}) run(context.Context, ...any) error {
	zap.L().Info("cron ran", zap.String("hook", {{ .Recv }}.Hook()))
	return nil
}
`

const shortcodesSrc = `package {{ .Package }}

import (
	"context"
	"html/template"

	"{{ .Module }}/internal/hook"
	"{{ .Module }}/internal/plugin"
)

// {{ .Type }} defines the [{{ .Table }}] shortcode.
type {{ .Type }} struct {
	defs *plugin.Shortcodes
}

// New{{ .Type }} has no side effects; call Register.
func New{{ .Type }}(reg *plugin.ShortcodeRegistry) *{{ .Type }} {
	return &{{ .Type }}{defs: plugin.NewShortcodes(reg)}
}

// Register defines the shortcode and publishes it on init.
func ({{ .Recv }} *{{ .Type }}) Register(bus *hook.Bus) {
	{{ .Recv }}.defs.Define("{{ .Table }}", {{ .Recv }}.render).Register(bus)
}

func ({{ .Recv }} *{{ .Type }}) render(_ context.Context, _ map[string]string, content string) (string, error) {
	return template.HTMLEscapeString(content), nil
}
`

const customSrc = `package {{ .Package }}

import (
	"context"

	"go.uber.org/zap"

	"{{ .Module }}/internal/hook"
	"{{ .Module }}/internal/plugin"
)

// {{ .Type }} runs on init.
type {{ .Type }} struct {
	plugin plugin.Plugin
}

// New{{ .Type }} has no side effects; call Register.
func New{{ .Type }}(p plugin.Plugin) *{{ .Type }} {
	return &{{ .Type }}{plugin: p}
}

// Register attaches the shim to bus.
func ({{ .Recv }} *{{ .Type }}) Register(bus *hook.Bus) {
	bus.On(hook.Init, {{ .Recv }}.onInit)
}

func ({{ .Recv }} *{{ .Type }}) onInit(context.Context, ...any) error {
	zap.L().Debug("{{ .Table }} init", zap.String("plugin", {{ .Recv }}.plugin.Name))
	return nil
}
`

type kind struct {
	name   string
	def    string // default type name; empty means a name is required
	subdir string // also the package name
	tmpl   *template.Template
}

var kinds = []kind{
	{"admin-menus", "admin menus", "admin", template.Must(template.New("admin-menus").Parse(menusSrc))},
	{"crons", "crons", "", template.Must(template.New("crons").Parse(cronsSrc))},
	{"shortcodes", "shortcodes", "", template.Must(template.New("shortcodes").Parse(shortcodesSrc))},
	{"custom", "", "", template.Must(template.New("custom").Parse(customSrc))},
}

// Kinds lists the functionality kinds.
func Kinds() []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.name
	}
	return out
}

// ResolveKind returns the kind matching s, or ErrUnknownKind.
func ResolveKind(s string) (string, error) {
	k, err := lookupKind(s)
	return k.name, err
}

func lookupKind(s string) (kind, error) {
	tok := normalize(s)
	for _, k := range kinds {
		if tok != "" && normalize(k.name) == tok {
			return k, nil
		}
	}
	return kind{}, fmt.Errorf("%w %q (want one of %s)", ErrUnknownKind, s, strings.Join(Kinds(), ", "))
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// shim is the template data for every generator except Entity.
type shim struct {
	Names
	Module string
	Recv   string
	Title  string
	Slug   string
}

func newShim(n Names) shim {
	words := strings.Split(n.Table, "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return shim{
		Names:  n,
		Module: Module,
		Recv:   string(unicode.ToLower(rune(n.Type[0]))),
		Title:  strings.Join(words, " "),
		Slug:   strings.ReplaceAll(n.Table, "_", "-"),
	}
}

func renderShim(t *template.Template, s shim) ([]byte, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, s); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

// Functionality writes a registration shim of the given kind and returns
// its path.  name may be empty for every kind except custom.  admin-menus
// shims go to <dir>/admin in package admin; pkg is ignored for them.
func Functionality(dir, pkg, kindName, name string) (string, error) {
	k, err := lookupKind(kindName)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		if k.def == "" {
			return "", fmt.Errorf("scaffold: %s functionality needs a name", k.name)
		}
		name = k.def
	}
	if k.subdir != "" {
		dir, pkg = filepath.Join(dir, k.subdir), k.subdir
	}

	n, err := Derive(pkg, name)
	if err != nil {
		return "", err
	}
	src, err := renderShim(k.tmpl, newShim(n))
	if err != nil {
		return "", fmt.Errorf("scaffold: render %s: %w", n.Type, err)
	}

	path := filepath.Join(dir, n.File)
	if err := writeNew(path, src); err != nil {
		return "", err
	}
	return path, nil
}
