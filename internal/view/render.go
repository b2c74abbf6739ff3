// internal/view/render.go
//
// Template loader: file lookup, func-map injection, and an LRU of parsed
// *template.Template sets.
//
// Context
// -------
// A Loader is built once by the host's startup routine (`view.New`) and
// passed to every consumer that renders HTML.  There is no package-level
// instance.
//
// Public helpers
// --------------
//   - Render         – stream rendered HTML to an io.Writer.
//   - RenderToString – return template.HTML (shortcodes, admin fragments).
//
// Lookup: `<dir>/<name>.html`.  All *.html files in the same directory are
// parsed as one set so sub-templates ({{ template "row" . }}) resolve.
//
//   • execName() chooses the template to execute:
//       – If the set contains "<name>.html", we run that (file has no define).
//       – Else we fall back to "<name>" (root template defined via {{ define }}).
//   • Concurrent first renders of the same name share one parse
//     (singleflight).
//
// Style
// -----
// • Oxford commas, two spaces after periods.
package view

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/plubo/internal/cache"
)

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Loader is safe for concurrent use.
type Loader struct {
	dir   string
	funcs template.FuncMap
	lru   *cache.LRU[string, *template.Template]
	group singleflight.Group
	skip  bool // never cache; used in development
}

// Option configures a Loader.
type Option func(*Loader)

// WithFuncs merges extra template helpers into the func map.
func WithFuncs(fm template.FuncMap) Option {
	return func(l *Loader) {
		for k, v := range fm {
			l.funcs[k] = v
		}
	}
}

// WithoutCache reparses on every call so template edits show immediately.
func WithoutCache() Option {
	return func(l *Loader) { l.skip = true }
}

// New returns a Loader reading templates from dir.  capacity bounds the
// number of parsed sets kept in memory.
func New(dir string, capacity int, opts ...Option) (*Loader, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("view dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("view dir %s is not a directory", dir)
	}
	if capacity < 1 {
		capacity = 1
	}

	l := &Loader{
		dir:   dir,
		funcs: template.FuncMap{"dict": dict},
		lru:   cache.New[string, *template.Template](capacity),
	}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

// Dir returns the template directory.
func (l *Loader) Dir() string { return l.dir }

// Render executes the named template and streams it to w.
func (l *Loader) Render(w io.Writer, name string, data any) error {
	t, err := l.load(name)
	if err != nil {
		return err
	}
	return t.ExecuteTemplate(w, execName(t, name), data)
}

// RenderToString executes and returns HTML.  It mirrors Render, but writes
// to a buffer so a failed execution never leaks partial output.
func (l *Loader) RenderToString(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := l.Render(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

//
// internal: load
//

func (l *Loader) load(name string) (*template.Template, error) {
	if !nameRe.MatchString(name) {
		return nil, fmt.Errorf("view: invalid template name %q", name)
	}
	if !l.skip {
		if t, ok := l.lru.Get(name); ok {
			return t, nil
		}
	}

	v, err, _ := l.group.Do(name, func() (any, error) {
		base := filepath.Join(l.dir, name+".html")
		if _, err := os.Stat(base); err != nil {
			return nil, fmt.Errorf("view %q: %w", name, err)
		}

		t, err := template.New(name).Funcs(l.funcs).ParseGlob(filepath.Join(l.dir, "*.html"))
		if err != nil {
			zap.S().Errorw("template parse failed", "view", name, "err", err)
			return nil, err
		}
		if !l.skip {
			l.lru.Add(name, t)
		}
		zap.S().Debugw("template parsed", "view", name)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*template.Template), nil
}

//
// helpers
//

// execName picks the template name to execute.
//
// Priority:
//  1. If the set has "<name>.html" (file-based template), run that.
//  2. Otherwise, fall back to "<name>" (root template defined in code).
func execName(t *template.Template, name string) string {
	if tmpl := t.Lookup(name + ".html"); tmpl != nil {
		return name + ".html"
	}
	return name
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
