// internal/scaffold/component.go
//
// Component skeleton generator.
//
// Context
// -------
//	plubo component gift-card --dir components
//
//	→ components/giftcard/giftcard.go
//	  type Comp struct { … }            // component.Component
//	  GET /api/gift-card
//
// The package name is the table name without underscores.  The host still
// has to add the component to its registry.

package scaffold

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"
	"text/template"
)

var componentTmpl = template.Must(template.New("component").Parse(`package {{ .Package }}

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"{{ .Module }}/internal/component"
)

// compile-time assertion
var _ component.Component = (*Comp)(nil)

// Comp implements component.Component.
type Comp struct {
	deps component.Deps
}

// New returns an uninitialised component; the registry calls Init.
func New() *Comp { return &Comp{} }

func (c *Comp) Name() string { return "{{ .Table }}" }

// Init keeps the shared resources.
func (c *Comp) Init(d component.Deps) error {
	c.deps = d
	return nil
}

func (c *Comp) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/{{ .Slug }}", c.index)
	return r
}

// Migrations returns the DDL for dialect.  Statements use {prefix}.
func (c *Comp) Migrations(string) []string { return nil }

func (c *Comp) index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"component": c.Name(),
		"plugin":    c.deps.Plugin.Name,
	})
}
`))

// Component writes <dir>/<pkg>/<pkg>.go and returns its path.
func Component(dir, name string) (string, error) {
	n, err := Derive("component", name)
	if err != nil {
		return "", err
	}
	n.Package = strings.ReplaceAll(n.Table, "_", "")
	if token.IsKeyword(n.Package) {
		return "", fmt.Errorf("scaffold: %q is a Go keyword", n.Package)
	}
	n.File = n.Package + ".go"

	src, err := renderShim(componentTmpl, newShim(n))
	if err != nil {
		return "", fmt.Errorf("scaffold: render %s: %w", n.Package, err)
	}

	path := filepath.Join(dir, n.Package, n.File)
	if err := writeNew(path, src); err != nil {
		return "", err
	}
	return path, nil
}
