// Package scaffold generates source files for new plugin parts.
//
// Context
// -------
// `plubo entity <name>` writes one Go file declaring a Record entity:
//
//	plubo entity "gift card" --dir components/shop --package shop
//
//	→ components/shop/gift_card.go
//	  type GiftCard struct { … }
//	  func (GiftCard) TableName() string { return "gift_card" }
//
// `plubo functionality <kind> [name]` writes a registration shim (see
// functionality.go), and `plubo component <name>` a component skeleton.
//
// Names are split on spaces, dashes, and underscores.  The type name is the
// PascalCase join, the file and table names the snake_case join.  Existing
// files are never overwritten.
//
// Notes
// -----
// • Output is passed through go/format, so a template slip fails loudly
//   instead of writing broken source.
// • Oxford commas, two spaces after periods.
package scaffold

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"unicode"
)

// ErrExists is returned when the target file is already present.
var ErrExists = errors.New("scaffold: file already exists")

var wordRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

var entityTmpl = template.Must(template.New("entity").Parse(`package {{ .Package }}

// {{ .Type }} maps one row of the {{ .Table }} table.  Add one field per
// column; the id column belongs to record.Record and must not be declared.
//
//	rec, err := record.Get[{{ .Type }}](ctx, store, id)
type {{ .Type }} struct {
	Name string ` + "`db:\"name\" json:\"name\"`" + `
}

// TableName is the unprefixed table name.
func ({{ .Type }}) TableName() string { return "{{ .Table }}" }
`))

// Names is the derived naming for one generated type.
type Names struct {
	Package string
	Type    string
	Table   string
	File    string
}

// Derive splits name into words and builds every derived name.
func Derive(pkg, name string) (Names, error) {
	if !token.IsIdentifier(pkg) || strings.ToLower(pkg) != pkg {
		return Names{}, fmt.Errorf("scaffold: invalid package name %q", pkg)
	}
	words := strings.FieldsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '_'
	})
	if len(words) == 0 {
		return Names{}, errors.New("scaffold: name is empty")
	}

	var typ, table strings.Builder
	for i, w := range words {
		if !wordRe.MatchString(w) {
			return Names{}, fmt.Errorf("scaffold: invalid word %q in name", w)
		}
		lower := strings.ToLower(w)
		typ.WriteString(strings.ToUpper(lower[:1]) + lower[1:])
		if i > 0 {
			table.WriteByte('_')
		}
		table.WriteString(lower)
	}
	if token.IsKeyword(table.String()) {
		return Names{}, fmt.Errorf("scaffold: %q is a Go keyword", table.String())
	}
	return Names{
		Package: pkg,
		Type:    typ.String(),
		Table:   table.String(),
		File:    table.String() + ".go",
	}, nil
}

// Render returns the gofmt-ed source for n.
func Render(n Names) ([]byte, error) {
	var buf bytes.Buffer
	if err := entityTmpl.Execute(&buf, n); err != nil {
		return nil, err
	}
	return format.Source(buf.Bytes())
}

// Entity writes the entity file into dir and returns its path.  dir is
// created when missing.
func Entity(dir, pkg, name string) (string, error) {
	n, err := Derive(pkg, name)
	if err != nil {
		return "", err
	}
	src, err := Render(n)
	if err != nil {
		return "", fmt.Errorf("scaffold: render %s: %w", n.Type, err)
	}
	path := filepath.Join(dir, n.File)
	if err := writeNew(path, src); err != nil {
		return "", err
	}
	return path, nil
}
