// internal/plugin/shortcodes.go
//
// Shortcode definitions and the host-side registry.
//
// Context
// -------
// A plugin defines its shortcodes up front on a `Shortcodes` value.  Nothing
// is visible to the host until `init` fires, at which point every definition
// is published into the `ShortcodeRegistry`.  The host renders a shortcode
// with `Do(ctx, tag, atts, content)`.
//
// Notes
// -----
// • Tags follow the host's rules: a letter, then letters, digits, `_`, or `-`.
// • Oxford commas, two spaces after periods.

package plugin

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"sync"

	"github.com/yanizio/plubo/internal/hook"
)

// ErrUnknownShortcode is returned by Do for an unregistered tag.
var ErrUnknownShortcode = errors.New("unknown shortcode")

var tagRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// ShortcodeFunc renders one shortcode occurrence.
type ShortcodeFunc func(ctx context.Context, atts map[string]string, content string) (string, error)

// ShortcodeRegistry is safe for concurrent use.
type ShortcodeRegistry struct {
	mu sync.RWMutex
	m  map[string]ShortcodeFunc
}

// NewShortcodeRegistry returns an empty registry.
func NewShortcodeRegistry() *ShortcodeRegistry {
	return &ShortcodeRegistry{m: make(map[string]ShortcodeFunc)}
}

// Add publishes fn under tag.
func (r *ShortcodeRegistry) Add(tag string, fn ShortcodeFunc) error {
	if !tagRe.MatchString(tag) {
		return fmt.Errorf("shortcode: invalid tag %q", tag)
	}
	if fn == nil {
		return fmt.Errorf("shortcode %q: nil func", tag)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.m[tag]; dup {
		return fmt.Errorf("shortcode %q already registered", tag)
	}
	r.m[tag] = fn
	return nil
}

// Has reports whether tag is registered.
func (r *ShortcodeRegistry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.m[tag]
	return ok
}

// Tags lists registered tags alphabetically.
func (r *ShortcodeRegistry) Tags() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.m))
	for t := range r.m {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Do renders tag.  atts may be nil.
func (r *ShortcodeRegistry) Do(ctx context.Context, tag string, atts map[string]string, content string) (string, error) {
	r.mu.RLock()
	fn, ok := r.m[tag]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownShortcode, tag)
	}
	if atts == nil {
		atts = map[string]string{}
	}
	return fn(ctx, atts, content)
}

// TemplateFunc exposes the registry to views:
//
//	{{ shortcode "widget" (dict "id" "1") }}
//
// Shortcode output is trusted HTML.  Failures render as an HTML comment.
func (r *ShortcodeRegistry) TemplateFunc() func(tag string, atts map[string]any) template.HTML {
	return func(tag string, atts map[string]any) template.HTML {
		str := make(map[string]string, len(atts))
		for k, v := range atts {
			str[k] = fmt.Sprint(v)
		}
		out, err := r.Do(context.Background(), tag, str, "")
		if err != nil {
			return template.HTML("<!-- shortcode " + template.HTMLEscapeString(tag) + " failed -->")
		}
		return template.HTML(out)
	}
}

/*────────────────────────────── Shortcodes ────────────────────────────────*/

type shortcodeDef struct {
	tag string
	fn  ShortcodeFunc
}

// Shortcodes collects definitions until `init`.
type Shortcodes struct {
	registry *ShortcodeRegistry
	defs     []shortcodeDef
}

// NewShortcodes has no side effects; call Define, then Register.
func NewShortcodes(reg *ShortcodeRegistry) *Shortcodes {
	return &Shortcodes{registry: reg}
}

// Define queues a shortcode for publication.
func (s *Shortcodes) Define(tag string, fn ShortcodeFunc) *Shortcodes {
	s.defs = append(s.defs, shortcodeDef{tag: tag, fn: fn})
	return s
}

// Register attaches the shim to bus.
func (s *Shortcodes) Register(bus *hook.Bus) {
	bus.On(hook.Init, s.publish)
}

func (s *Shortcodes) publish(context.Context, ...any) error {
	var errs []error
	for _, d := range s.defs {
		if err := s.registry.Add(d.tag, d.fn); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
