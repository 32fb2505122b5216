package templates

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Content is the result of rendering a template.
// An empty Subject means the template does not override the queued subject.
type Content struct {
	Subject string
	HTML    string
	Text    string
}

// RenderFunc turns variables into email content. It must not perform I/O.
type RenderFunc func(ctx context.Context, vars Vars) (Content, error)

// Entry binds a template name to its render function.
type Entry struct {
	Name   string
	Render RenderFunc
}

// Registry is an immutable name -> RenderFunc table.
type Registry struct {
	funcs map[string]RenderFunc
}

// NewRegistry builds a registry from entries. Names are trimmed and must be unique.
func NewRegistry(entries ...Entry) (*Registry, error) {
	funcs := make(map[string]RenderFunc, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return nil, ErrEmptyTemplateName
		}
		if e.Render == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilRenderFunc, name)
		}
		if _, exists := funcs[name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, name)
		}
		funcs[name] = e.Render
	}
	return &Registry{funcs: funcs}, nil
}

// MustNewRegistry is like NewRegistry but panics on invalid entries.
func MustNewRegistry(entries ...Entry) *Registry {
	r, err := NewRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Render looks up name and invokes its render function with vars.
func (r *Registry) Render(ctx context.Context, name string, vars Vars) (Content, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return Content{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	if vars == nil {
		vars = Vars{}
	}
	content, err := fn(ctx, vars)
	if err != nil {
		return Content{}, fmt.Errorf("render %s: %w", name, err)
	}
	return content, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Names returns the registered template names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
