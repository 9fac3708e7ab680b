// Package templates renders outbound message copy.
package templates

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"
)

// Renderer holds a set of named message templates parsed once with strict
// missing-key semantics.
type Renderer struct {
	tmpl *template.Template
}

// New parses every entry of sources. funcs may be nil.
func New(sources map[string]string, funcs template.FuncMap) (*Renderer, error) {
	root := template.New("").Option("missingkey=error")
	if funcs != nil {
		root = root.Funcs(funcs)
	}
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if sources[name] == "" {
			return nil, fmt.Errorf("templates: %s: template text required", name)
		}
		if _, err := root.New(name).Parse(sources[name]); err != nil {
			return nil, fmt.Errorf("templates: parse %s: %w", name, err)
		}
	}
	return &Renderer{tmpl: root}, nil
}

// MustNew is New for package-level copy that is known to parse.
func MustNew(sources map[string]string, funcs template.FuncMap) *Renderer {
	r, err := New(sources, funcs)
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named template.
func (r *Renderer) Render(name string, data any) (string, error) {
	t := r.tmpl.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("templates: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("templates: execute %s: %w", name, err)
	}
	return buf.String(), nil
}
