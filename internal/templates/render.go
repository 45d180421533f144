// Package templates renders the HTML fragments patched into the page over
// Datastar SSE: the chooser's hidden input, the zoom controls, marker popups
// and the drawn-layer list.
package templates

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"strings"
	"sync"
)

//go:embed fragments/*.html
var fragments embed.FS

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	"join": strings.Join,
}

// HiddenInput is the chooser's form field.
type HiddenInput struct {
	InputID string
	Name    string
	Value   string
}

// ZoomControl is a zoom-in or zoom-out button.
type ZoomControl struct {
	ID      string
	Classes []string
	Action  string
	Label   string
	Text    string
}

// Popup is an open marker popup. HTML is already escaped by the widget.
type Popup struct {
	LayerID   string
	ClassName string
	HTML      template.HTML
}

// LayerItem is one drawn layer in a chooser's layer list.
type LayerItem struct {
	ID   string
	Kind string
}

// Renderer manages HTML fragment templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a renderer from the embedded fragments.
func New() (*Renderer, error) {
	return NewFS(fragments, "fragments/*.html")
}

// NewFS creates a renderer from the templates in fsys matching pattern.
func NewFS(fsys fs.FS, pattern string) (*Renderer, error) {
	tmpl, err := parse(fsys, pattern)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

func parse(fsys fs.FS, pattern string) (*template.Template, error) {
	return template.New("").Funcs(funcMap).ParseFS(fsys, pattern)
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

// MustRender renders a template and panics on error.
// Use only when you're certain the template exists.
func (r *Renderer) MustRender(name string, data any) string {
	s, err := r.Render(name, data)
	if err != nil {
		panic(err)
	}
	return s
}

// Reload replaces the templates with those in fsys (dev hot-reload from
// a directory via os.DirFS).
func (r *Renderer) Reload(fsys fs.FS, pattern string) error {
	tmpl, err := parse(fsys, pattern)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
