// Package web holds the server-rendered pages.  Templates are embedded in
// the binary and parsed once at startup; every page executes the "base"
// layout with its own "content" block.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var funcs = template.FuncMap{
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
	"join":  strings.Join,
}

// Renderer implements echo.Renderer over the embedded pages.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses every page against the shared layout.
func NewRenderer() (*Renderer, error) {
	layout, err := template.New("layout.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("web: parse layout: %w", err)
	}
	names, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, name := range names {
		page := strings.TrimSuffix(strings.TrimPrefix(name, "templates/"), ".tmpl")
		if page == "layout" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("web: parse %s: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render executes the base layout of page.
func (r *Renderer) Render(w io.Writer, page string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("web: unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "base", data)
}

// Has reports whether page exists.
func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}
