// Package view renders the console pages. Every page is the shared layout
// composed with one content template.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/license-console/internal/licenses"
	"github.com/benedict-erwin/license-console/pkg/utils"
)

// Page names
const (
	Login  = "login"
	List   = "list"
	Detail = "detail"
	Form   = "form"
	Delete = "delete"
	Error  = "error"
)

//go:embed templates/*.html
var files embed.FS

// Flash is a one-shot message carried across a redirect
type Flash struct {
	Kind    string
	Message string
}

// Page is the data every template receives
type Page struct {
	Title         string
	Authenticated bool
	User          string
	CSRF          string
	Flash         *Flash
	Data          any
}

var funcs = template.FuncMap{
	"timestamp": (*licenses.Timestamp).Display,
	"truncate":  utils.Truncate,
	"dateInput": (*licenses.Timestamp).DateInput,
}

// Renderer implements echo.Renderer over the embedded templates
type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page against the layout
func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{Login, List, Detail, Form, Delete, Error} {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render executes the named page
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
