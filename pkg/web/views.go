// Package web provides infrastructure for serving server-rendered pages with Go
// templates and embedded static assets.
package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
)

// ViewDef defines a page with its template file, title, and bundle. Bundle names
// the nav entry and the client script behavior for the page.
type ViewDef struct {
	Template string
	Title    string
	Bundle   string
}

// ViewData contains the data passed to page templates during rendering.
// BasePath enables portable URL generation in templates via {{ .BasePath }}.
type ViewData struct {
	Title    string
	Bundle   string
	BasePath string
	User     string
	Data     any
}

// TemplateSet holds pre-parsed templates and a base path for URL generation.
// Templates are parsed once at startup.
type TemplateSet struct {
	views    map[string]*template.Template
	basePath string
}

// NewTemplateSet parses the layout templates matching layoutGlob, then clones them
// for each view found under viewSubdir. funcs is made available to every template.
func NewTemplateSet(layoutFS, viewFS fs.FS, layoutGlob, viewSubdir, basePath string, funcs template.FuncMap, views []ViewDef) (*TemplateSet, error) {
	base := template.New("").Funcs(template.FuncMap{
		"path": func(p string) string { return joinPath(basePath, p) },
	})
	if funcs != nil {
		base = base.Funcs(funcs)
	}

	layouts, err := base.ParseFS(layoutFS, layoutGlob)
	if err != nil {
		return nil, err
	}

	viewSub, err := fs.Sub(viewFS, viewSubdir)
	if err != nil {
		return nil, err
	}

	viewTemplates := make(map[string]*template.Template, len(views))
	for _, v := range views {
		t, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layouts for %s: %w", v.Template, err)
		}
		if _, err := t.ParseFS(viewSub, v.Template); err != nil {
			return nil, fmt.Errorf("parse template: %s: %w", v.Template, err)
		}
		viewTemplates[v.Template] = t
	}

	return &TemplateSet{
		views:    viewTemplates,
		basePath: basePath,
	}, nil
}

// BasePath returns the mount path used for URL generation.
func (ts *TemplateSet) BasePath() string {
	return ts.basePath
}

// Path joins p onto the base path.
func (ts *TemplateSet) Path(p string) string {
	return joinPath(ts.basePath, p)
}

// Data builds ViewData for view with the base path filled in.
func (ts *TemplateSet) Data(view ViewDef, data any) ViewData {
	return ViewData{
		Title:    view.Title,
		Bundle:   view.Bundle,
		BasePath: ts.basePath,
		Data:     data,
	}
}

// ErrorHandler returns an HTTP handler that renders an error page with the given status code.
func (ts *TemplateSet) ErrorHandler(layout string, view ViewDef, status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ts.RenderStatus(w, status, layout, view.Template, ts.Data(view, nil)); err != nil {
			http.Error(w, http.StatusText(status), status)
		}
	}
}

// Render executes the named layout template with status 200.
func (ts *TemplateSet) Render(w http.ResponseWriter, layoutName, viewPath string, data ViewData) error {
	return ts.RenderStatus(w, http.StatusOK, layoutName, viewPath, data)
}

// RenderStatus executes the named template into a buffer and writes it with status.
// Nothing is written when execution fails, so callers may still send an error response.
func (ts *TemplateSet) RenderStatus(w http.ResponseWriter, status int, name, viewPath string, data any) error {
	t, ok := ts.views[viewPath]
	if !ok {
		return fmt.Errorf("template not found: %s", viewPath)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

func joinPath(base, p string) string {
	base = strings.TrimSuffix(base, "/")
	if p == "" || p == "/" {
		if base == "" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}
