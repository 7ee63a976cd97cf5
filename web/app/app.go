// Package app embeds the ISOOne page templates and static assets.
package app

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/JaimeStill/isoone/pkg/formatting"
	"github.com/JaimeStill/isoone/pkg/web"
)

//go:embed layouts/*.html views/*.html static
var files embed.FS

// Layout is the outer template every page renders through.
const Layout = "app.html"

// View paths relative to the module base path.
const (
	LoginPath    = "/login"
	LogoutPath   = "/logout"
	CatalogPath  = "/biblioteca"
	ExportPath   = "/biblioteca/export"
	UploadPath   = "/subir-documento"
	DocumentPath = "/documento"
	ChatPath     = "/chat"
	StaticPath   = "/static/"
)

var (
	LoginView    = web.ViewDef{Template: "login.html", Title: "Ingresar · ISOOne", Bundle: "login"}
	CatalogView  = web.ViewDef{Template: "biblioteca.html", Title: "Biblioteca · ISOOne", Bundle: "biblioteca"}
	UploadView   = web.ViewDef{Template: "subir.html", Title: "Subir Documento · ISOOne", Bundle: "subir"}
	DocumentView = web.ViewDef{Template: "documento.html", Title: "Documento · ISOOne", Bundle: "documento"}
	ChatView     = web.ViewDef{Template: "chat.html", Title: "Chat · ISOOne", Bundle: "chat"}
	NotFoundView = web.ViewDef{Template: "not_found.html", Title: "No encontrado · ISOOne", Bundle: "not-found"}
)

// Views lists every page parsed at startup.
var Views = []web.ViewDef{
	LoginView, CatalogView, UploadView, DocumentView, ChatView, NotFoundView,
}

// Funcs returns the template helpers shared by all views.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"formatDate": formatting.FormatDate,
		"clock":      formatting.FormatClock,
		"initials":   formatting.Initials,
		"score":      func(f float64) string { return fmt.Sprintf("%.3f", f) },
	}
}

// NewTemplateSet parses the embedded views for a module mounted at basePath.
func NewTemplateSet(basePath string) (*web.TemplateSet, error) {
	return web.NewTemplateSet(files, files, "layouts/*.html", "views", basePath, Funcs(), Views)
}

// Static serves the embedded assets with urlPrefix stripped.
func Static(urlPrefix string) http.HandlerFunc {
	return web.DistServer(files, "static", urlPrefix)
}
