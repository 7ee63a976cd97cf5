package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/pagination"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/pkg/web"
	"github.com/JaimeStill/isoone/web/app"
)

// Page is the catalog view model.
type Page struct {
	Filter    FilterState
	Controls  []string
	Types     []backend.DocumentType
	Result    pagination.PageResult[backend.Summary]
	Count     string
	Empty     string
	LoadError string
	ExportURL string
	PrevURL   string
	NextURL   string
}

// Handler serves the catalog view and its export.
type Handler struct {
	catalog    *Catalog
	sessions   *session.Manager
	views      *web.TemplateSet
	pagination pagination.Config
	logger     *slog.Logger
}

// NewHandler creates a catalog Handler.
func NewHandler(catalog *Catalog, sessions *session.Manager, views *web.TemplateSet, cfg pagination.Config, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:    catalog,
		sessions:   sessions,
		views:      views,
		pagination: cfg,
		logger:     logger.With("handler", "catalog"),
	}
}

// Routes returns the protected catalog routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: app.CatalogPath,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/export", Handler: h.Export},
		},
	}
}

// List renders the filtered, paged catalog.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())
	filter := FilterFromQuery(r.URL.Query())

	docs, err := h.catalog.Load(r.Context(), rec.Token)
	if errors.Is(err, backend.ErrUnauthorized) {
		h.sessions.Evict(w, r, h.views.Path(app.LoginPath))
		return
	}

	matched := Filter(docs, filter)
	req := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	result := pagination.Paginate(matched, req)

	page := Page{
		Filter:    filter,
		Controls:  backend.Controls,
		Types:     backend.DocumentTypes,
		Result:    result,
		Count:     CountLabel(len(matched)),
		Empty:     MessageEmpty,
		ExportURL: h.link(app.ExportPath, filter, 0),
	}
	if err != nil {
		page.LoadError = MessageLoadError
	}
	if result.HasPrev() {
		page.PrevURL = h.link(app.CatalogPath, filter, result.Page-1)
	}
	if result.HasNext() {
		page.NextURL = h.link(app.CatalogPath, filter, result.Page+1)
	}

	data := h.views.Data(app.CatalogView, page)
	data.User = rec.Subject
	if err := h.views.Render(w, app.Layout, app.CatalogView.Template, data); err != nil {
		h.logger.Error("render catalog failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Export downloads the filtered catalog as an XLSX workbook.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())
	filter := FilterFromQuery(r.URL.Query())

	docs, err := h.catalog.Load(r.Context(), rec.Token)
	if errors.Is(err, backend.ErrUnauthorized) {
		h.sessions.Evict(w, r, h.views.Path(app.LoginPath))
		return
	}
	if err != nil {
		http.Error(w, MessageLoadError, backend.MapHTTPStatus(err))
		return
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Filter(docs, filter)); err != nil {
		h.logger.Error("export failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	name := fmt.Sprintf("biblioteca-%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (h *Handler) link(path string, filter FilterState, page int) string {
	q := filter.Query()
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	u := h.views.Path(path)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}
