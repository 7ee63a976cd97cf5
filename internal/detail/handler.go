package detail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/isoone/internal/analysis"
	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/pkg/web"
	"github.com/JaimeStill/isoone/web/app"
)

// Page is the detail view model.
type Page struct {
	Doc         *backend.Detail
	ViewerURL   string
	Trace       analysis.Traceability
	AnalysisURL string
	Error       string
}

// Handler serves the detail view and its analysis fragment.
type Handler struct {
	svc      *Service
	sessions *session.Manager
	views    *web.TemplateSet
	logger   *slog.Logger
}

// NewHandler creates a detail Handler.
func NewHandler(svc *Service, sessions *session.Manager, views *web.TemplateSet, logger *slog.Logger) *Handler {
	return &Handler{
		svc:      svc,
		sessions: sessions,
		views:    views,
		logger:   logger.With("handler", "detail"),
	}
}

// Routes returns the protected detail routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: app.DocumentPath,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{id}", Handler: h.Show},
			{Method: "GET", Pattern: "/{id}/analisis", Handler: h.Analysis},
		},
	}
}

// Show renders the document, or a visible not-found state.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())
	id := r.PathValue("id")

	doc, err := h.svc.Get(r.Context(), rec.Token, id)
	if errors.Is(err, backend.ErrUnauthorized) {
		h.sessions.Evict(w, r, h.views.Path(app.LoginPath))
		return
	}

	status := http.StatusOK
	page := Page{}
	if err != nil {
		status = backend.MapHTTPStatus(err)
		page.Error = MessageNotFound
	} else {
		page.Doc = doc
		page.ViewerURL = h.svc.ViewerURL(doc)
		page.Trace = analysis.Trace(doc.Summary)
		page.AnalysisURL = h.views.Path(app.DocumentPath + "/" + id + "/analisis")
	}

	data := h.views.Data(app.DocumentView, page)
	data.User = rec.Subject
	if err := h.views.RenderStatus(w, status, app.Layout, app.DocumentView.Template, data); err != nil {
		h.logger.Error("render document failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Analysis renders the finding fragment the compliance panel loads.
func (h *Handler) Analysis(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())

	finding, err := h.svc.Analyze(r.Context(), rec.Token, r.PathValue("id"))
	status := http.StatusOK
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		h.sessions.Evict(w, r, h.views.Path(app.LoginPath))
		return
	case errors.Is(err, context.Canceled):
		h.logger.Debug("analysis abandoned", "id", r.PathValue("id"))
		return
	case err != nil:
		status = backend.MapHTTPStatus(err)
		finding = analysis.Finding{Status: analysis.StatusUnavailable, Message: MessageAnalysisFailed}
	}

	if err := h.views.RenderStatus(w, status, "finding", app.DocumentView.Template, finding); err != nil {
		h.logger.Error("render finding failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
