package upload

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/formatting"
	"github.com/JaimeStill/isoone/pkg/handlers"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/pkg/web"
	"github.com/JaimeStill/isoone/web/app"
)

// Page is the upload view model.
type Page struct {
	Draft    Draft
	Types    []backend.DocumentType
	Controls []string
	MaxSize  string
	Notice   string
	Alert    string
	Reselect string
}

// Handler serves the upload form.
type Handler struct {
	flow          *Flow
	sessions      *session.Manager
	views         *web.TemplateSet
	maxUploadSize int64
	logger        *slog.Logger
}

// NewHandler creates an upload Handler accepting bodies up to maxUploadSize bytes.
func NewHandler(flow *Flow, sessions *session.Manager, views *web.TemplateSet, maxUploadSize int64, logger *slog.Logger) *Handler {
	return &Handler{
		flow:          flow,
		sessions:      sessions,
		views:         views,
		maxUploadSize: maxUploadSize,
		logger:        logger.With("handler", "upload"),
	}
}

// Routes returns the protected upload routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: app.UploadPath,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Form},
			{Method: "POST", Pattern: "", Handler: h.Submit},
		},
	}
}

// Form renders an empty draft with the default metadata.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, Page{Draft: NewDraft()})
}

// Submit stages the posted file and sends the draft to the document service.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())

	if r.ContentLength > h.maxUploadSize {
		h.tooLarge(w, r)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.tooLarge(w, r)
			return
		}
		h.render(w, r, http.StatusBadRequest, Page{Draft: NewDraft(), Notice: MessageNotPDF})
		return
	}
	defer r.MultipartForm.RemoveAll()

	draft := draftFromForm(r)

	fh, err := Stage(r.MultipartForm.File["file"])
	if err != nil {
		h.render(w, r, http.StatusBadRequest, Page{Draft: draft, Notice: MessageNotPDF})
		return
	}
	if err := draft.Attach(fh); err != nil {
		h.logger.Error("stage failed", "error", err)
		h.render(w, r, http.StatusBadRequest, Page{Draft: draft, Notice: MessageNotPDF})
		return
	}

	err = h.flow.Submit(r.Context(), rec.Token, draft)
	switch {
	case err == nil:
		handlers.SeeOther(w, r, h.views.Path(app.CatalogPath))
	case errors.Is(err, backend.ErrUnauthorized):
		h.sessions.Evict(w, r, h.views.Path(app.LoginPath))
	case errors.Is(err, ErrIncomplete):
		h.render(w, r, http.StatusBadRequest, Page{Draft: draft, Notice: MessageIncomplete})
	case errors.Is(err, ErrInvalidPDF):
		h.render(w, r, http.StatusBadRequest, Page{Draft: draft, Notice: MessageInvalidPDF})
	default:
		h.render(w, r, http.StatusBadGateway, Page{Draft: draft, Alert: MessageSaveFailed})
	}
}

func (h *Handler) tooLarge(w http.ResponseWriter, r *http.Request) {
	h.logger.Warn("upload rejected", "error", ErrFileTooLarge, "limit", h.maxUploadSize)
	h.render(w, r, http.StatusRequestEntityTooLarge, Page{Draft: NewDraft(), Notice: MessageTooLarge})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page Page) {
	// Browsers never repopulate a file input, so a re-rendered draft loses its file.
	if page.Draft.HasFile() {
		page.Reselect = MessageReselect
	}
	page.Types = backend.DocumentTypes
	page.Controls = backend.Controls
	page.MaxSize = formatting.FormatBytes(h.maxUploadSize, 0)

	data := h.views.Data(app.UploadView, page)
	if rec, ok := session.FromContext(r.Context()); ok {
		data.User = rec.Subject
	}
	if err := h.views.RenderStatus(w, status, app.Layout, app.UploadView.Template, data); err != nil {
		h.logger.Error("render upload failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func draftFromForm(r *http.Request) Draft {
	d := NewDraft()
	d.Title = r.FormValue("titulo")
	d.Process = r.FormValue("proceso")
	if t := backend.DocumentType(r.FormValue("tipo")); t.Valid() {
		d.Type = t
	}
	if v := r.FormValue("version"); v != "" {
		d.Version = v
	}
	if c := r.FormValue("control_id"); c != "" {
		d.Control = c
	}
	return d
}
