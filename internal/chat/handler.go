package chat

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/chat/transcript"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/handlers"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/pkg/web"
	"github.com/JaimeStill/isoone/web/app"
)

// Page is the chat view model.
type Page struct {
	Transcript transcript.Transcript
	Query      string
	Notice     string
}

// Handler serves the chat view and turn submission.
type Handler struct {
	flow     *Flow
	sessions *session.Manager
	views    *web.TemplateSet
	logger   *slog.Logger
}

// NewHandler creates a chat Handler.
func NewHandler(flow *Flow, sessions *session.Manager, views *web.TemplateSet, logger *slog.Logger) *Handler {
	return &Handler{
		flow:     flow,
		sessions: sessions,
		views:    views,
		logger:   logger.With("handler", "chat"),
	}
}

// Routes returns the protected chat routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: app.ChatPath,
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.Show},
			{Method: "POST", Pattern: "", Handler: h.Send},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset},
		},
	}
}

// Show renders the transcript and composer.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())
	if err := h.flow.Settle(r.Context(), rec); err != nil {
		h.logger.Warn("settle transcript failed", "error", err)
	}
	h.render(w, rec, http.StatusOK, Page{Transcript: rec.Transcript})
}

// Send runs one turn. Script clients asking for JSON get the transcript back;
// form posts are redirected to the chat view.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())
	query := r.FormValue("query")

	err := h.flow.Send(r.Context(), rec, query)
	switch {
	case err == nil:
		h.respond(w, r, http.StatusOK, rec.Transcript)
	case errors.Is(err, backend.ErrUnauthorized):
		h.sessions.Evict(w, r, h.views.Path(app.LoginPath))
	case errors.Is(err, ErrEmptyQuery):
		if handlers.WantsJSON(r) {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
			return
		}
		handlers.SeeOther(w, r, h.views.Path(app.ChatPath))
	case errors.Is(err, ErrTurnInFlight):
		if handlers.WantsJSON(r) {
			handlers.RespondError(w, h.logger, http.StatusConflict, err)
			return
		}
		h.render(w, rec, http.StatusConflict, Page{Transcript: rec.Transcript, Query: query, Notice: MessageBusy})
	case rec.Transcript.Error != "":
		h.respond(w, r, http.StatusBadGateway, rec.Transcript)
	default:
		h.logger.Error("chat send failed", "error", err)
		if handlers.WantsJSON(r) {
			handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
			return
		}
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Reset clears the conversation.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	rec, _ := session.FromContext(r.Context())
	if err := h.flow.Reset(r.Context(), rec); err != nil {
		h.logger.Error("chat reset failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	handlers.SeeOther(w, r, h.views.Path(app.ChatPath))
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, t transcript.Transcript) {
	if handlers.WantsJSON(r) {
		handlers.RespondJSON(w, status, t)
		return
	}
	handlers.SeeOther(w, r, h.views.Path(app.ChatPath))
}

func (h *Handler) render(w http.ResponseWriter, rec *session.Record, status int, page Page) {
	data := h.views.Data(app.ChatView, page)
	data.User = rec.Subject
	if err := h.views.RenderStatus(w, status, app.Layout, app.ChatView.Template, data); err != nil {
		h.logger.Error("render chat failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
