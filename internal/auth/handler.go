package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/handlers"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/pkg/web"
	"github.com/JaimeStill/isoone/web/app"
)

// Page is the login view model.
type Page struct {
	Username string
	Error    string
	Success  string
	Redirect string
	DelayMS  int64
}

// Handler serves the login and logout endpoints.
type Handler struct {
	flow          *Flow
	sessions      *session.Manager
	views         *web.TemplateSet
	redirectDelay time.Duration
	logger        *slog.Logger
}

// NewHandler creates a Handler. redirectDelay is how long the success notice
// stays before navigating to the catalog.
func NewHandler(flow *Flow, sessions *session.Manager, views *web.TemplateSet, redirectDelay time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		flow:          flow,
		sessions:      sessions,
		views:         views,
		redirectDelay: redirectDelay,
		logger:        logger.With("handler", "auth"),
	}
}

// Routes returns the public auth routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: app.LoginPath, Handler: h.Form},
			{Method: "POST", Pattern: app.LoginPath, Handler: h.Login},
			{Method: "POST", Pattern: app.LogoutPath, Handler: h.Logout},
		},
	}
}

// Form renders the login view, or redirects to the catalog when a session exists.
func (h *Handler) Form(w http.ResponseWriter, r *http.Request) {
	if rec, err := h.sessions.Resolve(r); err == nil && session.IsAuthorized(rec) {
		handlers.SeeOther(w, r, h.views.Path(app.CatalogPath))
		return
	}
	h.render(w, http.StatusOK, Page{})
}

// Login validates the credentials and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, Page{Error: MessageMissing})
		return
	}

	username := r.PostForm.Get("username")
	rec, err := h.flow.Login(r.Context(), username, r.PostForm.Get("password"))
	switch {
	case errors.Is(err, ErrMissingCredentials):
		h.render(w, http.StatusBadRequest, Page{Username: username, Error: MessageMissing})
		return
	case err != nil:
		h.render(w, http.StatusUnauthorized, Page{Username: username, Error: MessageInvalid})
		return
	}

	if err := h.sessions.Begin(r.Context(), w, rec); err != nil {
		h.logger.Error("session start failed", "error", err)
		h.render(w, http.StatusInternalServerError, Page{Username: username, Error: MessageInvalid})
		return
	}

	h.render(w, http.StatusOK, Page{
		Success:  MessageSuccess,
		Redirect: h.views.Path(app.CatalogPath),
		DelayMS:  h.redirectDelay.Milliseconds(),
	})
}

// Logout destroys the session and returns to the login view.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.End(w, r)
	handlers.SeeOther(w, r, h.views.Path(app.LoginPath))
}

func (h *Handler) render(w http.ResponseWriter, status int, page Page) {
	data := h.views.Data(app.LoginView, page)
	if err := h.views.RenderStatus(w, status, app.Layout, app.LoginView.Template, data); err != nil {
		h.logger.Error("render login failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
