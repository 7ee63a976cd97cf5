package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/isoone/internal/auth"
	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/backend/backendtest"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/web/app"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signed(t *testing.T, sub string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "ana@isoone.com", auth.Subject(signed(t, "ana@isoone.com")))
	assert.Empty(t, auth.Subject("opaque-token"))
	assert.Empty(t, auth.Subject(""))
}

func TestLoginBlankCredentialsSkipNetwork(t *testing.T) {
	called := false
	client := &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			called = true
			return "tok", nil
		},
	}
	flow := auth.NewFlow(client, discard())

	for _, c := range [][2]string{{"", "x"}, {"  ", "x"}, {"ana", ""}} {
		_, err := flow.Login(context.Background(), c[0], c[1])
		assert.ErrorIs(t, err, auth.ErrMissingCredentials)
	}
	assert.False(t, called)
}

func TestLoginSuccess(t *testing.T) {
	token := signed(t, "ana@isoone.com")
	client := &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			assert.Equal(t, "ana", username)
			assert.Equal(t, "secreto", password)
			return token, nil
		},
	}

	rec, err := auth.NewFlow(client, discard()).Login(context.Background(), " ana ", "secreto")
	require.NoError(t, err)
	assert.True(t, session.IsAuthorized(rec))
	assert.Equal(t, token, rec.Token)
	assert.Equal(t, "ana@isoone.com", rec.Subject)
	assert.NotEmpty(t, rec.ChatSessionID)
}

func TestLoginOpaqueTokenFallsBackToIdentifier(t *testing.T) {
	client := &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			return "opaque", nil
		},
	}

	rec, err := auth.NewFlow(client, discard()).Login(context.Background(), "ana", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "ana", rec.Subject)
}

func TestLoginRejected(t *testing.T) {
	client := &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			return "", &backend.StatusError{Method: "POST", Path: "/auth/login", Status: 401}
		},
	}

	_, err := auth.NewFlow(client, discard()).Login(context.Background(), "ana", "mal")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

type fixture struct {
	mux      *http.ServeMux
	sessions *session.Manager
}

func newFixture(t *testing.T, client *backendtest.Client) fixture {
	t.Helper()
	views, err := app.NewTemplateSet("/app")
	require.NoError(t, err)

	cfg := &session.Config{}
	require.NoError(t, cfg.Finalize(nil))
	sessions := session.NewManager(session.NewMemoryStore(time.Hour, time.Minute), cfg, discard())

	h := auth.NewHandler(auth.NewFlow(client, discard()), sessions, views, 800*time.Millisecond, discard())
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return fixture{mux: mux, sessions: sessions}
}

func postLogin(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHandlerLoginSuccess(t *testing.T) {
	f := newFixture(t, &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			return "tok", nil
		},
	})

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, postLogin("ana", "secreto"))
	require.Equal(t, http.StatusOK, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	notice := doc.Find(".notice.success")
	assert.Equal(t, auth.MessageSuccess, strings.TrimSpace(notice.Text()))
	redirect, _ := notice.Attr("data-redirect")
	assert.Equal(t, "/app/biblioteca", redirect)
	delay, _ := notice.Attr("data-delay")
	assert.Equal(t, "800", delay)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookies[0])
	rec, err := f.sessions.Resolve(req)
	require.NoError(t, err)
	assert.Equal(t, "tok", rec.Token)
}

func TestHandlerLoginMissing(t *testing.T) {
	f := newFixture(t, &backendtest.Client{})

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, postLogin("ana", ""))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), auth.MessageMissing)
}

func TestHandlerLoginFailure(t *testing.T) {
	f := newFixture(t, &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			return "", errors.New("connection refused")
		},
	})

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, postLogin("ana", "secreto"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, auth.MessageInvalid, strings.TrimSpace(doc.Find(".notice.error").Text()))
	value, _ := doc.Find("#username").Attr("value")
	assert.Equal(t, "ana", value)
	assert.Empty(t, w.Result().Cookies())
}

func TestHandlerFormRedirectsWhenAuthorized(t *testing.T) {
	f := newFixture(t, &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			return "tok", nil
		},
	})

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, postLogin("ana", "secreto"))
	cookie := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/app/biblioteca", w.Header().Get("Location"))
}

func TestHandlerLogout(t *testing.T) {
	f := newFixture(t, &backendtest.Client{
		LoginFn: func(ctx context.Context, username, password string) (string, error) {
			return "tok", nil
		},
	})

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, postLogin("ana", "secreto"))
	cookie := w.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/app/login", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	_, err := f.sessions.Resolve(req)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
