package catalog_test

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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/backend/backendtest"
	"github.com/JaimeStill/isoone/internal/catalog"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/pagination"
	"github.com/JaimeStill/isoone/web/app"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var library = []backend.Summary{
	{ID: "1", Title: "Política de Seguridad", Type: backend.TypePolicy, Controls: []string{"5.1.1"}, Date: "2024-01-02"},
	{ID: "2", Title: "Procedimiento de Backups", Type: backend.TypeProcedure, Controls: []string{"12.3.1", "5.1.1"}, Date: "2024-02-10"},
	{ID: "3", Title: "Registro de Accesos", Type: backend.TypeRecord, Controls: []string{"9.2.1"}, Date: "2024-03-15"},
}

func titles(docs []backend.Summary) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Title
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter catalog.FilterState
		want   []string
	}{
		{"all pass", catalog.AllPass, titles(library)},
		{"search is case insensitive", catalog.FilterState{Search: "BACKUP", Control: catalog.All, Type: catalog.All}, []string{"Procedimiento de Backups"}},
		{"control", catalog.FilterState{Control: "5.1.1", Type: catalog.All}, []string{"Política de Seguridad", "Procedimiento de Backups"}},
		{"type", catalog.FilterState{Control: catalog.All, Type: "Registro"}, []string{"Registro de Accesos"}},
		{"conjunction", catalog.FilterState{Search: "seguridad", Control: "5.1.1", Type: "Procedimiento"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, titles(catalog.Filter(library, tt.filter)))
		})
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	f := catalog.FilterState{Search: "de", Control: "5.1.1", Type: catalog.All}
	once := catalog.Filter(library, f)
	assert.Equal(t, once, catalog.Filter(once, f))
	assert.LessOrEqual(t, len(once), len(library))
}

func TestFilterFromQuery(t *testing.T) {
	f := catalog.FilterFromQuery(url.Values{"q": {"plan"}, "tipo": {"Manual"}})
	assert.Equal(t, catalog.FilterState{Search: "plan", Control: catalog.All, Type: "Manual"}, f)
	assert.Equal(t, url.Values{"q": {"plan"}, "tipo": {"Manual"}}, f.Query())
	assert.Empty(t, catalog.AllPass.Query())
}

func TestCountLabel(t *testing.T) {
	assert.Equal(t, "Mostrando 0 documentos", catalog.CountLabel(0))
	assert.Equal(t, "Mostrando 1 documento", catalog.CountLabel(1))
	assert.Equal(t, "Mostrando 7 documentos", catalog.CountLabel(7))
}

func TestLoadFailureYieldsEmptyList(t *testing.T) {
	c := catalog.New(&backendtest.Client{
		ListDocumentsFn: func(ctx context.Context, token string) ([]backend.Summary, error) {
			return nil, errors.New("connection refused")
		},
	}, discard())

	docs, err := c.Load(context.Background(), "tok")
	require.Error(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestWriteXLSX(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, catalog.WriteXLSX(&buf, library[:2]))

	f, err := excelize.OpenReader(strings.NewReader(buf.String()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(catalog.ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Título", "Tipo", "Controles", "Fecha"}, rows[0])
	assert.Equal(t, "Procedimiento de Backups", rows[2][1])
	assert.Equal(t, "A.12.3.1, A.5.1.1", rows[2][3])
}

type fixture struct {
	handler  *catalog.Handler
	sessions *session.Manager
	client   *backendtest.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	views, err := app.NewTemplateSet("/app")
	require.NoError(t, err)

	cfg := &session.Config{}
	require.NoError(t, cfg.Finalize(nil))
	sessions := session.NewManager(session.NewMemoryStore(time.Hour, time.Minute), cfg, discard())

	client := &backendtest.Client{
		ListDocumentsFn: func(ctx context.Context, token string) ([]backend.Summary, error) {
			return library, nil
		},
	}

	return &fixture{
		handler:  catalog.NewHandler(catalog.New(client, discard()), sessions, views, pagination.Config{DefaultPageSize: 2, MaxPageSize: 10}, discard()),
		sessions: sessions,
		client:   client,
	}
}

func authorized(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := &session.Record{ID: "s1", Token: "tok", Authorized: true, Subject: "maria.garcia@isoone.io"}
	return req.WithContext(session.WithRecord(req.Context(), rec))
}

func TestListRendersFilteredCount(t *testing.T) {
	fx := newFixture(t)
	w := httptest.NewRecorder()
	fx.handler.List(w, authorized("/biblioteca?q=seguridad"))

	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	assert.Equal(t, "Mostrando 1 documento", strings.TrimSpace(doc.Find(".resultados-count").Text()))
	assert.Equal(t, 1, doc.Find(".documento-card").Length())
	href, _ := doc.Find(".documento-card").Attr("href")
	assert.Equal(t, "/app/documento/1", href)
	assert.Equal(t, "MG", doc.Find(".avatar-initials").Text())
}

func TestListPaginates(t *testing.T) {
	fx := newFixture(t)
	w := httptest.NewRecorder()
	fx.handler.List(w, authorized("/biblioteca"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)

	assert.Equal(t, "Mostrando 3 documentos", strings.TrimSpace(doc.Find(".resultados-count").Text()))
	assert.Equal(t, 2, doc.Find(".documento-card").Length())
	next, ok := doc.Find(".pager a").Attr("href")
	require.True(t, ok)
	assert.Equal(t, "/app/biblioteca?page=2", next)
}

func TestListEmptyMessage(t *testing.T) {
	fx := newFixture(t)
	w := httptest.NewRecorder()
	fx.handler.List(w, authorized("/biblioteca?tipo=Manual"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, catalog.MessageEmpty, strings.TrimSpace(doc.Find(".documentos-empty").Text()))
}

func TestListLoadErrorIsVisible(t *testing.T) {
	fx := newFixture(t)
	fx.client.ListDocumentsFn = func(ctx context.Context, token string) ([]backend.Summary, error) {
		return nil, &backend.StatusError{Method: "GET", Path: "/api/documentos/", Status: 500}
	}

	w := httptest.NewRecorder()
	fx.handler.List(w, authorized("/biblioteca"))

	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, catalog.MessageLoadError, strings.TrimSpace(doc.Find(".notice.error").Text()))
	assert.Equal(t, "Mostrando 0 documentos", strings.TrimSpace(doc.Find(".resultados-count").Text()))
}

func TestListUnauthorizedEvicts(t *testing.T) {
	fx := newFixture(t)
	fx.client.ListDocumentsFn = func(ctx context.Context, token string) ([]backend.Summary, error) {
		return nil, &backend.StatusError{Method: "GET", Path: "/api/documentos/", Status: 401}
	}

	w := httptest.NewRecorder()
	fx.handler.List(w, authorized("/biblioteca"))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/app/login", w.Header().Get("Location"))
}

func TestExport(t *testing.T) {
	fx := newFixture(t)
	w := httptest.NewRecorder()
	fx.handler.Export(w, authorized("/biblioteca/export?control=5.1.1"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=\"biblioteca-")

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(catalog.ExportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
