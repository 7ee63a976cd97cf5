// Package catalog lists the document library and derives filtered views of it.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JaimeStill/isoone/internal/backend"
)

// All is the filter value that matches every control or type.
const All = "Todos"

// Messages shown on the catalog view.
const (
	MessageEmpty     = "No se encontraron documentos con esos filtros."
	MessageLoadError = "No se pudieron cargar los documentos. Intenta de nuevo más tarde."
)

// FilterState selects which documents the catalog shows.
type FilterState struct {
	Search  string
	Control string
	Type    string
}

// AllPass is the filter state that matches every document.
var AllPass = FilterState{Control: All, Type: All}

// FilterFromQuery reads q, control, and tipo. Missing values select All.
func FilterFromQuery(values url.Values) FilterState {
	f := FilterState{
		Search:  values.Get("q"),
		Control: strings.TrimSpace(values.Get("control")),
		Type:    strings.TrimSpace(values.Get("tipo")),
	}
	if f.Control == "" {
		f.Control = All
	}
	if f.Type == "" {
		f.Type = All
	}
	return f
}

// Query encodes f back into catalog query parameters, omitting defaults.
func (f FilterState) Query() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("q", f.Search)
	}
	if f.Control != "" && f.Control != All {
		v.Set("control", f.Control)
	}
	if f.Type != "" && f.Type != All {
		v.Set("tipo", f.Type)
	}
	return v
}

// Matches reports whether doc satisfies all three predicates of f.
func (f FilterState) Matches(doc backend.Summary) bool {
	if f.Search != "" && !strings.Contains(strings.ToLower(doc.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.Control != All && f.Control != "" && !contains(doc.Controls, f.Control) {
		return false
	}
	if f.Type != All && f.Type != "" && string(doc.Type) != f.Type {
		return false
	}
	return true
}

// Filter returns the documents matching f in their original order.
func Filter(docs []backend.Summary, f FilterState) []backend.Summary {
	out := make([]backend.Summary, 0, len(docs))
	for _, d := range docs {
		if f.Matches(d) {
			out = append(out, d)
		}
	}
	return out
}

// CountLabel renders the result count, singular only for exactly one.
func CountLabel(n int) string {
	if n == 1 {
		return "Mostrando 1 documento"
	}
	return fmt.Sprintf("Mostrando %d documentos", n)
}

// Catalog loads the document list from the document service.
type Catalog struct {
	client backend.Client
	logger *slog.Logger
}

// New creates a Catalog over client.
func New(client backend.Client, logger *slog.Logger) *Catalog {
	return &Catalog{
		client: client,
		logger: logger.With("module", "catalog"),
	}
}

// Load fetches the full list. On failure the returned list is empty, not nil,
// and the error is logged and returned for the view to surface.
func (c *Catalog) Load(ctx context.Context, token string) ([]backend.Summary, error) {
	docs, err := c.client.ListDocuments(ctx, token)
	if err != nil {
		c.logger.Error("catalog load failed", "error", err)
		return []backend.Summary{}, err
	}
	c.logger.Debug("catalog loaded", "count", len(docs))
	return docs, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
