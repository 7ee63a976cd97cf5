// Package detail shows a single document with its viewer, trace panel and
// compliance finding.
package detail

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/isoone/internal/analysis"
	"github.com/JaimeStill/isoone/internal/backend"
)

// Messages shown on the detail view.
const (
	MessageNotFound       = "Documento no encontrado o no se pudo cargar."
	MessageAnalysisFailed = "No se pudo completar el análisis del documento."
)

// Service loads documents and runs the analyzer over them.
type Service struct {
	client   backend.Client
	analyzer analysis.Analyzer
	logger   *slog.Logger
}

// New creates a Service.
func New(client backend.Client, analyzer analysis.Analyzer, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		analyzer: analyzer,
		logger:   logger.With("module", "detail"),
	}
}

// Get fetches one document.
func (s *Service) Get(ctx context.Context, token, id string) (*backend.Detail, error) {
	doc, err := s.client.GetDocument(ctx, token, id)
	if err != nil {
		s.logger.Warn("document load failed", "id", id, "error", err)
		return nil, err
	}
	return doc, nil
}

// ViewerURL resolves the document's file location against the file origin.
func (s *Service) ViewerURL(doc *backend.Detail) string {
	return s.client.FileURL(doc.FileURL)
}

// Analyze re-fetches the document and runs the analyzer over it.
func (s *Service) Analyze(ctx context.Context, token, id string) (analysis.Finding, error) {
	doc, err := s.Get(ctx, token, id)
	if err != nil {
		return analysis.Finding{}, err
	}

	finding, err := s.analyzer.Analyze(ctx, *doc)
	if err != nil {
		return analysis.Finding{}, err
	}
	s.logger.Debug("document analyzed", "id", id, "status", finding.Status)
	return finding, nil
}
