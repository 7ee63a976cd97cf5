package app

import (
	"github.com/JaimeStill/isoone/internal/analysis"
	"github.com/JaimeStill/isoone/internal/auth"
	"github.com/JaimeStill/isoone/internal/catalog"
	"github.com/JaimeStill/isoone/internal/chat"
	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/detail"
	"github.com/JaimeStill/isoone/internal/upload"
)

// Domain holds the view handlers that comprise the app module.
type Domain struct {
	Auth    *auth.Handler
	Catalog *catalog.Handler
	Upload  *upload.Handler
	Detail  *detail.Handler
	Chat    *chat.Handler
}

// NewDomain wires every flow to the runtime's collaborators.
func NewDomain(cfg *config.Config, rt *Runtime) *Domain {
	client := rt.Backend
	logger := rt.Logger
	sessions := rt.Sessions
	views := rt.Views

	analyzer := analysis.Heuristic{Delay: cfg.Analysis.DelayDuration()}

	return &Domain{
		Auth: auth.NewHandler(
			auth.NewFlow(client, logger),
			sessions, views, cfg.Auth.RedirectDelayDuration(), logger,
		),
		Catalog: catalog.NewHandler(
			catalog.New(client, logger),
			sessions, views, cfg.Catalog.Pagination, logger,
		),
		Upload: upload.NewHandler(
			upload.NewFlow(client, cfg.Upload.VerifyPDF, logger),
			sessions, views, cfg.Upload.MaxSizeBytes(), logger,
		),
		Detail: detail.NewHandler(
			detail.New(client, analyzer, logger),
			sessions, views, logger,
		),
		Chat: chat.NewHandler(
			chat.NewFlow(client, sessions, cfg.Chat, logger),
			sessions, views, logger,
		),
	}
}
