package app

import (
	"fmt"

	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/infrastructure"
	"github.com/JaimeStill/isoone/pkg/web"
	webapp "github.com/JaimeStill/isoone/web/app"
)

// Runtime extends Infrastructure with the parsed views of the app module.
type Runtime struct {
	*infrastructure.Infrastructure
	Views *web.TemplateSet
}

// NewRuntime parses the views for the module base path and scopes the logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	views, err := webapp.NewTemplateSet(cfg.App.BasePath)
	if err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "app"),
			Sessions:  infra.Sessions,
			Backend:   infra.Backend,
		},
		Views: views,
	}, nil
}
