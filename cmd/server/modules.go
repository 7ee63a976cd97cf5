package main

import (
	"context"
	"net/http"
	"time"

	"github.com/JaimeStill/isoone/internal/app"
	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/infrastructure"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/handlers"
	"github.com/JaimeStill/isoone/pkg/middleware"
	"github.com/JaimeStill/isoone/pkg/module"
	"github.com/JaimeStill/isoone/pkg/proxy"
	webapp "github.com/JaimeStill/isoone/web/app"
)

const readyTimeout = 3 * time.Second

// Modules holds the view module and the collaborator passthroughs.
type Modules struct {
	App     *module.Module
	Proxies []*module.Module
}

// NewModules builds the app module and one passthrough per collaborator prefix.
func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	appModule, err := app.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	targets := []struct {
		prefix string
		target string
	}{
		{"/api", cfg.Backend.DocumentsURL},
		{"/auth", cfg.Backend.DocumentsURL},
		{"/chat", cfg.Backend.ChatURL},
	}

	proxies := make([]*module.Module, 0, len(targets))
	for _, t := range targets {
		logger := infra.Logger.With("module", "proxy", "prefix", t.prefix)
		handler, err := proxy.New(proxy.Options{
			Target:  t.target,
			Token:   infra.Sessions.Token,
			Timeout: cfg.Backend.TimeoutDuration(),
		}, logger)
		if err != nil {
			return nil, err
		}

		m := module.NewPassthrough(t.prefix, handler)
		m.Use(middleware.CORS(&cfg.CORS))
		m.Use(middleware.Logger(logger))
		m.Use(middleware.Recover(logger))
		proxies = append(proxies, m)
	}

	return &Modules{
		App:     appModule,
		Proxies: proxies,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.App)
	for _, p := range m.Proxies {
		router.Mount(p)
	}
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if !infra.Lifecycle.Ready() {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := infra.Lifecycle.Check(ctx); err != nil {
			handlers.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
			return
		}
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	base := cfg.App.BasePath
	router.HandleNative("/", func(w http.ResponseWriter, r *http.Request) {
		if rec, err := infra.Sessions.Resolve(r); err == nil && session.IsAuthorized(rec) {
			handlers.SeeOther(w, r, base+webapp.CatalogPath)
			return
		}
		handlers.SeeOther(w, r, base+webapp.LoginPath)
	})

	return router
}
