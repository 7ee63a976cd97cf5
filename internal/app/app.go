// Package app assembles the server-rendered view module: public auth routes,
// session-guarded views, static assets, and the not-found page.
package app

import (
	"net/http"

	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/infrastructure"
	"github.com/JaimeStill/isoone/pkg/handlers"
	"github.com/JaimeStill/isoone/pkg/middleware"
	"github.com/JaimeStill/isoone/pkg/module"
	"github.com/JaimeStill/isoone/pkg/routes"
	"github.com/JaimeStill/isoone/pkg/web"
	webapp "github.com/JaimeStill/isoone/web/app"
)

// NewModule creates the app module with all view handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	rt, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(cfg, rt)

	router := web.NewRouter()
	registerRoutes(router, domain, rt)
	router.SetFallback(rt.Views.ErrorHandler(webapp.Layout, webapp.NotFoundView, http.StatusNotFound))

	m := module.New(cfg.App.BasePath, router)
	m.Use(middleware.Recover(rt.Logger))
	m.Use(middleware.Logger(rt.Logger))

	return m, nil
}

func registerRoutes(router *web.Router, domain *Domain, rt *Runtime) {
	views := rt.Views
	guard := rt.Sessions.Guard(views.Path(webapp.LoginPath))

	router.Handle("GET "+webapp.StaticPath, webapp.Static(webapp.StaticPath))

	routes.Register(
		router,
		domain.Auth.Routes(),
		routes.Group{
			Middleware: middleware.Stack{guard},
			Routes: []routes.Route{
				{Method: "GET", Pattern: "/{$}", Handler: func(w http.ResponseWriter, r *http.Request) {
					handlers.SeeOther(w, r, views.Path(webapp.CatalogPath))
				}},
			},
			Children: []routes.Group{
				domain.Catalog.Routes(),
				domain.Upload.Routes(),
				domain.Detail.Routes(),
				domain.Chat.Routes(),
			},
		},
	)
}
