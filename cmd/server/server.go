package main

import (
	"time"

	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/infrastructure"
)

// Server fronts the /app views and the /api /auth /chat backend passthrough
// proxies with a single listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

// NewServer wires the views and proxies against the configured backends. No
// backend is contacted until a request or a readiness check arrives.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		infra.Close()
		return nil, err
	}

	router := buildRouter(infra, cfg)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"documents", cfg.Backend.DocumentsURL,
		"chat", cfg.Backend.ChatURL,
	)

	return &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, cfg.ShutdownTimeoutDuration(), router, infra.Logger),
	}, nil
}

// Start registers the session store and backend readiness checks, then opens
// the listener.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

// Shutdown cancels the lifecycle so the listener drains view and proxy
// requests while the session store closes. A chat turn cut off mid-call leaves
// its lock to expire at turn_ttl and its pending flag to the next chat render.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
