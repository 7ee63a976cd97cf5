// Package infrastructure provides core service initialization for application startup.
// It assembles the dependencies every view module requires: logging, tracing,
// the session store, and the collaborator client.
package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/session"
	"github.com/JaimeStill/isoone/pkg/lifecycle"
	"github.com/JaimeStill/isoone/pkg/logging"
	"github.com/JaimeStill/isoone/pkg/tracing"
)

// Infrastructure holds the core systems required by all modules.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Sessions  *session.Manager
	Backend   backend.System

	tracing   *tracing.Config
	version   string
	logCloser io.Closer
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger, closer := logging.New(&cfg.Logging)

	sessions, err := session.New(&cfg.Session, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("session init failed: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Sessions:  sessions,
		Backend:   backend.New(&cfg.Backend, logger),
		tracing:   &cfg.Tracing,
		version:   cfg.Version,
		logCloser: closer,
	}, nil
}

// Start installs the tracer and registers every system with the lifecycle
// coordinator. The log file is closed last on shutdown.
func (i *Infrastructure) Start() error {
	flush := tracing.Start(i.Lifecycle.Context(), i.tracing, i.version, i.Logger.With("system", "tracing"))
	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := flush(context.Background()); err != nil {
			i.Logger.Warn("tracer flush failed", "error", err)
		}
	})

	if err := i.Sessions.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("session start failed: %w", err)
	}
	if err := i.Backend.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("backend start failed: %w", err)
	}
	return nil
}

// Close releases the log file. Call it after the lifecycle has shut down.
func (i *Infrastructure) Close() error {
	return i.logCloser.Close()
}
