package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/JaimeStill/isoone/internal/config"
	"github.com/JaimeStill/isoone/internal/infrastructure"
	"github.com/JaimeStill/isoone/internal/session"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Logging.Level = "error"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Close()

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Sessions == nil {
		t.Error("Sessions is nil")
	}
	if infra.Backend == nil {
		t.Error("Backend is nil")
	}
}

func TestNewRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := &config.Config{}
	cfg.Logging.Level = "error"
	cfg.Session.Driver = session.DriverRedis
	cfg.Session.RedisURL = "redis://" + mr.Addr()
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Close()

	owner, err := infra.Sessions.AcquireTurn(context.Background(), "s1")
	if err != nil || owner == "" {
		t.Fatalf("AcquireTurn() = %q, %v", owner, err)
	}
}

func TestStartAndShutdown(t *testing.T) {
	infra, err := infrastructure.New(validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Close()

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	infra.Lifecycle.WaitForStartup()
	if !infra.Lifecycle.Ready() {
		t.Error("lifecycle not ready after startup")
	}

	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
