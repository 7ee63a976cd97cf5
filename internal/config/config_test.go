package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/isoone/internal/config"
)

const baseConfig = `
shutdown_timeout = "20s"
version = "1.2.0"

[server]
port = 8080

[app]
base_path = "/portal/"

[catalog.pagination]
default_page_size = 12
max_page_size = 48

[upload]
max_size = "10MB"
verify_pdf = true

[analysis]
delay = "250ms"

[chat]
top_k = 5

[backend]
documents_url = "http://docs.internal:8000"
chat_url = "http://chat.internal:8001"

[session]
driver = "memory"
`

const overlayConfig = `
[server]
port = 9090

[chat]
shared_session_id = "demo-frontend-1"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:3000" {
		t.Errorf("addr: got %s", cfg.Server.Addr())
	}
	if cfg.App.BasePath != "/app" {
		t.Errorf("base path: got %s, want /app", cfg.App.BasePath)
	}
	if cfg.Auth.RedirectDelayDuration() != 800*time.Millisecond {
		t.Errorf("redirect delay: got %v", cfg.Auth.RedirectDelayDuration())
	}
	if cfg.Analysis.DelayDuration() != 1500*time.Millisecond {
		t.Errorf("analysis delay: got %v", cfg.Analysis.DelayDuration())
	}
	if cfg.Upload.MaxSizeBytes() != 50<<20 {
		t.Errorf("max upload: got %d", cfg.Upload.MaxSizeBytes())
	}
	if cfg.Chat.TopK != 8 {
		t.Errorf("top_k: got %d, want 8", cfg.Chat.TopK)
	}
	if cfg.Backend.DocumentsURL != "http://127.0.0.1:8000" {
		t.Errorf("documents url: got %s", cfg.Backend.DocumentsURL)
	}
	if cfg.Session.Driver != "memory" {
		t.Errorf("session driver: got %s", cfg.Session.Driver)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("log format: got %s", cfg.Logging.Format)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadBaseConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.App.BasePath != "/portal" {
		t.Errorf("base path: got %s, want /portal", cfg.App.BasePath)
	}
	if cfg.Catalog.Pagination.DefaultPageSize != 12 {
		t.Errorf("page size: got %d, want 12", cfg.Catalog.Pagination.DefaultPageSize)
	}
	if !cfg.Upload.VerifyPDF || cfg.Upload.MaxSizeBytes() != 10<<20 {
		t.Errorf("upload: got %+v", cfg.Upload)
	}
	if cfg.Chat.TopK != 5 {
		t.Errorf("top_k: got %d, want 5", cfg.Chat.TopK)
	}
	if cfg.Backend.FileOrigin != "http://docs.internal:8000" {
		t.Errorf("file origin should follow documents url: got %s", cfg.Backend.FileOrigin)
	}
	if cfg.Version != "1.2.0" {
		t.Errorf("version: got %s", cfg.Version)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv(config.EnvISOOneEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.Chat.SharedSessionID != "demo-frontend-1" {
		t.Errorf("shared session id: got %q", cfg.Chat.SharedSessionID)
	}
	if cfg.Chat.TopK != 5 {
		t.Errorf("base top_k should survive overlay: got %d", cfg.Chat.TopK)
	}
	if cfg.Env() != "staging" {
		t.Errorf("env: got %s", cfg.Env())
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	t.Setenv(config.EnvServerPort, "7070")
	t.Setenv("ISOONE_BACKEND_CHAT_URL", "http://chat.override:9000")
	t.Setenv("ISOONE_SESSION_DRIVER", "redis")
	t.Setenv("ISOONE_SESSION_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv(config.EnvUploadVerifyPDF, "false")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("port: got %d, want 7070", cfg.Server.Port)
	}
	if cfg.Backend.ChatURL != "http://chat.override:9000" {
		t.Errorf("chat url: got %s", cfg.Backend.ChatURL)
	}
	if cfg.Session.Driver != "redis" {
		t.Errorf("session driver: got %s", cfg.Session.Driver)
	}
	if cfg.Upload.VerifyPDF {
		t.Error("verify_pdf should be overridden to false")
	}
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.DotEnvFile, "ISOONE_LOG_LEVEL=debug\n")
	chdir(t, dir)
	t.Cleanup(func() { os.Unsetenv("ISOONE_LOG_LEVEL") })

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level from .env: got %s", cfg.Logging.Level)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name   string
		config string
		env    map[string]string
	}{
		{name: "bad toml", config: "[server\nport = 1"},
		{name: "bad port", config: "[server]\nport = 70000"},
		{name: "bad shutdown timeout", config: `shutdown_timeout = "soon"`},
		{name: "bad upload size", config: "[upload]\nmax_size = \"lots\""},
		{name: "bad backend url", config: "[backend]\ndocuments_url = \"docs\""},
		{name: "redis without url", config: "[session]\ndriver = \"redis\""},
		{name: "root base path", config: "[app]\nbase_path = \"/\""},
		{name: "nested base path", config: "[app]\nbase_path = \"/portal/app\""},
		{name: "reserved base path", config: "[app]\nbase_path = \"/api\""},
		{name: "turn lock shorter than backend timeout", config: "[backend]\ntimeout = \"90s\"\n\n[session]\nturn_ttl = \"60s\""},
		{name: "turn lock env equal to backend timeout", env: map[string]string{"ISOONE_SESSION_TURN_TTL": "60s"}},
		{name: "bad env port", env: map[string]string{config.EnvServerPort: "http"}},
		{name: "bad analysis delay", env: map[string]string{config.EnvAnalysisDelay: "slow"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.config != "" {
				writeConfig(t, dir, config.BaseConfigFile, tt.config)
			}
			chdir(t, dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
