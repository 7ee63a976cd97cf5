// Package tracing configures the OpenTelemetry tracer provider with an OTLP HTTP
// exporter. Tracing is disabled unless explicitly enabled.
package tracing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Config holds exporter settings.
type Config struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	Insecure    bool   `toml:"insecure"`
	ServiceName string `toml:"service_name"`
}

// Env maps tracing config fields to environment variable names.
type Env struct {
	Enabled  string
	Endpoint string
}

// Finalize applies defaults and environment overrides.
func (c *Config) Finalize(env *Env) error {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.ServiceName == "" {
		c.ServiceName = "isoone"
	}
	if env == nil {
		return nil
	}
	if env.Enabled != "" {
		if v := os.Getenv(env.Enabled); v != "" {
			enabled, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.Enabled, err)
			}
			c.Enabled = enabled
		}
	}
	if env.Endpoint != "" {
		if v := os.Getenv(env.Endpoint); v != "" {
			c.Endpoint = v
		}
	}
	return nil
}

// Merge overwrites fields from overlay. Enabled and Insecure always apply.
func (c *Config) Merge(overlay *Config) {
	c.Enabled = overlay.Enabled
	c.Insecure = overlay.Insecure
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
}

// Start installs a global tracer provider and returns its shutdown function.
// When tracing is disabled or the exporter cannot be built, the global no-op
// provider stays in place and the returned function does nothing.
func Start(ctx context.Context, cfg *Config, version string, logger *slog.Logger) func(context.Context) error {
	noop := func(context.Context) error { return nil }

	if !cfg.Enabled {
		logger.Info("tracing disabled")
		return noop
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		logger.Warn("tracing exporter unavailable", "error", err)
		return noop
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
		)),
	)

	otel.SetTracerProvider(tp)
	logger.Info("tracing enabled", "endpoint", cfg.Endpoint)

	return tp.Shutdown
}
