// Package proxy forwards collaborator routes to upstream services.
package proxy

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/JaimeStill/isoone/pkg/handlers"
)

// TokenSource returns the bearer token to forward for r, or "" for none.
type TokenSource func(r *http.Request) string

// Options configures a proxy.
type Options struct {
	Target  string
	Token   TokenSource
	Timeout time.Duration
}

// ErrUpstream marks a failure to reach the upstream service.
var ErrUpstream = errors.New("upstream unavailable")

// New creates a reverse proxy to opts.Target. The request path is forwarded as-is
// and the Host header is rewritten to the target. When the client did not send an
// Authorization header, the token from opts.Token is attached.
func New(opts Options, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("parse proxy target: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("proxy target must be absolute: %q", opts.Target)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Timeout > 0 {
		transport.ResponseHeaderTimeout = opts.Timeout
	}

	logger = logger.With("target", target.Host)

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			if opts.Token == nil || pr.In.Header.Get("Authorization") != "" {
				return
			}
			if token := opts.Token(pr.In); token != "" {
				pr.Out.Header.Set("Authorization", "Bearer "+token)
			}
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			handlers.RespondError(w, logger, http.StatusBadGateway, fmt.Errorf("%w: %s %s", ErrUpstream, r.Method, r.URL.Path))
			logger.Debug("proxy failure", "error", err)
		},
	}, nil
}
