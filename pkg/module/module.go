package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/JaimeStill/isoone/pkg/middleware"
)

// Module is an HTTP handler mounted under a single-level prefix with its own
// middleware stack. Standard modules strip their prefix before delegating to the
// inner router. Passthrough modules forward the request path untouched, which
// reverse proxies need to reach the same path on the upstream.
type Module struct {
	prefix      string
	router      http.Handler
	middleware  middleware.Stack
	passthrough bool
}

// New creates a Module with the given single-level prefix (e.g. "/app").
// Panics if the prefix is empty, missing a leading slash, or multi-level.
func New(prefix string, router http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix: prefix,
		router: router,
	}
}

// NewPassthrough creates a Module that does not strip its prefix or normalize
// trailing slashes.
func NewPassthrough(prefix string, handler http.Handler) *Module {
	m := New(prefix, handler)
	m.passthrough = true
	return m
}

// Handler returns the inner router wrapped with the module's middleware stack.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

// Prefix returns the module's path prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Passthrough reports whether the module forwards the raw request path.
func (m *Module) Passthrough() bool {
	return m.passthrough
}

// Serve dispatches to the inner router, stripping the prefix unless the module is a passthrough.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	if m.passthrough {
		m.Handler().ServeHTTP(w, req)
		return
	}
	path := extractPath(req.URL.Path, m.prefix)
	m.Handler().ServeHTTP(w, cloneRequest(req, path))
}

// Use adds middleware to the module's stack.
func (m *Module) Use(mw middleware.Func) {
	m.middleware.Use(mw)
}

func cloneRequest(req *http.Request, path string) *http.Request {
	request := new(http.Request)
	*request = *req
	request.URL = new(url.URL)
	*request.URL = *req.URL
	request.URL.Path = path
	request.URL.RawPath = ""
	return request
}

func extractPath(fullPath, prefix string) string {
	path := fullPath[len(prefix):]
	if path == "" {
		return "/"
	}
	return path
}

func validatePrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("module prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	}
	if strings.Count(prefix, "/") != 1 {
		return fmt.Errorf("module prefix must be single-level sub-path: %s", prefix)
	}
	return nil
}
