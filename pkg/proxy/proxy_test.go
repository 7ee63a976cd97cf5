package proxy_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/isoone/pkg/proxy"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestForwardsPathAndToken(t *testing.T) {
	var gotPath, gotAuth, gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		gotAuth = r.Header.Get("Authorization")
		gotHost = r.Host
		w.Write([]byte(`[]`))
	}))
	defer upstream.Close()

	h, err := proxy.New(proxy.Options{
		Target: upstream.URL,
		Token:  func(r *http.Request) string { return "tok-123" },
	}, discard())
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "http://isoone.local/api/documents?tipo=Manual", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if gotPath != "/api/documents?tipo=Manual" {
		t.Errorf("path: got %s", gotPath)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization: got %q", gotAuth)
	}
	if gotHost == "isoone.local" {
		t.Error("host header should be rewritten to the target")
	}
}

func TestClientAuthorizationWins(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer upstream.Close()

	h, _ := proxy.New(proxy.Options{
		Target: upstream.URL,
		Token:  func(r *http.Request) string { return "session" },
	}, discard())

	req := httptest.NewRequest("POST", "/chat", nil)
	req.Header.Set("Authorization", "Bearer explicit")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if gotAuth != "Bearer explicit" {
		t.Errorf("authorization: got %q", gotAuth)
	}
}

func TestUpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	h, _ := proxy.New(proxy.Options{Target: url}, discard())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/auth/login", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", rec.Code)
	}
}

func TestInvalidTarget(t *testing.T) {
	for _, target := range []string{"", "localhost:8000", "://bad"} {
		if _, err := proxy.New(proxy.Options{Target: target}, discard()); err == nil {
			t.Errorf("target %q: expected error", target)
		}
	}
}
