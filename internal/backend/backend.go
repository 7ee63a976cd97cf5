// Package backend is the HTTP client for the document and chat services.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/isoone/pkg/lifecycle"
)

const (
	loginPath     = "/auth/login"
	documentsPath = "/api/documentos/"
	chatPath      = "/chat"

	maxErrorBody = 4 << 10
)

// Client performs the collaborator calls. token is attached as a bearer
// credential when non-empty.
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)
	ListDocuments(ctx context.Context, token string) ([]Summary, error)
	GetDocument(ctx context.Context, token, id string) (*Detail, error)
	CreateDocument(ctx context.Context, token string, cmd CreateCommand) error
	Chat(ctx context.Context, token string, req ChatRequest) (*ChatReply, error)
	// FileURL resolves a document's url against the file origin.
	FileURL(path string) string
}

// System is a Client whose collaborators participate in readiness checks.
type System interface {
	Client
	Start(lc *lifecycle.Coordinator) error
}

type client struct {
	http       *http.Client
	documents  string
	chat       string
	fileOrigin string
	logger     *slog.Logger
	tracer     trace.Tracer
}

// New creates a collaborator client from cfg.
func New(cfg *Config, logger *slog.Logger) System {
	return &client{
		http:       &http.Client{Timeout: cfg.TimeoutDuration()},
		documents:  cfg.DocumentsURL,
		chat:       cfg.ChatURL,
		fileOrigin: cfg.FileOrigin,
		logger:     logger.With("system", "backend"),
		tracer:     otel.Tracer("github.com/JaimeStill/isoone/internal/backend"),
	}
}

func (c *client) Start(lc *lifecycle.Coordinator) error {
	lc.AddCheck("documents", func(ctx context.Context) error { return c.ping(ctx, c.documents) })
	lc.AddCheck("chat", func(ctx context.Context) error { return c.ping(ctx, c.chat) })
	return nil
}

func (c *client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{"username": {username}, "password": {password}}

	var out tokenResponse
	err := c.do(ctx, "login", http.MethodPost, c.documents+loginPath, "",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", ErrMalformed)
	}
	return out.AccessToken, nil
}

func (c *client) ListDocuments(ctx context.Context, token string) ([]Summary, error) {
	var out []Summary
	if err := c.do(ctx, "list documents", http.MethodGet, c.documents+documentsPath, token, "", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

func (c *client) GetDocument(ctx context.Context, token, id string) (*Detail, error) {
	var out Detail
	endpoint := c.documents + documentsPath + url.PathEscape(id)
	if err := c.do(ctx, "get document", http.MethodGet, endpoint, token, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) CreateDocument(ctx context.Context, token string, cmd CreateCommand) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreatePart(filePartHeader(cmd.Filename))
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}
	if _, err := part.Write(cmd.Data); err != nil {
		return fmt.Errorf("write file part: %w", err)
	}

	fields := [][2]string{
		{"titulo", cmd.Title},
		{"tipo", string(cmd.Type)},
		{"proceso", cmd.Process},
		{"version", cmd.Version},
		{"control_id", cmd.Control},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return fmt.Errorf("write field %s: %w", f[0], err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	return c.do(ctx, "create document", http.MethodPost, c.documents+documentsPath, token,
		mw.FormDataContentType(), &body, nil)
}

func (c *client) Chat(ctx context.Context, token string, req ChatRequest) (*ChatReply, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	var out ChatReply
	if err := c.do(ctx, "chat", http.MethodPost, c.chat+chatPath, token,
		"application/json", bytes.NewReader(payload), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *client) FileURL(path string) string {
	if path == "" {
		return ""
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.fileOrigin + path
}

func (c *client) do(ctx context.Context, op, method, endpoint, token, contentType string, body io.Reader, out any) error {
	ctx, span := c.tracer.Start(ctx, "backend."+strings.ReplaceAll(op, " ", "_"),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", endpoint),
		),
	)
	defer span.End()

	start := time.Now()
	err := c.roundTrip(ctx, method, endpoint, token, contentType, body, out, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		c.logger.Warn("collaborator call failed", "op", op, "error", err, "duration", time.Since(start))
		return fmt.Errorf("%s: %w", op, err)
	}

	c.logger.Debug("collaborator call", "op", op, "duration", time.Since(start))
	return nil
}

func (c *client) roundTrip(ctx context.Context, method, endpoint, token, contentType string, body io.Reader, out any, span trace.Span) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: method,
			Path:   req.URL.Path,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// ping treats any HTTP response as reachable; only transport failures count.
func (c *client) ping(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func filePartHeader(filename string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", "application/pdf")
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
