// Package backendtest provides a configurable backend.Client for handler tests.
package backendtest

import (
	"context"

	"github.com/JaimeStill/isoone/internal/backend"
)

// Client implements backend.Client with overridable functions. A nil function
// returns zero values.
type Client struct {
	LoginFn          func(ctx context.Context, username, password string) (string, error)
	ListDocumentsFn  func(ctx context.Context, token string) ([]backend.Summary, error)
	GetDocumentFn    func(ctx context.Context, token, id string) (*backend.Detail, error)
	CreateDocumentFn func(ctx context.Context, token string, cmd backend.CreateCommand) error
	ChatFn           func(ctx context.Context, token string, req backend.ChatRequest) (*backend.ChatReply, error)
	Origin           string
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	if c.LoginFn == nil {
		return "", nil
	}
	return c.LoginFn(ctx, username, password)
}

func (c *Client) ListDocuments(ctx context.Context, token string) ([]backend.Summary, error) {
	if c.ListDocumentsFn == nil {
		return []backend.Summary{}, nil
	}
	return c.ListDocumentsFn(ctx, token)
}

func (c *Client) GetDocument(ctx context.Context, token, id string) (*backend.Detail, error) {
	if c.GetDocumentFn == nil {
		return nil, &backend.StatusError{Method: "GET", Path: "/api/documentos/" + id, Status: 404}
	}
	return c.GetDocumentFn(ctx, token, id)
}

func (c *Client) CreateDocument(ctx context.Context, token string, cmd backend.CreateCommand) error {
	if c.CreateDocumentFn == nil {
		return nil
	}
	return c.CreateDocumentFn(ctx, token, cmd)
}

func (c *Client) Chat(ctx context.Context, token string, req backend.ChatRequest) (*backend.ChatReply, error) {
	if c.ChatFn == nil {
		return &backend.ChatReply{}, nil
	}
	return c.ChatFn(ctx, token, req)
}

func (c *Client) FileURL(path string) string {
	if path == "" {
		return ""
	}
	return c.Origin + path
}
