// Package auth exchanges credentials for a collaborator token and opens or
// closes the browser session.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/session"
)

// Messages shown on the login view.
const (
	MessageInvalid = "Credenciales incorrectas o error de servidor."
	MessageMissing = "Ingresa tu correo y contraseña."
	MessageSuccess = "¡Login Exitoso! Redirigiendo..."
)

// Auth errors.
var (
	ErrMissingCredentials = errors.New("identifier and secret are required")
	ErrInvalidCredentials = errors.New("invalid credentials or server error")
)

// Flow performs the login exchange.
type Flow struct {
	client backend.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewFlow creates a Flow over client.
func NewFlow(client backend.Client, logger *slog.Logger) *Flow {
	return &Flow{
		client: client,
		logger: logger.With("module", "auth"),
		now:    time.Now,
	}
}

// Login exchanges credentials for a token and returns an unsaved session record.
// Blank credentials fail with ErrMissingCredentials before any network call.
// Any collaborator failure is logged and reported as ErrInvalidCredentials.
func (f *Flow) Login(ctx context.Context, identifier, secret string) (*session.Record, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || secret == "" {
		return nil, ErrMissingCredentials
	}

	token, err := f.client.Login(ctx, identifier, secret)
	if err != nil {
		f.logger.Warn("login rejected", "identifier", identifier, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	subject := Subject(token)
	if subject == "" {
		subject = identifier
	}

	f.logger.Info("login succeeded", "subject", subject)
	return &session.Record{
		Token:         token,
		Authorized:    true,
		Subject:       subject,
		ChatSessionID: uuid.NewString(),
		CreatedAt:     f.now().UTC(),
	}, nil
}

// Subject returns the unverified sub claim of a JWT, or "" when token is not a
// decodable JWT. The value is for display only.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
