// Package session keeps per-browser state server-side, keyed by an HTTP-only
// cookie, and guards the protected views.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/isoone/pkg/lifecycle"
)

// Manager binds a Store to the session cookie.
type Manager struct {
	store  Store
	cookie string
	secure bool
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a Manager with the store selected by cfg.Driver.
func New(cfg *Config, logger *slog.Logger) (*Manager, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverRedis:
		store, err = NewRedisStore(cfg.RedisURL, cfg.TTLDuration(), cfg.TurnTTLDuration())
		if err != nil {
			return nil, err
		}
	case DriverMemory:
		store = NewMemoryStore(cfg.TTLDuration(), cfg.TurnTTLDuration())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, cfg.Driver)
	}
	return NewManager(store, cfg, logger), nil
}

// NewManager creates a Manager over an existing store.
func NewManager(store Store, cfg *Config, logger *slog.Logger) *Manager {
	return &Manager{
		store:  store,
		cookie: cfg.CookieName,
		secure: cfg.CookieSecure,
		ttl:    cfg.TTLDuration(),
		logger: logger.With("system", "session"),
	}
}

// Start pings the store on startup, registers it as a readiness check, and
// closes it on shutdown.
func (m *Manager) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), 5*time.Second)
		defer cancel()

		if err := m.store.Ping(ctx); err != nil {
			m.logger.Error("session store ping failed", "error", err)
			return
		}
		m.logger.Info("session store ready")
	})

	lc.AddCheck("sessions", m.store.Ping)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := m.store.Close(); err != nil {
			m.logger.Error("session store close failed", "error", err)
			return
		}
		m.logger.Info("session store closed")
	})
	return nil
}

// Resolve returns the record named by the request cookie.
func (m *Manager) Resolve(r *http.Request) (*Record, error) {
	c, err := r.Cookie(m.cookie)
	if err != nil || c.Value == "" {
		return nil, ErrNotFound
	}
	return m.store.Get(r.Context(), c.Value)
}

// Begin assigns rec a fresh id, stores it, and sets the cookie.
func (m *Manager) Begin(ctx context.Context, w http.ResponseWriter, rec *Record) error {
	rec.ID = uuid.NewString()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    rec.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// End deletes the request's record, if any, and expires the cookie.
func (m *Manager) End(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(m.cookie); err == nil && c.Value != "" {
		if err := m.store.Delete(r.Context(), c.Value); err != nil {
			m.logger.Warn("session delete failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Evict ends the session and redirects to loginPath. Views call it when a
// collaborator rejects the stored token.
func (m *Manager) Evict(w http.ResponseWriter, r *http.Request, loginPath string) {
	m.End(w, r)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// Get loads a record by id.
func (m *Manager) Get(ctx context.Context, id string) (*Record, error) {
	return m.store.Get(ctx, id)
}

// Save writes rec back to the store.
func (m *Manager) Save(ctx context.Context, rec *Record) error {
	return m.store.Save(ctx, rec)
}

// AcquireTurn takes the chat turn lock for the session id. It returns the
// owner token to pass to ReleaseTurn, or "" when a turn is already held.
func (m *Manager) AcquireTurn(ctx context.Context, id string) (string, error) {
	owner := uuid.NewString()
	ok, err := m.store.AcquireTurn(ctx, id, owner)
	if err != nil || !ok {
		return "", err
	}
	return owner, nil
}

// ReleaseTurn drops the chat turn lock for the session id if owner still
// holds it. A lock that expired and was taken by a later turn is left alone.
func (m *Manager) ReleaseTurn(ctx context.Context, id, owner string) error {
	return m.store.ReleaseTurn(ctx, id, owner)
}

// Token returns the collaborator token held by the request's session, or "".
func (m *Manager) Token(r *http.Request) string {
	if rec, ok := FromContext(r.Context()); ok {
		return rec.Token
	}
	rec, err := m.Resolve(r)
	if err != nil {
		return ""
	}
	return rec.Token
}

// Guard redirects requests without an authorized session to loginPath and
// places the record in the context otherwise.
func (m *Manager) Guard(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, err := m.Resolve(r)
			if err != nil && !errors.Is(err, ErrNotFound) {
				m.logger.Error("session lookup failed", "error", err)
			}
			if !IsAuthorized(rec) {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithRecord(r.Context(), rec)))
		})
	}
}

type contextKey struct{}

// WithRecord returns ctx carrying rec.
func WithRecord(ctx context.Context, rec *Record) context.Context {
	return context.WithValue(ctx, contextKey{}, rec)
}

// FromContext returns the record placed by Guard.
func FromContext(ctx context.Context) (*Record, bool) {
	rec, ok := ctx.Value(contextKey{}).(*Record)
	return rec, ok && rec != nil
}
