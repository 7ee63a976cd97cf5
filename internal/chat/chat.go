// Package chat runs conversation turns against the chat service and keeps the
// transcript in the session record.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/internal/chat/transcript"
	"github.com/JaimeStill/isoone/internal/session"
)

// MessageBusy is shown when a turn is submitted while another is in flight.
const MessageBusy = "Espera la respuesta anterior antes de enviar otra pregunta."

// Chat errors.
var (
	ErrEmptyQuery   = errors.New("query is empty")
	ErrTurnInFlight = errors.New("a chat turn is already in flight")
)

// Flow sends chat turns. At most one turn per session is outstanding.
type Flow struct {
	client   backend.Client
	sessions *session.Manager
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewFlow creates a Flow.
func NewFlow(client backend.Client, sessions *session.Manager, cfg Config, logger *slog.Logger) *Flow {
	return &Flow{
		client:   client,
		sessions: sessions,
		cfg:      cfg,
		logger:   logger.With("module", "chat"),
		now:      time.Now,
	}
}

// Send appends input as a user turn, asks the chat service, and appends the
// reply or the error banner. rec is updated with the resulting transcript.
// A collaborator failure is recorded in the transcript and also returned.
func (f *Flow) Send(ctx context.Context, rec *session.Record, input string) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return ErrEmptyQuery
	}

	owner, err := f.sessions.AcquireTurn(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("acquire turn: %w", err)
	}
	if owner == "" {
		return ErrTurnInFlight
	}
	defer f.release(ctx, rec.ID, owner)

	current, err := f.sessions.Get(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}
	if current.Transcript.Pending {
		f.logger.Warn("clearing stale pending turn", "session", rec.ID)
		current.Transcript.Pending = false
	}

	current.Transcript = transcript.Reduce(current.Transcript, transcript.SubmitUserTurn{
		ID:   uuid.NewString(),
		Text: text,
		At:   f.now(),
	})
	if err := f.sessions.Save(ctx, current); err != nil {
		return fmt.Errorf("save user turn: %w", err)
	}
	*rec = *current

	reply, chatErr := f.client.Chat(ctx, current.Token, backend.ChatRequest{
		Query:     text,
		SessionID: f.sessionID(current),
		TopK:      f.cfg.TopK,
		UseRAG:    true,
	})

	if chatErr != nil {
		f.logger.Error("chat turn failed", "session", rec.ID, "error", chatErr)
		current.Transcript = transcript.Reduce(current.Transcript, transcript.ReceiveError{})
	} else {
		current.Transcript = transcript.Reduce(current.Transcript, transcript.ReceiveAssistantTurn{
			ID:    uuid.NewString(),
			Reply: *reply,
			At:    f.now(),
		})
		f.logger.Debug("chat turn completed", "session", rec.ID, "sources", len(reply.ChunksUsed))
	}

	if err := f.sessions.Save(context.WithoutCancel(ctx), current); err != nil {
		return fmt.Errorf("save reply: %w", err)
	}
	*rec = *current
	return chatErr
}

// Settle clears a pending flag left behind by a turn that no longer holds the
// lock, such as one whose final save failed. A live turn is left untouched.
func (f *Flow) Settle(ctx context.Context, rec *session.Record) error {
	if !rec.Transcript.Pending {
		return nil
	}

	owner, err := f.sessions.AcquireTurn(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("acquire turn: %w", err)
	}
	if owner == "" {
		return nil
	}
	defer f.release(ctx, rec.ID, owner)

	current, err := f.sessions.Get(ctx, rec.ID)
	if err != nil {
		return fmt.Errorf("reload session: %w", err)
	}
	if current.Transcript.Pending {
		f.logger.Warn("clearing stale pending turn", "session", rec.ID)
		current.Transcript.Pending = false
		if err := f.sessions.Save(ctx, current); err != nil {
			return fmt.Errorf("settle transcript: %w", err)
		}
	}
	*rec = *current
	return nil
}

// Reset clears the transcript held by rec.
func (f *Flow) Reset(ctx context.Context, rec *session.Record) error {
	rec.Transcript = transcript.Transcript{}
	if err := f.sessions.Save(ctx, rec); err != nil {
		return fmt.Errorf("reset transcript: %w", err)
	}
	return nil
}

func (f *Flow) release(ctx context.Context, id, owner string) {
	if err := f.sessions.ReleaseTurn(context.WithoutCancel(ctx), id, owner); err != nil {
		f.logger.Warn("release turn failed", "session", id, "error", err)
	}
}

func (f *Flow) sessionID(rec *session.Record) string {
	if f.cfg.SharedSessionID != "" {
		return f.cfg.SharedSessionID
	}
	return rec.ChatSessionID
}
