// Package transcript holds the chat conversation state and the reducer that
// advances it. Reduce is pure: it never mutates its input.
package transcript

import (
	"strings"
	"time"

	"github.com/JaimeStill/isoone/internal/backend"
	"github.com/JaimeStill/isoone/pkg/formatting"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// ErrorBanner is shown when a chat turn fails.
	ErrorBanner = "Error consultando el chat. Verifica conectividad o el proxy."
	// EmptyReply stands in for a reply with no text.
	EmptyReply = "(sin respuesta)"
)

// Message is one turn of the conversation.
type Message struct {
	ID        string             `json:"id"`
	Role      Role               `json:"role"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	Raw       *backend.ChatReply `json:"raw,omitempty"`
}

// Sources returns the retrieved chunks behind an assistant message.
func (m Message) Sources() []backend.Source {
	if m.Raw == nil {
		return nil
	}
	return m.Raw.ChunksUsed
}

// Transcript is the ordered message list plus in-flight and error state.
type Transcript struct {
	Messages []Message `json:"messages"`
	Pending  bool      `json:"pending"`
	Error    string    `json:"error,omitempty"`
}

// Event advances a Transcript.
type Event interface {
	apply(t Transcript) Transcript
}

// SubmitUserTurn appends the user's text and marks the transcript pending.
type SubmitUserTurn struct {
	ID   string
	Text string
	At   time.Time
}

// ReceiveAssistantTurn appends the reply and clears pending.
type ReceiveAssistantTurn struct {
	ID    string
	Reply backend.ChatReply
	At    time.Time
}

// ReceiveError sets the error banner and clears pending.
type ReceiveError struct{}

// Reduce returns the transcript that results from applying e to t.
func Reduce(t Transcript, e Event) Transcript {
	t.Messages = append([]Message(nil), t.Messages...)
	return e.apply(t)
}

// CanSend reports whether input may be submitted.
func CanSend(t Transcript, input string) bool {
	return strings.TrimSpace(input) != "" && !t.Pending
}

func (e SubmitUserTurn) apply(t Transcript) Transcript {
	text := strings.TrimSpace(e.Text)
	if text == "" || t.Pending {
		return t
	}
	t.Messages = append(t.Messages, Message{
		ID:        e.ID,
		Role:      RoleUser,
		Text:      text,
		Timestamp: e.At,
	})
	t.Pending = true
	t.Error = ""
	return t
}

func (e ReceiveAssistantTurn) apply(t Transcript) Transcript {
	text := e.Reply.Response
	if text == "" {
		text = EmptyReply
	}

	at := e.At
	if e.Reply.Timestamp != "" {
		if ts, err := formatting.ParseTime(e.Reply.Timestamp); err == nil {
			at = ts
		}
	}

	reply := e.Reply
	t.Messages = append(t.Messages, Message{
		ID:        e.ID,
		Role:      RoleAssistant,
		Text:      text,
		Timestamp: at,
		Raw:       &reply,
	})
	t.Pending = false
	return t
}

func (ReceiveError) apply(t Transcript) Transcript {
	t.Error = ErrorBanner
	t.Pending = false
	return t
}
