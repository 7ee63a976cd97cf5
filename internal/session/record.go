package session

import (
	"time"

	"github.com/JaimeStill/isoone/internal/chat/transcript"
)

// Record is the server-side state of one browser session.
type Record struct {
	ID            string                `json:"id"`
	Token         string                `json:"token"`
	Authorized    bool                  `json:"authorized"`
	Subject       string                `json:"subject,omitempty"`
	ChatSessionID string                `json:"chat_session_id"`
	Transcript    transcript.Transcript `json:"transcript"`
	CreatedAt     time.Time             `json:"created_at"`
}

// IsAuthorized reports whether rec holds a token and the authorized flag.
// Token validity is not checked; the collaborators decide that.
func IsAuthorized(rec *Record) bool {
	return rec != nil && rec.Authorized && rec.Token != ""
}
