package domain

import "time"

// Speaker tags identify who a chat log entry belongs to.
const (
	SpeakerAI   = "ai"
	SpeakerUser = "user"
)

// Message is one chat log entry. The log is append-only and chronological;
// messages are never mutated after being appended.
type Message struct {
	ID      string    `json:"id"`
	Speaker string    `json:"speaker"`
	Content string    `json:"content"`
	Time    time.Time `json:"timestamp"`

	// NodeID references the dialogue node that produced this entry.
	// Empty for user entries, which are not node-bound.
	NodeID string `json:"nodeId,omitempty"`
}
