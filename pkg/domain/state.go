package domain

import "time"

// Phase defines the current mode of the turn engine. Exactly one phase
// holds at any time.
type Phase string

const (
	// PhaseAdvancing means the engine is processing nodes automatically.
	PhaseAdvancing Phase = "advancing"
	// PhaseWaiting means the engine is idle, waiting for a user action.
	PhaseWaiting Phase = "waiting"
	// PhaseComplete means the current chapter has finished.
	PhaseComplete Phase = "complete"
)

// Vars is the session variable store: collected and derived answer values.
// Values are strings, float64s, or bools; they are added or overwritten,
// never removed.
type Vars map[string]any

// Clone returns an independent copy for safe working-copy mutation.
func (v Vars) Clone() Vars {
	out := make(Vars, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge copies every entry of other into v, overwriting on collision.
func (v Vars) Merge(other Vars) {
	for k, val := range other {
		v[k] = val
	}
}

// Snapshot is the read-only projection of interpreter state consumed by the
// presentation boundary, and the unit of session persistence.
type Snapshot struct {
	// CurrentNodeID is empty once the conversation has finished.
	CurrentNodeID string `json:"currentNodeId,omitempty"`
	Phase         Phase  `json:"phase"`

	Typing          bool `json:"isTyping"`
	WaitingForInput bool `json:"isWaitingForInput"`
	Complete        bool `json:"isComplete"`

	// NextChapter holds the chapter reference declared by the terminal node,
	// consumed by the continue-to-next-chapter action.
	NextChapter string `json:"nextChapter,omitempty"`

	Variables Vars      `json:"variables"`
	Messages  []Message `json:"messages"`
}

// SessionRecord is what a SessionStore persists: the chapters loaded so far
// plus the interpreter snapshot needed to rehydrate a session.
type SessionRecord struct {
	ChapterIDs []string  `json:"chapterIds"`
	Snapshot   Snapshot  `json:"snapshot"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
