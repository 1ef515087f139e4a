package gateway

import (
	"encoding/json"
	"time"

	"github.com/ldmay/flipside/internal/coordinator"
)

// ViewEvent is the envelope for every message pushed to a connected client.
type ViewEvent struct {
	ID        string          `json:"id"`         // Event UUID
	SessionID string          `json:"session_id"` // Game session UUID
	Type      EventType       `json:"type"`       // Event type
	Timestamp time.Time       `json:"timestamp"`  // Event creation time
	Data      json.RawMessage `json:"data"`       // Event-specific payload
}

// EventType represents the type of view event.
type EventType string

const (
	// EventTypeState carries a full display-state snapshot.
	EventTypeState EventType = "State"
	// EventTypeEffect carries a one-shot presentation cue.
	EventTypeEffect EventType = "Effect"
)

// Effect names carried by EventTypeEffect payloads.
const (
	EffectWinSound       = "win_sound"
	EffectMismatchHaptic = "mismatch_haptic"
)

// EffectPayload names a sound or haptic cue the client should play.
type EffectPayload struct {
	Effect string `json:"effect"`
}

// StatePayload wraps the display snapshot sent on every change.
type StatePayload struct {
	State coordinator.DisplayState `json:"state"`
}

// Intent names accepted from clients.
const (
	IntentFlip               = "flip"
	IntentNewGame            = "new_game"
	IntentShowLeaderboard    = "show_leaderboard"
	IntentDismissLeaderboard = "dismiss_leaderboard"
)

// IntentMessage is a player intent received over the socket.
type IntentMessage struct {
	Intent string `json:"intent"`
	Index  *int   `json:"index,omitempty"` // set for flip
}
