package events

import "time"

// ScoreSubmittedPayload is published to the message bus when a finished game
// is recorded on a leaderboard.
type ScoreSubmittedPayload struct {
	PlayerID      string    `json:"player_id"`
	PlayerName    string    `json:"player_name"`
	Flips         int       `json:"flips"`
	LeaderboardID string    `json:"leaderboard_id"`
	Improved      bool      `json:"improved"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// GameWonPayload describes a completed game session.
type GameWonPayload struct {
	SessionID string    `json:"session_id"`
	PlayerID  string    `json:"player_id"`
	Flips     int       `json:"flips"`
	WonAt     time.Time `json:"won_at"`
}
