// Package leaderboard owns player identity for score purposes: the
// authentication flag the view layer mirrors, the leaderboard identifier,
// and keep-lowest score submission backed by a pluggable store.
package leaderboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ldmay/flipside/internal/events"
)

// Entry is one player's standing on the leaderboard. Lower BestFlips is
// better.
type Entry struct {
	PlayerID   uuid.UUID `json:"player_id"`
	PlayerName string    `json:"player_name"`
	BestFlips  int       `json:"best_flips"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Store persists leaderboard entries.
type Store interface {
	// RecordScore stores flips for the player if it beats their current
	// best, returning the resulting best and whether it improved.
	RecordScore(ctx context.Context, entry Entry) (best int, improved bool, err error)
	PersonalBest(ctx context.Context, playerID uuid.UUID) (*int, error)
	TopScores(ctx context.Context, limit int) ([]Entry, error)
}

// Publisher announces accepted score submissions to the message bus.
type Publisher interface {
	PublishScoreSubmitted(ctx context.Context, payload events.ScoreSubmittedPayload) error
}

// Service is the leaderboard-facing collaborator of the game screens.
type Service struct {
	store         Store
	publisher     Publisher
	leaderboardID string

	mu            sync.Mutex
	authenticated bool
	authFeed      *events.Feed[bool]
}

// New creates a leaderboard service. publisher may be nil when no message
// bus is configured.
func New(store Store, publisher Publisher, leaderboardID string) *Service {
	return &Service{
		store:         store,
		publisher:     publisher,
		leaderboardID: leaderboardID,
		authFeed:      events.NewFeed[bool](),
	}
}

// Authenticate flips the authentication flag. Identity here is local
// (name-based); platform auth is out of scope.
func (s *Service) Authenticate() {
	s.mu.Lock()
	already := s.authenticated
	s.authenticated = true
	s.mu.Unlock()

	if !already {
		s.authFeed.Publish(true)
	}
}

// IsAuthenticated reports the current authentication flag.
func (s *Service) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// AuthenticatedFeed announces authentication flag changes.
func (s *Service) AuthenticatedFeed() *events.Feed[bool] { return s.authFeed }

// LeaderboardID returns the identifier of the leaderboard scores go to.
func (s *Service) LeaderboardID() string { return s.leaderboardID }

// SubmitScore records a finished game's flip count. Submissions while
// unauthenticated are dropped silently; the game itself never fails because
// a score could not be stored. Publish failures are logged and swallowed.
func (s *Service) SubmitScore(ctx context.Context, playerID uuid.UUID, playerName string, flips int) error {
	if !s.IsAuthenticated() {
		log.Debug().
			Str("player_id", playerID.String()).
			Int("flips", flips).
			Msg("dropping score submission while unauthenticated")
		return nil
	}
	if flips <= 0 {
		return fmt.Errorf("flip count must be positive, got %d", flips)
	}

	now := time.Now().UTC()
	best, improved, err := s.store.RecordScore(ctx, Entry{
		PlayerID:   playerID,
		PlayerName: playerName,
		BestFlips:  flips,
		UpdatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("record score: %w", err)
	}

	log.Info().
		Str("player_id", playerID.String()).
		Str("leaderboard_id", s.leaderboardID).
		Int("flips", flips).
		Int("best", best).
		Bool("improved", improved).
		Msg("score submitted")

	if s.publisher != nil {
		payload := events.ScoreSubmittedPayload{
			PlayerID:      playerID.String(),
			PlayerName:    playerName,
			Flips:         flips,
			LeaderboardID: s.leaderboardID,
			Improved:      improved,
			SubmittedAt:   now,
		}
		if err := s.publisher.PublishScoreSubmitted(ctx, payload); err != nil {
			log.Warn().Err(err).Msg("failed to publish score submission")
		}
	}

	return nil
}

// PersonalBest returns the player's stored best, or nil if they have none.
func (s *Service) PersonalBest(ctx context.Context, playerID uuid.UUID) (*int, error) {
	return s.store.PersonalBest(ctx, playerID)
}

// TopScores returns up to limit entries, best first.
func (s *Service) TopScores(ctx context.Context, limit int) ([]Entry, error) {
	return s.store.TopScores(ctx, limit)
}
