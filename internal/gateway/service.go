package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ldmay/flipside/internal/coordinator"
	"github.com/ldmay/flipside/internal/game"
	"github.com/ldmay/flipside/internal/leaderboard"
)

// Session is one game screen: a model, the coordinator projecting it, and
// the player it belongs to.
type Session struct {
	ID          uuid.UUID
	PlayerID    uuid.UUID
	PlayerName  string
	Model       *game.Model
	Coordinator *coordinator.Coordinator

	cancelWon func()
}

// Config holds configuration for the gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
	GameConfig       game.Config
	CoordinatorClock coordinator.Clock // nil means real clock
}

// DefaultConfig returns default gateway configuration.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		GameConfig:       game.DefaultConfig(),
	}
}

// Service owns the active game sessions, translates client intents into
// coordinator calls, and pushes display snapshots and effect cues back out
// over the session's WebSocket connections.
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	lb                *leaderboard.Service
	config            Config

	sessions *sessionRegistry
}

// NewService creates the gateway service.
func NewService(config Config, lb *leaderboard.Service) *Service {
	s := &Service{
		lb:       lb,
		config:   config,
		sessions: newSessionRegistry(),
	}
	s.connectionManager = NewConnectionManager(config.ConnectionConfig, s)
	s.wsHandler = NewWebSocketHandler(s)
	return s
}

// Start begins the gateway service and blocks until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("gateway service shutting down")
	for _, sess := range s.sessions.all() {
		s.CloseSession(sess.ID)
	}
	return nil
}

// CreateSession builds a fresh model and coordinator for a player. A zero
// playerID mints a new identity; passing an existing one lets a player carry
// their leaderboard standing across sessions.
func (s *Service) CreateSession(ctx context.Context, playerID uuid.UUID, playerName string) *Session {
	if playerID == uuid.Nil {
		playerID = uuid.New()
	}

	// Local stand-in for platform auth: a named player counts as signed in.
	if playerName != "" {
		s.lb.Authenticate()
	}

	sess := &Session{
		ID:         uuid.New(),
		PlayerID:   playerID,
		PlayerName: playerName,
	}
	sess.Model = game.NewModel(s.config.GameConfig)

	if best, err := s.lb.PersonalBest(ctx, playerID); err != nil {
		log.Warn().Err(err).Str("player_id", playerID.String()).Msg("failed to load stored personal best")
	} else {
		sess.Model.SetPersonalBest(best)
	}

	coordCfg := coordinator.DefaultConfig()
	coordCfg.Effects = &sessionEffects{service: s, sessionID: sess.ID}
	coordCfg.OnChange = func() { s.broadcastState(sess) }
	if s.config.CoordinatorClock != nil {
		coordCfg.Clock = s.config.CoordinatorClock
	}
	sess.Coordinator = coordinator.New(sess.Model, s.lb, coordCfg)

	// Submit the flip count whenever this session's game is won.
	sess.cancelWon = sess.Model.WonFeed().Subscribe(func(won bool) {
		if !won {
			return
		}
		flips := sess.Model.FlipCount()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.lb.SubmitScore(ctx, sess.PlayerID, sess.PlayerName, flips); err != nil {
				log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("score submission failed")
			}
		}()
	})

	s.sessions.add(sess)

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("player_id", playerID.String()).
		Str("player_name", playerName).
		Msg("session created")

	return sess
}

// Session looks up an active session.
func (s *Service) Session(id uuid.UUID) (*Session, bool) {
	return s.sessions.get(id)
}

// CloseSession tears a session down, releasing the coordinator's
// subscriptions and timers.
func (s *Service) CloseSession(id uuid.UUID) {
	sess, ok := s.sessions.remove(id)
	if !ok {
		return
	}
	sess.cancelWon()
	sess.Coordinator.Close()
	log.Info().Str("session_id", id.String()).Msg("session closed")
}

// HandleIntent dispatches a raw client message to the session's coordinator.
// Unknown intents and unknown sessions are logged and dropped.
func (s *Service) HandleIntent(sessionID uuid.UUID, playerID uuid.UUID, message []byte) {
	sess, ok := s.sessions.get(sessionID)
	if !ok {
		log.Warn().Str("session_id", sessionID.String()).Msg("intent for unknown session")
		return
	}

	var intent IntentMessage
	if err := json.Unmarshal(message, &intent); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("malformed intent message")
		return
	}

	switch intent.Intent {
	case IntentFlip:
		if intent.Index == nil {
			log.Warn().Str("session_id", sessionID.String()).Msg("flip intent without index")
			return
		}
		sess.Coordinator.Flip(*intent.Index)
	case IntentNewGame:
		sess.Coordinator.NewGame()
	case IntentShowLeaderboard:
		sess.Coordinator.ShowLeaderboard()
	case IntentDismissLeaderboard:
		sess.Coordinator.DismissLeaderboard()
	default:
		log.Warn().
			Str("session_id", sessionID.String()).
			Str("intent", intent.Intent).
			Msg("unknown intent - ignoring")
	}
}

// RegisterRoutes registers the WebSocket and REST HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("gateway routes registered")
}

// Leaderboard exposes the leaderboard service to the HTTP handlers.
func (s *Service) Leaderboard() *leaderboard.Service { return s.lb }

func (s *Service) broadcastState(sess *Session) {
	payload, err := json.Marshal(StatePayload{State: sess.Coordinator.Snapshot()})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal display state")
		return
	}
	s.connectionManager.BroadcastToSession(sess.ID, &ViewEvent{
		ID:        uuid.New().String(),
		SessionID: sess.ID.String(),
		Type:      EventTypeState,
		Timestamp: time.Now(),
		Data:      payload,
	})
}

func (s *Service) broadcastEffect(sessionID uuid.UUID, effect string) {
	payload, err := json.Marshal(EffectPayload{Effect: effect})
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal effect payload")
		return
	}
	s.connectionManager.BroadcastToSession(sessionID, &ViewEvent{
		ID:        uuid.New().String(),
		SessionID: sessionID.String(),
		Type:      EventTypeEffect,
		Timestamp: time.Now(),
		Data:      payload,
	})
}

// sessionEffects forwards the coordinator's sound/haptic cues to the
// session's connected clients.
type sessionEffects struct {
	service   *Service
	sessionID uuid.UUID
}

func (e *sessionEffects) PlayWinSound() {
	e.service.broadcastEffect(e.sessionID, EffectWinSound)
}

func (e *sessionEffects) PlayMismatchHaptic() {
	e.service.broadcastEffect(e.sessionID, EffectMismatchHaptic)
}
