package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrades and the small REST surface for
// session creation and leaderboard reads.
type WebSocketHandler struct {
	service *Service
}

// NewWebSocketHandler creates a new handler bound to the gateway service.
func NewWebSocketHandler(service *Service) *WebSocketHandler {
	return &WebSocketHandler{service: service}
}

// HandleGameConnection handles WebSocket connections for a game session.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	sessionIDStr := r.URL.Query().Get("session_id")
	if sessionIDStr == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		http.Error(w, "invalid session_id format", http.StatusBadRequest)
		return
	}

	sess, ok := h.service.Session(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	if err := h.service.connectionManager.UpgradeConnection(w, r, sess.PlayerID, sessionID); err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}

	// Push the current state so a reconnecting client catches up immediately.
	h.service.broadcastState(sess)
}

// HandleCreateSession creates a new game session.
//
// POST /api/sessions {"player_name": "...", "player_id": "..."} →
// {"session_id": "...", "player_id": "..."}
func (h *WebSocketHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		PlayerName string `json:"player_name"`
		PlayerID   string `json:"player_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	playerID := uuid.Nil
	if req.PlayerID != "" {
		var err error
		if playerID, err = uuid.Parse(req.PlayerID); err != nil {
			http.Error(w, "invalid player_id format", http.StatusBadRequest)
			return
		}
	}

	sess := h.service.CreateSession(r.Context(), playerID, req.PlayerName)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"session_id": sess.ID.String(),
		"player_id":  sess.PlayerID.String(),
	})
}

// HandleSessionState returns the current display snapshot of a session.
//
// GET /api/sessions/state?session_id=...
func (h *WebSocketHandler) HandleSessionState(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		http.Error(w, "invalid session_id format", http.StatusBadRequest)
		return
	}

	sess, ok := h.service.Session(sessionID)
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatePayload{State: sess.Coordinator.Snapshot()})
}

// HandleLeaderboard returns the top leaderboard entries.
//
// GET /api/leaderboard?limit=10
func (h *WebSocketHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := h.service.Leaderboard().TopScores(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch leaderboard")
		http.Error(w, "failed to fetch leaderboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"leaderboard_id": h.service.Leaderboard().LeaderboardID(),
		"entries":        entries,
	})
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, sessions := h.service.connectionManager.ConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"total_connections": total,
		"active_sessions":   sessions,
	})
}

// RegisterRoutes registers the gateway routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/game", h.HandleGameConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("/api/sessions", h.HandleCreateSession)
	mux.HandleFunc("/api/sessions/state", h.HandleSessionState)
	mux.HandleFunc("/api/leaderboard", h.HandleLeaderboard)
}
