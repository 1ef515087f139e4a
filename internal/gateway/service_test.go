package gateway

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldmay/flipside/internal/game"
	"github.com/ldmay/flipside/internal/leaderboard"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	lb := leaderboard.New(leaderboard.NewMemoryStore(), nil, "test.board")
	cfg := DefaultConfig()
	cfg.GameConfig = game.Config{Pairs: 2, Seed: 42}
	return NewService(cfg, lb)
}

func intentJSON(t *testing.T, intent string, index *int) []byte {
	t.Helper()
	data, err := json.Marshal(IntentMessage{Intent: intent, Index: index})
	require.NoError(t, err)
	return data
}

func TestCreateSessionMintsIdentity(t *testing.T) {
	svc := newTestService(t)

	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	assert.NotEqual(t, uuid.Nil, sess.ID)
	assert.NotEqual(t, uuid.Nil, sess.PlayerID)
	assert.True(t, svc.Leaderboard().IsAuthenticated(), "a named player counts as signed in")

	got, ok := svc.Session(sess.ID)
	require.True(t, ok)
	assert.Same(t, sess, got)
}

func TestCreateSessionSeedsStoredPersonalBest(t *testing.T) {
	lb := leaderboard.New(leaderboard.NewMemoryStore(), nil, "test.board")
	lb.Authenticate()
	player := uuid.New()
	require.NoError(t, lb.SubmitScore(context.Background(), player, "ada", 9))

	cfg := DefaultConfig()
	cfg.GameConfig = game.Config{Pairs: 2, Seed: 42}
	svc := NewService(cfg, lb)

	sess := svc.CreateSession(context.Background(), player, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	best := sess.Model.PersonalBest()
	require.NotNil(t, best)
	assert.Equal(t, 9, *best)
}

func TestHandleIntentFlip(t *testing.T) {
	svc := newTestService(t)
	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	idx := 0
	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, IntentFlip, &idx))

	assert.Equal(t, 1, sess.Model.FlipCount())
	assert.True(t, sess.Coordinator.IsPresentingFaceUp(0))
}

func TestHandleIntentNewGameResets(t *testing.T) {
	svc := newTestService(t)
	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	idx := 0
	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, IntentFlip, &idx))
	require.Equal(t, 1, sess.Model.FlipCount())

	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, IntentNewGame, nil))

	assert.Equal(t, 0, sess.Model.FlipCount())
	assert.False(t, sess.Coordinator.IsPresentingFaceUp(0))
}

func TestHandleIntentLeaderboardVisibility(t *testing.T) {
	svc := newTestService(t)
	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, IntentShowLeaderboard, nil))
	assert.True(t, sess.Coordinator.Snapshot().IsShowingLeaderboard)

	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, IntentDismissLeaderboard, nil))
	assert.False(t, sess.Coordinator.Snapshot().IsShowingLeaderboard)
}

func TestHandleIntentIgnoresGarbage(t *testing.T) {
	svc := newTestService(t)
	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	svc.HandleIntent(sess.ID, sess.PlayerID, []byte("not json"))
	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, "teleport", nil))
	svc.HandleIntent(sess.ID, sess.PlayerID, intentJSON(t, IntentFlip, nil)) // flip without index
	svc.HandleIntent(uuid.New(), sess.PlayerID, intentJSON(t, IntentNewGame, nil))

	assert.Equal(t, 0, sess.Model.FlipCount())
}

func TestWinSubmitsScore(t *testing.T) {
	svc := newTestService(t)
	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")
	t.Cleanup(func() { svc.CloseSession(sess.ID) })

	// Play the two-pair board to completion through the coordinator.
	cards := sess.Model.Cards()
	byPair := make(map[int][]int)
	for i, c := range cards {
		byPair[c.PairID] = append(byPair[c.PairID], i)
	}
	for _, indices := range byPair {
		sess.Coordinator.Flip(indices[0])
		sess.Coordinator.Flip(indices[1])
	}
	require.True(t, sess.Model.Won())

	require.Eventually(t, func() bool {
		best, err := svc.Leaderboard().PersonalBest(context.Background(), sess.PlayerID)
		return err == nil && best != nil
	}, time.Second, 5*time.Millisecond)

	best, err := svc.Leaderboard().PersonalBest(context.Background(), sess.PlayerID)
	require.NoError(t, err)
	assert.Equal(t, 4, *best)
}

func TestCloseSessionRemovesIt(t *testing.T) {
	svc := newTestService(t)
	sess := svc.CreateSession(context.Background(), uuid.Nil, "ada")

	svc.CloseSession(sess.ID)
	_, ok := svc.Session(sess.ID)
	assert.False(t, ok)

	// Closing again is harmless.
	svc.CloseSession(sess.ID)
}
