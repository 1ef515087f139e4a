package leaderboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ldmay/flipside/internal/events"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads []events.ScoreSubmittedPayload
}

func (p *fakePublisher) PublishScoreSubmitted(ctx context.Context, payload events.ScoreSubmittedPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestMemoryStoreKeepsLowest(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	player := uuid.New()

	best, improved, err := store.RecordScore(ctx, Entry{PlayerID: player, PlayerName: "ada", BestFlips: 20, UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, improved)
	assert.Equal(t, 20, best)

	best, improved, err = store.RecordScore(ctx, Entry{PlayerID: player, PlayerName: "ada", BestFlips: 30, UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, improved)
	assert.Equal(t, 20, best)

	best, improved, err = store.RecordScore(ctx, Entry{PlayerID: player, PlayerName: "ada", BestFlips: 12, UpdatedAt: time.Now()})
	require.NoError(t, err)
	assert.True(t, improved)
	assert.Equal(t, 12, best)

	stored, err := store.PersonalBest(ctx, player)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 12, *stored)
}

func TestMemoryStorePersonalBestUnknownPlayer(t *testing.T) {
	store := NewMemoryStore()

	best, err := store.PersonalBest(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, best)
}

func TestMemoryStoreTopScoresSorted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Now()
	for i, flips := range []int{18, 12, 24} {
		_, _, err := store.RecordScore(ctx, Entry{
			PlayerID:   uuid.New(),
			PlayerName: string(rune('a' + i)),
			BestFlips:  flips,
			UpdatedAt:  now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	entries, err := store.TopScores(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 12, entries[0].BestFlips)
	assert.Equal(t, 18, entries[1].BestFlips)
}

func TestSubmitScoreRequiresAuthentication(t *testing.T) {
	store := NewMemoryStore()
	svc := New(store, nil, "test.board")
	player := uuid.New()

	require.NoError(t, svc.SubmitScore(context.Background(), player, "ada", 14))

	best, err := svc.PersonalBest(context.Background(), player)
	require.NoError(t, err)
	assert.Nil(t, best, "unauthenticated submissions are dropped")
}

func TestSubmitScorePublishes(t *testing.T) {
	store := NewMemoryStore()
	pub := &fakePublisher{}
	svc := New(store, pub, "test.board")
	player := uuid.New()

	svc.Authenticate()
	require.NoError(t, svc.SubmitScore(context.Background(), player, "ada", 14))

	require.Len(t, pub.payloads, 1)
	payload := pub.payloads[0]
	assert.Equal(t, player.String(), payload.PlayerID)
	assert.Equal(t, 14, payload.Flips)
	assert.Equal(t, "test.board", payload.LeaderboardID)
	assert.True(t, payload.Improved)
}

func TestSubmitScoreRejectsNonPositiveFlips(t *testing.T) {
	svc := New(NewMemoryStore(), nil, "test.board")
	svc.Authenticate()

	assert.Error(t, svc.SubmitScore(context.Background(), uuid.New(), "ada", 0))
}

func TestAuthenticatePublishesOnce(t *testing.T) {
	svc := New(NewMemoryStore(), nil, "test.board")

	var got []bool
	svc.AuthenticatedFeed().Subscribe(func(v bool) { got = append(got, v) })

	assert.False(t, svc.IsAuthenticated())
	svc.Authenticate()
	svc.Authenticate()

	assert.True(t, svc.IsAuthenticated())
	assert.Equal(t, []bool{true}, got)
}
