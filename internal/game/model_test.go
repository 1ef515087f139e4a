package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(pairs int) *Model {
	return NewModel(Config{Pairs: pairs, Seed: 42})
}

// pairIndices finds the two indices sharing the given pair ID.
func pairIndices(m *Model, pairID int) (int, int) {
	var found []int
	for i, c := range m.Cards() {
		if c.PairID == pairID {
			found = append(found, i)
		}
	}
	if len(found) != 2 {
		panic("deck does not contain exactly two cards per pair")
	}
	return found[0], found[1]
}

// mismatchedIndices finds two indices from different pairs.
func mismatchedIndices(m *Model) (int, int) {
	cards := m.Cards()
	for i := 1; i < len(cards); i++ {
		if cards[i].PairID != cards[0].PairID {
			return 0, i
		}
	}
	panic("deck contains a single pair")
}

func TestNewModelDealsFaceDownPairs(t *testing.T) {
	m := newTestModel(4)

	cards := m.Cards()
	require.Len(t, cards, 8)

	counts := make(map[int]int)
	for _, c := range cards {
		assert.False(t, c.FaceUp)
		assert.False(t, c.Matched)
		counts[c.PairID]++
	}
	for pairID, n := range counts {
		assert.Equal(t, 2, n, "pair %d", pairID)
	}
}

func TestFlipMatch(t *testing.T) {
	m := newTestModel(4)

	var matched [][]int
	m.MatchedFeed().Subscribe(func(idx []int) { matched = append(matched, idx) })

	a, b := pairIndices(m, 0)
	m.Flip(a)
	m.Flip(b)

	cards := m.Cards()
	assert.True(t, cards[a].Matched)
	assert.True(t, cards[b].Matched)
	assert.True(t, cards[a].FaceUp, "matched cards stay face-up")
	assert.True(t, cards[b].FaceUp)
	assert.Equal(t, 2, m.FlipCount())
	require.Len(t, matched, 1)
	assert.ElementsMatch(t, []int{a, b}, matched[0])
}

func TestFlipMismatchFlipsBackImmediately(t *testing.T) {
	m := newTestModel(4)

	var mismatched [][]int
	m.MismatchedFeed().Subscribe(func(idx []int) { mismatched = append(mismatched, idx) })

	a, b := mismatchedIndices(m)
	m.Flip(a)
	assert.True(t, m.Cards()[a].FaceUp)

	m.Flip(b)

	cards := m.Cards()
	assert.False(t, cards[a].FaceUp, "mismatched pair is face-down as soon as the flip resolves")
	assert.False(t, cards[b].FaceUp)
	assert.False(t, cards[a].Matched)
	assert.Equal(t, 2, m.FlipCount())
	require.Len(t, mismatched, 1)
	assert.ElementsMatch(t, []int{a, b}, mismatched[0])
}

func TestFlipIllegalInputsAreNoOps(t *testing.T) {
	m := newTestModel(4)

	m.Flip(-1)
	m.Flip(8)
	assert.Equal(t, 0, m.FlipCount())

	m.Flip(0)
	m.Flip(0) // already face-up
	assert.Equal(t, 1, m.FlipCount())

	// Complete card 0's pair, then flipping either matched card is a no-op.
	partner := -1
	for i, c := range m.Cards() {
		if i != 0 && c.PairID == m.Cards()[0].PairID {
			partner = i
		}
	}
	require.NotEqual(t, -1, partner)
	m.Flip(partner)
	require.True(t, m.Cards()[0].Matched)
	m.Flip(0)
	m.Flip(partner)
	assert.Equal(t, 2, m.FlipCount())
}

func winGame(m *Model) {
	cards := m.Cards()
	pairs := len(cards) / 2
	for p := 0; p < pairs; p++ {
		a, b := pairIndices(m, p)
		m.Flip(a)
		m.Flip(b)
	}
}

func TestWinDetectionAndPersonalBest(t *testing.T) {
	m := newTestModel(2)

	var wins []bool
	m.WonFeed().Subscribe(func(won bool) { wins = append(wins, won) })

	winGame(m)

	assert.True(t, m.Won())
	require.NotNil(t, m.PersonalBest())
	assert.Equal(t, 4, *m.PersonalBest())

	// The deduplicated feed delivered exactly one true.
	trues := 0
	for _, w := range wins {
		if w {
			trues++
		}
	}
	assert.Equal(t, 1, trues)
}

func TestPersonalBestKeepsLowest(t *testing.T) {
	m := newTestModel(2)

	winGame(m)
	require.Equal(t, 4, *m.PersonalBest())

	m.NewGame()
	assert.False(t, m.Won())
	assert.Equal(t, 0, m.FlipCount())
	require.NotNil(t, m.PersonalBest(), "personal best survives new games")

	// Waste two flips on a mismatch before finishing, if the deck allows it.
	a, b := mismatchedIndices(m)
	m.Flip(a)
	m.Flip(b)
	winGame(m)

	assert.Equal(t, 4, *m.PersonalBest(), "a worse run never lowers the best")
}

func TestSetPersonalBestSeedsOnlyImprovements(t *testing.T) {
	m := newTestModel(2)

	ten := 10
	m.SetPersonalBest(&ten)
	require.NotNil(t, m.PersonalBest())
	assert.Equal(t, 10, *m.PersonalBest())

	twenty := 20
	m.SetPersonalBest(&twenty)
	assert.Equal(t, 10, *m.PersonalBest())

	m.SetPersonalBest(nil)
	assert.Equal(t, 10, *m.PersonalBest())

	six := 6
	m.SetPersonalBest(&six)
	assert.Equal(t, 6, *m.PersonalBest())
}

func TestProgress(t *testing.T) {
	m := newTestModel(4)
	assert.Equal(t, 0.0, m.Progress())

	a, b := pairIndices(m, 0)
	m.Flip(a)
	m.Flip(b)
	assert.Equal(t, 0.25, m.Progress())

	winGame(m)
	assert.Equal(t, 1.0, m.Progress())
}

func TestChangedFeedFiresAfterSpecificFeeds(t *testing.T) {
	m := newTestModel(2)

	var order []string
	m.CardsFeed().Subscribe(func([]Card) { order = append(order, "cards") })
	m.ChangedFeed().Subscribe(func(struct{}) { order = append(order, "changed") })

	m.Flip(0)

	require.Equal(t, []string{"cards", "changed"}, order)
}

func TestNewGameReshufflesAndPublishes(t *testing.T) {
	m := newTestModel(4)

	var published [][]Card
	m.CardsFeed().Subscribe(func(cards []Card) { published = append(published, cards) })

	m.Flip(0)
	m.NewGame()

	require.NotEmpty(t, published)
	last := published[len(published)-1]
	require.Len(t, last, 8)
	for _, c := range last {
		assert.False(t, c.FaceUp)
		assert.False(t, c.Matched)
	}
	assert.Equal(t, 0, m.FlipCount())
}

func TestDistinctWonFeedResetsAcrossGames(t *testing.T) {
	m := newTestModel(2)

	trues := 0
	m.WonFeed().Subscribe(func(won bool) {
		if won {
			trues++
		}
	})

	winGame(m)
	m.NewGame()
	winGame(m)

	assert.Equal(t, 2, trues, "each game's win is its own false→true transition")
}
