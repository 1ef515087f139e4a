package game

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ldmay/flipside/internal/events"
)

// Config holds the tunable parts of a game model.
type Config struct {
	// Pairs is the number of card pairs dealt on every new game.
	Pairs int
	// Seed seeds the deck shuffle. Zero means "derive from wall clock".
	Seed int64
}

// DefaultConfig returns the standard 4x4 board configuration.
func DefaultConfig() Config {
	return Config{Pairs: 8}
}

// Model owns the authoritative game state: the card list, flip legality,
// match and win detection, the flip counter, and the in-process personal
// best. State changes are announced on change feeds; the model never calls
// back into its consumers except through those feeds.
type Model struct {
	mu           sync.Mutex
	cfg          Config
	rng          *rand.Rand
	cards        []Card
	flipCount    int
	personalBest *int
	won          bool
	selection    []int

	cardsFeed        *events.Feed[[]Card]
	flipCountFeed    *events.Feed[int]
	personalBestFeed *events.Feed[*int]
	matchedFeed      *events.Feed[[]int]
	mismatchedFeed   *events.Feed[[]int]
	rawWonFeed       *events.Feed[bool]
	wonFeed          *events.Feed[bool]
	changedFeed      *events.Feed[struct{}]
}

// NewModel creates a model and deals the first game.
func NewModel(cfg Config) *Model {
	if cfg.Pairs <= 0 {
		cfg.Pairs = DefaultConfig().Pairs
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	m := &Model{
		cfg:              cfg,
		rng:              rand.New(rand.NewSource(seed)),
		cardsFeed:        events.NewFeed[[]Card](),
		flipCountFeed:    events.NewFeed[int](),
		personalBestFeed: events.NewFeed[*int](),
		matchedFeed:      events.NewFeed[[]int](),
		mismatchedFeed:   events.NewFeed[[]int](),
		rawWonFeed:       events.NewFeed[bool](),
		changedFeed:      events.NewFeed[struct{}](),
	}
	m.wonFeed = events.Distinct(m.rawWonFeed)
	m.cards = newDeck(cfg.Pairs, m.rng)
	return m
}

// NewGame deals a fresh shuffled deck and resets the flip counter, win flag,
// and current selection. The personal best survives across games.
func (m *Model) NewGame() {
	m.mu.Lock()
	m.cards = newDeck(m.cfg.Pairs, m.rng)
	m.flipCount = 0
	m.won = false
	m.selection = m.selection[:0]
	cards := m.snapshotLocked()
	m.mu.Unlock()

	log.Debug().Int("pairs", m.cfg.Pairs).Msg("new game dealt")

	m.cardsFeed.Publish(cards)
	m.flipCountFeed.Publish(0)
	m.rawWonFeed.Publish(false)
	m.changedFeed.Publish(struct{}{})
}

// Flip turns the card at index i face-up and resolves the pair once two
// cards are selected. Illegal flips (out of range, already face-up, already
// matched, two cards already selected) are silent no-ops. On a mismatch the
// pair is flipped back face-down immediately; keeping it visible for the
// player is presentation-layer business, not the model's.
func (m *Model) Flip(i int) {
	m.mu.Lock()
	if i < 0 || i >= len(m.cards) {
		m.mu.Unlock()
		return
	}
	c := &m.cards[i]
	if c.FaceUp || c.Matched || len(m.selection) >= 2 {
		m.mu.Unlock()
		return
	}

	c.FaceUp = true
	m.flipCount++
	m.selection = append(m.selection, i)

	var matched, mismatched []int
	if len(m.selection) == 2 {
		a, b := m.selection[0], m.selection[1]
		if m.cards[a].PairID == m.cards[b].PairID {
			m.cards[a].Matched = true
			m.cards[b].Matched = true
			matched = []int{a, b}
		} else {
			m.cards[a].FaceUp = false
			m.cards[b].FaceUp = false
			mismatched = []int{a, b}
		}
		m.selection = m.selection[:0]
	}

	wonNow := false
	if matched != nil && m.allMatchedLocked() && !m.won {
		m.won = true
		wonNow = true
	}

	pbChanged := false
	if wonNow && (m.personalBest == nil || m.flipCount < *m.personalBest) {
		best := m.flipCount
		m.personalBest = &best
		pbChanged = true
	}

	cards := m.snapshotLocked()
	flips := m.flipCount
	pb := m.personalBest
	won := m.won
	m.mu.Unlock()

	m.cardsFeed.Publish(cards)
	m.flipCountFeed.Publish(flips)
	if matched != nil {
		m.matchedFeed.Publish(matched)
	}
	if mismatched != nil {
		m.mismatchedFeed.Publish(mismatched)
	}
	if pbChanged {
		m.personalBestFeed.Publish(pb)
	}
	m.rawWonFeed.Publish(won)
	m.changedFeed.Publish(struct{}{})
}

// Cards returns a copy of the current card list.
func (m *Model) Cards() []Card {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// FlipCount returns the number of flips in the current game.
func (m *Model) FlipCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flipCount
}

// PersonalBest returns the lowest winning flip count seen so far, or nil if
// no game has been won yet.
func (m *Model) PersonalBest() *int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.personalBest
}

// SetPersonalBest seeds the personal best, typically from a persisted
// leaderboard entry. A nil or worse-than-current value is ignored.
func (m *Model) SetPersonalBest(best *int) {
	m.mu.Lock()
	if best == nil || (m.personalBest != nil && *m.personalBest <= *best) {
		m.mu.Unlock()
		return
	}
	b := *best
	m.personalBest = &b
	pb := m.personalBest
	m.mu.Unlock()

	m.personalBestFeed.Publish(pb)
	m.changedFeed.Publish(struct{}{})
}

// Won reports whether the current game has been won.
func (m *Model) Won() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.won
}

// Progress returns matched pairs over total pairs, in [0,1].
func (m *Model) Progress() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.cards) == 0 {
		return 0
	}
	matched := 0
	for _, c := range m.cards {
		if c.Matched {
			matched++
		}
	}
	return float64(matched) / float64(len(m.cards))
}

// CardsFeed announces the full card list after every change.
func (m *Model) CardsFeed() *events.Feed[[]Card] { return m.cardsFeed }

// FlipCountFeed announces the flip counter after every change.
func (m *Model) FlipCountFeed() *events.Feed[int] { return m.flipCountFeed }

// PersonalBestFeed announces personal-best improvements.
func (m *Model) PersonalBestFeed() *events.Feed[*int] { return m.personalBestFeed }

// MatchedFeed announces the indices of each newly matched pair.
func (m *Model) MatchedFeed() *events.Feed[[]int] { return m.matchedFeed }

// MismatchedFeed announces the indices of each failed pair.
func (m *Model) MismatchedFeed() *events.Feed[[]int] { return m.mismatchedFeed }

// WonFeed announces win-flag transitions, consecutive duplicates suppressed.
func (m *Model) WonFeed() *events.Feed[bool] { return m.wonFeed }

// ChangedFeed fires after any state change, once all specific feeds for that
// change have been delivered. Consumers use it to re-query aggregates such
// as Progress.
func (m *Model) ChangedFeed() *events.Feed[struct{}] { return m.changedFeed }

func (m *Model) snapshotLocked() []Card {
	out := make([]Card, len(m.cards))
	copy(out, m.cards)
	return out
}

func (m *Model) allMatchedLocked() bool {
	for _, c := range m.cards {
		if !c.Matched {
			return false
		}
	}
	return len(m.cards) > 0
}
