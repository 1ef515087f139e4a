// Package coordinator bridges the game model and the leaderboard service to
// a reactive view layer. It republishes model state for display, derives the
// UI-only transient state (mismatch reveal, wiggle, celebration, interaction
// lock) from model events with one-shot timers, and forwards player intents
// back to the model after applying the interaction lock.
package coordinator

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ldmay/flipside/internal/events"
	"github.com/ldmay/flipside/internal/game"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Model defines what the coordinator needs from the game model.
type Model interface {
	NewGame()
	Flip(i int)
	Progress() float64

	CardsFeed() *events.Feed[[]game.Card]
	FlipCountFeed() *events.Feed[int]
	PersonalBestFeed() *events.Feed[*int]
	MatchedFeed() *events.Feed[[]int]
	MismatchedFeed() *events.Feed[[]int]
	WonFeed() *events.Feed[bool]
	ChangedFeed() *events.Feed[struct{}]
}

// AuthService defines what the coordinator needs from the leaderboard service.
type AuthService interface {
	AuthenticatedFeed() *events.Feed[bool]
	IsAuthenticated() bool
	LeaderboardID() string
}

// Effects receives the transient sound/haptic cues the coordinator triggers.
// Implementations must not block.
type Effects interface {
	PlayWinSound()
	PlayMismatchHaptic()
}

// NopEffects discards all effect cues.
type NopEffects struct{}

func (NopEffects) PlayWinSound()       {}
func (NopEffects) PlayMismatchHaptic() {}

// Config holds the coordinator's timing knobs and collaborators.
type Config struct {
	// CelebrationDuration is how long the confetti flag stays up after a win.
	CelebrationDuration time.Duration
	// WiggleDuration is how long a matched pair plays its wiggle animation.
	WiggleDuration time.Duration
	// MismatchRevealDuration is how long a failed pair stays visibly face-up
	// before flipping back and re-enabling input.
	MismatchRevealDuration time.Duration

	Clock   Clock
	Effects Effects
	// OnChange is invoked after every display-relevant mutation so the view
	// layer can rebroadcast. May be nil.
	OnChange func()
}

// DefaultConfig returns the standard presentation timings.
func DefaultConfig() Config {
	return Config{
		CelebrationDuration:    2500 * time.Millisecond,
		WiggleDuration:         650 * time.Millisecond,
		MismatchRevealDuration: 1500 * time.Millisecond,
		Clock:                  clockwork.NewRealClock(),
		Effects:                NopEffects{},
	}
}

// Coordinator owns the display projection of one game screen. All fields
// are mutated under a single mutex; timers re-enter through the same lock,
// so the state only ever changes on one logical thread of control.
type Coordinator struct {
	model   Model
	svc     AuthService
	clock   Clock
	effects Effects

	celebrationDuration    time.Duration
	wiggleDuration         time.Duration
	mismatchRevealDuration time.Duration

	mu            sync.Mutex
	cards         []game.Card
	flipCount     int
	personalBest  *int
	progress      float64
	authenticated bool

	reveal      map[int]bool
	wiggling    map[int]bool
	locked      bool
	celebrating bool
	showingLB   bool

	onChange  func()
	cancels   []func()
	done      chan struct{}
	closeOnce sync.Once
}

// New wires a coordinator to an already-constructed model and leaderboard
// service and establishes its subscriptions. It performs no blocking work;
// both collaborators are assumed to outlive the coordinator.
func New(model Model, svc AuthService, cfg Config) *Coordinator {
	def := DefaultConfig()
	if cfg.CelebrationDuration <= 0 {
		cfg.CelebrationDuration = def.CelebrationDuration
	}
	if cfg.WiggleDuration <= 0 {
		cfg.WiggleDuration = def.WiggleDuration
	}
	if cfg.MismatchRevealDuration <= 0 {
		cfg.MismatchRevealDuration = def.MismatchRevealDuration
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Effects == nil {
		cfg.Effects = def.Effects
	}

	c := &Coordinator{
		model:                  model,
		svc:                    svc,
		clock:                  cfg.Clock,
		effects:                cfg.Effects,
		celebrationDuration:    cfg.CelebrationDuration,
		wiggleDuration:         cfg.WiggleDuration,
		mismatchRevealDuration: cfg.MismatchRevealDuration,
		reveal:                 make(map[int]bool),
		wiggling:               make(map[int]bool),
		onChange:               cfg.OnChange,
		done:                   make(chan struct{}),
		authenticated:          svc.IsAuthenticated(),
	}

	c.cancels = append(c.cancels,
		model.CardsFeed().Subscribe(c.onCards),
		model.FlipCountFeed().Subscribe(c.onFlipCount),
		model.PersonalBestFeed().Subscribe(c.onPersonalBest),
		model.ChangedFeed().Subscribe(c.onModelChanged),
		svc.AuthenticatedFeed().Subscribe(c.onAuthenticated),
		model.WonFeed().Subscribe(c.onWon),
		model.MatchedFeed().Subscribe(c.onMatched),
		model.MismatchedFeed().Subscribe(c.onMismatched),
	)

	return c
}

// NewGame forwards to the model's new-game initializer, then clears every
// piece of derived presentation state. Scheduled resets from the previous
// game are not cancelled; when they fire they find nothing left to clear.
func (c *Coordinator) NewGame() {
	c.model.NewGame()

	c.mu.Lock()
	c.reveal = make(map[int]bool)
	c.wiggling = make(map[int]bool)
	c.celebrating = false
	c.locked = false
	c.mu.Unlock()

	c.notify()
}

// Flip forwards the flip intent to the model unless a mismatch reveal is in
// progress. The model owns all flip-legality rules beyond the lock.
func (c *Coordinator) Flip(i int) {
	c.mu.Lock()
	locked := c.locked
	c.mu.Unlock()
	if locked {
		log.Debug().Int("index", i).Msg("flip ignored while interaction disabled")
		return
	}
	c.model.Flip(i)
}

// ShowLeaderboard raises the UI-only leaderboard-visible flag.
func (c *Coordinator) ShowLeaderboard() {
	c.mu.Lock()
	c.showingLB = true
	c.mu.Unlock()
	c.notify()
}

// DismissLeaderboard lowers the leaderboard-visible flag.
func (c *Coordinator) DismissLeaderboard() {
	c.mu.Lock()
	c.showingLB = false
	c.mu.Unlock()
	c.notify()
}

// IsPresentingFaceUp reports whether the card at index i should be rendered
// face-up: either the model says so, or the index is in the transient reveal
// set after a recent mismatch. Out-of-range indices are face-down.
func (c *Coordinator) IsPresentingFaceUp(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.cards) {
		return false
	}
	return c.cards[i].FaceUp || c.reveal[i]
}

// IsInteractionDisabled reports whether flip intents are currently blocked.
func (c *Coordinator) IsInteractionDisabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.locked
}

// LeaderboardID passes through the service's leaderboard identifier.
func (c *Coordinator) LeaderboardID() string {
	return c.svc.LeaderboardID()
}

// Close releases all subscriptions and stops pending scheduled resets so no
// callback mutates the coordinator after teardown. Idempotent.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		for _, cancel := range c.cancels {
			cancel()
		}
		close(c.done)
	})
}

func (c *Coordinator) onCards(cards []game.Card) {
	c.mu.Lock()
	c.cards = cards
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) onFlipCount(n int) {
	c.mu.Lock()
	c.flipCount = n
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) onPersonalBest(best *int) {
	c.mu.Lock()
	c.personalBest = best
	c.mu.Unlock()
	c.notify()
}

// onModelChanged re-queries aggregate progress rather than tracking a
// dedicated progress event.
func (c *Coordinator) onModelChanged(struct{}) {
	p := c.model.Progress()
	c.mu.Lock()
	c.progress = p
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) onAuthenticated(ok bool) {
	c.mu.Lock()
	c.authenticated = ok
	c.mu.Unlock()
	c.notify()
}

// onWon handles a win-flag transition. The model's won feed suppresses
// duplicate values, so celebration fires exactly once per false→true edge.
func (c *Coordinator) onWon(won bool) {
	if !won {
		return
	}

	c.mu.Lock()
	c.celebrating = true
	c.mu.Unlock()

	c.effects.PlayWinSound()
	c.notify()

	c.schedule(c.celebrationDuration, func() {
		c.mu.Lock()
		c.celebrating = false
		c.mu.Unlock()
	})
}

// onMatched adds the pair to the wiggle set and schedules its removal. The
// scheduled callback closes over the event's own indices, so a new game in
// between leaves nothing for it to remove.
func (c *Coordinator) onMatched(indices []int) {
	c.mu.Lock()
	for _, i := range indices {
		c.wiggling[i] = true
	}
	c.mu.Unlock()

	c.notify()

	c.schedule(c.wiggleDuration, func() {
		c.mu.Lock()
		for _, i := range indices {
			delete(c.wiggling, i)
		}
		c.mu.Unlock()
	})
}

// onMismatched locks interaction before any visual change, keeps the failed
// pair visibly face-up, and schedules the reveal removal followed by the
// unlock. A stale callback firing after NewGame re-clears an already-clear
// lock and removes indices from an already-empty set, both harmless.
func (c *Coordinator) onMismatched(indices []int) {
	c.mu.Lock()
	c.locked = true
	for _, i := range indices {
		c.reveal[i] = true
	}
	c.mu.Unlock()

	c.effects.PlayMismatchHaptic()
	c.notify()

	c.schedule(c.mismatchRevealDuration, func() {
		c.mu.Lock()
		for _, i := range indices {
			delete(c.reveal, i)
		}
		c.locked = false
		c.mu.Unlock()
	})
}

func (c *Coordinator) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}
