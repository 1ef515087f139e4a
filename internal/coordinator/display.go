package coordinator

import "sort"

// CardView is the client-facing representation of a card. FaceUp reflects
// what the player should see, which may differ from the model's own flag
// while a mismatch reveal is in progress. PairID is only exposed while the
// card is presented face-up or matched.
type CardView struct {
	ID       string `json:"id"`
	PairID   *int   `json:"pair_id,omitempty"`
	FaceUp   bool   `json:"face_up"`
	Matched  bool   `json:"matched"`
	Wiggling bool   `json:"wiggling"`
}

// DisplayState is the full read-only projection the view layer renders.
type DisplayState struct {
	Cards                 []CardView `json:"cards"`
	FlipCount             int        `json:"flip_count"`
	PersonalBest          *int       `json:"personal_best,omitempty"`
	Progress              float64    `json:"progress"`
	IsAuthenticated       bool       `json:"is_authenticated"`
	ShowConfetti          bool       `json:"show_confetti"`
	WigglingIndices       []int      `json:"wiggling_indices"`
	IsShowingLeaderboard  bool       `json:"is_showing_leaderboard"`
	IsInteractionDisabled bool       `json:"is_interaction_disabled"`
	LeaderboardID         string     `json:"leaderboard_id"`
}

// Snapshot returns the current display state.
func (c *Coordinator) Snapshot() DisplayState {
	c.mu.Lock()
	defer c.mu.Unlock()

	cards := make([]CardView, len(c.cards))
	for i, card := range c.cards {
		cv := CardView{
			ID:       card.ID.String(),
			FaceUp:   card.FaceUp || c.reveal[i],
			Matched:  card.Matched,
			Wiggling: c.wiggling[i],
		}
		if cv.FaceUp || cv.Matched {
			pairID := card.PairID
			cv.PairID = &pairID
		}
		cards[i] = cv
	}

	wiggling := make([]int, 0, len(c.wiggling))
	for i := range c.wiggling {
		wiggling = append(wiggling, i)
	}
	sort.Ints(wiggling)

	var pb *int
	if c.personalBest != nil {
		best := *c.personalBest
		pb = &best
	}

	return DisplayState{
		Cards:                 cards,
		FlipCount:             c.flipCount,
		PersonalBest:          pb,
		Progress:              c.progress,
		IsAuthenticated:       c.authenticated,
		ShowConfetti:          c.celebrating,
		WigglingIndices:       wiggling,
		IsShowingLeaderboard:  c.showingLB,
		IsInteractionDisabled: c.locked,
		LeaderboardID:         c.svc.LeaderboardID(),
	}
}
