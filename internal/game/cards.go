package game

import (
	"math/rand"

	"github.com/google/uuid"
)

// Card is one tile on the board. The model owns the FaceUp and Matched flags
// exclusively; every other layer treats them as read-only truth.
type Card struct {
	ID      uuid.UUID `json:"id"`
	PairID  int       `json:"pair_id"`
	FaceUp  bool      `json:"face_up"`
	Matched bool      `json:"matched"`
}

// newDeck builds a shuffled deck of pairs face-down cards (two per pair).
func newDeck(pairs int, rng *rand.Rand) []Card {
	cards := make([]Card, 0, pairs*2)
	for p := 0; p < pairs; p++ {
		for i := 0; i < 2; i++ {
			cards = append(cards, Card{
				ID:     uuid.New(),
				PairID: p,
			})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
