// internal/deck/deck.go
//
// Card and deck types for Bowling Solitaire.
// The mode plays with a stripped two-suit pack: ranks 1-10 in each of two
// suits, 20 cards total. Rank 10 counts as 0 when matched against pins
// (card value is the ones digit of the rank).

package deck

import (
	"fmt"
	"math/rand"
)

// Suit distinguishes the two copies of each rank.
type Suit int

const (
	SuitBlack Suit = iota
	SuitRed
)

// Card is a single playing card.
type Card struct {
	Suit   Suit `json:"suit"`
	Rank   int  `json:"rank"` // 1..10
	FaceUp bool `json:"faceUp"`
}

// Value is the pin-matching value of the card: the ones digit of its rank.
func (c Card) Value() int { return c.Rank % 10 }

// String renders the card for logs and status text.
func (c Card) String() string {
	suit := "B"
	if c.Suit == SuitRed {
		suit = "R"
	}
	return fmt.Sprintf("%d%s", c.Rank, suit)
}

// New returns the 20-card pack in a fixed order.
func New() []Card {
	cards := make([]Card, 0, 20)
	for _, s := range []Suit{SuitBlack, SuitRed} {
		for rank := 1; rank <= 10; rank++ {
			cards = append(cards, Card{Suit: s, Rank: rank, FaceUp: true})
		}
	}
	return cards
}

// Shuffled returns a new pack shuffled with rng.
func Shuffled(rng *rand.Rand) []Card {
	cards := New()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
