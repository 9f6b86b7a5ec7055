// internal/game/types.go
//
// Core type definitions for the Bowling Solitaire engine.
// Defines:
//   - Pin: one card in the 4/3/2/1 pin triangle.
//   - BallPile: one of the three face-down ball piles with a flipped top card.
//   - Game: state for a single in-progress or finished game.
//   - SavedGame: the JSON-shaped persistence form of a Game.

package game

import (
	"math/rand"

	"github.com/redmagesol/solitaire-server/internal/deck"
)

// Pin table geometry: four rows of 4/3/2/1 cards, indexed 0..9 with the
// back row first. The adjacency table drives combo and follow-up legality.
var pinRowCounts = [4]int{4, 3, 2, 1}

var pinAdjacency = map[int][]int{
	0: {1, 4},
	1: {0, 2, 4, 5},
	2: {1, 3, 5, 6},
	3: {2, 6},
	4: {0, 1, 5, 7},
	5: {1, 2, 4, 6, 7, 8},
	6: {2, 3, 5, 8},
	7: {4, 5, 8, 9},
	8: {5, 6, 7, 9},
	9: {7, 8},
}

const (
	centerPinIndex = 5
	lastBackRow    = 3 // pins 0..3 form the back row
)

// Ball pile sizes for each frame's deal (10 cards across three piles).
var pileSizes = [3]int{5, 3, 2}

// Pin is one pin-card slot in the triangle.
type Pin struct {
	Index   int       `json:"index"`
	Card    deck.Card `json:"card"`
	Row     int       `json:"row"`
	Col     int       `json:"col"`
	Removed bool      `json:"removed"`
}

// BallPile is a face-down stack with its top card flipped face up.
// Stack holds the hidden cards; the last element is flipped next.
type BallPile struct {
	FaceUp *deck.Card  `json:"faceUp"`
	Stack  []deck.Card `json:"stack"`
}

func newBallPile(cards []deck.Card) *BallPile {
	p := &BallPile{}
	if len(cards) == 0 {
		return p
	}
	p.Stack = append(p.Stack, cards[:len(cards)-1]...)
	top := cards[len(cards)-1]
	top.FaceUp = true
	p.FaceUp = &top
	for i := range p.Stack {
		p.Stack[i].FaceUp = false
	}
	return p
}

// RemainingHidden reports how many face-down cards the pile still holds.
func (p *BallPile) RemainingHidden() int { return len(p.Stack) }

func (p *BallPile) flipNext() {
	if len(p.Stack) > 0 {
		top := p.Stack[len(p.Stack)-1]
		p.Stack = p.Stack[:len(p.Stack)-1]
		top.FaceUp = true
		p.FaceUp = &top
	} else {
		p.FaceUp = nil
	}
}

// takeFaceUp removes and returns the face-up card, flipping the next one.
// Used both when a card is played onto pins and when a ball ends and the
// piles discard their exposed cards.
func (p *BallPile) takeFaceUp() *deck.Card {
	card := p.FaceUp
	p.FaceUp = nil
	p.flipNext()
	return card
}

// Game holds the state of a single Bowling Solitaire session.
type Game struct {
	ID string // unique game identifier (uuid)

	CurrentFrame int  // 0..9
	CurrentBall  int  // balls taken so far this frame
	BallActions  int  // ball cards played within the current ball
	Completed    bool // true once frame 10 has been scored

	FrameRolls  [][]int // knocked-down counts per frame
	RollHistory []int   // flat roll sequence, scoring input

	Pins  []Pin
	Piles []*BallPile
	Waste []deck.Card

	// Pins removed during the current ball / the previous ball of this
	// frame. Follow-up selections must touch the previous ball's pins.
	RemovedThisBall map[int]struct{}
	RemovedPrevBall map[int]struct{}

	rng *rand.Rand // deals; not part of saved state
}

// SavedGame is the serialized form of a Game, shaped so a raw JSON file or
// DB blob round-trips the whole session including the roll history.
type SavedGame struct {
	ID              string      `json:"id"`
	CurrentFrame    int         `json:"currentFrame"`
	CurrentBall     int         `json:"currentBall"`
	BallActions     int         `json:"ballActions"`
	Completed       bool        `json:"completed"`
	FrameRolls      [][]int     `json:"frameRolls"`
	RollHistory     []int       `json:"rollHistory"`
	Pins            []Pin       `json:"pins"`
	Piles           []BallPile  `json:"ballPiles"`
	Waste           []deck.Card `json:"ballWaste"`
	RemovedThisBall []int       `json:"removedThisBall"`
	RemovedPrevBall []int       `json:"removedPrevBall"`
}
