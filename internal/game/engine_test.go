package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmagesol/solitaire-server/internal/deck"
	"github.com/redmagesol/solitaire-server/internal/scoring"
)

// testGame builds a game with a known pin triangle and ball piles instead
// of a shuffled deal. pinRanks is indexed by pin position 0..9; pileRanks
// lists each pile bottom-to-top (the last card is face up).
func testGame(pinRanks [10]int, pileRanks [3][]int) *Game {
	g := &Game{
		ID:              "test",
		FrameRolls:      make([][]int, scoring.Frames),
		RollHistory:     []int{},
		RemovedThisBall: make(map[int]struct{}),
		RemovedPrevBall: make(map[int]struct{}),
		rng:             rand.New(rand.NewSource(1)),
	}
	for i := range g.FrameRolls {
		g.FrameRolls[i] = []int{}
	}
	idx := 0
	for row, count := range pinRowCounts {
		for col := 0; col < count; col++ {
			g.Pins = append(g.Pins, Pin{
				Index: idx,
				Card:  deck.Card{Rank: pinRanks[idx], FaceUp: true},
				Row:   row,
				Col:   col,
			})
			idx++
		}
	}
	for _, ranks := range pileRanks {
		cards := make([]deck.Card, 0, len(ranks))
		for _, rank := range ranks {
			cards = append(cards, deck.Card{Rank: rank})
		}
		g.Piles = append(g.Piles, newBallPile(cards))
	}
	return g
}

func ones() [10]int {
	return [10]int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
}

func TestNewDealsFullTable(t *testing.T) {
	g := NewSeeded(7)
	require.Len(t, g.Pins, 10)
	require.Len(t, g.Piles, 3)
	assert.Equal(t, 10, g.PinsRemaining())
	assert.Equal(t, 4, g.Piles[0].RemainingHidden())
	assert.Equal(t, 2, g.Piles[1].RemainingHidden())
	assert.Equal(t, 1, g.Piles[2].RemainingHidden())
	for _, pile := range g.Piles {
		require.NotNil(t, pile.FaceUp)
		assert.True(t, pile.FaceUp.FaceUp)
	}
	assert.Equal(t, "playing", g.State())
}

func TestNewSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(99), NewSeeded(99)
	assert.Equal(t, a.Pins, b.Pins)
	assert.Equal(t, a.Piles, b.Piles)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestOpeningRestrictions(t *testing.T) {
	cases := []struct {
		name string
		pins []int
		want error
	}{
		{"back row pin first", []int{0}, ErrBackRowFirst},
		{"combo including back row first", []int{1, 5}, ErrBackRowFirst},
		{"lone centre pin", []int{5}, ErrCenterPinAlone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := testGame(ones(), [3][]int{{1, 2}, {1}, {1}})
			assert.ErrorIs(t, g.ApplySelection(0, tc.pins), tc.want)
		})
	}
}

func TestSelectionRankRules(t *testing.T) {
	pinRanks := ones()
	pinRanks[4] = 7
	g := testGame(pinRanks, [3][]int{{3}, {7}, {8}})

	// Single pin must match the card rank exactly.
	assert.ErrorIs(t, g.ApplySelection(0, []int{4}), ErrRankMismatch)
	// Combo must share the card's ones digit: 7+1 = 8.
	assert.ErrorIs(t, g.ApplySelection(1, []int{4, 5}), ErrComboMismatch)
	require.NoError(t, g.ApplySelection(2, []int{4, 5}))
	assert.True(t, g.Pins[4].Removed)
	assert.True(t, g.Pins[5].Removed)
	assert.Equal(t, 8, g.PinsRemaining())
	assert.Len(t, g.Waste, 1)
}

func TestSelectionAdjacencyRules(t *testing.T) {
	g := testGame(ones(), [3][]int{{2}, {1}, {1}})
	// Pins 4 and 9 are not adjacent.
	assert.ErrorIs(t, g.ApplySelection(0, []int{4, 9}), ErrNotAdjacent)

	g2 := testGame(ones(), [3][]int{{4}, {1}, {1}})
	assert.ErrorIs(t, g2.ApplySelection(0, []int{4, 5, 6, 7}), ErrTooManyPins)
}

func TestStrikeEndsFrameAndDealsNext(t *testing.T) {
	// Clear all ten rank-1 pins in one ball via five card plays.
	g := testGame(ones(), [3][]int{{1, 3, 1, 3, 2}, {9}, {9}})

	require.NoError(t, g.ApplySelection(0, []int{4, 5}))    // card 2
	require.NoError(t, g.ApplySelection(0, []int{6, 8, 9})) // card 3
	require.NoError(t, g.ApplySelection(0, []int{7}))       // card 1
	require.NoError(t, g.ApplySelection(0, []int{0, 1, 2})) // card 3
	require.NoError(t, g.ApplySelection(0, []int{3}))       // card 1, table cleared

	assert.Equal(t, []int{10}, g.FrameRolls[0])
	assert.Equal(t, []int{10}, g.RollHistory)
	assert.Equal(t, 1, g.CurrentFrame)
	assert.Equal(t, 0, g.CurrentBall)
	// Next frame got a fresh deal.
	assert.Equal(t, 10, g.PinsRemaining())
	assert.Empty(t, g.Waste)
}

func TestTwoBallFrameFlow(t *testing.T) {
	g := testGame(ones(), [3][]int{{1, 1, 2}, {9}, {9}})

	require.NoError(t, g.ApplySelection(0, []int{4, 5}))
	require.NoError(t, g.NextBall())
	assert.Equal(t, 1, g.CurrentBall)
	assert.Equal(t, 0, g.CurrentFrame)
	assert.Equal(t, []int{2}, g.RollHistory)
	assert.Equal(t, map[int]struct{}{4: {}, 5: {}}, g.RemovedPrevBall)

	// Second ball must stay in contact with the first ball's pins.
	assert.ErrorIs(t, g.ApplySelection(0, []int{3}), ErrNotTouchingPrev)
	require.NoError(t, g.ApplySelection(0, []int{7}))

	require.NoError(t, g.NextBall())
	assert.Equal(t, 1, g.CurrentFrame)
	assert.Equal(t, []int{2, 1}, g.FrameRolls[0])
	assert.Equal(t, []int{2, 1}, g.RollHistory)
}

func TestNextBallOnFirstBallStaysInFrame(t *testing.T) {
	g := testGame(ones(), [3][]int{{1}, {1}, {1}})
	require.NoError(t, g.NextBall())
	assert.Equal(t, 0, g.CurrentFrame)
	assert.Equal(t, 1, g.CurrentBall)
	assert.Equal(t, []int{0}, g.FrameRolls[0])
	// All exposed ball cards get discarded when a ball ends.
	assert.Len(t, g.Waste, 3)
}

func TestTenthFrameStrikeGrantsBonusBallsWithReset(t *testing.T) {
	g := testGame(ones(), [3][]int{{1, 3, 1, 3, 2}, {9}, {9}})
	// Fast-forward: nine open frames already played.
	g.CurrentFrame = scoring.Frames - 1
	for i := 0; i < 9; i++ {
		g.FrameRolls[i] = []int{0, 0}
		g.RollHistory = append(g.RollHistory, 0, 0)
	}

	require.NoError(t, g.ApplySelection(0, []int{4, 5}))
	require.NoError(t, g.ApplySelection(0, []int{6, 8, 9}))
	require.NoError(t, g.ApplySelection(0, []int{7}))
	require.NoError(t, g.ApplySelection(0, []int{0, 1, 2}))
	require.NoError(t, g.ApplySelection(0, []int{3}))

	// Strike in the 10th: pins re-racked, frame continues.
	assert.False(t, g.Completed)
	assert.Equal(t, scoring.Frames-1, g.CurrentFrame)
	assert.Equal(t, 1, g.CurrentBall)
	assert.Equal(t, 10, g.PinsRemaining())

	require.NoError(t, g.NextBall()) // bonus ball 2: nothing knocked
	assert.False(t, g.Completed)
	assert.Equal(t, 2, g.CurrentBall)

	require.NoError(t, g.NextBall()) // bonus ball 3: nothing knocked
	assert.True(t, g.Completed)
	assert.Equal(t, "complete", g.State())
	assert.ErrorIs(t, g.NextBall(), ErrGameComplete)
	assert.ErrorIs(t, g.ApplySelection(0, []int{4}), ErrGameComplete)

	assert.Equal(t, []int{10, 0, 0}, g.FrameRolls[scoring.Frames-1])
	score, ok := g.Score()
	require.True(t, ok)
	assert.Equal(t, 10, score)
}

func TestTenthFrameOpenEndsAfterTwoBalls(t *testing.T) {
	g := testGame(ones(), [3][]int{{1}, {1}, {1}})
	g.CurrentFrame = scoring.Frames - 1
	for i := 0; i < 9; i++ {
		g.FrameRolls[i] = []int{0, 0}
		g.RollHistory = append(g.RollHistory, 0, 0)
	}

	require.NoError(t, g.NextBall())
	require.NoError(t, g.NextBall())
	assert.True(t, g.Completed)
	score, ok := g.Score()
	require.True(t, ok)
	assert.Equal(t, 0, score)
}

func TestHasAvailableMove(t *testing.T) {
	fours := [10]int{4, 4, 4, 4, 4, 4, 4, 4, 4, 4}
	// Card 1: no single matches rank 4, no pair (value 8) or triple
	// (value 2) matches value 1.
	g := testGame(fours, [3][]int{{1}, {}, {}})
	assert.False(t, g.HasAvailableMove())

	// Card 4 can take any lone non-back-row pin.
	g2 := testGame(fours, [3][]int{{4}, {}, {}})
	assert.True(t, g2.HasAvailableMove())
}

func TestMarksAndTotalsComeFromRollHistory(t *testing.T) {
	g := testGame(ones(), [3][]int{{1}, {1}, {1}})
	g.FrameRolls[0] = []int{10}
	g.FrameRolls[1] = []int{7, 3}
	g.RollHistory = []int{10, 7, 3}

	marks := g.Marks()
	assert.Equal(t, []string{"X"}, marks[0])
	assert.Equal(t, []string{"7", "/"}, marks[1])

	totals := g.Totals()
	require.True(t, totals[0].Resolved)
	assert.Equal(t, 20, totals[0].Total)
	assert.False(t, totals[1].Resolved)
}

func TestSavedRestoreRoundTrip(t *testing.T) {
	g := NewSeeded(42)
	require.NoError(t, g.NextBall())
	require.NoError(t, g.NextBall())

	saved := g.Saved()
	restored := Restore(saved)
	assert.Equal(t, saved, restored.Saved())
	assert.Equal(t, g.RollHistory, restored.RollHistory)
	assert.Equal(t, g.CurrentFrame, restored.CurrentFrame)
}

func TestRestoreToleratesSparseSave(t *testing.T) {
	g := Restore(SavedGame{ID: "old", FrameRolls: [][]int{{10}}})
	assert.Equal(t, "old", g.ID)
	assert.Len(t, g.FrameRolls, scoring.Frames)
	assert.Len(t, g.Piles, 3)
	assert.NotNil(t, g.RemovedThisBall)
}
