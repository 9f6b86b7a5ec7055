// internal/game/engine.go
//
// Rule engine for a single Bowling Solitaire session.
// Responsibilities:
//   - Deal a fresh 10-pin triangle and three ball piles per frame.
//   - Validate pin selections against a played ball card (rank matching,
//     adjacency, back-row and centre-pin restrictions, follow-up contact).
//   - Track ball and frame progression, including the 10th frame's bonus
//     balls with re-racked pins.
//   - Record knocked-down counts as the roll history consumed by the
//     scoring package.
//
// Notes:
//   - The engine is headless: selection highlighting, confirmations and
//     status text are client concerns.
//   - Totals/Marks re-derive the scoreboard from the roll history on every
//     call; they never cache.
package game

import (
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/redmagesol/solitaire-server/internal/deck"
	"github.com/redmagesol/solitaire-server/internal/scoring"
)

var (
	ErrGameComplete    = errors.New("game complete")
	ErrNoPileCard      = errors.New("that pile has no remaining cards")
	ErrNoPinsSelected  = errors.New("select one or more pins")
	ErrTooManyPins     = errors.New("at most three pins per card")
	ErrPinRemoved      = errors.New("pin already removed")
	ErrBackRowFirst    = errors.New("back-row pins can't be taken first")
	ErrCenterPinAlone  = errors.New("the middle pin must be part of a combo")
	ErrNotTouchingPrev = errors.New("pins must touch pins from the previous ball")
	ErrNotAdjacent     = errors.New("pins must be adjacent")
	ErrRankMismatch    = errors.New("single pin must match the card rank")
	ErrComboMismatch   = errors.New("combo total must share the card's ones digit")
)

// New constructs a game with a time-seeded deal.
func New() *Game {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded constructs a game whose deals are reproducible from seed.
// The daily mode uses this so every player faces the same cards.
func NewSeeded(seed int64) *Game {
	g := &Game{
		ID:              uuid.NewString(),
		FrameRolls:      make([][]int, scoring.Frames),
		RollHistory:     []int{},
		RemovedThisBall: make(map[int]struct{}),
		RemovedPrevBall: make(map[int]struct{}),
		rng:             rand.New(rand.NewSource(seed)),
	}
	for i := range g.FrameRolls {
		g.FrameRolls[i] = []int{}
	}
	g.dealFrame()
	return g
}

// dealFrame shuffles the pack and lays out pins and ball piles for a new
// frame (or a re-rack after a 10th-frame strike/spare uses the old cards,
// which resetPinsForBonus handles instead).
func (g *Game) dealFrame() {
	cards := deck.Shuffled(g.rng)

	pins := make([]Pin, 0, 10)
	idx := 0
	for row, count := range pinRowCounts {
		for col := 0; col < count; col++ {
			card := cards[idx]
			card.FaceUp = true
			pins = append(pins, Pin{Index: idx, Card: card, Row: row, Col: col})
			idx++
		}
	}
	g.Pins = pins

	piles := make([]*BallPile, 0, len(pileSizes))
	for _, size := range pileSizes {
		piles = append(piles, newBallPile(cards[idx:idx+size]))
		idx += size
	}
	g.Piles = piles

	g.Waste = g.Waste[:0]
	g.RemovedThisBall = make(map[int]struct{})
	g.RemovedPrevBall = make(map[int]struct{})
	g.BallActions = 0
	g.CurrentBall = 0
}

// PinsRemaining counts pins still standing.
func (g *Game) PinsRemaining() int {
	n := 0
	for _, pin := range g.Pins {
		if !pin.Removed {
			n++
		}
	}
	return n
}

// State reports a coarse string representation of the game state.
func (g *Game) State() string {
	if g.Completed {
		return "complete"
	}
	return "playing"
}

// Score returns the final total once frame 10 has resolved.
func (g *Game) Score() (int, bool) {
	t := g.Totals()[scoring.Frames-1]
	return t.Total, t.Resolved
}

// Totals re-derives the 10 cumulative frame totals from the roll history.
func (g *Game) Totals() [scoring.Frames]scoring.FrameTotal {
	return scoring.FrameTotals(g.RollHistory)
}

// Marks returns the per-ball scoreboard symbols for each frame.
func (g *Game) Marks() [][]string {
	out := make([][]string, scoring.Frames)
	for i := range out {
		out[i] = scoring.Marks(i, g.FrameRolls[i])
	}
	return out
}

// ApplySelection plays the face-up card of pile ball onto the given pins,
// removing them if the selection is legal. A selection that clears the
// table ends the ball as a strike-type event.
func (g *Game) ApplySelection(ball int, pins []int) error {
	if g.Completed {
		return ErrGameComplete
	}
	if ball < 0 || ball >= len(g.Piles) {
		return ErrNoPileCard
	}
	pile := g.Piles[ball]
	if pile.FaceUp == nil {
		return ErrNoPileCard
	}
	if err := g.validateSelection(*pile.FaceUp, pins); err != nil {
		return err
	}

	for _, idx := range pins {
		g.Pins[idx].Removed = true
		g.RemovedThisBall[idx] = struct{}{}
	}
	if used := pile.takeFaceUp(); used != nil {
		g.Waste = append(g.Waste, *used)
	}
	g.BallActions++

	if g.PinsRemaining() == 0 {
		g.endBall(false)
	}
	return nil
}

// NextBall ends the current ball by player choice (typically because no
// legal move remains). On a frame's first ball the frame always continues
// to the second ball.
func (g *Game) NextBall() error {
	if g.Completed {
		return ErrGameComplete
	}
	g.endBall(g.CurrentBall == 0)
	return nil
}

// HasAvailableMove reports whether any face-up ball card can legally
// remove some combination of up to three standing pins.
func (g *Game) HasAvailableMove() bool {
	if g.Completed {
		return false
	}
	var standing []int
	for _, pin := range g.Pins {
		if !pin.Removed {
			standing = append(standing, pin.Index)
		}
	}
	if len(standing) == 0 {
		return false
	}
	for _, pile := range g.Piles {
		if pile.FaceUp == nil {
			continue
		}
		card := *pile.FaceUp
		for i := 0; i < len(standing); i++ {
			if g.validateSelection(card, []int{standing[i]}) == nil {
				return true
			}
			for j := i + 1; j < len(standing); j++ {
				if g.validateSelection(card, []int{standing[i], standing[j]}) == nil {
					return true
				}
				for k := j + 1; k < len(standing); k++ {
					if g.validateSelection(card, []int{standing[i], standing[j], standing[k]}) == nil {
						return true
					}
				}
			}
		}
	}
	return false
}

// ----------------------------- validation ----------------------------------

func (g *Game) validateSelection(card deck.Card, pins []int) error {
	if len(pins) == 0 {
		return ErrNoPinsSelected
	}
	if len(pins) > 3 {
		return ErrTooManyPins
	}
	for _, idx := range pins {
		if idx < 0 || idx >= len(g.Pins) || g.Pins[idx].Removed {
			return ErrPinRemoved
		}
	}

	// Opening restrictions on a frame's very first action.
	if g.CurrentBall == 0 && g.BallActions == 0 {
		for _, idx := range pins {
			if idx <= lastBackRow {
				return ErrBackRowFirst
			}
		}
		if len(pins) == 1 && pins[0] == centerPinIndex {
			return ErrCenterPinAlone
		}
	}

	includeBackRow := false
	for _, idx := range pins {
		if idx <= lastBackRow {
			includeBackRow = true
			break
		}
	}

	// A later ball with nothing knocked down yet still can't open on a
	// lone back-row pin.
	if g.CurrentBall == 1 && g.BallActions == 0 && includeBackRow &&
		len(g.RemovedPrevBall) == 0 && len(pins) == 1 {
		return ErrBackRowFirst
	}

	// Follow-up balls must stay in contact with the previous ball's pins.
	if g.CurrentBall > 0 && len(g.RemovedPrevBall) > 0 {
		if g.CurrentBall == 1 && g.BallActions == 0 && includeBackRow {
			if !g.connectedToPrevious(pins) {
				return ErrNotTouchingPrev
			}
		} else {
			for _, idx := range pins {
				if !g.touchesPrevious(idx) {
					return ErrNotTouchingPrev
				}
			}
		}
	}

	if len(pins) >= 2 && !connectedGroup(pins) {
		return ErrNotAdjacent
	}

	if len(pins) == 1 {
		if card.Rank != g.Pins[pins[0]].Card.Rank {
			return ErrRankMismatch
		}
		return nil
	}
	total := 0
	for _, idx := range pins {
		total += g.Pins[idx].Card.Rank
	}
	if total%10 != card.Value() {
		return ErrComboMismatch
	}
	return nil
}

func (g *Game) touchesPrevious(idx int) bool {
	for _, n := range pinAdjacency[idx] {
		if _, ok := g.RemovedPrevBall[n]; ok {
			return true
		}
	}
	return false
}

// connectedGroup reports whether the selection forms one adjacency-
// connected cluster.
func connectedGroup(pins []int) bool {
	if len(pins) == 0 {
		return false
	}
	target := make(map[int]struct{}, len(pins))
	for _, idx := range pins {
		target[idx] = struct{}{}
	}
	visited := make(map[int]struct{})
	stack := []int{pins[0]}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		for _, n := range pinAdjacency[cur] {
			if _, inTarget := target[n]; inTarget {
				if _, seen := visited[n]; !seen {
					stack = append(stack, n)
				}
			}
		}
	}
	return len(visited) == len(target)
}

// connectedToPrevious requires the whole selection to be reachable from
// pins adjacent to the previous ball's removals.
func (g *Game) connectedToPrevious(pins []int) bool {
	if len(pins) == 0 || len(g.RemovedPrevBall) == 0 {
		return false
	}
	selection := make(map[int]struct{}, len(pins))
	for _, idx := range pins {
		selection[idx] = struct{}{}
	}
	var seeds []int
	for _, idx := range pins {
		if g.touchesPrevious(idx) {
			seeds = append(seeds, idx)
		}
	}
	if len(seeds) == 0 {
		return false
	}
	visited := make(map[int]struct{})
	stack := seeds
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[cur]; seen {
			continue
		}
		visited[cur] = struct{}{}
		for _, n := range pinAdjacency[cur] {
			if _, inSel := selection[n]; inSel {
				if _, seen := visited[n]; !seen {
					stack = append(stack, n)
				}
			}
		}
	}
	return len(visited) == len(selection)
}

// ------------------------------ ball flow -----------------------------------

// endBall closes out the current ball: records its knocked-down count,
// discards the exposed ball cards, and advances ball/frame counters.
// forceStayInFrame keeps the frame open even when the frame rules would
// end it, used when the first ball is ended manually.
func (g *Game) endBall(forceStayInFrame bool) {
	if g.Completed {
		return
	}
	knocked := len(g.RemovedThisBall)
	removed := g.RemovedThisBall
	g.RemovedThisBall = make(map[int]struct{})

	g.FrameRolls[g.CurrentFrame] = append(g.FrameRolls[g.CurrentFrame], knocked)
	g.RollHistory = append(g.RollHistory, knocked)

	// Every ball ends with the exposed cards discarded and fresh ones
	// flipped, whether or not the face-up card was played.
	for _, pile := range g.Piles {
		if card := pile.takeFaceUp(); card != nil {
			g.Waste = append(g.Waste, *card)
		}
	}

	frameDone := false
	nextBall := g.CurrentBall + 1
	if g.CurrentFrame < scoring.Frames-1 {
		if g.CurrentBall == 0 && knocked == 10 {
			frameDone = true
		} else if g.CurrentBall >= 1 {
			frameDone = true
		}
	} else {
		rolls := g.FrameRolls[g.CurrentFrame]
		switch g.CurrentBall {
		case 0:
			nextBall = 1
			if knocked == 10 {
				g.resetPinsForBonus()
				removed = map[int]struct{}{}
			}
		case 1:
			first := rolls[0]
			if first == 10 {
				nextBall = 2
				if knocked == 10 {
					g.resetPinsForBonus()
					removed = map[int]struct{}{}
				}
			} else if first+rolls[1] == 10 {
				nextBall = 2
				g.resetPinsForBonus()
				removed = map[int]struct{}{}
			} else {
				frameDone = true
			}
		default:
			frameDone = true
		}
	}

	if forceStayInFrame {
		frameDone = false
	}

	if frameDone {
		g.CurrentFrame++
		if g.CurrentFrame >= scoring.Frames {
			g.Completed = true
			g.RemovedPrevBall = make(map[int]struct{})
			return
		}
		g.dealFrame()
		return
	}

	g.CurrentBall = nextBall
	g.BallActions = 0
	if g.PinsRemaining() > 0 {
		g.RemovedPrevBall = removed
	} else {
		g.RemovedPrevBall = make(map[int]struct{})
	}
}

// resetPinsForBonus re-racks the pin table for a 10th-frame bonus ball.
func (g *Game) resetPinsForBonus() {
	for i := range g.Pins {
		g.Pins[i].Removed = false
	}
	g.RemovedPrevBall = make(map[int]struct{})
}

// ------------------------------ snapshots -----------------------------------

// Saved captures the game in its JSON persistence shape.
func (g *Game) Saved() SavedGame {
	s := SavedGame{
		ID:              g.ID,
		CurrentFrame:    g.CurrentFrame,
		CurrentBall:     g.CurrentBall,
		BallActions:     g.BallActions,
		Completed:       g.Completed,
		FrameRolls:      make([][]int, len(g.FrameRolls)),
		RollHistory:     append([]int{}, g.RollHistory...),
		Pins:            append([]Pin{}, g.Pins...),
		Waste:           append([]deck.Card{}, g.Waste...),
		RemovedThisBall: sortedKeys(g.RemovedThisBall),
		RemovedPrevBall: sortedKeys(g.RemovedPrevBall),
	}
	for i, rolls := range g.FrameRolls {
		s.FrameRolls[i] = append([]int{}, rolls...)
	}
	for _, pile := range g.Piles {
		cp := BallPile{Stack: append([]deck.Card{}, pile.Stack...)}
		if pile.FaceUp != nil {
			face := *pile.FaceUp
			cp.FaceUp = &face
		}
		s.Piles = append(s.Piles, cp)
	}
	return s
}

// Restore rebuilds a Game from its saved form. It is tolerant of short
// slices from older saves, padding frames and piles to their expected
// counts.
func Restore(s SavedGame) *Game {
	g := &Game{
		ID:              s.ID,
		CurrentFrame:    s.CurrentFrame,
		CurrentBall:     s.CurrentBall,
		BallActions:     s.BallActions,
		Completed:       s.Completed,
		RollHistory:     append([]int{}, s.RollHistory...),
		Pins:            append([]Pin{}, s.Pins...),
		Waste:           append([]deck.Card{}, s.Waste...),
		RemovedThisBall: toSet(s.RemovedThisBall),
		RemovedPrevBall: toSet(s.RemovedPrevBall),
		rng:             rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.FrameRolls = make([][]int, scoring.Frames)
	for i := range g.FrameRolls {
		if i < len(s.FrameRolls) {
			g.FrameRolls[i] = append([]int{}, s.FrameRolls[i]...)
		} else {
			g.FrameRolls[i] = []int{}
		}
	}
	for _, pile := range s.Piles {
		cp := &BallPile{Stack: append([]deck.Card{}, pile.Stack...)}
		if pile.FaceUp != nil {
			face := *pile.FaceUp
			cp.FaceUp = &face
		}
		g.Piles = append(g.Piles, cp)
	}
	for len(g.Piles) < len(pileSizes) {
		g.Piles = append(g.Piles, &BallPile{})
	}
	return g
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func toSet(list []int) map[int]struct{} {
	out := make(map[int]struct{}, len(list))
	for _, v := range list {
		out[v] = struct{}{}
	}
	return out
}
