// internal/scoring/scoring.go
//
// Ten-pin bowling frame scoring for the Bowling Solitaire mode.
// Responsibilities:
//   - Reduce an ordered roll history into the 10 cumulative frame totals.
//   - Withhold a frame's total until the rolls its bonus depends on exist.
//   - Derive per-ball scoreboard marks ("X", "/", "-", digits) for a frame.
//
// Notes:
//   - FrameTotals is pure and total: any input, including an empty or
//     truncated history, yields 10 slots; frames that cannot be scored yet
//     are simply left unresolved rather than erroring.
//   - Pin-count legality (0..10, per-frame sums) is the caller's problem;
//     the game engine can only produce legal counts by construction.

package scoring

// Frames is the number of scoring frames in a game.
const Frames = 10

// FrameTotal is one scoreboard slot: a cumulative total, or nothing yet.
// Resolved distinguishes a genuine 0 from "not enough rolls to know".
type FrameTotal struct {
	Total    int
	Resolved bool
}

// FrameTotals returns cumulative frame totals following ten-pin rules.
//
// Frames are scored strictly left to right with a roll cursor:
//   - A strike in frames 1-9 consumes one roll and borrows the next two.
//   - A spare in frames 1-9 consumes two rolls and borrows the next one.
//   - An open frame consumes two rolls with no lookahead.
//   - Frame 10 consumes two rolls, or three after a strike or spare.
//
// When a frame's own or borrowed rolls are missing the loop stops and that
// frame plus everything after it stays unresolved. Rolls beyond what frame
// 10 consumes are ignored.
func FrameTotals(rolls []int) [Frames]FrameTotal {
	var totals [Frames]FrameTotal
	cumulative := 0
	idx := 0

	for frame := 0; frame < Frames; frame++ {
		if idx >= len(rolls) {
			break
		}
		first := rolls[idx]

		if frame < Frames-1 {
			if first == 10 {
				// Strike: bonus needs the next two rolls.
				if idx+2 >= len(rolls) {
					break
				}
				cumulative += 10 + rolls[idx+1] + rolls[idx+2]
				totals[frame] = FrameTotal{Total: cumulative, Resolved: true}
				idx++
				continue
			}
			if idx+1 >= len(rolls) {
				break
			}
			second := rolls[idx+1]
			if first+second == 10 {
				// Spare: bonus needs one more roll.
				if idx+2 >= len(rolls) {
					break
				}
				cumulative += 10 + rolls[idx+2]
			} else {
				cumulative += first + second
			}
			totals[frame] = FrameTotal{Total: cumulative, Resolved: true}
			idx += 2
			continue
		}

		// Final frame: two rolls minimum, three after a strike or spare.
		if idx+1 >= len(rolls) {
			break
		}
		second := rolls[idx+1]
		if first == 10 || first+second == 10 {
			if idx+2 >= len(rolls) {
				break
			}
			if first == 10 {
				cumulative += 10 + second + rolls[idx+2]
			} else {
				cumulative += 10 + rolls[idx+2]
			}
		} else {
			cumulative += first + second
		}
		totals[frame] = FrameTotal{Total: cumulative, Resolved: true}
		break
	}
	return totals
}

// Marks returns the scoreboard symbols for one frame's rolls: "X" for a
// strike, "/" for a spare, "-" for a gutter ball, digits otherwise.
// frameIndex selects regular (0-8) or final-frame (9) symbol rules.
func Marks(frameIndex int, frameRolls []int) []string {
	out := make([]string, 0, len(frameRolls))
	for ball, knocked := range frameRolls {
		out = append(out, mark(frameIndex, ball, frameRolls, knocked))
	}
	return out
}

func mark(frameIndex, ball int, rolls []int, knocked int) string {
	if frameIndex < Frames-1 {
		if ball == 0 {
			return strikeOrCount(knocked)
		}
		if rolls[0]+knocked == 10 {
			return "/"
		}
		return count(knocked)
	}

	// Final frame: a spare mark only applies against the preceding roll,
	// and a fresh rack after a strike can itself be a strike or spare.
	switch ball {
	case 0:
		return strikeOrCount(knocked)
	case 1:
		if rolls[0] == 10 {
			return strikeOrCount(knocked)
		}
		if rolls[0]+knocked == 10 {
			return "/"
		}
		return count(knocked)
	default:
		if rolls[1] == 10 {
			return strikeOrCount(knocked)
		}
		if rolls[0] == 10 && rolls[1]+knocked == 10 {
			return "/"
		}
		return strikeOrCount(knocked)
	}
}

func strikeOrCount(knocked int) string {
	if knocked == 10 {
		return "X"
	}
	return count(knocked)
}

func count(knocked int) string {
	if knocked == 0 {
		return "-"
	}
	return string(rune('0' + knocked))
}
