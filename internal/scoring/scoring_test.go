package scoring

import (
	"reflect"
	"testing"
)

// rep repeats a roll pattern n times.
func rep(pattern []int, n int) []int {
	out := make([]int, 0, len(pattern)*n)
	for i := 0; i < n; i++ {
		out = append(out, pattern...)
	}
	return out
}

func resolved(totals ...int) [Frames]FrameTotal {
	var out [Frames]FrameTotal
	for i, t := range totals {
		out[i] = FrameTotal{Total: t, Resolved: true}
	}
	return out
}

func TestFrameTotalsCompleteGames(t *testing.T) {
	cases := []struct {
		name  string
		rolls []int
		want  [Frames]FrameTotal
	}{
		{
			name:  "perfect game",
			rolls: rep([]int{10}, 12),
			want:  resolved(30, 60, 90, 120, 150, 180, 210, 240, 270, 300),
		},
		{
			name:  "all nine-one spares",
			rolls: append(rep([]int{9, 1}, 9), 9, 1, 9),
			want:  resolved(19, 38, 57, 76, 95, 114, 133, 152, 171, 190),
		},
		{
			name:  "gutters then three strikes in the tenth",
			rolls: append(rep([]int{0, 0}, 9), 10, 10, 10),
			want:  resolved(0, 0, 0, 0, 0, 0, 0, 0, 0, 30),
		},
		{
			name:  "ninth-frame spare fed by tenth-frame strikes",
			rolls: append(append(rep([]int{0, 0}, 8), 7, 3), 10, 10, 10),
			want:  resolved(0, 0, 0, 0, 0, 0, 0, 0, 20, 50),
		},
		{
			name:  "opening spare then opens",
			rolls: append([]int{7, 3, 5, 4}, rep([]int{0, 0}, 8)...),
			want:  resolved(15, 24, 24, 24, 24, 24, 24, 24, 24, 24),
		},
		{
			name:  "strike spare open then gutters",
			rolls: append([]int{10, 7, 3, 7, 2}, rep([]int{0, 0}, 7)...),
			want:  resolved(20, 37, 46, 46, 46, 46, 46, 46, 46, 46),
		},
		{
			name:  "open tenth frame ignores trailing rolls",
			rolls: append(rep([]int{0, 0}, 9), 3, 4, 9, 9, 9),
			want:  resolved(0, 0, 0, 0, 0, 0, 0, 0, 0, 7),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FrameTotals(tc.rolls)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("FrameTotals(%v) = %v, want %v", tc.rolls, got, tc.want)
			}
		})
	}
}

func TestFrameTotalsWithholdsUnresolvedFrames(t *testing.T) {
	cases := []struct {
		name         string
		rolls        []int
		wantResolved int // how many leading frames should be resolved
	}{
		{"empty history", nil, 0},
		{"lone strike", []int{10}, 0},
		{"strike with one bonus roll", []int{10, 3}, 0},
		{"strike with both bonus rolls", []int{10, 3, 4}, 2},
		{"spare awaiting bonus", []int{6, 4}, 0},
		{"open frame resolves alone", []int{6, 3}, 1},
		{"dangling first roll", []int{6, 3, 5}, 1},
		{"tenth frame spare awaiting third ball", append(rep([]int{0, 0}, 9), 6, 4), 9},
		{"tenth frame strike awaiting two more", append(rep([]int{0, 0}, 9), 10, 5), 9},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FrameTotals(tc.rolls)
			for i := 0; i < Frames; i++ {
				if want := i < tc.wantResolved; got[i].Resolved != want {
					t.Fatalf("frame %d resolved = %v, want %v (totals %v)", i+1, got[i].Resolved, want, got)
				}
			}
		})
	}
}

func TestFrameTotalsStrikeBonusArithmetic(t *testing.T) {
	got := FrameTotals([]int{10, 3, 4})
	if !got[0].Resolved || got[0].Total != 17 {
		t.Fatalf("frame 1 = %+v, want resolved 17", got[0])
	}
	// The borrowed rolls also score as frame 2's own open frame.
	if !got[1].Resolved || got[1].Total != 24 {
		t.Fatalf("frame 2 = %+v, want resolved 24", got[1])
	}
}

// Resolved totals must never shrink as more of the frame sequence resolves,
// and a resolved prefix must agree with the totals of any extension.
func TestFrameTotalsMonotoneAndPrefixStable(t *testing.T) {
	full := append(rep([]int{10, 9, 1, 5, 3}, 2), 10, 10, 10, 10, 8)
	final := FrameTotals(full)

	for cut := 0; cut <= len(full); cut++ {
		partial := FrameTotals(full[:cut])
		prev := -1
		for i := 0; i < Frames; i++ {
			if !partial[i].Resolved {
				continue
			}
			if partial[i].Total < prev {
				t.Fatalf("cut %d: totals not non-decreasing: %v", cut, partial)
			}
			prev = partial[i].Total
			if final[i].Resolved && partial[i].Total != final[i].Total {
				t.Fatalf("cut %d frame %d: prefix total %d disagrees with final %d",
					cut, i+1, partial[i].Total, final[i].Total)
			}
		}
	}
}

func TestFrameTotalsIdempotent(t *testing.T) {
	rolls := []int{10, 3, 4, 6, 4, 2}
	if a, b := FrameTotals(rolls), FrameTotals(rolls); !reflect.DeepEqual(a, b) {
		t.Fatalf("two calls disagree: %v vs %v", a, b)
	}
}

func TestMarksRegularFrames(t *testing.T) {
	cases := []struct {
		name  string
		rolls []int
		want  []string
	}{
		{"strike", []int{10}, []string{"X"}},
		{"spare", []int{7, 3}, []string{"7", "/"}},
		{"gutter spare", []int{0, 10}, []string{"-", "/"}},
		{"open", []int{5, 2}, []string{"5", "2"}},
		{"double gutter", []int{0, 0}, []string{"-", "-"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Marks(3, tc.rolls); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Marks(3, %v) = %v, want %v", tc.rolls, got, tc.want)
			}
		})
	}
}

func TestMarksFinalFrame(t *testing.T) {
	cases := []struct {
		name  string
		rolls []int
		want  []string
	}{
		{"turkey", []int{10, 10, 10}, []string{"X", "X", "X"}},
		{"strike then spare", []int{10, 4, 6}, []string{"X", "4", "/"}},
		{"spare then strike", []int{6, 4, 10}, []string{"6", "/", "X"}},
		{"open final", []int{4, 5}, []string{"4", "5"}},
		{"strike then open pair", []int{10, 3, 4}, []string{"X", "3", "4"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Marks(9, tc.rolls); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Marks(9, %v) = %v, want %v", tc.rolls, got, tc.want)
			}
		})
	}
}
