package game

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func squares(t *testing.T, ts Targets) []string {
	t.Helper()
	out := make([]string, 0, ts.Len())
	for _, c := range ts.Coords() {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out
}

func TestLegalTargets(t *testing.T) {
	tests := []struct {
		name  string
		turn  Color
		specs []string
		from  string
		want  []string
	}{
		{
			name:  "pawn double step from start",
			specs: []string{"Ke1", "ke8", "Pd2"},
			from:  "d2",
			want:  []string{"d3", "d4"},
		},
		{
			name:  "pawn double step blocked on far square",
			specs: []string{"Ke1", "ke8", "Pd2", "nd4"},
			from:  "d2",
			want:  []string{"d3"},
		},
		{
			name:  "pawn blocked directly",
			specs: []string{"Ke1", "ke8", "Pd2", "nd3"},
			from:  "d2",
			want:  []string{},
		},
		{
			name:  "pawn captures diagonally only enemies",
			specs: []string{"Ke1", "ke8", "Pd4", "pc5", "Ne5"},
			from:  "d4",
			want:  []string{"c5", "d5"},
		},
		{
			name:  "black pawn moves down",
			turn:  Black,
			specs: []string{"Ke1", "ke8", "pa7", "Nb6"},
			from:  "a7",
			want:  []string{"a5", "a6", "b6"},
		},
		{
			name:  "pawn on last rank is stuck",
			specs: []string{"Ke1", "ke8", "Pa8"},
			from:  "a8",
			want:  []string{},
		},
		{
			name:  "knight in corner",
			specs: []string{"Ke1", "ke8", "Na1"},
			from:  "a1",
			want:  []string{"b3", "c2"},
		},
		{
			name:  "knight skips friendly squares",
			specs: []string{"Ke1", "ke8", "Ng1", "Pf3", "ph3"},
			from:  "g1",
			want:  []string{"e2", "h3"},
		},
		{
			name:  "rook stops at friend and enemy",
			specs: []string{"Ke1", "ke8", "Ra1", "Pa3", "pc1"},
			from:  "a1",
			want:  []string{"a2", "b1", "c1"},
		},
		{
			name:  "bishop rays",
			specs: []string{"Ke1", "ke8", "Bc1", "Pd2"},
			from:  "c1",
			want:  []string{"a3", "b2"},
		},
		{
			name:  "queen combines rays",
			specs: []string{"Kh1", "kh8", "Qa1", "Pa2", "Pb1", "pc3"},
			from:  "a1",
			want:  []string{"b2", "c3"},
		},
		{
			name:  "king steps",
			specs: []string{"Ka1", "ke8", "Pa2", "pb2"},
			from:  "a1",
			want:  []string{"b1", "b2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setup(t, tt.turn, tt.specs...)
			p := b.at(sq(t, tt.from))
			if p == nil {
				t.Fatalf("no piece on %s", tt.from)
			}
			got := squares(t, LegalTargets(p, b))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("targets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLegalTargetsIsPure(t *testing.T) {
	b := NewBoard()
	before := snap(b)
	for _, c := range []Color{White, Black} {
		for _, p := range b.live(c) {
			LegalTargets(p, b)
		}
	}
	if diff := cmp.Diff(before, snap(b)); diff != "" {
		t.Errorf("generation mutated the board:\n%s", diff)
	}
	if LegalTargets(nil, b) != 0 || LegalTargets(&Piece{Kind: Rook, Pos: Coord{8, 0}}, b) != 0 {
		t.Error("invalid input produced targets")
	}
}

func TestTargetsSet(t *testing.T) {
	var ts Targets
	ts = ts.Add(Coord{0, 0}).Add(Coord{7, 7}).Add(Coord{8, 8}).Add(Coord{3, 4})
	if ts.Len() != 3 {
		t.Fatalf("len %d", ts.Len())
	}
	want := []Coord{{0, 0}, {3, 4}, {7, 7}}
	if diff := cmp.Diff(want, ts.Coords()); diff != "" {
		t.Errorf("coords mismatch (-want +got):\n%s", diff)
	}
	if ts.Has(Coord{-1, 0}) || !ts.Has(Coord{3, 4}) {
		t.Error("Has is wrong")
	}
	if ts.Remove(Coord{3, 4}).Has(Coord{3, 4}) {
		t.Error("Remove kept the square")
	}
}

func TestParseCoord(t *testing.T) {
	for _, s := range []string{"a1", "h8", "e4"} {
		c, ok := ParseCoord(s)
		if !ok || c.String() != s {
			t.Errorf("ParseCoord(%q) = %v, %v", s, c, ok)
		}
	}
	for _, s := range []string{"", "i1", "a9", "a0", "e44"} {
		if _, ok := ParseCoord(s); ok {
			t.Errorf("ParseCoord(%q) accepted", s)
		}
	}
}
