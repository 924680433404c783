package game

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// setup builds a position from specs like "Ke1" (White) or "ke8" (Black).
func setup(t *testing.T, turn Color, specs ...string) *Board {
	t.Helper()
	pieces := make([]Piece, 0, len(specs))
	for _, s := range specs {
		kind, ok := KindFromLetter(s[0])
		if !ok {
			t.Fatalf("bad piece letter in %q", s)
		}
		pos, ok := ParseCoord(s[1:])
		if !ok {
			t.Fatalf("bad square in %q", s)
		}
		color := White
		if s[0] >= 'a' {
			color = Black
		}
		pieces = append(pieces, Piece{Color: color, Kind: kind, Pos: pos})
	}
	b, err := NewBoardFromPieces(turn, pieces)
	if err != nil {
		t.Fatalf("NewBoardFromPieces: %v", err)
	}
	return b
}

func sq(t *testing.T, s string) Coord {
	t.Helper()
	c, ok := ParseCoord(s)
	if !ok {
		t.Fatalf("bad square %q", s)
	}
	return c
}

func play(t *testing.T, b *Board, moves ...string) {
	t.Helper()
	for _, m := range moves {
		if !b.ApplyMove(sq(t, m[:2]), sq(t, m[2:])) {
			t.Fatalf("move %s rejected (turn %s, state %s)", m, b.Turn(), b.State())
		}
	}
}

type snapshot struct {
	Squares map[Coord]Piece
	History []Move
	Turn    Color
	State   State
}

func snap(b *Board) snapshot {
	return snapshot{Squares: b.Squares(), History: b.History(), Turn: b.Turn(), State: b.State()}
}

func TestNewBoardStartingPosition(t *testing.T) {
	b := NewBoard()
	if b.Turn() != White || b.State() != Playing {
		t.Fatalf("got turn %s state %s", b.Turn(), b.State())
	}
	if n := len(b.Squares()); n != 32 {
		t.Fatalf("expected 32 pieces, got %d", n)
	}
	for _, c := range []Color{White, Black} {
		if n := len(b.Pieces(c)); n != 16 {
			t.Errorf("%s has %d pieces", c, n)
		}
	}
	if p, ok := b.At(sq(t, "e1")); !ok || p.Kind != King || p.Color != White {
		t.Errorf("e1 holds %v", p)
	}
	if p, ok := b.At(sq(t, "d8")); !ok || p.Kind != Queen || p.Color != Black {
		t.Errorf("d8 holds %v", p)
	}

	total := 0
	for _, p := range b.Pieces(White) {
		total += b.ValidTargets(p.Pos).Len()
	}
	if total != 20 {
		t.Errorf("expected 20 opening moves for White, got %d", total)
	}
}

func TestTurnAlternates(t *testing.T) {
	b := NewBoard()
	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "d2d3", "f8c5"}
	for i, m := range moves {
		play(t, b, m)
		n := i + 1
		if want := n%2 == 0; (b.Turn() == White) != want {
			t.Fatalf("after %d moves turn is %s", n, b.Turn())
		}
		if len(b.History()) != n {
			t.Fatalf("history has %d entries after %d moves", len(b.History()), n)
		}
	}
	want := []Move{{sq(t, "e2"), sq(t, "e4")}, {sq(t, "e7"), sq(t, "e5")}}
	if diff := cmp.Diff(want, b.History()[:2]); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestRejectedMovesDoNotMutate(t *testing.T) {
	tests := []struct {
		name     string
		from, to Coord
	}{
		{"empty origin", Coord{4, 3}, Coord{4, 4}},
		{"wrong turn", Coord{4, 6}, Coord{4, 4}},
		{"illegal destination", Coord{4, 1}, Coord{4, 5}},
		{"friendly capture", Coord{0, 0}, Coord{0, 1}},
		{"origin off board", Coord{-1, 0}, Coord{0, 0}},
		{"destination off board", Coord{1, 0}, Coord{9, 9}},
		{"no-op", Coord{1, 0}, Coord{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoard()
			before := snap(b)
			if b.ApplyMove(tt.from, tt.to) {
				t.Fatalf("move %v->%v accepted", tt.from, tt.to)
			}
			if diff := cmp.Diff(before, snap(b)); diff != "" {
				t.Errorf("board mutated (-before +after):\n%s", diff)
			}
		})
	}
}

func TestPinnedPieceCannotLeaveLine(t *testing.T) {
	b := setup(t, White, "Ke1", "Be2", "re8", "ka8")
	before := snap(b)
	if b.ApplyMove(sq(t, "e2"), sq(t, "d3")) {
		t.Fatal("pinned bishop moved off the e-file")
	}
	if diff := cmp.Diff(before, snap(b)); diff != "" {
		t.Errorf("board mutated (-before +after):\n%s", diff)
	}
	if got := b.ValidTargets(sq(t, "e2")); !got.Empty() {
		t.Errorf("pinned bishop has valid targets %v", got.Coords())
	}
	if !b.ApplyMove(sq(t, "e1"), sq(t, "d1")) {
		t.Error("king step off the pin line rejected")
	}
}

func TestMovingIntoCheckRejected(t *testing.T) {
	b := setup(t, White, "Ke1", "ka8", "rd8")
	if b.ApplyMove(sq(t, "e1"), sq(t, "d1")) {
		t.Fatal("king walked into a rook file")
	}
	if p, _ := b.At(sq(t, "e1")); p.MoveCount != 0 {
		t.Errorf("move count changed on rejected move: %d", p.MoveCount)
	}
}

func TestKingIsNeverCaptured(t *testing.T) {
	// Not reachable through NewBoardFromPieces, which refuses a position
	// where the side not to move is in check.
	b := &Board{turn: White}
	for _, p := range []Piece{
		{Color: White, Kind: King, Pos: Coord{4, 0}},
		{Color: White, Kind: Queen, Pos: Coord{4, 6}},
		{Color: Black, Kind: King, Pos: Coord{4, 7}},
	} {
		pc := p
		b.squares[pc.Pos.X][pc.Pos.Y] = &pc
	}
	if b.ApplyMove(Coord{4, 6}, Coord{4, 7}) {
		t.Fatal("king captured")
	}
	if p, ok := b.At(Coord{4, 7}); !ok || p.Kind != King {
		t.Fatalf("e8 holds %v", p)
	}
}

func TestFoolsMate(t *testing.T) {
	b := NewBoard()
	play(t, b, "f2f3", "e7e5", "g2g4", "d8h4")

	if b.State() != Checkmate {
		t.Fatalf("expected Checkmate, got %s", b.State())
	}
	if b.HasLegalMove(White) {
		t.Error("White still has a legal move")
	}
	if loser, ok := b.Loser(); !ok || loser != White {
		t.Errorf("loser = %s, %v", loser, ok)
	}
	if b.Result() != "0-1" {
		t.Errorf("result %q", b.Result())
	}
	before := snap(b)
	if b.ApplyMove(sq(t, "a2"), sq(t, "a3")) {
		t.Error("move accepted after checkmate")
	}
	if diff := cmp.Diff(before, snap(b)); diff != "" {
		t.Errorf("board mutated after checkmate:\n%s", diff)
	}
}

func TestCheckVersusCheckmate(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
		want  State
	}{
		{"back rank mate", []string{"Ke1", "Ra1", "kh8", "pg7", "ph7"}, Checkmate},
		{"king escapes", []string{"Ke1", "Ra1", "kh8", "pg7"}, Check},
		{"rook blocks", []string{"Ke1", "Ra1", "kh8", "pg7", "ph7", "rb7"}, Check},
		{"bishop captures", []string{"Ke1", "Ra1", "kh8", "pg7", "ph7", "be4"}, Check},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setup(t, White, tt.specs...)
			play(t, b, "a1a8")
			if b.State() != tt.want {
				t.Fatalf("want %s, got %s", tt.want, b.State())
			}
			if !b.IsInCheck(Black) {
				t.Error("black should be in check")
			}
		})
	}
}

func TestCaptureAndMoveCount(t *testing.T) {
	b := NewBoard()
	play(t, b, "e2e4", "d7d5", "e4d5")
	p, ok := b.At(sq(t, "d5"))
	if !ok || p.Color != White || p.Kind != Pawn {
		t.Fatalf("d5 holds %v", p)
	}
	if p.MoveCount != 2 {
		t.Errorf("move count %d", p.MoveCount)
	}
	if n := len(b.Pieces(Black)); n != 15 {
		t.Errorf("black has %d pieces after capture", n)
	}
}

func TestMovedPieceNeverTargetsItself(t *testing.T) {
	b := NewBoard()
	moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6", "b5c6", "d7c6"}
	for _, m := range moves {
		play(t, b, m)
		to := sq(t, m[2:])
		p, _ := b.At(to)
		if LegalTargets(&p, b).Has(to) {
			t.Fatalf("%s targets its own square after %s", p, m)
		}
		if p.Kind == Pawn && LegalTargets(&p, b).Has(sq(t, m[:2])) {
			t.Fatalf("pawn on %s targets the square it came from", to)
		}
	}
}

func TestNewBoardFromPiecesValidation(t *testing.T) {
	tests := []struct {
		name   string
		turn   Color
		pieces []Piece
	}{
		{"no kings", White, nil},
		{"two white kings", White, []Piece{
			{Color: White, Kind: King, Pos: Coord{4, 0}},
			{Color: White, Kind: King, Pos: Coord{3, 0}},
			{Color: Black, Kind: King, Pos: Coord{4, 7}},
		}},
		{"duplicate square", White, []Piece{
			{Color: White, Kind: King, Pos: Coord{4, 0}},
			{Color: Black, Kind: King, Pos: Coord{4, 0}},
		}},
		{"off board", White, []Piece{
			{Color: White, Kind: King, Pos: Coord{4, 8}},
			{Color: Black, Kind: King, Pos: Coord{4, 7}},
		}},
		{"side not to move in check", White, []Piece{
			{Color: White, Kind: King, Pos: Coord{4, 0}},
			{Color: White, Kind: Rook, Pos: Coord{4, 3}},
			{Color: Black, Kind: King, Pos: Coord{4, 7}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBoardFromPieces(tt.turn, tt.pieces); !errors.Is(err, ErrInvalidPosition) {
				t.Fatalf("expected ErrInvalidPosition, got %v", err)
			}
		})
	}
}

func TestTimeOutAndDraw(t *testing.T) {
	b := NewBoard()
	if !b.TimeOut(Black) {
		t.Fatal("TimeOut refused")
	}
	if b.State() != TimedOut || b.Result() != "1-0" {
		t.Fatalf("state %s result %s", b.State(), b.Result())
	}
	if b.ApplyMove(sq(t, "e2"), sq(t, "e4")) {
		t.Error("move accepted after time out")
	}
	if b.DeclareDraw() {
		t.Error("draw declared on a finished game")
	}

	d := NewBoard()
	if !d.DeclareDraw() || d.State() != Draw || d.Result() != "1/2-1/2" {
		t.Fatalf("draw: state %s result %s", d.State(), d.Result())
	}
	if _, ok := d.Loser(); ok {
		t.Error("draw has a loser")
	}
}

func TestStalemateIsNotDerived(t *testing.T) {
	b := setup(t, White, "Kf7", "Qb6", "kh8")
	play(t, b, "b6g6")
	if b.State() != Playing {
		t.Fatalf("expected Playing, got %s", b.State())
	}
	if b.HasLegalMove(Black) {
		t.Error("black should have no legal move")
	}
}
