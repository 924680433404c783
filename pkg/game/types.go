package game

import "fmt"

type Color int8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "Unknown"
	}
}

func (c Color) Opposite() Color {
	if c == White {
		return Black
	}
	return White
}

// forward is the rank direction pawns of this color advance in.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) pawnRank() int {
	if c == White {
		return 1
	}
	return 6
}

type Kind int8

const (
	Pawn Kind = iota
	Knight
	Bishop
	Rook
	Queen
	King
)

func (k Kind) String() string {
	switch k {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "Unknown"
	}
}

// Letter returns the FEN letter of the kind, upper case.
func (k Kind) Letter() byte {
	return "PNBRQK"[k]
}

// KindFromLetter is the inverse of Letter and accepts either case.
func KindFromLetter(b byte) (Kind, bool) {
	switch b {
	case 'P', 'p':
		return Pawn, true
	case 'N', 'n':
		return Knight, true
	case 'B', 'b':
		return Bishop, true
	case 'R', 'r':
		return Rook, true
	case 'Q', 'q':
		return Queen, true
	case 'K', 'k':
		return King, true
	}
	return 0, false
}

const (
	numFiles = 8
	numRanks = 8
)

// Coord addresses a square by file (X) and rank index (Y), both in [0,7].
// (0,0) is a1.
type Coord struct {
	X, Y int
}

func (c Coord) Valid() bool {
	return c.X >= 0 && c.X < numFiles && c.Y >= 0 && c.Y < numRanks
}

func (c Coord) Add(dx, dy int) Coord {
	return Coord{c.X + dx, c.Y + dy}
}

func (c Coord) index() uint {
	return uint(c.Y*numFiles + c.X)
}

func (c Coord) String() string {
	if !c.Valid() {
		return fmt.Sprintf("(%d,%d)", c.X, c.Y)
	}
	return string([]byte{byte('a' + c.X), byte('1' + c.Y)})
}

// ParseCoord reads an algebraic square such as "e4".
func ParseCoord(s string) (Coord, bool) {
	if len(s) != 2 {
		return Coord{}, false
	}
	c := Coord{X: int(s[0]) - 'a', Y: int(s[1]) - '1'}
	if !c.Valid() {
		return Coord{}, false
	}
	return c, true
}

// Move is one entry of a board's history.
type Move struct {
	From Coord
	To   Coord
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}
