package game

type Piece struct {
	Color     Color
	Kind      Kind
	Pos       Coord
	MoveCount int
}

// Letter is the FEN letter: upper case for White, lower case for Black.
func (p Piece) Letter() byte {
	l := p.Kind.Letter()
	if p.Color == Black {
		l += 'a' - 'A'
	}
	return l
}

func (p Piece) String() string {
	return p.Color.String() + " " + p.Kind.String() + " " + p.Pos.String()
}

var backRank = [numFiles]Kind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

func startingPieces() []Piece {
	pieces := make([]Piece, 0, 32)
	for x := 0; x < numFiles; x++ {
		pieces = append(pieces,
			Piece{Color: White, Kind: backRank[x], Pos: Coord{x, 0}},
			Piece{Color: White, Kind: Pawn, Pos: Coord{x, 1}},
			Piece{Color: Black, Kind: Pawn, Pos: Coord{x, 6}},
			Piece{Color: Black, Kind: backRank[x], Pos: Coord{x, 7}},
		)
	}
	return pieces
}
