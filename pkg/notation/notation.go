// Package notation converts boards and moves to and from standard chess
// text formats (FEN, UCI coordinate moves and PGN).
package notation

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/notnil/chess"

	"github.com/qnkhuat/chesslan/pkg/game"
)

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrInvalidMove = errors.New("invalid move text")
	ErrIllegalMove = errors.New("move not replayable")
)

var pieceTable = map[game.Color]map[game.Kind]nchess.Piece{
	game.White: {
		game.Pawn: nchess.WhitePawn, game.Knight: nchess.WhiteKnight, game.Bishop: nchess.WhiteBishop,
		game.Rook: nchess.WhiteRook, game.Queen: nchess.WhiteQueen, game.King: nchess.WhiteKing,
	},
	game.Black: {
		game.Pawn: nchess.BlackPawn, game.Knight: nchess.BlackKnight, game.Bishop: nchess.BlackBishop,
		game.Rook: nchess.BlackRook, game.Queen: nchess.BlackQueen, game.King: nchess.BlackKing,
	},
}

var kindTable = map[nchess.PieceType]game.Kind{
	nchess.Pawn:   game.Pawn,
	nchess.Knight: game.Knight,
	nchess.Bishop: game.Bishop,
	nchess.Rook:   game.Rook,
	nchess.Queen:  game.Queen,
	nchess.King:   game.King,
}

func toSquare(c game.Coord) nchess.Square {
	return nchess.Square(c.Y*8 + c.X)
}

func fromSquare(sq nchess.Square) game.Coord {
	return game.Coord{X: int(sq.File()), Y: int(sq.Rank())}
}

// FEN encodes the position. Castling and en passant fields are always "-"
// since the engine implements neither.
func FEN(b *game.Board) string {
	m := make(map[nchess.Square]nchess.Piece, 32)
	for c, p := range b.Squares() {
		m[toSquare(c)] = pieceTable[p.Color][p.Kind]
	}
	turn := "w"
	if b.Turn() == game.Black {
		turn = "b"
	}
	return fmt.Sprintf("%s %s - - 0 %d", nchess.NewBoard(m).String(), turn, len(b.History())/2+1)
}

// ParseFEN builds a board from a FEN string. Only piece placement and side
// to move are used; move counts of the pieces start at zero.
func ParseFEN(fen string) (b *game.Board, err error) {
	// The parser assumes both kings exist and can panic on boards that
	// lack one.
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %v", ErrInvalidFEN, r)
		}
	}()

	opt, err := nchess.FEN(strings.TrimSpace(fen))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := nchess.NewGame(opt).Position()

	var pieces []game.Piece
	for sq, p := range pos.Board().SquareMap() {
		kind, ok := kindTable[p.Type()]
		if !ok {
			continue
		}
		color := game.White
		if p.Color() == nchess.Black {
			color = game.Black
		}
		pieces = append(pieces, game.Piece{Color: color, Kind: kind, Pos: fromSquare(sq)})
	}

	turn := game.White
	if pos.Turn() == nchess.Black {
		turn = game.Black
	}
	b, err = game.NewBoardFromPieces(turn, pieces)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	return b, nil
}

// ParseUCI reads a coordinate move such as "e2e4".
func ParseUCI(s string) (game.Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 {
		return game.Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	from, ok1 := game.ParseCoord(s[:2])
	to, ok2 := game.ParseCoord(s[2:])
	if !ok1 || !ok2 {
		return game.Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	return game.Move{From: from, To: to}, nil
}

type Tag struct {
	Key, Value string
}

// PGN replays the history of b from the standard starting position and
// renders it with SAN move text.
func PGN(b *game.Board, tags ...Tag) (string, error) {
	g := nchess.NewGame()
	var moves []string
	for i, m := range b.History() {
		pos := g.Position()
		mv, err := nchess.UCINotation{}.Decode(pos, m.String())
		if err != nil {
			return "", fmt.Errorf("%w: ply %d %s: %v", ErrIllegalMove, i+1, m, err)
		}
		if err := g.Move(mv); err != nil {
			return "", fmt.Errorf("%w: ply %d %s: %v", ErrIllegalMove, i+1, m, err)
		}
		played := g.Moves()[len(g.Moves())-1]
		san := nchess.AlgebraicNotation{}.Encode(pos, played)
		if i%2 == 0 {
			san = fmt.Sprintf("%d. %s", i/2+1, san)
		}
		moves = append(moves, san)
	}

	var sb strings.Builder
	for _, t := range tags {
		fmt.Fprintf(&sb, "[%s %q]\n", t.Key, t.Value)
	}
	fmt.Fprintf(&sb, "[Result %q]\n\n", b.Result())
	moves = append(moves, b.Result())
	sb.WriteString(strings.Join(moves, " "))
	sb.WriteByte('\n')
	return sb.String(), nil
}
