package game

import (
	"errors"
	"fmt"
)

var ErrInvalidPosition = errors.New("invalid position")

// Board is the authoritative game state. It is not safe for concurrent use:
// the driver that owns it is the only goroutine allowed to call into it.
type Board struct {
	squares [numFiles][numRanks]*Piece
	turn    Color
	state   State
	loser   Color
	history []Move
}

func NewBoard() *Board {
	b, err := NewBoardFromPieces(White, startingPieces())
	if err != nil {
		panic(err)
	}
	return b
}

// NewBoardFromPieces builds a position from scratch. Each color must have
// exactly one king and the side that is not to move must not be in check.
func NewBoardFromPieces(turn Color, pieces []Piece) (*Board, error) {
	if turn != White && turn != Black {
		return nil, fmt.Errorf("%w: bad turn %d", ErrInvalidPosition, turn)
	}
	b := &Board{turn: turn}
	var kings [2]int
	for _, p := range pieces {
		switch {
		case p.Color != White && p.Color != Black:
			return nil, fmt.Errorf("%w: bad color %d", ErrInvalidPosition, p.Color)
		case p.Kind < Pawn || p.Kind > King:
			return nil, fmt.Errorf("%w: bad kind %d", ErrInvalidPosition, p.Kind)
		case !p.Pos.Valid():
			return nil, fmt.Errorf("%w: %s off board", ErrInvalidPosition, p.Pos)
		case p.MoveCount < 0:
			return nil, fmt.Errorf("%w: negative move count at %s", ErrInvalidPosition, p.Pos)
		case b.at(p.Pos) != nil:
			return nil, fmt.Errorf("%w: %s occupied twice", ErrInvalidPosition, p.Pos)
		}
		pc := p
		b.squares[pc.Pos.X][pc.Pos.Y] = &pc
		if pc.Kind == King {
			kings[pc.Color]++
		}
	}
	if kings[White] != 1 || kings[Black] != 1 {
		return nil, fmt.Errorf("%w: want one king per side, got %d white %d black",
			ErrInvalidPosition, kings[White], kings[Black])
	}
	if b.IsInCheck(turn.Opposite()) {
		return nil, fmt.Errorf("%w: %s is in check but not to move", ErrInvalidPosition, turn.Opposite())
	}
	b.state = b.evaluate(turn)
	return b, nil
}

func (b *Board) at(c Coord) *Piece {
	if !c.Valid() {
		return nil
	}
	return b.squares[c.X][c.Y]
}

func (b *Board) Turn() Color  { return b.turn }
func (b *Board) State() State { return b.state }

// Loser reports the side that lost by checkmate or on time.
func (b *Board) Loser() (Color, bool) {
	if b.state == Checkmate || b.state == TimedOut {
		return b.loser, true
	}
	return 0, false
}

func (b *Board) Result() string {
	switch b.state {
	case Checkmate, TimedOut:
		if b.loser == White {
			return "0-1"
		}
		return "1-0"
	case Draw:
		return "1/2-1/2"
	}
	return "*"
}

func (b *Board) History() []Move {
	return append([]Move(nil), b.history...)
}

// At returns a copy of the piece on c.
func (b *Board) At(c Coord) (Piece, bool) {
	p := b.at(c)
	if p == nil {
		return Piece{}, false
	}
	return *p, true
}

// Squares returns a copy of every occupied square.
func (b *Board) Squares() map[Coord]Piece {
	out := make(map[Coord]Piece, 32)
	b.each(func(p *Piece) { out[p.Pos] = *p })
	return out
}

// Pieces returns copies of all pieces of color c, ordered a1..h8.
func (b *Board) Pieces(c Color) []Piece {
	var out []Piece
	b.each(func(p *Piece) {
		if p.Color == c {
			out = append(out, *p)
		}
	})
	return out
}

func (b *Board) each(fn func(*Piece)) {
	for y := 0; y < numRanks; y++ {
		for x := 0; x < numFiles; x++ {
			if p := b.squares[x][y]; p != nil {
				fn(p)
			}
		}
	}
}

func (b *Board) live(c Color) []*Piece {
	var out []*Piece
	b.each(func(p *Piece) {
		if p.Color == c {
			out = append(out, p)
		}
	})
	return out
}

func (b *Board) king(c Color) *Piece {
	var k *Piece
	b.each(func(p *Piece) {
		if p.Kind == King && p.Color == c {
			k = p
		}
	})
	return k
}

// undo holds everything needed to put the board back the way it was before
// relocate.
type undo struct {
	piece    *Piece
	from     Coord
	captured *Piece
	turn     Color
	state    State
	loser    Color
	histLen  int
}

func (b *Board) relocate(p *Piece, to Coord) undo {
	u := undo{
		piece:    p,
		from:     p.Pos,
		captured: b.at(to),
		turn:     b.turn,
		state:    b.state,
		loser:    b.loser,
		histLen:  len(b.history),
	}
	b.squares[p.Pos.X][p.Pos.Y] = nil
	b.squares[to.X][to.Y] = p
	p.Pos = to
	p.MoveCount++
	return u
}

func (b *Board) rollback(u undo) {
	p := u.piece
	b.squares[p.Pos.X][p.Pos.Y] = u.captured
	if u.captured != nil {
		u.captured.Pos = p.Pos
	}
	b.squares[u.from.X][u.from.Y] = p
	p.Pos = u.from
	p.MoveCount--
	b.turn = u.turn
	b.state = u.state
	b.loser = u.loser
	b.history = b.history[:u.histLen]
}

// candidates lists the pseudo-legal destinations of p that do not capture a
// king. Kings are never removed from the board.
func (b *Board) candidates(p *Piece) Targets {
	t := LegalTargets(p, b)
	for _, c := range t.Coords() {
		if occ := b.at(c); occ != nil && occ.Kind == King {
			t = t.Remove(c)
		}
	}
	return t
}

// leavesKingSafe trial-applies p to 'to' and reports whether p's own king is
// out of check afterwards. The board is unchanged on return.
func (b *Board) leavesKingSafe(p *Piece, to Coord) bool {
	u := b.relocate(p, to)
	defer b.rollback(u)
	return !b.IsInCheck(p.Color)
}

// ApplyMove moves the piece on from to to if that is legal for the side to
// move. A rejected move leaves the board untouched.
func (b *Board) ApplyMove(from, to Coord) (ok bool) {
	if b.state.Terminal() || !from.Valid() || !to.Valid() {
		return false
	}
	p := b.at(from)
	if p == nil || p.Color != b.turn {
		return false
	}
	if !b.candidates(p).Has(to) {
		return false
	}

	u := b.relocate(p, to)
	defer func() {
		if r := recover(); r != nil {
			b.rollback(u)
			ok = false
		}
	}()

	if b.IsInCheck(p.Color) {
		b.rollback(u)
		return false
	}

	b.history = append(b.history, Move{From: from, To: to})
	b.turn = b.turn.Opposite()
	b.state = b.evaluate(b.turn)
	return true
}

// IsInCheck reports whether any enemy piece attacks the king of color c.
func (b *Board) IsInCheck(c Color) bool {
	k := b.king(c)
	if k == nil {
		return false
	}
	for _, p := range b.live(c.Opposite()) {
		if LegalTargets(p, b).Has(k.Pos) {
			return true
		}
	}
	return false
}

// HasLegalMove reports whether color c has at least one move that does not
// leave its own king in check.
func (b *Board) HasLegalMove(c Color) bool {
	for _, p := range b.live(c) {
		for _, to := range b.candidates(p).Coords() {
			if b.leavesKingSafe(p, to) {
				return true
			}
		}
	}
	return false
}

// ValidTargets is LegalTargets of the piece on from, minus the squares that
// would leave its own king in check.
func (b *Board) ValidTargets(from Coord) Targets {
	p := b.at(from)
	if p == nil {
		return 0
	}
	var t Targets
	for _, to := range b.candidates(p).Coords() {
		if b.leavesKingSafe(p, to) {
			t = t.Add(to)
		}
	}
	return t
}

func (b *Board) evaluate(toMove Color) State {
	if !b.IsInCheck(toMove) {
		return Playing
	}
	if b.HasLegalMove(toMove) {
		return Check
	}
	b.loser = toMove
	return Checkmate
}

// TimeOut ends the game with c losing on time.
func (b *Board) TimeOut(c Color) bool {
	if b.state.Terminal() || (c != White && c != Black) {
		return false
	}
	b.state = TimedOut
	b.loser = c
	return true
}

// DeclareDraw ends the game drawn. The engine never derives a draw on its own.
func (b *Board) DeclareDraw() bool {
	if b.state.Terminal() {
		return false
	}
	b.state = Draw
	return true
}
