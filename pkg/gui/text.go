package gui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/qnkhuat/chesslan/pkg/game"
	"github.com/qnkhuat/chesslan/pkg/match"
)

// TextOptions controls RenderText.
type TextOptions struct {
	// Flip draws the board from Black's side.
	Flip bool
	// Color enables ANSI colors. Without it empty squares print as '.'.
	Color bool
	// Selected marks the square a move starts from.
	Selected *game.Coord
	// Hints marks the squares the selected piece can reach.
	Hints game.Targets
}

// RenderText draws the board as text, rank 8 on top unless flipped.
func RenderText(b *game.Board, opts TextOptions) string {
	p := newPalette(opts.Color)
	checked := checkedKing(b)

	var sb strings.Builder
	for i := 0; i < 8; i++ {
		y := 7 - i
		if opts.Flip {
			y = i
		}
		cells := make([]string, 8)
		for j := range cells {
			x := j
			if opts.Flip {
				x = 7 - j
			}
			cells[j] = cell(b, game.Coord{X: x, Y: y}, p, opts, checked)
		}
		sep := ""
		if !opts.Color {
			sep = " "
		}
		sb.WriteString(p.paint(fmt.Sprintf("%d ", y+1), p.label...))
		sb.WriteString(strings.Join(cells, sep))
		sb.WriteByte('\n')
	}

	files := make([]string, 8)
	for j := range files {
		x := j
		if opts.Flip {
			x = 7 - j
		}
		files[j] = string(rune('a' + x))
	}
	if opts.Color {
		sb.WriteString("   " + p.paint(strings.Join(files, "  "), p.label...) + "\n")
	} else {
		sb.WriteString("  " + strings.Join(files, " ") + "\n")
	}
	return sb.String()
}

func cell(b *game.Board, c game.Coord, p palette, opts TextOptions, checked *game.Coord) string {
	piece, occupied := b.At(c)
	if !opts.Color {
		if !occupied {
			return "."
		}
		return string(piece.Letter())
	}

	bg := p.light
	if (c.X+c.Y)%2 == 0 {
		bg = p.dark
	}
	switch {
	case opts.Selected != nil && *opts.Selected == c:
		bg = p.high
	case opts.Hints.Has(c):
		bg = p.hint
	case checked != nil && *checked == c:
		bg = p.check
	}

	if !occupied {
		return p.paint("   ", bg)
	}
	fg := p.white
	if piece.Color == game.Black {
		fg = p.black
	}
	attrs := append([]color.Attribute{bg}, fg...)
	return p.paint(" "+string(piece.Letter())+" ", attrs...)
}

func checkedKing(b *game.Board) *game.Coord {
	s := b.State()
	if s != game.Check && s != game.Checkmate {
		return nil
	}
	for _, pc := range b.Pieces(b.Turn()) {
		if pc.Kind == game.King {
			pos := pc.Pos
			return &pos
		}
	}
	return nil
}

// Status is a one line summary of the match for the user.
func Status(m *match.Match) string {
	b := m.Board()
	switch {
	case m.Err() != nil:
		return "Game aborted: " + m.Err().Error()
	case b.State() == game.Checkmate:
		loser, _ := b.Loser()
		return fmt.Sprintf("Checkmate. %s wins %s", loser.Opposite(), b.Result())
	case b.State() == game.TimedOut:
		loser, _ := b.Loser()
		return fmt.Sprintf("%s ran out of time. %s wins %s", loser, loser.Opposite(), b.Result())
	case b.State() == game.Draw:
		return "Draw " + b.Result()
	case !m.Connected():
		return "Connection lost"
	}

	var s string
	if m.Networked() {
		if b.Turn() == m.LocalColor() {
			s = fmt.Sprintf("Your move (%s)", b.Turn())
		} else {
			s = fmt.Sprintf("Waiting for %s", b.Turn())
		}
	} else {
		s = fmt.Sprintf("%s to move", b.Turn())
	}
	if b.State() == game.Check {
		s = "Check! " + s
	}
	return s
}

// Clocks formats both clocks, or returns "" for untimed matches.
func Clocks(m *match.Match) string {
	cl := m.Clock()
	if cl == nil {
		return ""
	}
	return fmt.Sprintf("White %s  Black %s", cl.Format(game.White), cl.Format(game.Black))
}

// MoveList renders the history as numbered pairs, one per line.
func MoveList(b *game.Board) string {
	var sb strings.Builder
	for i, mv := range b.History() {
		if i%2 == 0 {
			fmt.Fprintf(&sb, "%d. %s", i/2+1, mv)
		} else {
			fmt.Fprintf(&sb, " %s\n", mv)
		}
	}
	if len(b.History())%2 == 1 {
		sb.WriteByte('\n')
	}
	return sb.String()
}
