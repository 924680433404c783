package gui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/qnkhuat/chesslan/pkg/game"
	"github.com/qnkhuat/chesslan/pkg/match"
)

const (
	numrows = 8
	numcols = 8
)

// TUI is the full screen board. Every access to the match happens on the
// tview event goroutine.
type TUI struct {
	App     *tview.Application
	Board   *tview.Table
	Status  *tview.TextView
	Moves   *tview.TextView
	Layout  *tview.Grid
	menu    *tview.Flex
	m       *match.Match
	theme   Theme
	flip    bool
	tick    time.Duration
	hooks   Hooks
	log     *zap.Logger
	stepper *stepper

	selecting     bool
	lastSelection game.Coord
	hints         game.Targets
}

type TUIOption func(*TUI)

func WithTheme(t Theme) TUIOption        { return func(u *TUI) { u.theme = t } }
func WithFlip(flip bool) TUIOption       { return func(u *TUI) { u.flip = flip } }
func WithHooks(h Hooks) TUIOption        { return func(u *TUI) { u.hooks = h } }
func WithTick(d time.Duration) TUIOption { return func(u *TUI) { u.tick = d } }
func WithLogger(l *zap.Logger) TUIOption { return func(u *TUI) { u.log = l } }

func NewTUI(m *match.Match, opts ...TUIOption) *TUI {
	u := &TUI{
		App:    tview.NewApplication(),
		Board:  tview.NewTable(),
		Status: tview.NewTextView().SetDynamicColors(true),
		Moves:  tview.NewTextView().SetScrollable(true),
		m:      m,
		theme:  ThemeBasic,
		tick:   DefaultTick,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(u)
	}
	if m.Networked() && m.LocalColor() == game.Black {
		u.flip = !u.flip
	}
	u.stepper = newStepper(m, u.hooks, u.log)

	u.menu = tview.NewFlex().SetDirection(tview.FlexRow)
	for _, a := range actions(m.Networked()) {
		a := a
		u.menu.AddItem(tview.NewButton(string(a)).SetSelectedFunc(func() { u.do(a) }), 1, 0, false)
		u.menu.AddItem(tview.NewBox(), 1, 0, false)
	}
	u.Moves.SetBorder(true).SetTitle("Moves")

	u.Layout = tview.NewGrid().
		SetRows(-1, 2, 20, -1).
		SetColumns(-1, 30, 20, -1).
		AddItem(u.Status, 1, 1, 1, 2, 0, 0, false).
		AddItem(u.Board, 2, 1, 1, 1, 0, 0, true).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(u.menu, 0, 1, false).
			AddItem(u.Moves, 0, 2, false), 2, 2, 1, 1, 0, 0, false)

	u.initTable()
	u.render()
	return u
}

// Run blocks until the user exits or ctx is done.
func (u *TUI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ticker := time.NewTicker(u.tick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				u.App.Stop()
				return
			case now := <-ticker.C:
				u.App.QueueUpdateDraw(func() {
					if u.stepper.step(now) {
						u.render()
					}
				})
			}
		}
	}()

	return u.App.SetRoot(u.Layout, true).EnableMouse(true).Run()
}

func (u *TUI) do(a Action) {
	switch a {
	case ActionExit:
		u.App.Stop()
		return
	case ActionFlip:
		u.flip = !u.flip
	case ActionNewGame:
		u.m.Restart()
	case ActionDraw:
		u.m.Draw()
	}
	u.clearSelection()
	u.stepper.observe()
	u.render()
	u.App.SetFocus(u.Board)
}

func (u *TUI) initTable() {
	u.Board.SetSelectable(true, true)
	u.Board.Select(0, 1).SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEscape:
			u.App.Stop()
		case tcell.KeyTab:
			u.App.SetFocus(u.menu)
		}
	}).SetSelectedFunc(func(row, col int) {
		c, ok := u.posToCoord(row, col)
		if !ok {
			return
		}
		u.selectSquare(c)
		u.stepper.observe()
		u.render()
	})
}

func (u *TUI) selectSquare(c game.Coord) {
	if !u.selecting {
		if !u.m.CanMove() {
			return
		}
		p, ok := u.m.Board().At(c)
		if !ok || p.Color != u.m.Board().Turn() {
			return
		}
		u.selecting = true
		u.lastSelection = c
		u.hints = u.m.Board().ValidTargets(c)
		return
	}

	from := u.lastSelection
	u.clearSelection()
	if c == from {
		return
	}
	if !u.m.Play(from, c) {
		u.log.Debug("illegal move", zap.Stringer("from", from), zap.Stringer("to", c))
		return
	}
	u.log.Debug("move", zap.Stringer("from", from), zap.Stringer("to", c))
}

func (u *TUI) clearSelection() {
	u.selecting = false
	u.lastSelection = game.Coord{}
	u.hints = 0
}

func (u *TUI) render() {
	b := u.m.Board()
	checked := checkedKing(b)
	for r := 0; r <= numrows; r++ {
		for f := 0; f <= numcols; f++ {
			switch {
			case f == 0 && r != numrows:
				c, _ := u.posToCoord(r, 1)
				u.Board.SetCell(r, f, tview.NewTableCell(fmt.Sprintf("%d", c.Y+1)).
					SetTextColor(u.theme.Rank).
					SetAlign(tview.AlignCenter).
					SetSelectable(false))
				continue
			case r == numrows && f > 0:
				c, _ := u.posToCoord(0, f)
				u.Board.SetCell(r, f, tview.NewTableCell(fmt.Sprintf(" %c", 'a'+c.X)).
					SetTextColor(u.theme.File).
					SetAlign(tview.AlignCenter).
					SetSelectable(false))
				continue
			case r == numrows && f == 0:
				u.Board.SetCell(r, f, tview.NewTableCell("").SetSelectable(false))
				continue
			}

			c, _ := u.posToCoord(r, f)
			text, fg := "  ", u.theme.White
			if p, ok := b.At(c); ok {
				text = " " + string(pieceRune(p))
				if p.Color == game.Black {
					fg = u.theme.Black
				}
			}
			u.Board.SetCell(r, f, tview.NewTableCell(text).
				SetAlign(tview.AlignCenter).
				SetTextColor(fg).
				SetBackgroundColor(u.squareColor(c, checked)))
		}
	}

	status := Status(u.m)
	if clocks := Clocks(u.m); clocks != "" {
		status += "   " + clocks
	}
	u.Status.SetTextColor(u.theme.Msg).SetText(status)
	u.Moves.SetText(MoveList(b)).ScrollToEnd()
}

func (u *TUI) squareColor(c game.Coord, checked *game.Coord) tcell.Color {
	switch {
	case u.selecting && c == u.lastSelection:
		return u.theme.SquareHigh
	case u.hints.Has(c):
		return u.theme.SquareHint
	case checked != nil && *checked == c:
		return u.theme.SquareCheck
	case (c.X+c.Y)%2 == 0:
		return u.theme.SquareDark
	default:
		return u.theme.SquareLight
	}
}

// posToCoord maps a table cell to a square. Column 0 holds the rank labels
// and the last row the file labels.
func (u *TUI) posToCoord(row, col int) (game.Coord, bool) {
	if row < 0 || row >= numrows || col < 1 || col > numcols {
		return game.Coord{}, false
	}
	x, y := col-1, numrows-row-1
	if u.flip {
		x, y = numcols-col, row
	}
	return game.Coord{X: x, Y: y}, true
}

var pieceRunes = map[game.Color]map[game.Kind]rune{
	game.White: {game.King: '♔', game.Queen: '♕', game.Rook: '♖', game.Bishop: '♗', game.Knight: '♘', game.Pawn: '♙'},
	game.Black: {game.King: '♚', game.Queen: '♛', game.Rook: '♜', game.Bishop: '♝', game.Knight: '♞', game.Pawn: '♟'},
}

func pieceRune(p game.Piece) rune {
	return pieceRunes[p.Color][p.Kind]
}
