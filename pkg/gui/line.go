package gui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qnkhuat/chesslan/pkg/game"
	"github.com/qnkhuat/chesslan/pkg/match"
	"github.com/qnkhuat/chesslan/pkg/notation"
)

const lineHelp = `commands:
  e2e4        move a piece
  moves e2    list where the piece on e2 can go
  fen | pgn   print the position or the game
  flip        turn the board around
  draw | new  end in a draw or start over (local games)
  quit        leave
`

// Line plays a match through a prompt. Moves are typed as "e2e4".
type Line struct {
	m     *match.Match
	in    io.Reader
	out   io.Writer
	opts  TextOptions
	tick  time.Duration
	hooks Hooks
	log   *zap.Logger
}

type LineOption func(*Line)

func WithTextOptions(o TextOptions) LineOption  { return func(l *Line) { l.opts = o } }
func WithLineHooks(h Hooks) LineOption          { return func(l *Line) { l.hooks = h } }
func WithLineTick(d time.Duration) LineOption   { return func(l *Line) { l.tick = d } }
func WithLineLogger(log *zap.Logger) LineOption { return func(l *Line) { l.log = log } }

func NewLine(m *match.Match, in io.Reader, out io.Writer, opts ...LineOption) *Line {
	l := &Line{m: m, in: in, out: out, tick: DefaultTick, log: zap.NewNop()}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run reads commands until quit, end of input or ctx is done. Remote moves
// and the clock are polled between commands.
func (l *Line) Run(ctx context.Context) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(l.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	st := newStepper(l.m, l.hooks, l.log)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	st.step(time.Now())
	l.show()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if st.step(now) {
				l.show()
			}
		case cmd, ok := <-lines:
			if !ok {
				return nil
			}
			st.step(time.Now())
			quit := l.handle(strings.TrimSpace(cmd))
			if st.observe() {
				l.show()
			}
			if quit {
				return nil
			}
		}
	}
}

func (l *Line) show() {
	opts := l.opts
	if l.m.Networked() && l.m.LocalColor() == game.Black {
		opts.Flip = !opts.Flip
	}
	fmt.Fprint(l.out, RenderText(l.m.Board(), opts))
	if c := Clocks(l.m); c != "" {
		fmt.Fprintln(l.out, c)
	}
	fmt.Fprintln(l.out, Status(l.m))
}

func (l *Line) handle(cmd string) (quit bool) {
	fields := strings.Fields(strings.ToLower(cmd))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprint(l.out, lineHelp)
	case "fen":
		fmt.Fprintln(l.out, notation.FEN(l.m.Board()))
	case "pgn":
		pgn, err := notation.PGN(l.m.Board())
		if err != nil {
			fmt.Fprintln(l.out, "cannot export:", err)
			return false
		}
		fmt.Fprint(l.out, pgn)
	case "flip":
		l.opts.Flip = !l.opts.Flip
		l.show()
	case "draw":
		if !l.m.Draw() {
			fmt.Fprintln(l.out, "a draw is only possible in a local game in progress")
		}
	case "new":
		if !l.m.Restart() {
			fmt.Fprintln(l.out, "only local games can start over")
		}
	case "moves":
		if len(fields) != 2 {
			fmt.Fprintln(l.out, "usage: moves e2")
			return false
		}
		from, ok := game.ParseCoord(fields[1])
		if !ok {
			fmt.Fprintln(l.out, "no such square:", fields[1])
			return false
		}
		var to []string
		for _, c := range l.m.Board().ValidTargets(from).Coords() {
			to = append(to, c.String())
		}
		if len(to) == 0 {
			fmt.Fprintln(l.out, "no moves from", from)
			return false
		}
		fmt.Fprintln(l.out, strings.Join(to, " "))
	default:
		l.move(fields[0])
	}
	return false
}

func (l *Line) move(s string) {
	mv, err := notation.ParseUCI(s)
	if err != nil {
		fmt.Fprintf(l.out, "unknown command %q, try help\n", s)
		return
	}
	if !l.m.CanMove() {
		fmt.Fprintln(l.out, "not your move")
		return
	}
	if !l.m.Play(mv.From, mv.To) {
		fmt.Fprintln(l.out, "illegal move", mv)
	}
}
