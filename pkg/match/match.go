// Package match owns one game as the driver sees it: the board, the link
// to the remote side when playing over the network, and an optional clock.
package match

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/qnkhuat/chesslan/pkg/game"
)

// ErrDesync means the remote side sent a move this board cannot apply. The
// two boards no longer agree and the link has been closed.
var ErrDesync = errors.New("remote move rejected, boards out of sync")

// Link is the part of a network session a match needs. *lan.Session
// satisfies it.
type Link interface {
	SendMove(from, to game.Coord) bool
	PendingMove() (game.Move, bool)
	Connected() bool
	Color() game.Color
	Close()
}

type Option func(*Match)

// WithSession plays the match against a remote side.
func WithSession(l Link) Option { return func(m *Match) { m.link = l } }

func WithClock(c *game.Clock) Option { return func(m *Match) { m.clock = c } }

func WithLogger(l *zap.Logger) Option {
	return func(m *Match) {
		if l != nil {
			m.log = l
		}
	}
}

// Match is not safe for concurrent use. The driver's loop owns it.
type Match struct {
	board *game.Board
	link  Link
	clock *game.Clock
	log   *zap.Logger
	err   error
}

func New(board *game.Board, opts ...Option) *Match {
	if board == nil {
		board = game.NewBoard()
	}
	m := &Match{board: board, log: zap.NewNop()}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Match) Board() *game.Board { return m.board }
func (m *Match) Clock() *game.Clock { return m.clock }
func (m *Match) Networked() bool    { return m.link != nil }

// LocalColor is the side this process plays. Local games play both sides
// and report the side to move.
func (m *Match) LocalColor() game.Color {
	if m.link == nil {
		return m.board.Turn()
	}
	return m.link.Color()
}

// Connected is always true for local games.
func (m *Match) Connected() bool {
	return m.link == nil || m.link.Connected()
}

// Err returns the error that ended the link, if any.
func (m *Match) Err() error { return m.err }

// CanMove reports whether local input may move now.
func (m *Match) CanMove() bool {
	if m.board.State().Terminal() {
		return false
	}
	if m.link == nil {
		return true
	}
	return m.link.Connected() && m.board.Turn() == m.link.Color()
}

// Play applies a local move and forwards it to the remote side.
func (m *Match) Play(from, to game.Coord) bool {
	if !m.CanMove() {
		return false
	}
	if !m.board.ApplyMove(from, to) {
		return false
	}
	m.press()
	m.log.Debug("played", zap.Stringer("from", from), zap.Stringer("to", to),
		zap.Stringer("state", m.board.State()))
	if m.link != nil && !m.link.SendMove(from, to) {
		m.log.Warn("could not send move, link lost", zap.Stringer("from", from), zap.Stringer("to", to))
	}
	return true
}

// Sync takes at most one move from the link and applies it. It is called
// once per driver iteration before local input is handled.
func (m *Match) Sync() error {
	if m.link == nil || m.err != nil {
		return m.err
	}
	mv, ok := m.link.PendingMove()
	if !ok {
		return nil
	}
	if m.board.Turn() == m.link.Color() || !m.board.ApplyMove(mv.From, mv.To) {
		m.log.Error("rejected remote move", zap.Stringer("move", mv),
			zap.Stringer("turn", m.board.Turn()), zap.Int("ply", len(m.board.History())))
		m.err = ErrDesync
		m.link.Close()
		return m.err
	}
	m.press()
	m.log.Debug("applied remote move", zap.Stringer("move", mv), zap.Stringer("state", m.board.State()))
	return nil
}

// Tick advances the clock by dt and ends the game when a flag falls.
func (m *Match) Tick(dt time.Duration) {
	if m.clock == nil || m.board.State().Terminal() {
		return
	}
	m.clock.Advance(dt)
	if c, ok := m.clock.Expired(); ok && m.board.TimeOut(c) {
		m.clock.Pause()
		m.log.Info("flag fell", zap.Stringer("loser", c))
	}
}

func (m *Match) press() {
	if m.clock == nil {
		return
	}
	if m.board.State().Terminal() {
		m.clock.Pause()
		return
	}
	m.clock.Press()
}

// Close releases the link. The board stays readable.
func (m *Match) Close() {
	if m.link != nil {
		m.link.Close()
	}
	if m.clock != nil {
		m.clock.Pause()
	}
}

// Restart replaces the board with a fresh one and resets the clock. Only
// local games can restart.
func (m *Match) Restart() bool {
	if m.link != nil {
		return false
	}
	m.board = game.NewBoard()
	if m.clock != nil {
		m.clock.Reset()
	}
	return true
}

// Draw ends a local game drawn. Over the network there is no way to agree
// on a draw, so it is refused.
func (m *Match) Draw() bool {
	if m.link != nil {
		return false
	}
	if !m.board.DeclareDraw() {
		return false
	}
	if m.clock != nil {
		m.clock.Pause()
	}
	return true
}
