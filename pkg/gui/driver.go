// Package gui drives a match from a terminal: a full screen board built
// with tview, or a line oriented prompt for plain terminals and pipes.
package gui

import (
	"time"

	"go.uber.org/zap"

	"github.com/qnkhuat/chesslan/pkg/game"
	"github.com/qnkhuat/chesslan/pkg/match"
)

// DefaultTick is how often a driver polls the network and the clock.
const DefaultTick = 100 * time.Millisecond

// Hooks let the caller observe a running match. Both run on the driver's
// loop.
type Hooks struct {
	// OnChange runs after the board changed.
	OnChange func(m *match.Match)
	// OnEnd runs once, when the game finishes or the link fails.
	OnEnd func(m *match.Match)
}

// stepper is one iteration of the driver loop: network first, then clock.
type stepper struct {
	m     *match.Match
	hooks Hooks
	log   *zap.Logger

	board     *game.Board
	ply       int
	state     game.State
	connected bool
	ended     bool
	last      time.Time
}

func newStepper(m *match.Match, hooks Hooks, log *zap.Logger) *stepper {
	if log == nil {
		log = zap.NewNop()
	}
	return &stepper{m: m, hooks: hooks, log: log, connected: m.Connected()}
}

// step reports whether anything visible changed since the last call.
func (s *stepper) step(now time.Time) bool {
	if err := s.m.Sync(); err != nil {
		s.log.Error("match aborted", zap.Error(err))
	}
	if !s.last.IsZero() {
		s.m.Tick(now.Sub(s.last))
	}
	s.last = now
	return s.observe()
}

// observe fires hooks for changes made by the network, the clock or local
// input.
func (s *stepper) observe() bool {
	b := s.m.Board()
	changed := b != s.board || len(b.History()) != s.ply || b.State() != s.state ||
		s.m.Connected() != s.connected
	if b != s.board {
		s.ended = false
	}
	s.board, s.ply, s.state, s.connected = b, len(b.History()), b.State(), s.m.Connected()

	if changed && s.hooks.OnChange != nil {
		s.hooks.OnChange(s.m)
	}
	over := b.State().Terminal() || s.m.Err() != nil || !s.m.Connected()
	if over && !s.ended {
		s.ended = true
		s.log.Info("game over", zap.String("result", b.Result()), zap.Stringer("state", b.State()))
		if s.hooks.OnEnd != nil {
			s.hooks.OnEnd(s.m)
		}
	}
	return changed
}
