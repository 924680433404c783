package lan

import (
	"sync"

	"github.com/qnkhuat/chesslan/pkg/game"
)

// pendingMove is a single slot hand-off between the listener goroutine and
// the driver. A newer move overwrites one that was not taken yet.
type pendingMove struct {
	mu   sync.Mutex
	move game.Move
	full bool
}

func (p *pendingMove) store(m game.Move) {
	p.mu.Lock()
	p.move, p.full = m, true
	p.mu.Unlock()
}

func (p *pendingMove) take() (game.Move, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.full {
		return game.Move{}, false
	}
	p.full = false
	return p.move, true
}
