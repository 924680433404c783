package game

type State int

const (
	Playing State = iota
	Check
	Checkmate
	TimedOut
	Draw
)

func (s State) String() string {
	switch s {
	case Playing:
		return "Playing"
	case Check:
		return "Check"
	case Checkmate:
		return "Checkmate"
	case TimedOut:
		return "TimedOut"
	case Draw:
		return "Draw"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further moves may be applied.
func (s State) Terminal() bool {
	return s == Checkmate || s == TimedOut || s == Draw
}
