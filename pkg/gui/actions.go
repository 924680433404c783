package gui

type Action string

const (
	ActionNewGame Action = "New Game"
	ActionDraw    Action = "Draw"
	ActionFlip    Action = "Flip"
	ActionExit    Action = "Exit"
)

// actions returns what the menu offers. Networked games cannot restart or
// agree a draw.
func actions(networked bool) []Action {
	if networked {
		return []Action{ActionFlip, ActionExit}
	}
	return []Action{ActionNewGame, ActionDraw, ActionFlip, ActionExit}
}
