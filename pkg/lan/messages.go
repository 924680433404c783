package lan

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/qnkhuat/chesslan/pkg/game"
)

type MessageType string

const (
	TypeMove MessageType = "move"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

type Message interface {
	Type() MessageType
}

// MessageMove notifies the peer of a move that was applied locally.
type MessageMove struct {
	Origin      game.Coord
	Destination game.Coord
}

func (m MessageMove) Type() MessageType {
	return TypeMove
}

func (m MessageMove) Move() game.Move {
	return game.Move{From: m.Origin, To: m.Destination}
}

// wireMove is the exact JSON layout on the wire; field order matters.
type wireMove struct {
	Type        MessageType `json:"type"`
	Origin      [2]int      `json:"origin"`
	Destination [2]int      `json:"destination"`
}

// Encode returns the message as a single JSON line including the trailing
// newline.
func Encode(m Message) ([]byte, error) {
	var v interface{}
	switch msg := m.(type) {
	case MessageMove:
		v = wireMove{
			Type:        TypeMove,
			Origin:      [2]int{msg.Origin.X, msg.Origin.Y},
			Destination: [2]int{msg.Destination.X, msg.Destination.Y},
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, m)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

type header struct {
	Type MessageType `json:"type"`
}

type rawMove struct {
	Origin      []int `json:"origin"`
	Destination []int `json:"destination"`
}

// Decode parses one line (without its newline).
func Decode(line []byte) (Message, error) {
	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch h.Type {
	case TypeMove:
		var raw rawMove
		if err := json.Unmarshal(line, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		origin, ok1 := toCoord(raw.Origin)
		dest, ok2 := toCoord(raw.Destination)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: bad coordinates %v -> %v", ErrMalformed, raw.Origin, raw.Destination)
		}
		return MessageMove{Origin: origin, Destination: dest}, nil
	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, h.Type)
	}
}

func toCoord(v []int) (game.Coord, bool) {
	if len(v) != 2 {
		return game.Coord{}, false
	}
	c := game.Coord{X: v[0], Y: v[1]}
	return c, c.Valid()
}
