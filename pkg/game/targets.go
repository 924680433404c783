package game

import "math/bits"

// Targets is a set of squares, one bit per square.
type Targets uint64

func (t Targets) Has(c Coord) bool {
	return c.Valid() && t&(1<<c.index()) != 0
}

func (t Targets) Add(c Coord) Targets {
	if !c.Valid() {
		return t
	}
	return t | 1<<c.index()
}

func (t Targets) Remove(c Coord) Targets {
	if !c.Valid() {
		return t
	}
	return t &^ (1 << c.index())
}

func (t Targets) Len() int { return bits.OnesCount64(uint64(t)) }

func (t Targets) Empty() bool { return t == 0 }

// Coords lists the members ordered a1, b1, ..., h8.
func (t Targets) Coords() []Coord {
	out := make([]Coord, 0, t.Len())
	for rest := uint64(t); rest != 0; rest &= rest - 1 {
		i := bits.TrailingZeros64(rest)
		out = append(out, Coord{X: i % numFiles, Y: i / numFiles})
	}
	return out
}
