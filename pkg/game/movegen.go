package game

type offset struct{ dx, dy int }

var (
	knightOffsets = []offset{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
	kingOffsets = []offset{
		{0, 1}, {1, 1}, {1, 0}, {1, -1},
		{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	}
	diagonals  = []offset{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	orthogonal = []offset{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	allRays    = append(append([]offset{}, diagonals...), orthogonal...)
)

// LegalTargets returns the squares p could move to on b without regard to
// whether the move leaves p's own king in check. It never mutates b.
func LegalTargets(p *Piece, b *Board) Targets {
	if p == nil || b == nil || !p.Pos.Valid() {
		return 0
	}
	switch p.Kind {
	case Pawn:
		return pawnTargets(p, b)
	case Knight:
		return stepTargets(p, b, knightOffsets)
	case Bishop:
		return rayTargets(p, b, diagonals)
	case Rook:
		return rayTargets(p, b, orthogonal)
	case Queen:
		return rayTargets(p, b, allRays)
	case King:
		return stepTargets(p, b, kingOffsets)
	}
	return 0
}

func pawnTargets(p *Piece, b *Board) Targets {
	var t Targets
	dir := p.Color.forward()

	one := p.Pos.Add(0, dir)
	if one.Valid() && b.at(one) == nil {
		t = t.Add(one)
		two := p.Pos.Add(0, 2*dir)
		if p.Pos.Y == p.Color.pawnRank() && two.Valid() && b.at(two) == nil {
			t = t.Add(two)
		}
	}

	for _, dx := range [...]int{-1, 1} {
		diag := p.Pos.Add(dx, dir)
		if !diag.Valid() {
			continue
		}
		if occ := b.at(diag); occ != nil && occ.Color != p.Color {
			t = t.Add(diag)
		}
	}
	return t
}

func stepTargets(p *Piece, b *Board, offsets []offset) Targets {
	var t Targets
	for _, o := range offsets {
		c := p.Pos.Add(o.dx, o.dy)
		if !c.Valid() {
			continue
		}
		if occ := b.at(c); occ != nil && occ.Color == p.Color {
			continue
		}
		t = t.Add(c)
	}
	return t
}

func rayTargets(p *Piece, b *Board, rays []offset) Targets {
	var t Targets
	for _, o := range rays {
		for c := p.Pos.Add(o.dx, o.dy); c.Valid(); c = c.Add(o.dx, o.dy) {
			occ := b.at(c)
			if occ == nil {
				t = t.Add(c)
				continue
			}
			if occ.Color != p.Color {
				t = t.Add(c)
			}
			break
		}
	}
	return t
}
