package preprocess

import (
	"penplot/internal/skeleton"
	"penplot/pkg/geometry"
)

// ring lists the neighbours clockwise from north, P2 through P9 in the
// usual Zhang-Suen numbering.
var ring = [8]geometry.PointInt{
	{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0}, {X: 1, Y: 1},
	{X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0}, {X: -1, Y: -1},
}

// Thin returns a copy of m reduced to one-pixel-wide lines with Zhang-Suen
// thinning. Each pass decides removals against the mask as it stood at the
// start of the sub-iteration.
func Thin(m *skeleton.Mask) *skeleton.Mask {
	out := m.Clone()
	for {
		removed := thinStep(out, 0)
		removed += thinStep(out, 1)
		if removed == 0 {
			return out
		}
	}
}

func thinStep(m *skeleton.Mask, step int) int {
	var del []geometry.PointInt
	for _, p := range m.Pixels() {
		var n [8]bool
		count := 0
		for i, off := range ring {
			n[i] = m.At(p.Add(off))
			if n[i] {
				count++
			}
		}
		if count < 2 || count > 6 {
			continue
		}

		transitions := 0
		for i := range n {
			if !n[i] && n[(i+1)%8] {
				transitions++
			}
		}
		if transitions != 1 {
			continue
		}

		north, east, south, west := n[0], n[2], n[4], n[6]
		if step == 0 {
			if north && east && south || east && south && west {
				continue
			}
		} else {
			if north && east && west || north && south && west {
				continue
			}
		}
		del = append(del, p)
	}

	for _, p := range del {
		m.Set(p, false)
	}
	return len(del)
}
