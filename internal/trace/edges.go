package trace

import (
	"penplot/internal/skeleton"
	"penplot/pkg/geometry"
)

// Edge is an unordered pair of 8-adjacent foreground pixels. NewEdge stores
// the endpoints in row-major order so equal edges compare equal.
type Edge struct {
	A, B geometry.PointInt
}

// NewEdge returns the canonical edge between a and b.
func NewEdge(a, b geometry.PointInt) Edge {
	if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// MaskEdges enumerates every edge of the 8-connectivity graph of the mask,
// each once, in row-major order of its first pixel.
func MaskEdges(m *skeleton.Mask) []Edge {
	var edges []Edge
	for _, p := range m.Pixels() {
		// Directions 4..7 point right or down, so each edge is seen once.
		for d := 4; d < len(skeleton.Offsets); d++ {
			n := p.Add(skeleton.Offsets[d])
			if m.At(n) {
				edges = append(edges, NewEdge(p, n))
			}
		}
	}
	return edges
}

// edgeSet records consumed edges as one bit per outgoing direction per
// pixel. Marking an edge sets the bit at both ends.
type edgeSet struct {
	mask *skeleton.Mask
	used []uint8
}

func newEdgeSet(m *skeleton.Mask) *edgeSet {
	return &edgeSet{mask: m, used: make([]uint8, m.Width()*m.Height())}
}

func (e *edgeSet) isUsed(p geometry.PointInt, d int) bool {
	return e.used[e.mask.Index(p)]&(1<<d) != 0
}

// mark consumes the edge leaving p in direction d, in both directions.
func (e *edgeSet) mark(p geometry.PointInt, d int) geometry.PointInt {
	n := p.Add(skeleton.Offsets[d])
	e.used[e.mask.Index(p)] |= 1 << d
	e.used[e.mask.Index(n)] |= 1 << skeleton.Opposite(d)
	return n
}

// next returns the first direction from p, in offset order, that leads to a
// foreground neighbour over an unconsumed edge.
func (e *edgeSet) next(p geometry.PointInt) (int, bool) {
	for d, off := range skeleton.Offsets {
		if e.mask.At(p.Add(off)) && !e.isUsed(p, d) {
			return d, true
		}
	}
	return 0, false
}

// free reports whether any edge at p is still unconsumed.
func (e *edgeSet) free(p geometry.PointInt) bool {
	_, ok := e.next(p)
	return ok
}
