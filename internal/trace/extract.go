package trace

import (
	"penplot/internal/skeleton"
	"penplot/pkg/geometry"
)

// Extract decomposes the mask into strokes that use every edge of its
// 8-connectivity graph exactly once and touch every foreground pixel.
//
// Strokes are traced from anchors (isolated, endpoint and junction pixels) in
// row-major order, leaving each anchor through its unused edges in offset
// order and following interior pixels until another anchor or a dead end.
// What remains afterwards are pure cycles, each emitted as a closed stroke.
// The result depends only on the mask.
func Extract(m *skeleton.Mask, topo *skeleton.Topology) ([]Stroke, error) {
	if m == nil {
		return nil, skeleton.Invalid("mask", 0, "nil mask")
	}
	if topo == nil || topo.Mask() != m {
		return nil, skeleton.Invalid("topology", 0, "not computed from this mask")
	}

	edges := newEdgeSet(m)
	var strokes []Stroke

	for _, anchor := range topo.Anchors() {
		if topo.Class(anchor) == skeleton.Isolated {
			strokes = append(strokes, Stroke{Points: []geometry.PointInt{anchor}})
			continue
		}
		for d, off := range skeleton.Offsets {
			if !m.At(anchor.Add(off)) || edges.isUsed(anchor, d) {
				continue
			}
			pts := []geometry.PointInt{anchor, edges.mark(anchor, d)}
			strokes = append(strokes, Stroke{Points: follow(pts, topo, edges)})
		}
	}

	for _, p := range m.Pixels() {
		for edges.free(p) {
			strokes = append(strokes, Stroke{Points: loop(p, edges)})
		}
	}

	return strokes, nil
}

// follow extends pts through interior pixels. It stops at the first pixel that
// is not interior, or at an interior pixel with no unused edge left.
func follow(pts []geometry.PointInt, topo *skeleton.Topology, edges *edgeSet) []geometry.PointInt {
	tail := pts[len(pts)-1]
	for topo.Class(tail) == skeleton.Interior {
		d, ok := edges.next(tail)
		if !ok {
			break
		}
		tail = edges.mark(tail, d)
		pts = append(pts, tail)
	}
	return pts
}

// loop walks unused edges from start until it returns to start or runs out.
func loop(start geometry.PointInt, edges *edgeSet) []geometry.PointInt {
	pts := []geometry.PointInt{start}
	cur := start
	for {
		d, ok := edges.next(cur)
		if !ok {
			break
		}
		cur = edges.mark(cur, d)
		pts = append(pts, cur)
		if cur == start {
			break
		}
	}
	return pts
}
