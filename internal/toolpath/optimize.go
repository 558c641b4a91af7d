package toolpath

import (
	"context"
	"fmt"
	"math"

	"penplot/internal/trace"
	"penplot/pkg/geometry"
)

// Order sequences strokes to reduce pen-up travel, starting from the device
// position start. At each step it picks, across all remaining strokes, the
// endpoint closest to the pen; ties go to the earlier stroke and then to its
// start. A stroke entered at its end is returned reversed. The input slice
// and its strokes are not modified.
//
// This is a greedy heuristic, not an optimum. If its total travel comes out
// longer than drawing the strokes in the given order, the given order is
// returned instead. ctx is checked between strokes.
func Order(ctx context.Context, strokes []trace.Stroke, start geometry.PointInt, m *Mapper) ([]trace.Stroke, error) {
	type candidate struct {
		stroke      trace.Stroke
		first, last geometry.PointInt
	}

	remaining := make([]candidate, 0, len(strokes))
	for _, s := range strokes {
		if s.Len() == 0 {
			continue
		}
		remaining = append(remaining, candidate{
			stroke: s,
			first:  m.ToDevice(s.First()),
			last:   m.ToDevice(s.Last()),
		})
	}

	ordered := make([]trace.Stroke, 0, len(remaining))
	current := start
	for len(remaining) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ordering strokes (%d of %d placed): %w", len(ordered), len(ordered)+len(remaining), err)
		}

		best, reverse := 0, false
		bestDist := math.Inf(1)
		for i, c := range remaining {
			if d := current.Distance(c.first); d < bestDist {
				best, reverse, bestDist = i, false, d
			}
			if d := current.Distance(c.last); d < bestDist {
				best, reverse, bestDist = i, true, d
			}
		}

		c := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)
		if reverse {
			ordered = append(ordered, c.stroke.Reversed())
			current = c.first
		} else {
			ordered = append(ordered, c.stroke)
			current = c.last
		}
	}

	greedy := Travel(ordered, start, m)
	if given := Travel(strokes, start, m); given < greedy {
		Logger().Warn("greedy order longer than extraction order, keeping extraction order",
			"greedy", greedy, "given", given)
		kept := make([]trace.Stroke, 0, len(ordered))
		for _, s := range strokes {
			if s.Len() > 0 {
				kept = append(kept, s)
			}
		}
		return kept, nil
	}
	return ordered, nil
}

// Travel sums the pen-up distance, in steps, needed to draw the strokes in
// the given order and orientation starting from start.
func Travel(strokes []trace.Stroke, start geometry.PointInt, m *Mapper) float64 {
	var total float64
	current := start
	for _, s := range strokes {
		if s.Len() == 0 {
			continue
		}
		total += current.Distance(m.ToDevice(s.First()))
		current = m.ToDevice(s.Last())
	}
	return total
}
