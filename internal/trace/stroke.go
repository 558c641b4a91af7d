// Package trace decomposes a skeleton mask into drawable strokes.
package trace

import (
	"fmt"
	"math"

	"penplot/pkg/geometry"
)

// Stroke is an ordered run of 8-adjacent skeleton pixels drawn in one pen-down
// motion. A closed stroke starts and ends on the same pixel. A stroke with a
// single point is an isolated dot.
type Stroke struct {
	Points []geometry.PointInt `json:"points"`
}

// Len returns the number of points.
func (s Stroke) Len() int {
	return len(s.Points)
}

// First returns the first point of the stroke.
func (s Stroke) First() geometry.PointInt {
	return s.Points[0]
}

// Last returns the last point of the stroke.
func (s Stroke) Last() geometry.PointInt {
	return s.Points[len(s.Points)-1]
}

// Closed reports whether the stroke returns to its starting pixel.
func (s Stroke) Closed() bool {
	return len(s.Points) > 1 && s.First() == s.Last()
}

// Dot reports whether the stroke is a single isolated pixel.
func (s Stroke) Dot() bool {
	return len(s.Points) == 1
}

// Reversed returns a copy of the stroke traversed from the other end.
func (s Stroke) Reversed() Stroke {
	pts := make([]geometry.PointInt, len(s.Points))
	for i, p := range s.Points {
		pts[len(pts)-1-i] = p
	}
	return Stroke{Points: pts}
}

// Bounds returns the pixel bounding box of the stroke.
func (s Stroke) Bounds() geometry.RectInt {
	return geometry.BoundsInt(s.Points)
}

// Length returns the drawn length in pixels (diagonal steps count sqrt 2).
func (s Stroke) Length() float64 {
	if len(s.Points) < 2 {
		return 0
	}

	var total float64
	for i := 1; i < len(s.Points); i++ {
		total += s.Points[i].Distance(s.Points[i-1])
	}
	return total
}

// Edges returns the edges traversed by the stroke, in drawing order.
func (s Stroke) Edges() []Edge {
	if len(s.Points) < 2 {
		return nil
	}
	edges := make([]Edge, 0, len(s.Points)-1)
	for i := 1; i < len(s.Points); i++ {
		edges = append(edges, NewEdge(s.Points[i-1], s.Points[i]))
	}
	return edges
}

func (s Stroke) String() string {
	if len(s.Points) == 0 {
		return "stroke[]"
	}
	kind := "open"
	switch {
	case s.Dot():
		kind = "dot"
	case s.Closed():
		kind = "closed"
	}
	return fmt.Sprintf("stroke[%s %d pts (%d,%d)->(%d,%d)]", kind, len(s.Points),
		s.First().X, s.First().Y, s.Last().X, s.Last().Y)
}

// Stats summarises a stroke set for reporting.
type Stats struct {
	Strokes int
	Open    int
	Closed  int
	Dots    int
	Points  int
	Length  float64 // total drawn length in pixels
	Longest float64
}

// Summarize counts strokes by kind and totals their lengths.
func Summarize(strokes []Stroke) Stats {
	var st Stats
	for _, s := range strokes {
		st.Strokes++
		st.Points += s.Len()
		switch {
		case s.Dot():
			st.Dots++
		case s.Closed():
			st.Closed++
		default:
			st.Open++
		}
		l := s.Length()
		st.Length += l
		st.Longest = math.Max(st.Longest, l)
	}
	return st
}
