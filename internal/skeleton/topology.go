package skeleton

import (
	"penplot/pkg/geometry"
)

// Class describes the local topology of a foreground pixel.
type Class int

const (
	// Background marks a pixel that is not part of the skeleton.
	Background Class = iota
	// Isolated pixels have no foreground neighbours.
	Isolated
	// Endpoint pixels have exactly one foreground neighbour.
	Endpoint
	// Interior pixels have exactly two and sit in the middle of a line.
	Interior
	// Junction pixels have three or more.
	Junction
)

func (c Class) String() string {
	switch c {
	case Background:
		return "Background"
	case Isolated:
		return "Isolated"
	case Endpoint:
		return "Endpoint"
	case Interior:
		return "Interior"
	case Junction:
		return "Junction"
	default:
		return "Unknown"
	}
}

// IsAnchor reports whether a pixel of this class must be a stroke boundary.
func (c Class) IsAnchor() bool {
	return c == Isolated || c == Endpoint || c == Junction
}

// classOf maps a foreground neighbour count to its class.
func classOf(count int) Class {
	switch {
	case count == 0:
		return Isolated
	case count == 1:
		return Endpoint
	case count == 2:
		return Interior
	default:
		return Junction
	}
}

// Topology is the neighbour classification of every pixel of one mask.
type Topology struct {
	mask   *Mask
	counts []int8 // foreground neighbour count, -1 for background
}

// Classify counts the foreground 8-neighbours of every foreground pixel.
// Neighbours outside the image are absent.
func Classify(m *Mask) *Topology {
	t := &Topology{mask: m, counts: make([]int8, len(m.bits))}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			i := y*m.width + x
			if !m.bits[i] {
				t.counts[i] = -1
				continue
			}
			p := geometry.PointInt{X: x, Y: y}
			n := 0
			for _, off := range Offsets {
				if m.At(p.Add(off)) {
					n++
				}
			}
			t.counts[i] = int8(n)
		}
	}
	return t
}

// Mask returns the mask this topology was computed from.
func (t *Topology) Mask() *Mask {
	return t.mask
}

// Count returns the number of foreground neighbours of p, or -1 when p is
// background or out of bounds.
func (t *Topology) Count(p geometry.PointInt) int {
	if !t.mask.In(p) {
		return -1
	}
	return int(t.counts[t.mask.Index(p)])
}

// Class returns the class of p.
func (t *Topology) Class(p geometry.PointInt) Class {
	n := t.Count(p)
	if n < 0 {
		return Background
	}
	return classOf(n)
}

// Classes returns the class of every foreground pixel.
func (t *Topology) Classes() map[geometry.PointInt]Class {
	classes := make(map[geometry.PointInt]Class)
	for _, p := range t.mask.Pixels() {
		classes[p] = t.Class(p)
	}
	return classes
}

// Anchors returns the isolated, endpoint and junction pixels in row-major
// order.
func (t *Topology) Anchors() []geometry.PointInt {
	var anchors []geometry.PointInt
	for _, p := range t.mask.Pixels() {
		if t.Class(p).IsAnchor() {
			anchors = append(anchors, p)
		}
	}
	return anchors
}

// Histogram returns how many foreground pixels fall into each class.
func (t *Topology) Histogram() map[Class]int {
	h := make(map[Class]int)
	for _, n := range t.counts {
		if n >= 0 {
			h[classOf(int(n))]++
		}
	}
	return h
}
