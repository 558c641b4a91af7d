// Package skeleton holds the binary skeleton mask consumed by stroke
// extraction and the per-pixel topology derived from it.
package skeleton

import (
	"image"
	"image/color"

	"penplot/pkg/geometry"
)

// Offsets lists the 8 neighbour offsets from top-left to bottom-right,
// skipping the centre. Every traversal in the module enumerates neighbours in
// this order; the opposite of direction i is 7-i.
var Offsets = [8]geometry.PointInt{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
	{X: -1, Y: 0}, {X: 1, Y: 0},
	{X: -1, Y: 1}, {X: 0, Y: 1}, {X: 1, Y: 1},
}

// Opposite returns the direction index pointing back along direction d.
func Opposite(d int) int {
	return 7 - d
}

// Mask is a fixed-size binary raster. Foreground pixels are the skeleton.
// A mask must not be modified once it has been classified.
type Mask struct {
	width, height int
	bits          []bool
}

// NewMask returns an all-background mask of the given size.
func NewMask(width, height int) (*Mask, error) {
	if width < 0 {
		return nil, Invalid("mask width", width, "negative")
	}
	if height < 0 {
		return nil, Invalid("mask height", height, "negative")
	}
	return &Mask{width: width, height: height, bits: make([]bool, width*height)}, nil
}

// FromRows builds a mask from a row-major grid. All rows must be the same
// length.
func FromRows(rows [][]bool) (*Mask, error) {
	width := 0
	if len(rows) > 0 {
		width = len(rows[0])
	}
	m, err := NewMask(width, len(rows))
	if err != nil {
		return nil, err
	}
	for y, row := range rows {
		if len(row) != width {
			return nil, Invalid("row width", len(row), "rows disagree with declared mask width")
		}
		copy(m.bits[y*width:(y+1)*width], row)
	}
	return m, nil
}

// FromPixels builds a mask of the given size with the listed pixels set.
// A pixel outside the bounds is rejected.
func FromPixels(size geometry.SizeInt, pixels []geometry.PointInt) (*Mask, error) {
	m, err := NewMask(size.Width, size.Height)
	if err != nil {
		return nil, err
	}
	for _, p := range pixels {
		if p.X < 0 || p.X >= size.Width {
			return nil, Invalid("pixel x", p.X, "outside mask bounds")
		}
		if p.Y < 0 || p.Y >= size.Height {
			return nil, Invalid("pixel y", p.Y, "outside mask bounds")
		}
		m.bits[p.Y*m.width+p.X] = true
	}
	return m, nil
}

// FromImage builds a mask from an image drawn as dark ink on a light
// background: opaque pixels darker than mid-grey are foreground.
func FromImage(img image.Image) *Mask {
	b := img.Bounds()
	m := &Mask{width: b.Dx(), height: b.Dy(), bits: make([]bool, b.Dx()*b.Dy())}
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			_, _, _, a := c.RGBA()
			if a >= 0x8000 && color.GrayModel.Convert(c).(color.Gray).Y < 128 {
				m.bits[y*m.width+x] = true
			}
		}
	}
	return m
}

// ToImage renders the mask as black foreground on a white background, the
// same convention FromImage reads.
func (m *Mask) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, on := range m.bits {
		if on {
			img.Pix[i] = 0
		} else {
			img.Pix[i] = 255
		}
	}
	return img
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Size returns the mask dimensions.
func (m *Mask) Size() geometry.SizeInt {
	return geometry.SizeInt{Width: m.width, Height: m.height}
}

// In reports whether p lies inside the mask bounds.
func (m *Mask) In(p geometry.PointInt) bool {
	return p.X >= 0 && p.X < m.width && p.Y >= 0 && p.Y < m.height
}

// At reports whether p is foreground. Out-of-bounds pixels are background.
func (m *Mask) At(p geometry.PointInt) bool {
	if !m.In(p) {
		return false
	}
	return m.bits[p.Y*m.width+p.X]
}

// Set marks p as foreground or background. Out-of-bounds pixels are ignored.
func (m *Mask) Set(p geometry.PointInt, on bool) {
	if m.In(p) {
		m.bits[p.Y*m.width+p.X] = on
	}
}

// Index returns the row-major index of an in-bounds pixel.
func (m *Mask) Index(p geometry.PointInt) int {
	return p.Y*m.width + p.X
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, on := range m.bits {
		if on {
			n++
		}
	}
	return n
}

// Pixels returns every foreground pixel in row-major order.
func (m *Mask) Pixels() []geometry.PointInt {
	var pixels []geometry.PointInt
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.bits[y*m.width+x] {
				pixels = append(pixels, geometry.PointInt{X: x, Y: y})
			}
		}
	}
	return pixels
}

// Clone returns an independent copy of the mask.
func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.bits))
	copy(bits, m.bits)
	return &Mask{width: m.width, height: m.height, bits: bits}
}
