// Package preview renders plotter command streams to raster images so a
// job can be checked before it is sent to the machine.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"

	"penplot/internal/toolpath"
	"penplot/pkg/geometry"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

// Style controls colours and line widths. Widths are in canvas pixels.
type Style struct {
	Background  color.Color
	Ink         color.Color
	Travel      color.Color // nil hides pen-up moves
	InkWidth    float64
	TravelWidth float64
}

// DefaultStyle draws dark ink with light red travel moves on white.
func DefaultStyle() Style {
	return Style{
		Background:  color.White,
		Ink:         color.RGBA{20, 20, 20, 255},
		Travel:      color.RGBA{240, 160, 160, 255},
		InkWidth:    2,
		TravelWidth: 1,
	}
}

// Canvas maps device step coordinates onto an image with y pointing down.
type Canvas struct {
	Width, Height int
	transform     geometry.AffineTransform
}

// NewCanvas fits a device area of extent steps into width pixels, keeping
// the aspect ratio. The device origin is the bottom-left corner.
func NewCanvas(extent geometry.SizeInt, width int) (Canvas, error) {
	if extent.Empty() {
		return Canvas{}, fmt.Errorf("empty device extent %dx%d", extent.Width, extent.Height)
	}
	if width <= 0 {
		return Canvas{}, fmt.Errorf("preview width must be positive, got %d", width)
	}
	scale := float64(width) / float64(extent.Width)
	height := int(math.Max(1, math.Round(float64(extent.Height)*scale)))
	return Canvas{
		Width:     width,
		Height:    height,
		transform: geometry.Translation(0, float64(height)).Compose(geometry.Scale(scale, -scale)),
	}, nil
}

// Point converts a device position to canvas pixels.
func (c Canvas) Point(p geometry.PointInt) geometry.Point2D {
	return c.transform.Apply(p.ToFloat())
}

// path is a polyline in canvas pixels.
type path []geometry.Point2D

type scene struct {
	ink    []path
	travel []path
	dots   []geometry.Point2D
}

// split walks the commands and sorts the geometry into pen-down strokes,
// travel moves and dots. Travel before the first MoveTo is unknown and is
// not drawn.
func split(cmds []toolpath.Command, c Canvas) scene {
	var s scene
	var pos geometry.Point2D
	known, down := false, false
	var cur path

	flush := func() {
		switch {
		case len(cur) == 1:
			s.dots = append(s.dots, cur[0])
		case len(cur) > 1:
			s.ink = append(s.ink, cur)
		}
		cur = nil
	}

	for _, cmd := range cmds {
		switch cmd.Op {
		case toolpath.PenDown:
			if !down && known {
				cur = path{pos}
			}
			down = true
		case toolpath.PenUp:
			if down {
				flush()
			}
			down = false
		case toolpath.MoveTo:
			p := c.Point(cmd.At)
			if down {
				if cur == nil {
					cur = path{pos}
				}
				cur = append(cur, p)
			} else if known && p != pos {
				s.travel = append(s.travel, path{pos, p})
			}
			pos, known = p, true
		}
	}
	if down {
		flush()
	}
	return s
}

// Render draws cmds onto a new image. Travel moves go underneath the ink.
func Render(cmds []toolpath.Command, c Canvas, style Style) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{style.Background}, image.Point{}, draw.Src)

	s := split(cmds, c)

	scanner := rasterx.NewScannerGV(c.Width, c.Height, img, img.Bounds())
	dasher := rasterx.NewDasher(c.Width, c.Height, scanner)

	if style.Travel != nil {
		strokePaths(dasher, s.travel, style.Travel, style.TravelWidth)
	}
	strokePaths(dasher, s.ink, style.Ink, style.InkWidth)

	filler := rasterx.NewFiller(c.Width, c.Height, scanner)
	filler.SetColor(style.Ink)
	for _, p := range s.dots {
		rasterx.AddCircle(p.X, p.Y, math.Max(style.InkWidth/2, 1), filler)
	}
	filler.Draw()

	return img
}

func strokePaths(d *rasterx.Dasher, paths []path, c color.Color, width float64) {
	if len(paths) == 0 {
		return
	}
	d.Clear()
	d.SetStroke(fixed.Int26_6(width*64), 4<<6, rasterx.RoundCap, rasterx.RoundCap, rasterx.RoundGap, rasterx.Round, nil, 0)
	d.SetColor(c)
	for _, p := range paths {
		d.Start(rasterx.ToFixedP(p[0].X, p[0].Y))
		for _, q := range p[1:] {
			d.Line(rasterx.ToFixedP(q.X, q.Y))
		}
		d.Stop(false)
	}
	d.Draw()
	d.Clear()
}

// SavePNG renders cmds and writes the result to path.
func SavePNG(path string, cmds []toolpath.Command, c Canvas, style Style) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create preview: %w", err)
	}
	if err := png.Encode(f, Render(cmds, c, style)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return f.Close()
}
