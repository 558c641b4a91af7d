// Package toolpath turns extracted strokes into an ordered plotter command
// stream: pixel to step mapping, travel ordering and command emission.
package toolpath

import (
	"math"

	"penplot/internal/calibration"
	"penplot/internal/skeleton"
	"penplot/pkg/geometry"
)

// Mapper converts image pixels to device step positions. The image is scaled
// uniformly to fit the device workspace and flipped vertically, since images
// grow downward and the plotter's origin is bottom-left.
type Mapper struct {
	image  geometry.SizeInt
	device geometry.Size
	cal    calibration.Plotter
	scale  float64 // mm per pixel
}

// NewMapper validates the geometry once for a whole conversion run. A zero
// image dimension, a non-positive device dimension or an axis calibration
// that does not map its travel onto positive steps is InvalidInput.
func NewMapper(image geometry.SizeInt, device geometry.Size, cal calibration.Plotter) (*Mapper, error) {
	if image.Width <= 0 {
		return nil, skeleton.Invalid("image width", image.Width, "scale is undefined")
	}
	if image.Height <= 0 {
		return nil, skeleton.Invalid("image height", image.Height, "scale is undefined")
	}
	if !(device.Width > 0) {
		return nil, skeleton.Invalid("device width", int(device.Width), "must be positive")
	}
	if !(device.Height > 0) {
		return nil, skeleton.Invalid("device height", int(device.Height), "must be positive")
	}
	if err := validateAxis("X", cal.X); err != nil {
		return nil, err
	}
	if err := validateAxis("Y", cal.Y); err != nil {
		return nil, err
	}

	scale := math.Min(device.Width/float64(image.Width), device.Height/float64(image.Height))
	return &Mapper{image: image, device: device, cal: cal, scale: scale}, nil
}

// Scale returns the millimetres covered by one pixel.
func (m *Mapper) Scale() float64 {
	return m.scale
}

// ToMM returns the physical position of a pixel before clamping.
func (m *Mapper) ToMM(p geometry.PointInt) geometry.Point2D {
	return geometry.Point2D{
		X: float64(p.X) * m.scale,
		Y: m.device.Height - float64(p.Y)*m.scale,
	}
}

// ToDevice maps a pixel to steps. It never fails: positions beyond the
// physical travel are clamped.
func (m *Mapper) ToDevice(p geometry.PointInt) geometry.PointInt {
	mm := m.ToMM(p)
	return geometry.PointInt{
		X: m.cal.X.ToSteps(mm.X),
		Y: m.cal.Y.ToSteps(mm.Y),
	}
}

// Limits returns the largest reachable step position on each axis.
func (m *Mapper) Limits() geometry.PointInt {
	return geometry.PointInt{X: m.cal.X.LimitSteps(), Y: m.cal.Y.LimitSteps()}
}

// validateAxis reports a bad axis calibration keyed by the axis, with the
// step limit it produces as the value.
func validateAxis(name string, a calibration.Axis) error {
	if err := a.Validate(name); err != nil {
		return skeleton.Invalid("calibration "+name, a.LimitSteps(), err.Error())
	}
	return nil
}
