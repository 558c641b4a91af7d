// Package calibration converts between millimetres and motor steps using the
// per-axis linear models measured for a plotter.
package calibration

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultLimitMM is the travel of the reference plotter on both axes.
const DefaultLimitMM = 156.0

// Line is a linear model y = Slope*x + Intercept.
type Line struct {
	Slope     float64 `yaml:"slope"`
	Intercept float64 `yaml:"intercept"`
}

// Apply evaluates the line at v.
func (l Line) Apply(v float64) float64 {
	return l.Slope*v + l.Intercept
}

// Axis holds the calibration of one motion axis.
type Axis struct {
	MMToSteps       Line    `yaml:"mm_to_steps"`
	StepsToMM       Line    `yaml:"steps_to_mm"`
	PhysicalLimitMM float64 `yaml:"physical_limit_mm"`
}

// ToSteps converts a position in mm to steps. The position is clamped to the
// physical travel before the linear model is applied, and the result is
// bounded to [0, LimitSteps()]. Half steps round to even.
func (a Axis) ToSteps(mm float64) int {
	mm = math.Max(0, math.Min(mm, a.PhysicalLimitMM))
	steps := int(math.RoundToEven(a.MMToSteps.Apply(mm)))
	if steps < 0 {
		return 0
	}
	if limit := a.LimitSteps(); steps > limit {
		return limit
	}
	return steps
}

// ToMM converts a step count back to millimetres. No clamping is applied.
func (a Axis) ToMM(steps int) float64 {
	return a.StepsToMM.Apply(float64(steps))
}

// LimitSteps returns the step position of the far end of the travel.
func (a Axis) LimitSteps() int {
	return int(math.RoundToEven(a.MMToSteps.Apply(a.PhysicalLimitMM)))
}

// Validate checks that the axis describes a usable, increasing mapping.
func (a Axis) Validate(name string) error {
	if !(a.PhysicalLimitMM > 0) {
		return fmt.Errorf("axis %s: physical_limit_mm must be positive, got %g", name, a.PhysicalLimitMM)
	}
	if !(a.MMToSteps.Slope > 0) {
		return fmt.Errorf("axis %s: mm_to_steps slope must be positive, got %g", name, a.MMToSteps.Slope)
	}
	if a.LimitSteps() <= 0 {
		return fmt.Errorf("axis %s: travel limit maps to %d steps", name, a.LimitSteps())
	}
	return nil
}

// Identity returns an axis where one step is one millimetre.
func Identity(limitMM float64) Axis {
	return Axis{
		MMToSteps:       Line{Slope: 1},
		StepsToMM:       Line{Slope: 1},
		PhysicalLimitMM: limitMM,
	}
}

// Plotter is the calibration of both drawing axes.
type Plotter struct {
	X Axis `yaml:"X"`
	Y Axis `yaml:"Y"`
}

// Default returns an identity calibration over the reference plotter travel.
func Default() Plotter {
	return Plotter{X: Identity(DefaultLimitMM), Y: Identity(DefaultLimitMM)}
}

// Validate checks both axes.
func (p Plotter) Validate() error {
	if err := p.X.Validate("X"); err != nil {
		return err
	}
	return p.Y.Validate("Y")
}

// LimitsMM returns the physical travel of both axes.
func (p Plotter) LimitsMM() (float64, float64) {
	return p.X.PhysicalLimitMM, p.Y.PhysicalLimitMM
}

// file mirrors the on-disk layout of calibration.yaml.
type file struct {
	PlotterCalibration struct {
		Axes Plotter `yaml:"axes"`
	} `yaml:"plotter_calibration"`
}

// Parse decodes and validates a calibration document.
func Parse(data []byte) (Plotter, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Plotter{}, fmt.Errorf("failed to parse calibration: %w", err)
	}
	p := f.PlotterCalibration.Axes
	if err := p.Validate(); err != nil {
		return Plotter{}, err
	}
	return p, nil
}

// Load reads a calibration file from disk.
func Load(path string) (Plotter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plotter{}, fmt.Errorf("failed to read calibration: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Plotter{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Marshal encodes the calibration in the calibration.yaml layout.
func (p Plotter) Marshal() ([]byte, error) {
	var f file
	f.PlotterCalibration.Axes = p
	return yaml.Marshal(&f)
}

// Save writes the calibration to path.
func (p Plotter) Save(path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
