package calibration

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Point is one collected calibration sample: where the motors were, in steps,
// and where the pen was measured to be, in millimetres.
type Point struct {
	StepX, StepY int
	MMX, MMY     float64
}

var pointHeader = []string{"stepX", "stepY", "mmX", "mmY"}

// ReadPoints parses a calibration points CSV with a stepX,stepY,mmX,mmY header.
func ReadPoints(r io.Reader) ([]Point, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(pointHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i, name := range pointHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("unexpected column %d %q, want %q", i+1, header[i], name)
		}
	}

	var points []Point
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		p, err := parsePoint(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func parsePoint(rec []string) (Point, error) {
	var p Point
	var err error
	if p.StepX, err = strconv.Atoi(rec[0]); err != nil {
		return p, fmt.Errorf("stepX: %w", err)
	}
	if p.StepY, err = strconv.Atoi(rec[1]); err != nil {
		return p, fmt.Errorf("stepY: %w", err)
	}
	if p.MMX, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return p, fmt.Errorf("mmX: %w", err)
	}
	if p.MMY, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return p, fmt.Errorf("mmY: %w", err)
	}
	return p, nil
}

// FitReport describes how well the fitted lines explain the samples.
type FitReport struct {
	Samples   int
	RSquaredX float64
	RSquaredY float64
}

// Fit computes least-squares mm->steps and steps->mm lines for both axes.
// At least two samples with distinct positions per axis are required.
func Fit(points []Point, limitX, limitY float64) (Plotter, FitReport, error) {
	report := FitReport{Samples: len(points)}
	if len(points) < 2 {
		return Plotter{}, report, fmt.Errorf("need at least 2 calibration points, got %d", len(points))
	}

	steps := make([]float64, len(points))
	mm := make([]float64, len(points))

	fitAxis := func(name string, limit float64, step func(Point) int, pos func(Point) float64) (Axis, float64, error) {
		for i, p := range points {
			steps[i] = float64(step(p))
			mm[i] = pos(p)
		}
		if stat.Variance(mm, nil) == 0 || stat.Variance(steps, nil) == 0 {
			return Axis{}, 0, fmt.Errorf("axis %s: calibration points do not vary", name)
		}
		a := Axis{PhysicalLimitMM: limit}
		a.MMToSteps.Intercept, a.MMToSteps.Slope = stat.LinearRegression(mm, steps, nil, false)
		a.StepsToMM.Intercept, a.StepsToMM.Slope = stat.LinearRegression(steps, mm, nil, false)
		r2 := stat.RSquared(mm, steps, nil, a.MMToSteps.Intercept, a.MMToSteps.Slope)
		return a, r2, a.Validate(name)
	}

	var p Plotter
	var err error
	p.X, report.RSquaredX, err = fitAxis("X", limitX,
		func(p Point) int { return p.StepX }, func(p Point) float64 { return p.MMX })
	if err != nil {
		return Plotter{}, report, err
	}
	p.Y, report.RSquaredY, err = fitAxis("Y", limitY,
		func(p Point) int { return p.StepY }, func(p Point) float64 { return p.MMY })
	if err != nil {
		return Plotter{}, report, err
	}
	return p, report, nil
}
