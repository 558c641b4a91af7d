package toolpath

import (
	"context"
	"time"

	"penplot/internal/calibration"
	"penplot/internal/skeleton"
	"penplot/internal/trace"
	"penplot/pkg/geometry"
)

// Job describes the device a skeleton is converted for.
type Job struct {
	Device      geometry.Size       // drawable workspace in mm
	Calibration calibration.Plotter // per-axis mm/step models
	Start       geometry.PointInt   // pen position in steps when drawing begins
}

// DefaultJob returns a job covering the full travel of the calibration,
// starting at the origin.
func DefaultJob(cal calibration.Plotter) Job {
	w, h := cal.LimitsMM()
	return Job{Device: geometry.Size{Width: w, Height: h}, Calibration: cal}
}

// Result holds every intermediate product of a conversion run.
type Result struct {
	Topology     *skeleton.Topology
	Strokes      []trace.Stroke // extraction order
	Ordered      []trace.Stroke // drawing order and orientation
	Commands     []Command
	Mapper       *Mapper
	TravelBefore float64 // pen-up steps in extraction order
	TravelAfter  float64 // pen-up steps in drawing order
}

// Convert runs the whole skeleton-to-toolpath chain. All InvalidInput errors
// are reported before any traversal work starts. An empty mask is not an
// error: the result has no strokes and only the closing commands.
func Convert(ctx context.Context, mask *skeleton.Mask, job Job) (*Result, error) {
	if mask == nil {
		return nil, skeleton.Invalid("mask", 0, "nil mask")
	}
	mapper, err := NewMapper(mask.Size(), job.Device, job.Calibration)
	if err != nil {
		return nil, err
	}

	log := Logger()
	began := time.Now()

	topo := skeleton.Classify(mask)
	log.Debug("classified skeleton", "pixels", mask.Count(), "anchors", len(topo.Anchors()))

	strokes, err := trace.Extract(mask, topo)
	if err != nil {
		return nil, err
	}
	st := trace.Summarize(strokes)
	log.Debug("extracted strokes", "strokes", st.Strokes, "open", st.Open, "closed", st.Closed, "dots", st.Dots)

	ordered, err := Order(ctx, strokes, job.Start, mapper)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Topology:     topo,
		Strokes:      strokes,
		Ordered:      ordered,
		Commands:     Emit(ordered, mapper),
		Mapper:       mapper,
		TravelBefore: Travel(strokes, job.Start, mapper),
		TravelAfter:  Travel(ordered, job.Start, mapper),
	}
	log.Info("converted skeleton",
		"strokes", len(ordered),
		"commands", len(res.Commands),
		"scale_mm_per_px", mapper.Scale(),
		"travel_before", res.TravelBefore,
		"travel_after", res.TravelAfter,
		"elapsed", time.Since(began))
	return res, nil
}
