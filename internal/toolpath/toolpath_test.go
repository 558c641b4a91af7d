package toolpath

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"

	"penplot/internal/calibration"
	"penplot/internal/skeleton"
	"penplot/internal/trace"
	"penplot/pkg/geometry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(limit float64) calibration.Plotter {
	return calibration.Plotter{X: calibration.Identity(limit), Y: calibration.Identity(limit)}
}

func newMapper(t *testing.T, img geometry.SizeInt, device geometry.Size, cal calibration.Plotter) *Mapper {
	t.Helper()
	m, err := NewMapper(img, device, cal)
	require.NoError(t, err)
	return m
}

func stroke(pts ...geometry.PointInt) trace.Stroke {
	return trace.Stroke{Points: pts}
}

func parseMask(t *testing.T, rows ...string) *skeleton.Mask {
	t.Helper()
	grid := make([][]bool, len(rows))
	for y, row := range rows {
		grid[y] = make([]bool, len(row))
		for x, c := range row {
			grid[y][x] = c == '#'
		}
	}
	m, err := skeleton.FromRows(grid)
	require.NoError(t, err)
	return m
}

func TestMapperHorizontalLine(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 5, Height: 5}, geometry.Size{Width: 100, Height: 100}, identity(100))
	assert.Equal(t, 20.0, m.Scale())

	for x := 0; x < 5; x++ {
		p := geometry.Pt(x, 2)
		assert.Equal(t, geometry.Point2D{X: float64(x * 20), Y: 60}, m.ToMM(p))
		assert.Equal(t, geometry.Pt(x*20, 60), m.ToDevice(p))
	}
}

func TestMapperPreservesAspect(t *testing.T) {
	// A wide image is limited by the device width.
	m := newMapper(t, geometry.SizeInt{Width: 200, Height: 50}, geometry.Size{Width: 100, Height: 100}, identity(100))
	assert.Equal(t, 0.5, m.Scale())
	assert.Equal(t, geometry.Pt(50, 100), m.ToDevice(geometry.Pt(100, 0)))
	assert.Equal(t, geometry.Pt(0, 75), m.ToDevice(geometry.Pt(0, 50)))

	// A tall image is limited by the device height.
	m = newMapper(t, geometry.SizeInt{Width: 10, Height: 40}, geometry.Size{Width: 100, Height: 80}, identity(100))
	assert.Equal(t, 2.0, m.Scale())
}

func TestMapperAppliesCalibration(t *testing.T) {
	cal := calibration.Plotter{
		X: calibration.Axis{MMToSteps: calibration.Line{Slope: 10, Intercept: 3}, PhysicalLimitMM: 50},
		Y: calibration.Axis{MMToSteps: calibration.Line{Slope: 4}, PhysicalLimitMM: 50},
	}
	m := newMapper(t, geometry.SizeInt{Width: 10, Height: 10}, geometry.Size{Width: 100, Height: 100}, cal)

	// 10 mm/px; x clamps at 50 mm, y = 100 - 0 = 100 mm clamps at 50 mm.
	assert.Equal(t, geometry.Pt(203, 200), m.ToDevice(geometry.Pt(2, 0)))
	assert.Equal(t, geometry.Pt(503, 200), m.ToDevice(geometry.Pt(9, 0)))
	assert.Equal(t, geometry.Pt(3, 0), m.ToDevice(geometry.Pt(0, 10)))
	assert.Equal(t, geometry.Pt(503, 200), m.Limits())
}

func TestNewMapperRejectsDegenerateGeometry(t *testing.T) {
	square := geometry.SizeInt{Width: 5, Height: 5}
	device := geometry.Size{Width: 10, Height: 10}
	reversedX := identity(100)
	reversedX.X.MMToSteps = calibration.Line{Slope: -1, Intercept: 50}
	noTravelY := identity(100)
	noTravelY.Y.PhysicalLimitMM = 0

	tests := []struct {
		name      string
		img       geometry.SizeInt
		device    geometry.Size
		cal       calibration.Plotter
		dimension string
	}{
		{"zero width", geometry.SizeInt{Width: 0, Height: 5}, device, identity(100), "image width"},
		{"zero height", geometry.SizeInt{Width: 5, Height: 0}, device, identity(100), "image height"},
		{"device width", square, geometry.Size{Width: 0, Height: 10}, identity(100), "device width"},
		{"device height", square, geometry.Size{Width: 10, Height: -1}, identity(100), "device height"},
		{"negative slope", square, device, reversedX, "calibration X"},
		{"zero calibration", square, device, calibration.Plotter{}, "calibration X"},
		{"no Y travel", square, device, noTravelY, "calibration Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper(tt.img, tt.device, tt.cal)
			require.ErrorIs(t, err, skeleton.ErrInvalidInput)
			var ie *skeleton.InvalidInputError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tt.dimension, ie.Dimension)
		})
	}
}

func TestMapperClampingIsTotalAndIdempotent(t *testing.T) {
	cal := calibration.Plotter{
		X: calibration.Axis{MMToSteps: calibration.Line{Slope: 3.2, Intercept: 4}, PhysicalLimitMM: 100},
		Y: calibration.Axis{MMToSteps: calibration.Line{Slope: 2.7, Intercept: 0.4}, PhysicalLimitMM: 90},
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		img := geometry.SizeInt{Width: 1 + rng.Intn(300), Height: 1 + rng.Intn(300)}
		device := geometry.Size{Width: 10 + rng.Float64()*200, Height: 10 + rng.Float64()*200}
		m := newMapper(t, img, device, cal)
		limits := m.Limits()

		for j := 0; j < 200; j++ {
			p := geometry.Pt(rng.Intn(img.Width*2)-img.Width/2, rng.Intn(img.Height*2)-img.Height/2)
			d := m.ToDevice(p)
			assert.True(t, d.X >= 0 && d.X <= limits.X, "x %d outside [0,%d]", d.X, limits.X)
			assert.True(t, d.Y >= 0 && d.Y <= limits.Y, "y %d outside [0,%d]", d.Y, limits.Y)
			assert.Equal(t, d, m.ToDevice(p))
		}
	}
}

func TestOrderPicksNearestEndpointAndReverses(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 100, Height: 100}, geometry.Size{Width: 100, Height: 100}, identity(100))

	a := stroke(geometry.Pt(0, 99), geometry.Pt(5, 99), geometry.Pt(10, 99))  // device (0,1)->(10,1)
	b := stroke(geometry.Pt(60, 30), geometry.Pt(70, 30), geometry.Pt(80, 30)) // device (60,70)->(80,70)

	ordered, err := Order(context.Background(), []trace.Stroke{a, b}, geometry.Pt(100, 100), m)
	require.NoError(t, err)
	require.Len(t, ordered, 2)

	assert.Equal(t, b.Reversed(), ordered[0])
	assert.Equal(t, a.Reversed(), ordered[1])
	assert.Equal(t, geometry.Pt(60, 30), b.First(), "input stroke must not be modified")
}

func TestOrderTieBreaks(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 100, Height: 100}, geometry.Size{Width: 100, Height: 100}, identity(100))

	// Both strokes start 10 steps from the pen; the first listed wins.
	left := stroke(geometry.Pt(40, 50), geometry.Pt(30, 50))
	right := stroke(geometry.Pt(60, 50), geometry.Pt(70, 50))
	ordered, err := Order(context.Background(), []trace.Stroke{left, right}, geometry.Pt(50, 50), m)
	require.NoError(t, err)
	assert.Equal(t, []trace.Stroke{left, right}, ordered)

	// A closed stroke's start and end coincide; it is kept as is.
	loop := stroke(geometry.Pt(1, 1), geometry.Pt(2, 1), geometry.Pt(2, 2), geometry.Pt(1, 1))
	ordered, err = Order(context.Background(), []trace.Stroke{loop}, geometry.Pt(0, 0), m)
	require.NoError(t, err)
	assert.Equal(t, []trace.Stroke{loop}, ordered)
}

func TestOrderEmpty(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 10, Height: 10}, geometry.Size{Width: 10, Height: 10}, identity(10))
	ordered, err := Order(context.Background(), nil, geometry.PointInt{}, m)
	require.NoError(t, err)
	assert.Empty(t, ordered)
}

func TestOrderCancelled(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 10, Height: 10}, geometry.Size{Width: 10, Height: 10}, identity(10))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strokes := []trace.Stroke{
		stroke(geometry.Pt(0, 0), geometry.Pt(1, 0)),
		stroke(geometry.Pt(5, 5), geometry.Pt(6, 5)),
	}
	_, err := Order(ctx, strokes, geometry.PointInt{}, m)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOrderKeepsGivenOrderWhenGreedyIsLonger(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 100, Height: 100}, geometry.Size{Width: 100, Height: 100}, identity(100))

	// Greedy takes 53 first, then has to cross back to 46 and out to 60:
	// 3 + 7 + 14 = 24 steps. The given order costs 4 + 7 + 7 = 18.
	dots := []trace.Stroke{
		stroke(geometry.Pt(46, 50)),
		stroke(geometry.Pt(53, 50)),
		stroke(geometry.Pt(60, 50)),
	}
	start := geometry.Pt(50, 50)

	ordered, err := Order(context.Background(), dots, start, m)
	require.NoError(t, err)
	assert.Equal(t, dots, ordered)
	assert.Equal(t, 18.0, Travel(ordered, start, m))
}

func TestOrderNeverIncreasesTravel(t *testing.T) {
	for seed := int64(1); seed <= 25; seed++ {
		rng := rand.New(rand.NewSource(seed))
		mask, err := skeleton.NewMask(40, 30)
		require.NoError(t, err)
		for i := 0; i < 250; i++ {
			mask.Set(geometry.Pt(rng.Intn(40), rng.Intn(30)), true)
		}
		strokes, err := trace.Extract(mask, skeleton.Classify(mask))
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(strokes), 2)

		m := newMapper(t, mask.Size(), geometry.Size{Width: 156, Height: 120}, identity(156))
		start := geometry.Pt(rng.Intn(156), rng.Intn(156))
		ordered, err := Order(context.Background(), strokes, start, m)
		require.NoError(t, err)
		require.Len(t, ordered, len(strokes))

		assert.LessOrEqual(t, Travel(ordered, start, m), Travel(strokes, start, m), "seed %d", seed)
	}
}

func TestEmit(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 10, Height: 10}, geometry.Size{Width: 10, Height: 10}, identity(10))
	strokes := []trace.Stroke{
		stroke(geometry.Pt(1, 9), geometry.Pt(2, 9), geometry.Pt(3, 8)),
		stroke(geometry.Pt(5, 5)),
	}

	assert.Equal(t, []Command{
		Up(), Move(geometry.Pt(1, 1)), Down(), Move(geometry.Pt(2, 1)), Move(geometry.Pt(3, 2)),
		Up(), Move(geometry.Pt(5, 5)), Down(),
		Up(), Move(geometry.Pt(0, 0)),
	}, Emit(strokes, m))
}

func TestEmitNothing(t *testing.T) {
	m := newMapper(t, geometry.SizeInt{Width: 10, Height: 10}, geometry.Size{Width: 10, Height: 10}, identity(10))
	cmds := Emit(nil, m)
	assert.Equal(t, []Command{Up(), Move(geometry.PointInt{})}, cmds)
	assert.False(t, Drawn(cmds))
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "MoveTo(3,4)", Move(geometry.Pt(3, 4)).String())
	assert.Equal(t, "PenDown", Down().String())
	assert.Equal(t, "Unknown", Op(9).String())
}

func TestConvertHorizontalLine(t *testing.T) {
	mask := parseMask(t,
		".....",
		".....",
		"#####",
		".....",
		".....",
	)
	res, err := Convert(context.Background(), mask, Job{
		Device:      geometry.Size{Width: 100, Height: 100},
		Calibration: identity(100),
	})
	require.NoError(t, err)

	require.Len(t, res.Strokes, 1)
	assert.Equal(t, []Command{
		Up(), Move(geometry.Pt(0, 60)), Down(),
		Move(geometry.Pt(20, 60)), Move(geometry.Pt(40, 60)), Move(geometry.Pt(60, 60)), Move(geometry.Pt(80, 60)),
		Up(), Move(geometry.Pt(0, 0)),
	}, res.Commands)
	assert.Equal(t, 60.0, res.TravelAfter)
	assert.True(t, Drawn(res.Commands))
}

func TestConvertIsolatedPixel(t *testing.T) {
	mask := parseMask(t,
		"...",
		".#.",
		"...",
	)
	res, err := Convert(context.Background(), mask, Job{
		Device:      geometry.Size{Width: 30, Height: 30},
		Calibration: identity(30),
	})
	require.NoError(t, err)
	assert.Equal(t, []Command{
		Up(), Move(geometry.Pt(10, 20)), Down(),
		Up(), Move(geometry.Pt(0, 0)),
	}, res.Commands)
}

func TestConvertEmptyMask(t *testing.T) {
	mask, err := skeleton.NewMask(8, 8)
	require.NoError(t, err)

	res, err := Convert(context.Background(), mask, DefaultJob(calibration.Default()))
	require.NoError(t, err)
	assert.Empty(t, res.Strokes)
	assert.Equal(t, []Command{Up(), Move(geometry.PointInt{})}, res.Commands)
	assert.False(t, Drawn(res.Commands))
}

func TestConvertRejectsZeroSizedMask(t *testing.T) {
	mask, err := skeleton.NewMask(0, 3)
	require.NoError(t, err)

	_, err = Convert(context.Background(), mask, DefaultJob(calibration.Default()))
	require.ErrorIs(t, err, skeleton.ErrInvalidInput)
	var ie *skeleton.InvalidInputError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "image width", ie.Dimension)
	assert.Equal(t, 0, ie.Value)

	_, err = Convert(context.Background(), nil, DefaultJob(calibration.Default()))
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
}

func TestConvertRejectsBadCalibration(t *testing.T) {
	mask := parseMask(t,
		".....",
		".....",
		"#####",
		".....",
		".....",
	)
	cal := identity(100)
	cal.X.MMToSteps = calibration.Line{Slope: -1, Intercept: 50}

	res, err := Convert(context.Background(), mask, Job{
		Device:      geometry.Size{Width: 100, Height: 100},
		Calibration: cal,
	})
	require.ErrorIs(t, err, skeleton.ErrInvalidInput)
	assert.Nil(t, res)

	_, err = Convert(context.Background(), mask, Job{Device: geometry.Size{Width: 100, Height: 100}})
	assert.ErrorIs(t, err, skeleton.ErrInvalidInput)
}

func TestConvertLogs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer SetLogger(nil)

	mask := parseMask(t, "##.", "...", ".##")
	_, err := Convert(context.Background(), mask, DefaultJob(calibration.Default()))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "extracted strokes")
	assert.Contains(t, buf.String(), "converted skeleton")
}

func TestDefaultJob(t *testing.T) {
	job := DefaultJob(calibration.Default())
	assert.Equal(t, geometry.Size{Width: 156, Height: 156}, job.Device)
	assert.Equal(t, geometry.PointInt{}, job.Start)
}
