// Package main provides the penplot command, which converts line art into
// G-code for a two-axis pen plotter.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"penplot/internal/calibration"
	"penplot/internal/gcode"
	pimage "penplot/internal/image"
	"penplot/internal/preprocess"
	"penplot/internal/preview"
	"penplot/internal/toolpath"
	"penplot/internal/version"
	"penplot/pkg/geometry"
)

const appName = "penplot"

type options struct {
	input        string
	output       string
	calibration  string
	width        float64
	height       float64
	start        geometry.PointInt
	pre          preprocess.Options
	maskOut      string
	previewOut   string
	previewWidth int
	verbose      bool
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var opts options
	defaults := preprocess.DefaultOptions()
	flag.StringVar(&opts.input, "input", "", "Path to the artwork (PNG, JPEG, TIFF or SVG)")
	flag.StringVar(&opts.output, "output", "", "G-code output path (default: input with .gcode extension)")
	flag.StringVar(&opts.calibration, "calibration", "", "Calibration YAML (default: 156 mm identity calibration)")
	flag.Float64Var(&opts.width, "width", 0, "Drawable width in mm (default: calibrated X travel)")
	flag.Float64Var(&opts.height, "height", 0, "Drawable height in mm (default: calibrated Y travel)")
	flag.IntVar(&opts.start.X, "start-x", 0, "Pen X position in steps when the job starts")
	flag.IntVar(&opts.start.Y, "start-y", 0, "Pen Y position in steps when the job starts")
	flag.Float64Var(&opts.pre.Blur, "blur", defaults.Blur, "Gaussian blur sigma in pixels (0 disables)")
	threshold := flag.Uint("threshold", uint(defaults.Threshold), "Gray level below which pixels are drawn (0-255)")
	flag.BoolVar(&opts.pre.Invert, "invert", false, "Invert the image first (light lines on dark paper)")
	method := flag.String("method", defaults.Method.String(), "Thinning method: zhangsuen or morphological")
	flag.StringVar(&opts.maskOut, "mask-out", "", "Also save the skeleton as a PNG")
	flag.StringVar(&opts.previewOut, "preview", "", "Also render the toolpath to a PNG")
	flag.IntVar(&opts.previewWidth, "preview-width", 800, "Preview width in pixels")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose conversion logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String(appName))
		return
	}
	if opts.input == "" {
		fmt.Println("Usage: penplot -input <image> [-output out.gcode] [-calibration calibration.yaml] [-preview preview.png]")
		os.Exit(1)
	}
	if *threshold > 255 {
		log.Fatalf("Threshold must be 0-255, got %d", *threshold)
	}
	opts.pre.Threshold = uint8(*threshold)

	m, err := preprocess.ParseMethod(*method)
	if err != nil {
		log.Fatalf("%v", err)
	}
	opts.pre.Method = m

	if opts.output == "" {
		opts.output = strings.TrimSuffix(opts.input, filepath.Ext(opts.input)) + ".gcode"
	}
	if opts.verbose {
		toolpath.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("%s: %v", appName, err)
	}
}

func run(ctx context.Context, opts options) error {
	log.Printf("Starting %s v%s", appName, version.Version)

	cal := calibration.Default()
	if opts.calibration != "" {
		var err error
		if cal, err = calibration.Load(opts.calibration); err != nil {
			return err
		}
		log.Printf("Loaded calibration %s", opts.calibration)
	}

	src, err := pimage.Load(opts.input)
	if err != nil {
		return err
	}
	log.Printf("Loaded %s image: %dx%d pixels", src.Format, src.Width(), src.Height())
	if size, ok := src.PhysicalSize(); ok {
		log.Printf("Image is %.0f DPI, %.1f x %.1f mm at print size", src.DPI, size.Width, size.Height)
	}

	began := time.Now()
	mask, err := preprocess.Run(src.Image, opts.pre)
	if err != nil {
		return fmt.Errorf("preprocessing: %w", err)
	}
	log.Printf("Skeleton: %d pixels (%s, %v)", mask.Count(), opts.pre.Settings(), time.Since(began).Round(time.Millisecond))

	if opts.maskOut != "" {
		if err := savePNG(opts.maskOut, mask.ToImage()); err != nil {
			return err
		}
		log.Printf("Saved skeleton to %s", opts.maskOut)
	}

	job := toolpath.DefaultJob(cal)
	if opts.width > 0 {
		job.Device.Width = opts.width
	}
	if opts.height > 0 {
		job.Device.Height = opts.height
	}
	job.Start = opts.start

	res, err := toolpath.Convert(ctx, mask, job)
	if err != nil {
		return fmt.Errorf("converting: %w", err)
	}
	log.Printf("Ordered %d strokes: travel %.0f -> %.0f steps", len(res.Ordered), res.TravelBefore, res.TravelAfter)
	if !toolpath.Drawn(res.Commands) {
		log.Printf("Nothing to draw in %s", opts.input)
	}

	if err := writeGCode(opts, res.Commands); err != nil {
		return err
	}
	est := gcode.EstimateDuration(gcode.Lines(res.Commands))
	log.Printf("Wrote %d commands to %s (estimated %v)", len(res.Commands), opts.output, est.Round(time.Second))

	if opts.previewOut != "" {
		limits := res.Mapper.Limits()
		canvas, err := preview.NewCanvas(geometry.SizeInt{Width: limits.X, Height: limits.Y}, opts.previewWidth)
		if err != nil {
			return err
		}
		if err := preview.SavePNG(opts.previewOut, res.Commands, canvas, preview.DefaultStyle()); err != nil {
			return err
		}
		log.Printf("Saved preview to %s", opts.previewOut)
	}
	return nil
}

func writeGCode(opts options, cmds []toolpath.Command) error {
	f, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("failed to create G-code file: %w", err)
	}
	h := gcode.Header{
		Source:   filepath.Base(opts.input),
		Date:     time.Now(),
		Settings: opts.pre.Settings(),
	}
	if err := gcode.Write(f, cmds, h); err != nil {
		f.Close()
		return fmt.Errorf("failed to write G-code: %w", err)
	}
	return f.Close()
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
