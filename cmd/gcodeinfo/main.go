// Command gcodeinfo reads a plotter G-code file, estimates how long it will
// take and optionally renders it to a PNG.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"penplot/internal/calibration"
	"penplot/internal/gcode"
	"penplot/internal/preview"
	"penplot/internal/toolpath"
	"penplot/pkg/geometry"
)

func main() {
	path := flag.String("gcode", "", "Path to G-code file")
	calPath := flag.String("calibration", "", "Calibration YAML, for the preview extent")
	previewOut := flag.String("preview", "", "Render the toolpath to this PNG")
	width := flag.Int("preview-width", 800, "Preview width in pixels")
	hideTravel := flag.Bool("hide-travel", false, "Do not draw pen-up moves")
	sent := flag.Int("sent", 0, "Lines already sent, to estimate the time left")
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: gcodeinfo -gcode <file> [-preview out.png] [-calibration calibration.yaml]")
		os.Exit(1)
	}

	f, err := os.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open G-code: %v\n", err)
		os.Exit(1)
	}
	lines, err := gcode.ReadLines(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read G-code: %v\n", err)
		os.Exit(1)
	}

	var moves, bad int
	var longest time.Duration
	for _, line := range lines {
		l, err := gcode.ParseLine(line)
		if err != nil {
			bad++
		} else if l.IsMove() {
			moves++
		}
		if t := gcode.MoveTimeout(line); t > longest {
			longest = t
		}
	}

	cmds := gcode.Commands(lines)
	fmt.Printf("Lines: %d (%d moves, %d unparsable)\n", len(lines), moves, bad)
	fmt.Printf("Commands: %d, draws: %v\n", len(cmds), toolpath.Drawn(cmds))
	est := gcode.EstimateDuration(lines)
	fmt.Printf("Estimated duration: %v\n", est.Round(time.Second))
	if *sent > 0 {
		fmt.Printf("Remaining after %d of %d lines: %v\n", *sent, len(lines), gcode.Remaining(est, *sent, len(lines)).Round(time.Second))
	}
	fmt.Printf("Longest line timeout: %v\n", longest)

	if *previewOut == "" {
		return
	}

	cal := calibration.Default()
	if *calPath != "" {
		if cal, err = calibration.Load(*calPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
	}
	canvas, err := preview.NewCanvas(geometry.SizeInt{Width: cal.X.LimitSteps(), Height: cal.Y.LimitSteps()}, *width)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	style := preview.DefaultStyle()
	if *hideTravel {
		style.Travel = nil
	}
	if err := preview.SavePNG(*previewOut, cmds, canvas, style); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved preview to %s\n", *previewOut)
}
