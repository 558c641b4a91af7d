// Command stroketest runs stroke extraction on an image and prints what the
// tracer sees: pixel classes, stroke statistics and pen travel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"penplot/internal/calibration"
	pimage "penplot/internal/image"
	"penplot/internal/preprocess"
	"penplot/internal/skeleton"
	"penplot/internal/toolpath"
	"penplot/internal/trace"
)

func main() {
	imagePath := flag.String("image", "", "Path to artwork (PNG, JPEG, TIFF or SVG)")
	threshold := flag.Int("threshold", 128, "Gray threshold")
	blur := flag.Float64("blur", 1.0, "Gaussian blur sigma")
	invert := flag.Bool("invert", false, "Invert before thresholding")
	method := flag.String("method", "zhangsuen", "Thinning method: zhangsuen or morphological")
	list := flag.Int("list", 20, "Number of strokes to list")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: stroketest -image <path> [-threshold 128] [-blur 1.0] [-invert] [-method zhangsuen]")
		os.Exit(1)
	}

	if *threshold < 0 || *threshold > 255 {
		fmt.Fprintf(os.Stderr, "Threshold must be 0-255, got %d\n", *threshold)
		os.Exit(1)
	}

	src, err := pimage.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %s image: %dx%d pixels\n", src.Format, src.Width(), src.Height())

	opts := preprocess.Options{Blur: *blur, Threshold: uint8(*threshold), Invert: *invert}
	if opts.Method, err = preprocess.ParseMethod(*method); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Preprocessing: %s\n", opts.Settings())

	mask, err := preprocess.Run(src.Image, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Preprocessing failed: %v\n", err)
		os.Exit(1)
	}

	res, err := toolpath.Convert(context.Background(), mask, toolpath.DefaultJob(calibration.Default()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conversion failed: %v\n", err)
		os.Exit(1)
	}

	hist := res.Topology.Histogram()
	fmt.Printf("\nSkeleton pixels: %d\n", mask.Count())
	for _, c := range []skeleton.Class{skeleton.Isolated, skeleton.Endpoint, skeleton.Interior, skeleton.Junction} {
		fmt.Printf("  %-10s %8d\n", c, hist[c])
	}

	st := trace.Summarize(res.Ordered)
	fmt.Printf("\nStrokes: %d (open %d, closed %d, dots %d)\n", st.Strokes, st.Open, st.Closed, st.Dots)
	fmt.Printf("Drawn length: %.1f px over %d points, longest %.1f px\n", st.Length, st.Points, st.Longest)
	fmt.Printf("Travel: %.0f steps in extraction order, %.0f after ordering\n", res.TravelBefore, res.TravelAfter)
	fmt.Printf("Commands: %d\n", len(res.Commands))

	if *list > 0 && len(res.Ordered) > 0 {
		fmt.Printf("\n%-6s %s\n", "#", "Stroke")
		fmt.Println(strings.Repeat("-", 60))
		for i, s := range res.Ordered {
			if i == *list {
				fmt.Printf("... %d more\n", len(res.Ordered)-i)
				break
			}
			fmt.Printf("%-6d %s\n", i, s)
		}
	}
}
