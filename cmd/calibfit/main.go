// Command calibfit fits a plotter calibration from measured points.
//
// The points file is a CSV with a stepX,stepY,mmX,mmY header: for each row
// the motors were driven to the step position and the pen mark was measured
// in millimetres from the origin.
package main

import (
	"flag"
	"fmt"
	"os"

	"penplot/internal/calibration"
)

func main() {
	pointsPath := flag.String("points", "", "Path to calibration points CSV")
	output := flag.String("output", "calibration.yaml", "Where to write the fitted calibration")
	limitX := flag.Float64("limit-x", calibration.DefaultLimitMM, "Physical X travel in mm")
	limitY := flag.Float64("limit-y", calibration.DefaultLimitMM, "Physical Y travel in mm")
	flag.Parse()

	if *pointsPath == "" {
		fmt.Println("Usage: calibfit -points <points.csv> [-output calibration.yaml] [-limit-x 156] [-limit-y 156]")
		os.Exit(1)
	}

	f, err := os.Open(*pointsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open points: %v\n", err)
		os.Exit(1)
	}
	points, err := calibration.ReadPoints(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", *pointsPath, err)
		os.Exit(1)
	}
	fmt.Printf("Read %d calibration points\n", len(points))

	cal, report, err := calibration.Fit(points, *limitX, *limitY)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fit failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%-4s %12s %12s %12s %12s %8s\n", "Axis", "mm->steps", "intercept", "steps->mm", "intercept", "R^2")
	for _, row := range []struct {
		name string
		axis calibration.Axis
		r2   float64
	}{
		{"X", cal.X, report.RSquaredX},
		{"Y", cal.Y, report.RSquaredY},
	} {
		fmt.Printf("%-4s %12.4f %12.4f %12.6f %12.4f %8.5f\n", row.name,
			row.axis.MMToSteps.Slope, row.axis.MMToSteps.Intercept,
			row.axis.StepsToMM.Slope, row.axis.StepsToMM.Intercept, row.r2)
	}
	fmt.Printf("\nLimits: X %d steps, Y %d steps\n", cal.X.LimitSteps(), cal.Y.LimitSteps())

	if err := cal.Save(*output); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save calibration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Saved calibration to %s\n", *output)
}
