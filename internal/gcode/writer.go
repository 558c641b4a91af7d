// Package gcode renders plotter command streams as G-code text and reads
// G-code back for estimation and preview.
package gcode

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"penplot/internal/toolpath"
)

// Pen lift commands understood by the plotter firmware. Coordinates in X and
// Y are motor steps, not millimetres.
const (
	PenUpCommand   = "G0 Z100.0"
	PenDownCommand = "G0 Z0.0"
)

// Header is written as comments at the top of a G-code file.
type Header struct {
	Source   string
	Date     time.Time
	Settings string
}

// Lines renders commands one instruction per line. Moves are rapid (G0)
// while the pen is up and linear (G1) while it is down; the pen starts up.
func Lines(cmds []toolpath.Command) []string {
	lines := make([]string, 0, len(cmds))
	down := false
	for _, c := range cmds {
		switch c.Op {
		case toolpath.PenUp:
			down = false
			lines = append(lines, PenUpCommand)
		case toolpath.PenDown:
			down = true
			lines = append(lines, PenDownCommand)
		case toolpath.MoveTo:
			code := "G0"
			if down {
				code = "G1"
			}
			lines = append(lines, fmt.Sprintf("%s X%d Y%d", code, c.At.X, c.At.Y))
		}
	}
	return lines
}

// Write renders a complete G-code file: header comments, unit and
// positioning preamble, the command body and the motor-disable footer.
func Write(w io.Writer, cmds []toolpath.Command, h Header) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "; G-code generated by penplot")
	if h.Source != "" || !h.Date.IsZero() {
		fmt.Fprintf(bw, "; Source: %s, Date: %s\n", h.Source, h.Date.Format("2006-01-02 15:04:05"))
	}
	if h.Settings != "" {
		fmt.Fprintf(bw, "; Settings: %s\n", h.Settings)
	}
	fmt.Fprintln(bw, "; NOTE: Coordinates are in STEPS, not millimeters (calibrated for this plotter)")
	fmt.Fprintln(bw, "G21 ; Use millimeters (ignored by firmware - coordinates are steps)")
	fmt.Fprintln(bw, "G90 ; Use absolute positioning")
	fmt.Fprintln(bw, PenUpCommand)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "; --- Start Drawing ---")
	for _, line := range Lines(cmds) {
		fmt.Fprintln(bw, line)
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "; --- End Drawing ---")
	fmt.Fprintln(bw, "M84 ; Disable motors")

	return bw.Flush()
}
