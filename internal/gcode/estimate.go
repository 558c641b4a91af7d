package gcode

import (
	"math"
	"strings"
	"time"
)

// Timing of the plotter firmware.
const (
	StepDelay      = 2 * time.Millisecond // per motor step
	BaseTimeout    = 3 * time.Second      // any command, including non-moves
	MinMoveTimeout = 5 * time.Second
	MaxMoveTimeout = 120 * time.Second
	ParseTimeout   = 30 * time.Second // move lines whose coordinates cannot be read

	otherCommandTime = 100 * time.Millisecond
	unparsedMoveTime = time.Second
)

// SafetyMargin is added on top of the expected motion time, as a fraction.
const SafetyMargin = 1.5

func isMoveLine(s string) bool {
	return strings.HasPrefix(s, "G0") || strings.HasPrefix(s, "G1")
}

// maxSteps is the largest absolute axis coordinate on the line. Coordinates
// are absolute, so this is the worst case distance of the move.
func maxSteps(l Line, withZ bool) float64 {
	m := math.Max(math.Abs(l.X), math.Abs(l.Y))
	if withZ {
		m = math.Max(m, math.Abs(l.Z))
	}
	return m
}

func stepTime(steps float64) time.Duration {
	return time.Duration(steps * float64(StepDelay))
}

// MoveTimeout is how long to wait for the firmware to acknowledge a line.
// Non-move lines get BaseTimeout. Moves get the expected motion time plus
// the safety margin and BaseTimeout, bounded to [MinMoveTimeout,
// MaxMoveTimeout].
func MoveTimeout(line string) time.Duration {
	line = strings.TrimSpace(line)
	if !isMoveLine(line) {
		return BaseTimeout
	}
	l, err := ParseLine(line)
	if err != nil {
		return ParseTimeout
	}

	est := stepTime(maxSteps(l, false))
	total := est + time.Duration(float64(est)*SafetyMargin) + BaseTimeout
	if total < MinMoveTimeout {
		return MinMoveTimeout
	}
	if total > MaxMoveTimeout {
		return MaxMoveTimeout
	}
	return total
}

// EstimateDuration estimates how long the plotter needs for a whole file.
// Blank and comment lines are free.
func EstimateDuration(lines []string) time.Duration {
	var total time.Duration
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if !isMoveLine(line) {
			total += otherCommandTime
			continue
		}
		l, err := ParseLine(line)
		if err != nil {
			total += unparsedMoveTime
			continue
		}
		total += stepTime(maxSteps(l, true))
	}
	return total
}

// Remaining scales an estimate down to the lines not yet sent.
func Remaining(estimate time.Duration, sent, count int) time.Duration {
	if count <= 0 || sent >= count {
		return 0
	}
	if sent < 0 {
		sent = 0
	}
	return time.Duration(float64(estimate) * float64(count-sent) / float64(count))
}
