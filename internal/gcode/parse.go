package gcode

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"penplot/internal/toolpath"
	"penplot/pkg/geometry"
)

// Line is one parsed G-code line. Code is empty for blank and comment-only
// lines.
type Line struct {
	Code    string
	X, Y, Z float64
	HasX    bool
	HasY    bool
	HasZ    bool
	Comment string
}

// IsMove reports whether the line is a G0 or G1 motion.
func (l Line) IsMove() bool {
	return l.Code == "G0" || l.Code == "G1"
}

// ParseLine parses words such as "G1 X120 Y45 ; comment". Unknown letters are
// ignored; a malformed number is an error.
func ParseLine(s string) (Line, error) {
	var l Line
	if i := strings.IndexByte(s, ';'); i >= 0 {
		l.Comment = strings.TrimSpace(s[i+1:])
		s = s[:i]
	}
	fields := strings.Fields(strings.ToUpper(s))
	if len(fields) == 0 {
		return l, nil
	}
	l.Code = normalizeCode(fields[0])

	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		switch f[0] {
		case 'X', 'Y', 'Z':
		default:
			continue
		}
		v, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			return l, fmt.Errorf("bad %c value %q", f[0], f[1:])
		}
		switch f[0] {
		case 'X':
			l.X, l.HasX = v, true
		case 'Y':
			l.Y, l.HasY = v, true
		case 'Z':
			l.Z, l.HasZ = v, true
		}
	}
	return l, nil
}

// normalizeCode turns "G00" into "G0" and "G01" into "G1".
func normalizeCode(code string) string {
	if len(code) > 1 && (code[0] == 'G' || code[0] == 'M') {
		if n, err := strconv.Atoi(code[1:]); err == nil {
			return fmt.Sprintf("%c%d", code[0], n)
		}
	}
	return code
}

// ReadLines returns the raw lines of a G-code stream with trailing whitespace
// removed.
func ReadLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), " \t\r"))
	}
	return lines, sc.Err()
}

// Commands converts G-code back into plotter commands, the way the path
// visualiser reads files: a Z move to a height at or below zero lowers the
// pen, anything above lifts it. Missing X or Y keep their previous value.
// Unparsable lines are skipped.
func Commands(lines []string) []toolpath.Command {
	var cmds []toolpath.Command
	var pos geometry.PointInt
	for _, s := range lines {
		l, err := ParseLine(s)
		if err != nil || !l.IsMove() {
			continue
		}
		if l.HasZ {
			if l.Z <= 0 {
				cmds = append(cmds, toolpath.Down())
			} else {
				cmds = append(cmds, toolpath.Up())
			}
		}
		if l.HasX || l.HasY {
			if l.HasX {
				pos.X = int(math.Round(l.X))
			}
			if l.HasY {
				pos.Y = int(math.Round(l.Y))
			}
			cmds = append(cmds, toolpath.Move(pos))
		}
	}
	return cmds
}
