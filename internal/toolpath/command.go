package toolpath

import (
	"fmt"

	"penplot/pkg/geometry"
)

// Op is the kind of a plotter command.
type Op int

const (
	// PenUp lifts the pen off the paper.
	PenUp Op = iota
	// PenDown lowers the pen onto the paper.
	PenDown
	// MoveTo moves to an absolute step position, drawing if the pen is down.
	MoveTo
)

func (o Op) String() string {
	switch o {
	case PenUp:
		return "PenUp"
	case PenDown:
		return "PenDown"
	case MoveTo:
		return "MoveTo"
	default:
		return "Unknown"
	}
}

// Command is one step of a toolpath. At is only meaningful for MoveTo.
type Command struct {
	Op Op
	At geometry.PointInt
}

func (c Command) String() string {
	if c.Op == MoveTo {
		return fmt.Sprintf("MoveTo(%d,%d)", c.At.X, c.At.Y)
	}
	return c.Op.String()
}

// Up returns a PenUp command.
func Up() Command { return Command{Op: PenUp} }

// Down returns a PenDown command.
func Down() Command { return Command{Op: PenDown} }

// Move returns a MoveTo command.
func Move(p geometry.PointInt) Command { return Command{Op: MoveTo, At: p} }

// Drawn reports whether the command stream puts ink on paper, i.e. it holds
// anything besides the closing pen-up and return to origin.
func Drawn(cmds []Command) bool {
	for _, c := range cmds {
		if c.Op == PenDown {
			return true
		}
	}
	return false
}
