package toolpath

import (
	"penplot/internal/trace"
	"penplot/pkg/geometry"
)

// Emit converts ordered strokes into plotter commands. Each stroke is
// reached with the pen up, drawn with the pen down, and the stream always
// ends by lifting the pen and returning to the origin. A single-point stroke
// becomes a dot: the pen is lowered at the point and lifted again by the next
// stroke or the closing sequence.
func Emit(strokes []trace.Stroke, m *Mapper) []Command {
	n := 2
	for _, s := range strokes {
		n += s.Len() + 2
	}
	cmds := make([]Command, 0, n)

	for _, s := range strokes {
		if s.Len() == 0 {
			continue
		}
		cmds = append(cmds, Up(), Move(m.ToDevice(s.First())), Down())
		for _, p := range s.Points[1:] {
			cmds = append(cmds, Move(m.ToDevice(p)))
		}
	}

	return append(cmds, Up(), Move(geometry.PointInt{}))
}
