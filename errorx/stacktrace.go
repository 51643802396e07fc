package errorx

import (
	"fmt"
	"runtime"
	"strings"
)

const stackTraceDepth = 32

type Frame struct {
	File     string
	Line     int
	Function string
}

// String renders the frame as "\tat pkg.Func (file:line)".
func (f Frame) String() string {
	fn := f.Function
	if i := strings.LastIndexByte(fn, '/'); i >= 0 {
		fn = fn[i+1:]
	}
	return fmt.Sprintf("\tat %s (%s:%d)", fn, f.File, f.Line)
}

// Callers are the program counters captured by runtime.Callers.
type Callers []uintptr

func (c Callers) Frames() []Frame {
	if len(c) == 0 {
		return nil
	}

	frames := make([]Frame, 0, len(c))
	it := runtime.CallersFrames(c)
	for more := true; more; {
		var fr runtime.Frame
		fr, more = it.Next()
		frames = append(frames, Frame{File: fr.File, Line: fr.Line, Function: fr.Function})
	}
	return frames
}

// String renders one frame per line.
func (c Callers) String() string {
	var sb strings.Builder
	for _, f := range c.Frames() {
		sb.WriteString(f.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func callers(skip int) Callers {
	pcs := make([]uintptr, stackTraceDepth)
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}
