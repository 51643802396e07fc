package internaltracex

import (
	"runtime"
	"strconv"
	"strings"
)

const (
	maxFrames     = 10
	maxStackBytes = 1024
)

// GetStackTrace renders the calling goroutine stack, skipping the first skip frames
// (runtime.Callers counts itself as frame 0 and GetStackTrace as frame 1).
// The output is truncated after about 1KB.
func GetStackTrace(skip int) string {
	pc := make([]uintptr, maxFrames)
	frames := runtime.CallersFrames(pc[:runtime.Callers(skip, pc)])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		sb.WriteString(f.Function)
		sb.WriteString("\n\t")
		sb.WriteString(f.File)
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(f.Line))
		sb.WriteByte('\n')
		if !more || sb.Len() > maxStackBytes {
			return sb.String()
		}
	}
}
