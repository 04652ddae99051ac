package crawl

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Reporter receives human-readable progress lines from the engines.
type Reporter interface {
	Printf(format string, args ...interface{})
}

// SilentReporter drops every line.
type SilentReporter struct{}

func (r *SilentReporter) Printf(format string, args ...interface{}) {}

// ColorReporter writes lines, already colorized by the engine, to Writer
// (typically stderr). It is safe for concurrent runs sharing one reporter.
type ColorReporter struct {
	Writer io.Writer

	mu sync.Mutex // serializes writes to Writer
}

func (r *ColorReporter) Printf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.Writer, line)
}

// LogReporter forwards each line to a zerolog logger at info level. Color
// codes are left to the logger's writer, which must be safe for concurrent
// use when runs share the reporter (wrap it in zerolog.SyncWriter).
type LogReporter struct {
	Logger zerolog.Logger
}

func (r *LogReporter) Printf(format string, args ...interface{}) {
	r.Logger.Info().Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func reporterOrSilent(r Reporter) Reporter {
	if r == nil {
		return &SilentReporter{}
	}
	return r
}
