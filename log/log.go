// Package log provides the leveled, ANSI-colored logger used across
// nodeflow, in the same spirit as graft's own log package: free functions
// operating on a single process-wide logger, gated by verbosity level.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/starkandwayne/goutils/ansi"
)

// Level is the verbosity level of the logger.
type Level int

const (
	// LevelError only prints warnings/errors.
	LevelError Level = iota
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	mu            sync.Mutex
	level         = LevelError
	out           io.Writer = os.Stderr
	color                   = isatty.IsTerminal(os.Stderr.Fd())
	warningsMuted bool
)

// SetLevel sets the process-wide verbosity level.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetColor forces color on or off, overriding terminal detection.
func SetColor(on bool) {
	mu.Lock()
	defer mu.Unlock()
	color = on
}

// SilenceWarnings suppresses WARN output, mirroring graft's
// SilenceWarnings toggle used by tests that expect warnings on stderr.
func SilenceWarnings(should bool) {
	mu.Lock()
	defer mu.Unlock()
	warningsMuted = should
}

func printf(min Level, prefix, format string, args ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if level < min {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if color {
		fmt.Fprintln(out, ansi.Sprintf("%s %s", prefix, msg))
	} else {
		fmt.Fprintf(out, "%s %s\n", ansi.Strip(prefix), ansi.Strip(msg))
	}
}

// TRACE logs a fine-grained per-read/per-resolve message.
func TRACE(format string, args ...interface{}) {
	printf(LevelTrace, "@b{trace:}", format, args...)
}

// DEBUG logs a per-node-evaluation message.
func DEBUG(format string, args ...interface{}) {
	printf(LevelDebug, "@c{debug:}", format, args...)
}

// INFO logs a top-level progress message.
func INFO(format string, args ...interface{}) {
	printf(LevelInfo, "@g{info:}", format, args...)
}

// WARN logs a warning; suppressed when SilenceWarnings(true) was called.
func WARN(format string, args ...interface{}) {
	mu.Lock()
	muted := warningsMuted
	mu.Unlock()
	if muted {
		return
	}
	printf(LevelError, "@Y{warning:}", format, args...)
}

// PrintfStdErr writes directly to stderr regardless of level, for
// unconditional diagnostics (mirrors graft's log.PrintfStdErr).
func PrintfStdErr(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}
