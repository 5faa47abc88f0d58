// Package logger provides verbose logging for the tablevote CLI and the
// extractor. Debug and info messages go to stderr only when verbose mode is
// enabled with --verbose; warnings are always written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(true, "[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(true, "[INFO] ", format, args...)
}

// Warn prints a warning message regardless of verbose mode.
func Warn(format string, args ...any) {
	logf(false, "[WARN] ", format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long a step took. Call the returned function when the step
// is done:
//
//	defer logger.Timed("combine")()
func Timed(step string) func() {
	start := time.Now()
	return func() {
		Debug("%s took %s", step, time.Since(start).Round(time.Microsecond))
	}
}

// logf holds the write lock so concurrent messages never interleave.
func logf(gated bool, prefix, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if gated && !verbose {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
