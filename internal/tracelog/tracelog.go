// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package tracelog writes the optional kubectl invocation trace. The trace
// never touches stdout: the report surface stays byte-identical whether
// tracing is on or off.
package tracelog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/monadic/term-scout/internal/clierr"
)

// EnvVar enables tracing when set to "1".
const EnvVar = "TERMSCOUT_DEBUG"

// Logger appends trace lines to a timestamped file. All methods are safe on
// a nil receiver so call sites need no guards when tracing is off.
type Logger struct {
	file      *os.File
	path      string
	startTime time.Time
}

// FromEnv returns a logger when TERMSCOUT_DEBUG=1, nil otherwise. Creation
// failures disable tracing rather than failing the run.
func FromEnv(dir string) *Logger {
	if os.Getenv(EnvVar) != "1" {
		return nil
	}
	l, err := New(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: debug trace disabled: %v\n", err)
		return nil
	}
	return l
}

// New creates a trace file under dir and writes the header.
func New(dir string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}
	timestamp := time.Now().Format("2006-01-02-150405")
	path := filepath.Join(dir, fmt.Sprintf("term-scout-%s.log", timestamp))
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace file: %w", err)
	}
	l := &Logger{file: f, path: path, startTime: time.Now()}
	l.writeHeader()
	return l, nil
}

func (l *Logger) writeHeader() {
	fmt.Fprintln(l.file, strings.Repeat("=", 79))
	fmt.Fprintln(l.file, "term-scout kubectl trace")
	fmt.Fprintf(l.file, "Started: %s\n", l.startTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(l.file, strings.Repeat("=", 79))
}

// Log writes a timestamped free-form line.
func (l *Logger) Log(format string, args ...interface{}) {
	if l == nil || l.file == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05")
	fmt.Fprintf(l.file, "[%s] %s\n", timestamp, fmt.Sprintf(format, args...))
}

// Section writes a visual separator for a new phase.
func (l *Logger) Section(title string) {
	if l == nil || l.file == nil {
		return
	}
	fmt.Fprintf(l.file, "\n--- %s ---\n", title)
}

// Trace records one kubectl invocation with its duration and, on failure,
// the classified error. Satisfies the gateway's tracer interface.
func (l *Logger) Trace(args []string, dur time.Duration, err error) {
	if l == nil || l.file == nil {
		return
	}
	line := fmt.Sprintf("kubectl %s (%s)", strings.Join(args, " "), dur.Round(time.Millisecond))
	if err != nil {
		line += fmt.Sprintf(" FAIL %s: %s", clierr.ClassifyError(err), firstLine(err.Error()))
	}
	l.Log("%s", line)
}

// Close writes the footer and returns the trace file path, "" when tracing
// was off.
func (l *Logger) Close() string {
	if l == nil || l.file == nil {
		return ""
	}
	fmt.Fprintln(l.file, strings.Repeat("=", 79))
	fmt.Fprintf(l.file, "Finished after %s\n", time.Since(l.startTime).Round(time.Millisecond))
	fmt.Fprintln(l.file, strings.Repeat("=", 79))
	l.file.Close()
	l.file = nil
	return l.path
}

// Path returns the trace file location, "" when tracing is off.
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
