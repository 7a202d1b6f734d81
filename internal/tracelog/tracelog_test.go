// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package tracelog

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNewWritesHeaderAndTraceLines(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	l.Log("command: term-scout pod -n app")
	l.Section("scan")
	l.Trace([]string{"get", "pods", "-o", "json", "-A"}, 82*time.Millisecond, nil)
	l.Trace([]string{"get", "configmaps", "-o", "json", "-A"}, 61*time.Millisecond,
		errors.New("Error from server (Forbidden): configmaps is forbidden\nsecond line ignored"))

	path := l.Close()
	if path == "" {
		t.Fatal("Close() returned empty path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading trace file: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"term-scout kubectl trace",
		"command: term-scout pod -n app",
		"--- scan ---",
		"kubectl get pods -o json -A (82ms)",
		"kubectl get configmaps -o json -A (61ms) FAIL forbidden: Error from server (Forbidden): configmaps is forbidden",
		"Finished after",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("trace file missing %q\n---\n%s", want, content)
		}
	}
	if strings.Contains(content, "second line ignored") {
		t.Error("trace line should keep only the first line of a multi-line error")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Log("nothing")
	l.Section("nothing")
	l.Trace([]string{"get", "pods"}, time.Millisecond, nil)
	if got := l.Close(); got != "" {
		t.Errorf("nil Close() = %q, want empty", got)
	}
	if got := l.Path(); got != "" {
		t.Errorf("nil Path() = %q, want empty", got)
	}
}

func TestFromEnv(t *testing.T) {
	dir := t.TempDir()

	t.Setenv(EnvVar, "")
	if l := FromEnv(dir); l != nil {
		t.Error("FromEnv() should be nil when the env var is unset")
	}

	t.Setenv(EnvVar, "0")
	if l := FromEnv(dir); l != nil {
		t.Error("FromEnv() should be nil when the env var is not \"1\"")
	}

	t.Setenv(EnvVar, "1")
	l := FromEnv(dir)
	if l == nil {
		t.Fatal("FromEnv() returned nil with TERMSCOUT_DEBUG=1")
	}
	if l.Path() == "" {
		t.Error("enabled logger has no path")
	}
	l.Close()
}

func TestCloseTwice(t *testing.T) {
	l, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	first := l.Close()
	second := l.Close()
	if first == "" {
		t.Error("first Close() returned empty path")
	}
	if second != "" {
		t.Errorf("second Close() = %q, want empty", second)
	}
}
