// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package kubectl

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single kubectl invocation.
const DefaultTimeout = 60 * time.Second

// Runner executes one kubectl invocation and returns its stdout. Tests
// substitute a fake so no subprocess is ever spawned.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// ExecRunner runs the real kubectl binary via os/exec.
type ExecRunner struct {
	Binary  string
	Timeout time.Duration
}

// NewExecRunner returns a runner for the given binary. Empty binary falls
// back to "kubectl" from PATH; zero timeout falls back to DefaultTimeout.
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	if binary == "" {
		binary = "kubectl"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Binary: binary, Timeout: timeout}
}

// Run invokes kubectl with the given args, capturing stdout and stderr
// separately. On failure the returned error carries the first stderr detail
// so it can be classified; stdout is never partially returned.
func (r *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, r.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("kubectl timed out after %s: %w", r.Timeout, runCtx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
