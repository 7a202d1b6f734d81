// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package clierr classifies kubectl subprocess failures and formats them
// with actionable hints. The diagnosis reports never show these details
// (failed queries degrade to absent results there); classification feeds
// the debug trace and the startup preflight warning.
package clierr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Failure classes for kubectl invocations.
const (
	TypeNoBinary  = "no_binary"  // kubectl not installed / not in PATH
	TypeTimeout   = "timeout"    // invocation exceeded its deadline
	TypeForbidden = "forbidden"  // RBAC access denied
	TypeNotFound  = "not_found"  // resource or resource type missing
	TypeNetwork   = "network"    // cluster unreachable
	TypeBadOutput = "bad_output" // empty or undecodable kubectl output
	TypeInternal  = "internal"   // anything else
)

// IsMissingBinary checks if the error means kubectl itself could not be run.
func IsMissingBinary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file or directory")
}

// IsTimeout checks if the invocation was killed by its deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timed out") ||
		strings.Contains(msg, "context deadline exceeded")
}

// IsForbidden checks if the error is an access denied (RBAC) error.
func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "forbidden") ||
		strings.Contains(msg, "access denied") ||
		strings.Contains(msg, "unauthorized")
}

// IsNotFound checks if the error indicates a missing resource or resource type.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "doesn't have a resource type") ||
		strings.Contains(msg, "no matches for kind") ||
		strings.Contains(msg, "the server could not find")
}

// IsNetworkError checks if the error is a connection/network error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection to the server") ||
		strings.Contains(msg, "unable to connect to the server") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "network is unreachable") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "i/o timeout")
}

// IsBadOutput checks if kubectl succeeded but its output was unusable.
func IsBadOutput(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "empty output") ||
		strings.Contains(msg, "malformed json")
}

// ClassifyError determines the failure class for trace output and hints.
// Binary and timeout failures win over message-pattern matches since their
// messages can contain misleading substrings from the attempted command.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case IsMissingBinary(err):
		return TypeNoBinary
	case IsTimeout(err):
		return TypeTimeout
	case IsForbidden(err):
		return TypeForbidden
	case IsNotFound(err):
		return TypeNotFound
	case IsNetworkError(err):
		return TypeNetwork
	case IsBadOutput(err):
		return TypeBadOutput
	default:
		return TypeInternal
	}
}

// Pretty formats an error with a user-friendly message and actionable hints.
func Pretty(err error) string {
	if err == nil {
		return ""
	}

	baseMsg := err.Error()
	switch ClassifyError(err) {
	case TypeNoBinary:
		return fmt.Sprintf("kubectl not available: %s\n\nHint: Install kubectl and ensure it is in your PATH:\n"+
			"  - https://kubernetes.io/docs/tasks/tools/\n"+
			"  - or point TERMSCOUT_KUBECTL at an existing binary", baseMsg)

	case TypeTimeout:
		return fmt.Sprintf("Query timed out: %s\n\nHint: The cluster may be overloaded or unreachable.\n"+
			"  - kubectl cluster-info to verify connection\n"+
			"  - raise timeoutSeconds in ~/.term-scout/config.yaml for slow clusters", baseMsg)

	case TypeForbidden:
		return fmt.Sprintf("Access denied: %s\n\nHint: Check your RBAC permissions. You may need:\n"+
			"  - ClusterRole with get/list permissions for the resources you're accessing\n"+
			"  - kubectl auth can-i list <resource> to verify permissions", baseMsg)

	case TypeNotFound:
		return fmt.Sprintf("Not found: %s", baseMsg)

	case TypeNetwork:
		return fmt.Sprintf("Connection error: %s\n\nHint: Check your cluster connectivity:\n"+
			"  - kubectl cluster-info to verify connection\n"+
			"  - Ensure your kubeconfig context points at the right cluster", baseMsg)

	case TypeBadOutput:
		return fmt.Sprintf("Unusable kubectl output: %s\n\nHint: Run the same kubectl command by hand to see what it prints.", baseMsg)

	default:
		return fmt.Sprintf("Error: %s", baseMsg)
	}
}
