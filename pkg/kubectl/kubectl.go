// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package kubectl is the gateway to the cluster. Every query shells out to
// the kubectl binary and decodes its JSON output; the tool never talks to
// the API server directly. All failure modes (non-zero exit, timeout, empty
// output, malformed JSON) collapse to an absent result so callers degrade
// instead of erroring. No query is ever retried.
package kubectl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Tracer receives a record of each kubectl invocation for debug logging.
type Tracer interface {
	Trace(args []string, dur time.Duration, err error)
}

// Client issues kubectl queries through a Runner.
type Client struct {
	runner Runner
	tracer Tracer
}

// NewClient returns a client without tracing.
func NewClient(runner Runner) *Client {
	return &Client{runner: runner}
}

// NewClientWithTracer returns a client that reports every invocation,
// including decode failures, to the tracer.
func NewClientWithTracer(runner Runner, tracer Tracer) *Client {
	return &Client{runner: runner, tracer: tracer}
}

// Query fetches resources of a canonical plural kind as JSON. Returns nil
// on any failure.
//
// Namespace routing: cluster-scoped kinds take no namespace flags at all;
// an explicit namespace adds -n; otherwise the query spans all namespaces
// with -A. The name, when given, is the final argument.
func (c *Client) Query(ctx context.Context, kind, name, namespace string) *unstructured.Unstructured {
	args := []string{"get", kind, "-o", "json"}
	switch {
	case ClusterScoped(kind):
	case namespace != "":
		args = append(args, "-n", namespace)
	default:
		args = append(args, "-A")
	}
	if name != "" {
		args = append(args, name)
	}
	return c.getJSON(ctx, args)
}

// QueryQualified fetches a single namespaced resource addressed as a
// compound "kind/name" token. Some kinds reject the compound form, so a
// failed first attempt is retried with kind and name split on the first
// slash as separate arguments. Returns nil only when both attempts fail.
func (c *Client) QueryQualified(ctx context.Context, qualified, namespace string) *unstructured.Unstructured {
	if obj := c.getJSON(ctx, []string{"get", qualified, "-n", namespace, "-o", "json"}); obj != nil {
		return obj
	}
	resourceType, name, ok := strings.Cut(qualified, "/")
	if !ok {
		return nil
	}
	return c.getJSON(ctx, []string{"get", resourceType, name, "-n", namespace, "-o", "json"})
}

// APIResources returns the names of every namespaced resource type the
// cluster can list, one per entry. Nil on failure.
func (c *Client) APIResources(ctx context.Context) []string {
	return c.lines(ctx, []string{"api-resources", "--verbs=list", "--namespaced", "-o", "name"})
}

// NamesInNamespace returns the qualified kind/name tokens of every object
// of the given resource type inside the namespace. Nil on failure or when
// none exist.
func (c *Client) NamesInNamespace(ctx context.Context, resource, namespace string) []string {
	return c.lines(ctx, []string{"get", resource, "-n", namespace, "--ignore-not-found", "-o", "name", "--no-headers"})
}

// Events returns recent event lines sorted by last timestamp, optionally
// scoped to a namespace and filtered by a field selector. Nil on failure.
func (c *Client) Events(ctx context.Context, namespace, fieldSelector string) []string {
	args := []string{"get", "events"}
	if namespace != "" {
		args = append(args, "-n", namespace)
	}
	if fieldSelector != "" {
		args = append(args, "--field-selector", fieldSelector)
	}
	args = append(args, "--sort-by=.lastTimestamp", "--no-headers")
	return c.lines(ctx, args)
}

// APIServices returns the raw apiservice listing, one line per service.
// Nil on failure.
func (c *Client) APIServices(ctx context.Context) []string {
	return c.lines(ctx, []string{"get", "apiservices", "--no-headers"})
}

// getJSON runs kubectl and decodes stdout into an unstructured object.
// Empty or malformed output counts as failure and is traced as such.
func (c *Client) getJSON(ctx context.Context, args []string) *unstructured.Unstructured {
	start := time.Now()
	out, err := c.runner.Run(ctx, args...)
	if err == nil && len(bytes.TrimSpace(out)) == 0 {
		err = errors.New("empty output")
	}
	var obj *unstructured.Unstructured
	if err == nil {
		var m map[string]interface{}
		if jerr := json.Unmarshal(out, &m); jerr != nil {
			err = fmt.Errorf("malformed json: %w", jerr)
		} else {
			obj = &unstructured.Unstructured{Object: m}
		}
	}
	c.trace(args, time.Since(start), err)
	if err != nil {
		return nil
	}
	return obj
}

// lines runs kubectl and splits stdout into trimmed non-empty lines.
func (c *Client) lines(ctx context.Context, args []string) []string {
	start := time.Now()
	out, err := c.runner.Run(ctx, args...)
	c.trace(args, time.Since(start), err)
	if err != nil {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func (c *Client) trace(args []string, dur time.Duration, err error) {
	if c.tracer != nil {
		c.tracer.Trace(args, dur, err)
	}
}
