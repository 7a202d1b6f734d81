// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package diagnose turns kubectl query results into the terminating-state
// report: a short listing or a full per-resource diagnosis with remediation
// commands. Output is strictly serial; the same findings back both the
// human text and the --json document.
package diagnose

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/monadic/term-scout/pkg/kubectl"
)

// TerminatingResource is one record found by the scan.
type TerminatingResource struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Namespace string `json:"namespace,omitempty"`
}

// RemainingResource is one object still present inside a terminating
// namespace. Type is the api-resource catalog name it was listed under;
// Resource is the qualified kind/name token kubectl printed for it.
type RemainingResource struct {
	Type          string   `json:"type"`
	Resource      string   `json:"resource"`
	Finalizers    []string `json:"finalizers,omitempty"`
	PatchCommand  string   `json:"patchCommand,omitempty"`
	DeleteCommand string   `json:"deleteCommand"`
}

// NamespaceDiagnosis is the full finding set for one terminating namespace.
type NamespaceDiagnosis struct {
	Name                   string              `json:"name"`
	Fetched                bool                `json:"fetched"`
	DeletionTimestamp      string              `json:"deletionTimestamp,omitempty"`
	Finalizers             []string            `json:"finalizers,omitempty"`
	Remaining              []RemainingResource `json:"remaining,omitempty"`
	RemainingTotal         int                 `json:"remainingTotal,omitempty"`
	UnavailableAPIServices []string            `json:"unavailableApiServices,omitempty"`
	Events                 []string            `json:"events,omitempty"`
	PatchCommand           string              `json:"patchCommand,omitempty"`
}

// ResourceDiagnosis is the finding set for one terminating namespaced
// resource.
type ResourceDiagnosis struct {
	Kind              string   `json:"kind"`
	Name              string   `json:"name"`
	Namespace         string   `json:"namespace,omitempty"`
	Fetched           bool     `json:"fetched"`
	DeletionTimestamp string   `json:"deletionTimestamp,omitempty"`
	Finalizers        []string `json:"finalizers,omitempty"`
	Owners            []string `json:"owners,omitempty"`
	Events            []string `json:"events,omitempty"`
	PatchCommand      string   `json:"patchCommand,omitempty"`
}

// Report is the combined document a run produces.
type Report struct {
	Context     string                `json:"context,omitempty"`
	ScannedAt   time.Time             `json:"scannedAt"`
	Terminating []TerminatingResource `json:"terminating"`
	Namespaces  []NamespaceDiagnosis  `json:"namespaces,omitempty"`
	Resources   []ResourceDiagnosis   `json:"resources,omitempty"`
	Summary     Summary               `json:"summary"`
}

// Summary counts what the run found.
type Summary struct {
	Terminating int `json:"terminating"`
	Namespaces  int `json:"namespaces"`
	Resources   int `json:"resources"`
}

// Options selects what a run scans and how it reports.
type Options struct {
	// Kinds is the ordered scan set of canonical plural kinds.
	Kinds []string
	// Name restricts the scan to a single resource name.
	Name string
	// Namespace restricts namespaced kinds to one namespace.
	Namespace string
	// ListOnly prints the short listing instead of full diagnoses.
	ListOnly bool
	// Verbose includes recent events in each diagnosis.
	Verbose bool
	// Long includes the API-service availability check for namespaces.
	Long bool
	// JSON replaces the human report with the encoded findings document.
	JSON bool
	// Context is the kubeconfig context name shown in the banner.
	Context string
}

// Reporter runs scans and renders reports.
type Reporter struct {
	client *kubectl.Client
	out    io.Writer
	w      io.Writer // human text; io.Discard in JSON mode
	opts   Options
}

// NewReporter wires a reporter to a gateway client and an output stream.
func NewReporter(client *kubectl.Client, out io.Writer, opts Options) *Reporter {
	if len(opts.Kinds) == 0 {
		opts.Kinds = kubectl.BuiltinKinds
	}
	w := out
	if opts.JSON {
		w = io.Discard
	}
	return &Reporter{client: client, out: out, w: w, opts: opts}
}

// Run executes the selected mode. The returned error is only ever a JSON
// encoding failure; diagnosis outcomes never error.
func (r *Reporter) Run(ctx context.Context) error {
	rep := &Report{
		Context:     r.opts.Context,
		ScannedAt:   time.Now().UTC(),
		Terminating: []TerminatingResource{},
	}
	if !r.opts.JSON {
		r.banner()
	}
	if r.opts.ListOnly {
		r.runList(ctx, rep)
	} else {
		r.runDiagnosis(ctx, rep)
	}
	rep.Summary = Summary{
		Terminating: len(rep.Terminating),
		Namespaces:  len(rep.Namespaces),
		Resources:   len(rep.Resources),
	}
	if r.opts.JSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return nil
}

// banner names the tool, the kubeconfig context, and the scan scope so a
// pasted report says which cluster it describes.
func (r *Reporter) banner() {
	fmt.Fprintf(r.w, "%sterm-scout%s\n", colorBold, colorReset)
	if r.opts.Context != "" {
		fmt.Fprintf(r.w, "%sContext:%s %s\n", colorCyan, colorReset, r.opts.Context)
	}
	fmt.Fprintf(r.w, "%sScope:%s %s\n", colorCyan, colorReset, r.scope())
}

func (r *Reporter) scope() string {
	s := "all kinds"
	if len(r.opts.Kinds) == 1 {
		s = r.opts.Kinds[0]
		if r.opts.Name != "" {
			s += "/" + r.opts.Name
		}
	}
	if r.opts.Namespace != "" {
		s += fmt.Sprintf(" (namespace: %s)", r.opts.Namespace)
	}
	return s
}

// renderFinalizers prints the finalizer line plus guidance when any are
// present, shared by both diagnosis surfaces.
func (r *Reporter) renderFinalizers(finalizers []string) {
	if len(finalizers) == 0 {
		fmt.Fprintln(r.w, "  Finalizers: none")
		return
	}
	fmt.Fprintf(r.w, "  Finalizers: %s\n", strings.Join(finalizers, ", "))
	fmt.Fprintln(r.w, "    -> A controller must complete and remove these before the resource can be removed.")
	fmt.Fprintln(r.w, "    -> Investigate which controller owns each finalizer before removing manually.")
}

// renderEvents prints an events section under the given header.
func (r *Reporter) renderEvents(header string, lines []string) {
	fmt.Fprintf(r.w, "  %s\n", header)
	if len(lines) == 0 {
		fmt.Fprintln(r.w, "    (none)")
		return
	}
	for _, line := range lines {
		fmt.Fprintf(r.w, "    %s\n", line)
	}
}

// lastN keeps the trailing n entries.
func lastN(lines []string, n int) []string {
	if len(lines) > n {
		return lines[len(lines)-n:]
	}
	return lines
}
