// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diagnose

import (
	"context"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/monadic/term-scout/pkg/remedy"
)

// maxRemaining caps how many remaining-resource rows a namespace diagnosis
// displays and re-queries; the total is still counted and reported.
const maxRemaining = 50

// diagnoseNamespace gathers everything the namespace report prints. The
// namespace is re-queried fresh rather than trusting the scan's copy.
func (r *Reporter) diagnoseNamespace(ctx context.Context, name string) *NamespaceDiagnosis {
	d := &NamespaceDiagnosis{Name: name}
	obj := r.client.Query(ctx, "namespaces", name, "")
	if obj == nil {
		return d
	}
	d.Fetched = true
	d.DeletionTimestamp, _, _ = unstructured.NestedString(obj.Object, "metadata", "deletionTimestamp")
	d.Finalizers = obj.GetFinalizers()

	// Enumerate what is still inside the namespace. The catalog is the
	// cluster's live list of namespaced types, not the built-in scan set.
	for _, resourceType := range r.client.APIResources(ctx) {
		items := r.client.NamesInNamespace(ctx, resourceType, name)
		d.RemainingTotal += len(items)
		for _, qualified := range items {
			if len(d.Remaining) >= maxRemaining {
				continue
			}
			d.Remaining = append(d.Remaining, RemainingResource{
				Type:          resourceType,
				Resource:      qualified,
				DeleteCommand: remedy.Delete(qualified, name),
			})
		}
	}

	// Remaining resources can block deletion through their own finalizers
	// (e.g. an Ingress held by a load-balancer controller). Only displayed
	// rows are re-queried.
	for i := range d.Remaining {
		obj := r.client.QueryQualified(ctx, d.Remaining[i].Resource, name)
		if obj == nil {
			continue
		}
		if finalizers := obj.GetFinalizers(); len(finalizers) > 0 {
			d.Remaining[i].Finalizers = finalizers
			d.Remaining[i].PatchCommand = remedy.PatchFinalizersQualified(d.Remaining[i].Resource, name)
		}
	}

	if r.opts.Long {
		// Listing columns: NAME SERVICE AVAILABLE AGE.
		for _, line := range r.client.APIServices(ctx) {
			fields := strings.Fields(line)
			if len(fields) >= 3 && fields[2] != "True" {
				d.UnavailableAPIServices = append(d.UnavailableAPIServices, fields[0])
			}
		}
	}
	if r.opts.Verbose {
		d.Events = lastN(r.client.Events(ctx, name, ""), 10)
	}

	d.PatchCommand = remedy.PatchFinalizers(remedy.ResourceRef{Kind: "namespace", Name: name})
	return d
}

// renderNamespace prints the namespace diagnosis sections.
func (r *Reporter) renderNamespace(d *NamespaceDiagnosis) {
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%sNamespace: %s%s\n", colorBold, d.Name, colorReset)
	fmt.Fprintln(r.w, strings.Repeat("-", 40))
	if !d.Fetched {
		fmt.Fprintln(r.w, "  (could not get namespace)")
		return
	}

	ts := d.DeletionTimestamp
	if ts == "" {
		ts = "?"
	}
	fmt.Fprintf(r.w, "  Deletion requested: %s\n", ts)
	r.renderFinalizers(d.Finalizers)

	if len(d.Remaining) > 0 {
		fmt.Fprintln(r.w, "  Remaining resources in namespace:")
		rows := make([][]string, 0, len(d.Remaining))
		for _, rr := range d.Remaining {
			rows = append(rows, []string{rr.Type, rr.Resource})
		}
		writeTable(r.w, []string{"RESOURCE TYPE", "RESOURCE"}, rows)
		if d.RemainingTotal > maxRemaining {
			fmt.Fprintf(r.w, "    ... (%d more; run delete commands below then re-run term-scout)\n",
				d.RemainingTotal-maxRemaining)
		}

		var stuck [][]string
		for _, rr := range d.Remaining {
			if len(rr.Finalizers) > 0 {
				stuck = append(stuck, []string{rr.Resource, strings.Join(rr.Finalizers, ", "), rr.PatchCommand})
			}
		}
		if len(stuck) > 0 {
			fmt.Fprintln(r.w, "  Remaining resources that are stuck or have finalizers (blocking deletion):")
			writeTable(r.w, []string{"RESOURCE", "FINALIZERS", "COMMAND"}, stuck)
		}

		fmt.Fprintln(r.w, "  Remediation (delete remaining resources):")
		deletes := make([][]string, 0, len(d.Remaining))
		for _, rr := range d.Remaining {
			deletes = append(deletes, []string{rr.Resource, rr.DeleteCommand})
		}
		writeTable(r.w, []string{"RESOURCE", "COMMAND"}, deletes)
		if d.RemainingTotal > maxRemaining {
			fmt.Fprintln(r.w, "    ... (more resources may remain; re-run term-scout after deleting above)")
		}
	}

	if len(d.UnavailableAPIServices) > 0 {
		fmt.Fprintln(r.w, "  Unavailable API services:")
		for _, svc := range d.UnavailableAPIServices {
			fmt.Fprintf(r.w, "    %s\n", svc)
		}
	}
	if r.opts.Verbose {
		r.renderEvents("Recent namespace events:", d.Events)
	}

	fmt.Fprintln(r.w, "  Remediation (namespace finalizers):")
	writeTable(r.w, []string{"ACTION", "COMMAND"}, [][]string{
		{"Remove finalizers (last resort)", d.PatchCommand},
	})
	fmt.Fprintln(r.w)
}
