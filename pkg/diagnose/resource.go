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

// diagnoseResource gathers the findings for one terminating namespaced
// resource. The object is re-queried fresh by kind and name.
func (r *Reporter) diagnoseResource(ctx context.Context, rec TerminatingResource) *ResourceDiagnosis {
	d := &ResourceDiagnosis{Kind: rec.Kind, Name: rec.Name, Namespace: rec.Namespace}
	obj := r.client.Query(ctx, rec.Kind, rec.Name, rec.Namespace)
	if obj == nil {
		return d
	}
	d.Fetched = true
	d.DeletionTimestamp, _, _ = unstructured.NestedString(obj.Object, "metadata", "deletionTimestamp")
	d.Finalizers = obj.GetFinalizers()
	for _, owner := range obj.GetOwnerReferences() {
		d.Owners = append(d.Owners, fmt.Sprintf("%s/%s", owner.Kind, owner.Name))
	}
	if r.opts.Verbose {
		d.Events = lastN(r.client.Events(ctx, rec.Namespace, "involvedObject.name="+rec.Name), 10)
	}
	d.PatchCommand = remedy.PatchFinalizers(remedy.ResourceRef{
		Kind:      rec.Kind,
		Name:      rec.Name,
		Namespace: rec.Namespace,
	})
	return d
}

// renderResource prints the namespaced-resource diagnosis sections.
func (r *Reporter) renderResource(d *ResourceDiagnosis) {
	fmt.Fprintln(r.w)
	header := fmt.Sprintf("%s/%s", d.Kind, d.Name)
	if d.Namespace != "" {
		header += fmt.Sprintf(" (namespace: %s)", d.Namespace)
	}
	fmt.Fprintf(r.w, "%s%s%s\n", colorBold, header, colorReset)
	fmt.Fprintln(r.w, strings.Repeat("-", 40))
	if !d.Fetched {
		fmt.Fprintln(r.w, "  (could not get resource)")
		return
	}

	ts := d.DeletionTimestamp
	if ts == "" {
		ts = "?"
	}
	fmt.Fprintf(r.w, "  Deletion requested: %s\n", ts)
	r.renderFinalizers(d.Finalizers)

	if len(d.Owners) > 0 {
		fmt.Fprintf(r.w, "  Owner(s): %s\n", strings.Join(d.Owners, ", "))
	}
	if r.opts.Verbose {
		r.renderEvents("Recent events:", d.Events)
	}

	fmt.Fprintln(r.w, "  Remediation (finalizers):")
	writeTable(r.w, []string{"ACTION", "COMMAND"}, [][]string{
		{"Remove finalizers (last resort)", d.PatchCommand},
	})
	fmt.Fprintln(r.w)
}
