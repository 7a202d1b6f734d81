// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diagnose

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"

	"github.com/monadic/term-scout/pkg/kubectl"
)

// runDiagnosis scans each kind and runs the full per-resource diagnosis
// for every terminating record, interleaving detail queries with the scan
// exactly in encounter order. Records without a name cannot be addressed
// for remediation and are skipped.
func (r *Reporter) runDiagnosis(ctx context.Context, rep *Report) {
	found := 0
	for _, kind := range r.opts.Kinds {
		for _, item := range r.scanKind(ctx, kind) {
			rec := recordFor(kind, item)
			if rec.Name == "" {
				continue
			}
			found++
			rep.Terminating = append(rep.Terminating, rec)
			if rec.Kind == "namespaces" {
				d := r.diagnoseNamespace(ctx, rec.Name)
				r.renderNamespace(d)
				rep.Namespaces = append(rep.Namespaces, *d)
			} else {
				d := r.diagnoseResource(ctx, rec)
				r.renderResource(d)
				rep.Resources = append(rep.Resources, *d)
			}
		}
	}
	if found == 0 {
		fmt.Fprintln(r.w, "No resources in Terminating state found for the given type/namespace/name.")
	}
}

// ScanTerminating queries every selected kind and returns the terminating
// records in scan order. Failed kinds contribute nothing.
func (r *Reporter) ScanTerminating(ctx context.Context) []TerminatingResource {
	var records []TerminatingResource
	for _, kind := range r.opts.Kinds {
		for _, item := range r.scanKind(ctx, kind) {
			records = append(records, recordFor(kind, item))
		}
	}
	return records
}

// DiagnoseRecord prints the full diagnosis for one terminating record,
// used when a single record was chosen interactively.
func (r *Reporter) DiagnoseRecord(ctx context.Context, rec TerminatingResource) {
	if rec.Kind == "namespaces" {
		r.renderNamespace(r.diagnoseNamespace(ctx, rec.Name))
		return
	}
	r.renderResource(r.diagnoseResource(ctx, rec))
}

// scanKind queries one kind (name-restricted when set) and filters to
// terminating items. The namespace applies only to namespaced kinds.
func (r *Reporter) scanKind(ctx context.Context, kind string) []*unstructured.Unstructured {
	namespace := ""
	if !kubectl.ClusterScoped(kind) {
		namespace = r.opts.Namespace
	}
	obj := r.client.Query(ctx, kind, r.opts.Name, namespace)
	return kubectl.TerminatingItems(obj)
}

func recordFor(kind string, item *unstructured.Unstructured) TerminatingResource {
	return TerminatingResource{
		Kind:      kind,
		Name:      item.GetName(),
		Namespace: item.GetNamespace(),
	}
}
