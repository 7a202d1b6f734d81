// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package kubectl

import (
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// TerminatingItems returns the entries of obj whose metadata carries a
// non-empty deletion timestamp. A list yields the matching subsequence in
// original order, a single object yields zero or one entries, and nil
// yields nothing. The input is never mutated.
func TerminatingItems(obj *unstructured.Unstructured) []*unstructured.Unstructured {
	if obj == nil {
		return nil
	}
	if obj.IsList() {
		list, err := obj.ToList()
		if err != nil {
			return nil
		}
		var out []*unstructured.Unstructured
		for i := range list.Items {
			if isTerminating(&list.Items[i]) {
				out = append(out, &list.Items[i])
			}
		}
		return out
	}
	if isTerminating(obj) {
		return []*unstructured.Unstructured{obj}
	}
	return nil
}

func isTerminating(obj *unstructured.Unstructured) bool {
	ts, found, _ := unstructured.NestedString(obj.Object, "metadata", "deletionTimestamp")
	return found && ts != ""
}
