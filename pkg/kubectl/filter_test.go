// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package kubectl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"sigs.k8s.io/yaml"
)

func objFromYAML(t *testing.T, manifest string) *unstructured.Unstructured {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(manifest), &m))
	return &unstructured.Unstructured{Object: m}
}

func TestTerminatingItemsListSubsequence(t *testing.T) {
	list := objFromYAML(t, `
apiVersion: v1
kind: PodList
items:
- metadata:
    name: web-0
    namespace: app
    deletionTimestamp: "2026-08-20T10:00:00Z"
- metadata:
    name: web-1
    namespace: app
- metadata:
    name: web-2
    namespace: app
    deletionTimestamp: "2026-08-20T10:05:00Z"
- metadata:
    name: web-3
    namespace: app
    deletionTimestamp: "2026-08-20T10:10:00Z"
`)

	items := TerminatingItems(list)
	require.Len(t, items, 3)
	var names []string
	for _, item := range items {
		names = append(names, item.GetName())
	}
	assert.Equal(t, []string{"web-0", "web-2", "web-3"}, names, "original order must be preserved")
}

func TestTerminatingItemsOneOfThree(t *testing.T) {
	list := objFromYAML(t, `
apiVersion: v1
kind: PodList
items:
- metadata:
    name: a
- metadata:
    name: b
    deletionTimestamp: "2026-08-20T10:00:00Z"
- metadata:
    name: c
`)

	items := TerminatingItems(list)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].GetName())
}

func TestTerminatingItemsSingleObject(t *testing.T) {
	terminating := objFromYAML(t, `
apiVersion: v1
kind: Namespace
metadata:
  name: stuck-ns
  deletionTimestamp: "2026-08-20T10:00:00Z"
  finalizers:
  - kubernetes
`)
	items := TerminatingItems(terminating)
	require.Len(t, items, 1)
	assert.Equal(t, "stuck-ns", items[0].GetName())

	healthy := objFromYAML(t, `
apiVersion: v1
kind: Namespace
metadata:
  name: fine-ns
`)
	assert.Empty(t, TerminatingItems(healthy))
}

func TestTerminatingItemsEmptyTimestampExcluded(t *testing.T) {
	obj := objFromYAML(t, `
apiVersion: v1
kind: Pod
metadata:
  name: web-0
  deletionTimestamp: ""
`)
	assert.Empty(t, TerminatingItems(obj))
}

func TestTerminatingItemsNilInput(t *testing.T) {
	assert.Empty(t, TerminatingItems(nil))
}

func TestTerminatingItemsEmptyList(t *testing.T) {
	list := objFromYAML(t, `
apiVersion: v1
kind: PodList
items: []
`)
	assert.Empty(t, TerminatingItems(list))
}
