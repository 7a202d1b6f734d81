// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diagnose

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadic/term-scout/pkg/kubectl"
)

// fakeRunner serves canned kubectl output keyed by the space-joined
// argument list. Unknown invocations fail the way a missing resource
// type does, which exercises the silent-skip paths.
type fakeRunner struct {
	responses map[string]string
	calls     [][]string
}

func (f *fakeRunner) Run(_ context.Context, args ...string) ([]byte, error) {
	f.calls = append(f.calls, args)
	out, ok := f.responses[strings.Join(args, " ")]
	if !ok {
		return nil, fmt.Errorf("exit status 1: error: the server doesn't have a resource type %q", args[1])
	}
	return []byte(out), nil
}

func (f *fakeRunner) callsWithPrefix(prefix string) int {
	n := 0
	for _, call := range f.calls {
		if strings.HasPrefix(strings.Join(call, " "), prefix) {
			n++
		}
	}
	return n
}

func runReport(t *testing.T, responses map[string]string, opts Options) (string, *fakeRunner) {
	t.Helper()
	runner := &fakeRunner{responses: responses}
	var buf bytes.Buffer
	r := NewReporter(kubectl.NewClient(runner), &buf, opts)
	require.NoError(t, r.Run(context.Background()))
	return buf.String(), runner
}

// assertOrdered checks that each section appears and that they appear in
// the given order.
func assertOrdered(t *testing.T, out string, sections ...string) {
	t.Helper()
	last := -1
	for _, s := range sections {
		idx := strings.Index(out, s)
		require.GreaterOrEqual(t, idx, 0, "missing section %q", s)
		require.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}
}

const podListJSON = `{"apiVersion":"v1","kind":"PodList","items":[
  {"metadata":{"name":"web-0","namespace":"app"}},
  {"metadata":{"name":"web-1","namespace":"app","deletionTimestamp":"2026-08-20T10:00:00Z","finalizers":["example.com/guard"]}},
  {"metadata":{"name":"web-2","namespace":"app"}}
]}`

const stuckPodJSON = `{"apiVersion":"v1","kind":"Pod","metadata":{
  "name":"web-1","namespace":"app",
  "deletionTimestamp":"2026-08-20T10:00:00Z",
  "finalizers":["example.com/guard"],
  "ownerReferences":[
    {"apiVersion":"apps/v1","kind":"ReplicaSet","name":"web-abc"},
    {"apiVersion":"apps/v1","kind":"Deployment","name":"web"}
  ]}}`

const nsListJSON = `{"apiVersion":"v1","kind":"NamespaceList","items":[
  {"metadata":{"name":"default"}},
  {"metadata":{"name":"stuck-ns","deletionTimestamp":"2026-08-20T10:00:00Z","finalizers":["kubernetes"]}}
]}`

const stuckNamespaceJSON = `{"apiVersion":"v1","kind":"Namespace","metadata":{
  "name":"stuck-ns",
  "deletionTimestamp":"2026-08-20T10:00:00Z",
  "finalizers":["kubernetes"]}}`

const remainingConfigMapJSON = `{"apiVersion":"v1","kind":"ConfigMap","metadata":{
  "name":"kube-root-ca.crt","namespace":"stuck-ns"}}`

func TestListPrintsOneLinePerTerminatingResource(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get pods -o json -A": podListJSON,
	}, Options{ListOnly: true, Context: "kind-test"})

	assert.Contains(t, out, "\x1b[1mterm-scout\x1b[0m\n")
	assert.Contains(t, out, "kind-test")
	assert.Contains(t, out, "\x1b[0m all kinds\n")
	assert.Contains(t, out, "Resources stuck in Terminating")
	assert.Contains(t, out, "\n  pods/web-1 (ns: app)\n")
	assert.Equal(t, 1, strings.Count(out, "\n  pods/"), "exactly one listing line")
	assert.NotContains(t, out, "web-0")
	assert.NotContains(t, out, "web-2")
	assert.NotContains(t, out, "(none found)")
}

func TestListNoneFound(t *testing.T) {
	out, _ := runReport(t, nil, Options{ListOnly: true})

	assert.NotContains(t, out, "Context:")
	assert.Contains(t, out, strings.Repeat("-", 40)+"\n")
	assert.True(t, strings.HasSuffix(out, "  (none found)\n\n"), "output %q", out)
}

func TestListClusterScopedOmitsNamespaceSuffix(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get namespaces -o json": nsListJSON,
	}, Options{ListOnly: true})

	assert.Contains(t, out, "\n  namespaces/stuck-ns\n")
	assert.NotContains(t, out, "stuck-ns (ns:")
	assert.NotContains(t, out, "default")
}

func TestListMissingNameShowsPlaceholder(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get pods -o json -A": `{"items":[{"metadata":{"namespace":"app","deletionTimestamp":"2026-08-20T10:00:00Z"}}]}`,
	}, Options{ListOnly: true})

	assert.Contains(t, out, "\n  pods/? (ns: app)\n")
}

func TestDiagnosisReportsNothingFound(t *testing.T) {
	out, _ := runReport(t, nil, Options{})

	assert.Contains(t, out, "No resources in Terminating state found for the given type/namespace/name.\n")
}

func TestDiagnosisSkipsUnnamedRecords(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get pods -o json -A": `{"items":[{"metadata":{"namespace":"app","deletionTimestamp":"2026-08-20T10:00:00Z"}}]}`,
	}, Options{})

	assert.Contains(t, out, "No resources in Terminating state found")
	assert.NotContains(t, out, "could not get")
}

func TestNamespaceDiagnosisUnfetchableNamespace(t *testing.T) {
	// The scan sees the namespace but the per-name re-query fails, so the
	// diagnosis reports the miss without enumerating contents.
	out, runner := runReport(t, map[string]string{
		"get namespaces -o json": nsListJSON,
	}, Options{Kinds: []string{"namespaces"}})

	assert.Contains(t, out, "\x1b[1mNamespace: stuck-ns\x1b[0m\n")
	assert.Contains(t, out, "  (could not get namespace)\n")
	assert.NotContains(t, out, "Remediation")
	assert.Equal(t, 0, runner.callsWithPrefix("api-resources"))
}

func namespaceResponses() map[string]string {
	responses := map[string]string{}
	responses["get namespaces -o json stuck-ns"] = stuckNamespaceJSON
	responses["api-resources --verbs=list --namespaced -o name"] = "pods\nconfigmaps\n"
	responses["get pods -n stuck-ns --ignore-not-found -o name --no-headers"] = "pod/web-1\n"
	responses["get configmaps -n stuck-ns --ignore-not-found -o name --no-headers"] = "configmap/kube-root-ca.crt\n"
	responses["get pod/web-1 -n stuck-ns -o json"] = stuckPodJSON
	responses["get configmap/kube-root-ca.crt -n stuck-ns -o json"] = remainingConfigMapJSON
	return responses
}

func TestNamespaceDiagnosisFullReport(t *testing.T) {
	out, _ := runReport(t, namespaceResponses(), Options{Kinds: []string{"namespaces"}, Name: "stuck-ns"})

	assertOrdered(t, out,
		"\x1b[1mNamespace: stuck-ns\x1b[0m\n",
		strings.Repeat("-", 40)+"\n",
		"  Deletion requested: 2026-08-20T10:00:00Z\n",
		"  Finalizers: kubernetes\n",
		"    -> A controller must complete and remove these before the resource can be removed.\n",
		"    -> Investigate which controller owns each finalizer before removing manually.\n",
		"  Remaining resources in namespace:\n",
		"    RESOURCE TYPE  RESOURCE",
		"pod/web-1",
		"configmap/kube-root-ca.crt",
		"  Remaining resources that are stuck or have finalizers (blocking deletion):\n",
		"example.com/guard",
		`kubectl patch pod/web-1 -n stuck-ns -p '{"metadata":{"finalizers":null}}' --type=merge`,
		"  Remediation (delete remaining resources):\n",
		"kubectl delete pod/web-1 -n stuck-ns",
		"kubectl delete configmap/kube-root-ca.crt -n stuck-ns",
		"  Remediation (namespace finalizers):\n",
		"Remove finalizers (last resort)",
		`kubectl patch namespace stuck-ns -p '{"metadata":{"finalizers":null}}' --type=merge`,
	)

	// The config map holds no finalizers so it never reaches the stuck table.
	stuckIdx := strings.Index(out, "stuck or have finalizers")
	deleteIdx := strings.Index(out, "Remediation (delete")
	assert.NotContains(t, out[stuckIdx:deleteIdx], "configmap")
	assert.NotContains(t, out, "... (")
}

func TestNamespaceDiagnosisTruncatesRemaining(t *testing.T) {
	var names strings.Builder
	for i := 1; i <= 55; i++ {
		fmt.Fprintf(&names, "widget/w-%02d\n", i)
	}
	out, runner := runReport(t, map[string]string{
		"get namespaces -o json stuck-ns":                 stuckNamespaceJSON,
		"api-resources --verbs=list --namespaced -o name": "widgets\n",
		"get widgets -n stuck-ns --ignore-not-found -o name --no-headers": names.String(),
	}, Options{Kinds: []string{"namespaces"}, Name: "stuck-ns"})

	assert.Contains(t, out, "    ... (5 more; run delete commands below then re-run term-scout)\n")
	assert.Contains(t, out, "    ... (more resources may remain; re-run term-scout after deleting above)\n")
	assert.Contains(t, out, "widget/w-50")
	assert.NotContains(t, out, "widget/w-51")

	// Only the 50 displayed rows are re-queried for finalizers.
	assert.Equal(t, 50, runner.callsWithPrefix("get widget/"))
}

func TestNamespaceLongFlagsUnavailableAPIServices(t *testing.T) {
	responses := namespaceResponses()
	responses["get apiservices --no-headers"] = strings.Join([]string{
		"v1.apps                  Local                        True    10d",
		"v1beta1.metrics.k8s.io   kube-system/metrics-server   False (MissingEndpoints)   5d",
	}, "\n")
	out, _ := runReport(t, responses, Options{Kinds: []string{"namespaces"}, Name: "stuck-ns", Long: true})

	assert.Contains(t, out, "  Unavailable API services:\n    v1beta1.metrics.k8s.io\n")
	assert.NotContains(t, out, "v1.apps")
}

func TestNamespaceVerboseEventsEmpty(t *testing.T) {
	// The events query fails, which renders the same as no events.
	out, _ := runReport(t, map[string]string{
		"get namespaces -o json stuck-ns": stuckNamespaceJSON,
	}, Options{Kinds: []string{"namespaces"}, Name: "stuck-ns", Verbose: true})

	assert.Contains(t, out, "  Recent namespace events:\n    (none)\n")
	assert.NotContains(t, out, "Remaining resources in namespace:")
}

func TestNamespaceVerboseEventsKeepLastTen(t *testing.T) {
	var events strings.Builder
	for i := 1; i <= 13; i++ {
		fmt.Fprintf(&events, "3m%02ds  Normal  Killing  pod/w-%02d  Stopping container\n", i, i)
	}
	out, _ := runReport(t, map[string]string{
		"get namespaces -o json stuck-ns": stuckNamespaceJSON,
		"get events -n stuck-ns --sort-by=.lastTimestamp --no-headers": events.String(),
	}, Options{Kinds: []string{"namespaces"}, Name: "stuck-ns", Verbose: true})

	assert.Contains(t, out, "  Recent namespace events:\n")
	assert.NotContains(t, out, "pod/w-03")
	assert.Contains(t, out, "    3m04s  Normal  Killing  pod/w-04  Stopping container\n")
	assert.Contains(t, out, "pod/w-13")
}

func TestResourceDiagnosisOwnersAndPatch(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get pods -o json -n app web-1": stuckPodJSON,
	}, Options{Kinds: []string{"pods"}, Name: "web-1", Namespace: "app"})

	assertOrdered(t, out,
		"\x1b[1mpods/web-1 (namespace: app)\x1b[0m\n",
		strings.Repeat("-", 40)+"\n",
		"  Deletion requested: 2026-08-20T10:00:00Z\n",
		"  Finalizers: example.com/guard\n",
		"  Owner(s): ReplicaSet/web-abc, Deployment/web\n",
		"  Remediation (finalizers):\n",
		"Remove finalizers (last resort)",
		`kubectl patch pods web-1 -n app -p '{"metadata":{"finalizers":null}}' --type=merge`,
	)
}

func TestResourceDiagnosisUnfetchableResource(t *testing.T) {
	// Found during the scan but gone by the time the diagnosis re-queries.
	out, _ := runReport(t, map[string]string{
		"get pods -o json -A": podListJSON,
	}, Options{Kinds: []string{"pods"}})

	assert.Contains(t, out, "\x1b[1mpods/web-1 (namespace: app)\x1b[0m\n")
	assert.Contains(t, out, "  (could not get resource)\n")
	assert.NotContains(t, out, "Remediation")
}

func TestResourceDiagnosisVerboseEvents(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get pods -o json -n app web-1": stuckPodJSON,
		"get events -n app --field-selector involvedObject.name=web-1 --sort-by=.lastTimestamp --no-headers": "2m  Warning  FailedKillPod  pod/web-1  error killing pod\n",
	}, Options{Kinds: []string{"pods"}, Name: "web-1", Namespace: "app", Verbose: true})

	assert.Contains(t, out, "  Recent events:\n")
	assert.Contains(t, out, "    2m  Warning  FailedKillPod  pod/web-1  error killing pod\n")
}

func TestResourceDiagnosisVerboseNoEvents(t *testing.T) {
	out, _ := runReport(t, map[string]string{
		"get pods -o json -n app web-1": stuckPodJSON,
	}, Options{Kinds: []string{"pods"}, Name: "web-1", Namespace: "app", Verbose: true})

	assert.Contains(t, out, "  Recent events:\n    (none)\n")
}

func TestJSONReportDocument(t *testing.T) {
	out, _ := runReport(t, namespaceResponses(),
		Options{Kinds: []string{"namespaces"}, Name: "stuck-ns", JSON: true, Context: "kind-test"})

	require.True(t, strings.HasPrefix(out, "{"), "output %q", out)
	assert.NotContains(t, out, "\x1b[")

	var rep Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "kind-test", rep.Context)
	assert.Equal(t, Summary{Terminating: 1, Namespaces: 1}, rep.Summary)
	require.Len(t, rep.Namespaces, 1)

	ns := rep.Namespaces[0]
	assert.Equal(t, "stuck-ns", ns.Name)
	assert.True(t, ns.Fetched)
	assert.Equal(t, "2026-08-20T10:00:00Z", ns.DeletionTimestamp)
	assert.Equal(t, []string{"kubernetes"}, ns.Finalizers)
	assert.Equal(t, 2, ns.RemainingTotal)
	require.Len(t, ns.Remaining, 2)
	assert.Equal(t, "pod/web-1", ns.Remaining[0].Resource)
	assert.Equal(t, []string{"example.com/guard"}, ns.Remaining[0].Finalizers)
	assert.Equal(t, "kubectl delete pod/web-1 -n stuck-ns", ns.Remaining[0].DeleteCommand)
	assert.Equal(t, `kubectl patch namespace stuck-ns -p '{"metadata":{"finalizers":null}}' --type=merge`, ns.PatchCommand)
}

func TestJSONListKeepsEmptyTerminatingArray(t *testing.T) {
	out, _ := runReport(t, nil, Options{ListOnly: true, JSON: true})

	assert.Contains(t, out, `"terminating": []`)

	var rep Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, Summary{}, rep.Summary)
}

func TestScopeDescriptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"all kinds", Options{}, "all kinds"},
		{"single kind", Options{Kinds: []string{"pods"}}, "pods"},
		{"kind and name", Options{Kinds: []string{"pods"}, Name: "web-1"}, "pods/web-1"},
		{"kind name namespace", Options{Kinds: []string{"pods"}, Name: "web-1", Namespace: "app"}, "pods/web-1 (namespace: app)"},
		{"all kinds namespace", Options{Namespace: "app"}, "all kinds (namespace: app)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReporter(nil, &bytes.Buffer{}, tt.opts)
			assert.Equal(t, tt.want, r.scope())
		})
	}
}

func TestDiagnoseRecordRoutesByKind(t *testing.T) {
	t.Run("namespace", func(t *testing.T) {
		runner := &fakeRunner{responses: map[string]string{
			"get namespaces -o json stuck-ns": stuckNamespaceJSON,
		}}
		var buf bytes.Buffer
		r := NewReporter(kubectl.NewClient(runner), &buf, Options{})
		r.DiagnoseRecord(context.Background(), TerminatingResource{Kind: "namespaces", Name: "stuck-ns"})

		assert.Contains(t, buf.String(), "\x1b[1mNamespace: stuck-ns\x1b[0m\n")
		assert.Contains(t, buf.String(), "  Remediation (namespace finalizers):\n")
	})

	t.Run("resource", func(t *testing.T) {
		runner := &fakeRunner{responses: map[string]string{
			"get pods -o json -n app web-1": stuckPodJSON,
		}}
		var buf bytes.Buffer
		r := NewReporter(kubectl.NewClient(runner), &buf, Options{})
		r.DiagnoseRecord(context.Background(), TerminatingResource{Kind: "pods", Name: "web-1", Namespace: "app"})

		assert.Contains(t, buf.String(), "\x1b[1mpods/web-1 (namespace: app)\x1b[0m\n")
		assert.Contains(t, buf.String(), "  Remediation (finalizers):\n")
	})
}

func TestDiagnoseRecordMissingTimestampAndFinalizers(t *testing.T) {
	runner := &fakeRunner{responses: map[string]string{
		"get namespaces -o json old-ns": `{"apiVersion":"v1","kind":"Namespace","metadata":{"name":"old-ns"}}`,
	}}
	var buf bytes.Buffer
	r := NewReporter(kubectl.NewClient(runner), &buf, Options{})
	r.DiagnoseRecord(context.Background(), TerminatingResource{Kind: "namespaces", Name: "old-ns"})

	assert.Contains(t, buf.String(), "  Deletion requested: ?\n")
	assert.Contains(t, buf.String(), "  Finalizers: none\n")
	assert.NotContains(t, buf.String(), "-> A controller")
}
