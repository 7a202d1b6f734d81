// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package kubectl

import (
	"sort"
	"strings"
)

// BuiltinKinds is the default scan order. Entries are the plural resource
// names kubectl expects (must match `kubectl get <kind>`).
var BuiltinKinds = []string{
	"namespaces",
	"customresourcedefinitions",
	"pods",
	"services",
	"persistentvolumeclaims",
	"configmaps",
	"secrets",
}

// Cluster-scoped kinds take neither -n nor -A when fetching.
var clusterScopedKinds = map[string]bool{
	"namespaces":                true,
	"customresourcedefinitions": true,
}

// kindAliases maps the type spellings the CLI accepts (singular, plural,
// short forms) to the canonical plural kind name.
var kindAliases = map[string]string{
	"namespace":                 "namespaces",
	"namespaces":                "namespaces",
	"crd":                       "customresourcedefinitions",
	"crds":                      "customresourcedefinitions",
	"customresourcedefinition":  "customresourcedefinitions",
	"customresourcedefinitions": "customresourcedefinitions",
	"pod":                       "pods",
	"pods":                      "pods",
	"service":                   "services",
	"services":                  "services",
	"pvc":                       "persistentvolumeclaims",
	"pvcs":                      "persistentvolumeclaims",
	"persistentvolumeclaim":     "persistentvolumeclaims",
	"persistentvolumeclaims":    "persistentvolumeclaims",
	"configmap":                 "configmaps",
	"configmaps":                "configmaps",
	"secret":                    "secrets",
	"secrets":                   "secrets",
}

// ClusterScoped reports whether kind is fetched without namespace flags.
func ClusterScoped(kind string) bool {
	return clusterScopedKinds[kind]
}

// ResolveKind maps a user-supplied type alias to its canonical plural kind.
// Matching is case-insensitive. The second return is false for unknown input.
func ResolveKind(alias string) (string, bool) {
	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(alias))]
	return kind, ok
}

// KnownAliases returns every accepted type alias, sorted, for help output.
func KnownAliases() []string {
	aliases := make([]string, 0, len(kindAliases))
	for a := range kindAliases {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)
	return aliases
}

// RegisterKind adds a user-configured kind to the registry so it resolves
// like a built-in. The kind itself always resolves; extra aliases are
// optional. Built-in kinds and their scan order are not affected.
func RegisterKind(kind string, clusterScoped bool, aliases ...string) {
	canonical := strings.ToLower(strings.TrimSpace(kind))
	if canonical == "" {
		return
	}
	kindAliases[canonical] = canonical
	if clusterScoped {
		clusterScopedKinds[canonical] = true
	}
	for _, a := range aliases {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			kindAliases[a] = canonical
		}
	}
}
