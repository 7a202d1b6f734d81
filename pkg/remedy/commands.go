// Package remedy builds the kubectl remediation commands the diagnosis
// reports print. Commands are constructed as literal strings for the user
// to review and run; nothing here executes anything.
package remedy

import (
	"fmt"
	"strings"
)

// finalizerPatch is the payload that clears metadata.finalizers.
const finalizerPatch = `-p '{"metadata":{"finalizers":null}}' --type=merge`

// ResourceRef identifies a resource for remediation command construction.
type ResourceRef struct {
	Kind      string
	Name      string
	Namespace string
}

func (r ResourceRef) String() string {
	s := fmt.Sprintf("%s/%s", r.Kind, r.Name)
	if r.Namespace != "" {
		s += fmt.Sprintf(" -n %s", r.Namespace)
	}
	return s
}

// PatchFinalizers returns the kubectl command that removes all finalizers
// from a resource addressed as separate kind and name arguments. The
// namespace flag is placed between the name and the patch payload.
func PatchFinalizers(ref ResourceRef) string {
	cmd := fmt.Sprintf("kubectl patch %s %s", ref.Kind, ref.Name)
	if ref.Namespace != "" {
		cmd += fmt.Sprintf(" -n %s", ref.Namespace)
	}
	return cmd + " " + finalizerPatch
}

// PatchFinalizersQualified is the compound kind/name form used for rows
// coming from a namespace's remaining-resource listing.
func PatchFinalizersQualified(qualified, namespace string) string {
	return fmt.Sprintf("kubectl patch %s -n %s %s", qualified, namespace, finalizerPatch)
}

// Delete returns the kubectl command that deletes one resource by its
// qualified kind/name token.
func Delete(qualified, namespace string) string {
	return addNamespace(fmt.Sprintf("kubectl delete %s", qualified), namespace)
}

// addNamespace appends -n unless the command already carries a namespace.
func addNamespace(cmd, namespace string) string {
	if namespace == "" {
		return cmd
	}
	if strings.Contains(cmd, " -n ") || strings.Contains(cmd, " --namespace") {
		return cmd
	}
	return fmt.Sprintf("%s -n %s", cmd, namespace)
}
