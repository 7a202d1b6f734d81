// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package main

import (
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/monadic/term-scout/internal/config"
	"github.com/monadic/term-scout/pkg/kubectl"
)

// Namespace completion cache (avoid repeated kubectl calls during tab-complete)
var (
	cachedNamespaces     []string
	namespaceCacheExpiry time.Time
	namespaceCacheMu     sync.Mutex
)

// completeTypes completes the TYPE argument from the kind registry.
func completeTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		// NAME has no completion source without querying the cluster per kind.
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return filterPrefix(kubectl.KnownAliases(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeNamespaces returns available namespaces from the current kubectl context
func completeNamespaces(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	namespaceCacheMu.Lock()
	defer namespaceCacheMu.Unlock()

	// Return cache if fresh (3 second TTL)
	if time.Now().Before(namespaceCacheExpiry) && len(cachedNamespaces) > 0 {
		return filterPrefix(cachedNamespaces, toComplete), cobra.ShellCompDirectiveNoFileComp
	}

	cfg, _ := config.Load()

	// Quick timeout for completion - don't block shell
	runner := kubectl.NewExecRunner(cfg.Kubectl, 2*time.Second)
	out, err := runner.Run(cmd.Context(), "get", "namespaces", "-o", "name", "--no-headers")
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var namespaces []string
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimPrefix(strings.TrimSpace(line), "namespace/"); name != "" {
			namespaces = append(namespaces, name)
		}
	}

	// Update cache
	cachedNamespaces = namespaces
	namespaceCacheExpiry = time.Now().Add(3 * time.Second)

	return filterPrefix(namespaces, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// filterPrefix filters strings by prefix (case-insensitive)
func filterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var filtered []string
	lowerPrefix := strings.ToLower(prefix)
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
