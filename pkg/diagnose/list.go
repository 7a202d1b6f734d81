// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diagnose

import (
	"context"
	"fmt"
	"strings"
)

// runList prints the one-line-per-resource listing. Kinds that fail to
// query are skipped silently; order follows the scan set, then item order
// within each kind's response.
func (r *Reporter) runList(ctx context.Context, rep *Report) {
	fmt.Fprintln(r.w)
	fmt.Fprintf(r.w, "%sResources stuck in Terminating%s\n", colorBold, colorReset)
	fmt.Fprintln(r.w, strings.Repeat("-", 40))

	records := r.ScanTerminating(ctx)
	rep.Terminating = append(rep.Terminating, records...)
	for _, rec := range records {
		name := rec.Name
		if name == "" {
			name = "?"
		}
		line := fmt.Sprintf("  %s/%s", rec.Kind, name)
		if rec.Namespace != "" {
			line += fmt.Sprintf(" (ns: %s)", rec.Namespace)
		}
		fmt.Fprintln(r.w, line)
	}
	if len(records) == 0 {
		fmt.Fprintln(r.w, "  (none found)")
	}
	fmt.Fprintln(r.w)
}
