// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

package diagnose

// ANSI escape codes for terminal output. Headers are bold; everything else
// stays plain so the report pipes cleanly.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorPurple = "\033[35m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)
