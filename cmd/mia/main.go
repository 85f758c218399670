// Command mia runs the guided marketing-insights chat in the terminal.
//
// Configuration comes from flags and MIA_* environment variables; flags win.
//
//	MIA_API_URL         Backend base URL
//	MIA_SESSION_ID      Session identifier (generated if empty)
//	MIA_TRANSCRIPT      Path to the transcript file for resume/persist
//	MIA_LOG_FILE        Debug log destination (TUI owns the terminal)
//	MIA_STREAM_TIMEOUT  Per-stream wall-clock timeout
//	MIA_REPORT_DAYS     Report period in days, ending today
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mia: %v\n", err)
		os.Exit(1)
	}
}
