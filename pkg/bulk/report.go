package bulk

import (
	"fmt"
	"strings"
	"time"
)

// PageResult records the outcome for one page in a batch run.
type PageResult struct {
	Path       string `json:"path"`
	DocumentID string `json:"document_id,omitempty"`
	Sections   int    `json:"sections"`
	Degraded   bool   `json:"degraded,omitempty"`
	Err        string `json:"error,omitempty"`
}

// RunReport summarizes a batch run.
type RunReport struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Succeeded  int          `json:"succeeded"`
	Degraded   int          `json:"degraded"`
	Failed     int          `json:"failed"`
	Pages      []PageResult `json:"pages"`
}

// Summary renders a human-readable run summary.
func (report *RunReport) Summary() string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("run %s: %d pages in %s\n",
		report.RunID, len(report.Pages),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)))
	builder.WriteString(fmt.Sprintf("  succeeded: %d (%d degraded), failed: %d\n",
		report.Succeeded, report.Degraded, report.Failed))

	for _, page := range report.Pages {
		switch {
		case page.Err != "":
			builder.WriteString(fmt.Sprintf("  FAIL %s: %s\n", page.Path, page.Err))
		case page.Degraded:
			builder.WriteString(fmt.Sprintf("  WARN %s -> %s (%d sections, diagnostics present)\n",
				page.Path, page.DocumentID, page.Sections))
		}
	}

	return builder.String()
}
