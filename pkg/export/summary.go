package export

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// Summary renders the closing report of a run as display lines. A run with
// failures, skips, or a cancellation is never reported as complete.
func Summary(run *models.ExportRun) []string {
	if run == nil {
		return nil
	}

	var lines []string
	switch {
	case run.Complete():
		lines = append(lines, "Export completed")
	case run.Cancelled:
		lines = append(lines, "Export cancelled")
	default:
		lines = append(lines, "Export finished with problems")
	}

	lines = append(lines,
		fmt.Sprintf("Tables: %d/%d", run.Succeeded, run.Selected),
		fmt.Sprintf("Rows: %d", run.TotalRows),
		fmt.Sprintf("Location: %s", run.OutputDir),
	)

	for _, f := range run.Files {
		lines = append(lines, fmt.Sprintf("  %s (%d %s)", f.Name, f.Rows, plural(f.Rows, "record", "records")))
	}
	for _, r := range run.Results {
		if !r.OK() {
			lines = append(lines, fmt.Sprintf("  FAILED %s: %s", r.Job, r.Reason))
		}
	}
	for _, name := range run.Skipped {
		lines = append(lines, fmt.Sprintf("  SKIPPED %s: not in catalog", name))
	}
	if notRun := run.Selected - run.Attempted - len(run.Skipped); run.Cancelled && notRun > 0 {
		lines = append(lines, fmt.Sprintf("  %d job(s) not run", notRun))
	}
	return lines
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
