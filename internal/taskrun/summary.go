package taskrun

import (
	"fmt"
	"strings"
)

// RenderSummaryLine returns the summary printed after multi-task runs. Runs
// touching at most one task render nothing.
func RenderSummaryLine(outcome RunOutcome) string {
	if len(outcome.Results) <= 1 {
		return ""
	}

	parts := []string{fmt.Sprintf("Summary: total.tasks=%d", len(outcome.Results))}
	parts = append(parts, fmt.Sprintf("%s=%d", TaskResultExecuted, outcome.CountByStatus(TaskResultExecuted)))
	parts = append(parts, fmt.Sprintf("%s=%d", TaskResultSkipped, outcome.CountByStatus(TaskResultSkipped)))
	parts = append(parts, fmt.Sprintf("%s=%d", TaskResultFailed, outcome.CountByStatus(TaskResultFailed)))

	return strings.Join(parts, " ")
}
