package orchestrator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/migratory/internal/pipeline"
)

// TaskResult records the outcome of one unit of work within a run. Most
// units are one (task, file) pair; consolidated dependency updates, renames,
// and skipped tasks produce entries of their own.
type TaskResult struct {
	TaskID   string            `json:"taskId"`
	FilePath string            `json:"filePath,omitempty"`
	Success  bool              `json:"success"`
	Skipped  bool              `json:"skipped,omitempty"`
	Outcome  *pipeline.Outcome `json:"outcome,omitempty"`
	Error    string            `json:"error,omitempty"`
	Duration time.Duration     `json:"duration"`
}

// Summary aggregates one run for reporting.
type Summary struct {
	FilesChanged       int           `json:"filesChanged"`
	LinesAdded         int           `json:"linesAdded"`
	LinesRemoved       int           `json:"linesRemoved"`
	TasksCompleted     int           `json:"tasksCompleted"`
	TasksFailed        int           `json:"tasksFailed"`
	TasksSkipped       int           `json:"tasksSkipped"`
	Errors             []string      `json:"errors,omitempty"`
	Warnings           []string      `json:"warnings,omitempty"`
	ManualReviewNeeded []string      `json:"manualReviewNeeded,omitempty"`
	EstimatedTimeSaved string        `json:"estimatedTimeSaved"`
	TotalDuration      time.Duration `json:"totalDuration"`
}

// Result is the final product of one orchestration run. Files holds only
// the paths the run wrote, not the whole repository snapshot.
type Result struct {
	JobID   string            `json:"jobId"`
	Success bool              `json:"success"`
	Files   map[string]string `json:"files"`
	Tasks   []TaskResult      `json:"tasks"`
	Summary Summary           `json:"summary"`
}

// summarize folds the full result list into a Summary. It runs before
// deduplication so every write, including overwritten ones, counts toward
// the totals.
func summarize(results []TaskResult, files map[string]string, duration time.Duration) Summary {
	s := Summary{FilesChanged: len(files), TotalDuration: duration}

	seenErrors := make(map[string]bool)
	seenWarnings := make(map[string]bool)
	seenReview := make(map[string]bool)
	minutes := 0

	for _, r := range results {
		switch {
		case r.Skipped:
			s.TasksSkipped++
		case r.Success:
			s.TasksCompleted++
		default:
			s.TasksFailed++
		}

		if r.Error != "" && !seenErrors[r.Error] {
			seenErrors[r.Error] = true
			s.Errors = append(s.Errors, r.Error)
		}
		if r.Skipped && r.FilePath != "" && !seenReview[r.FilePath] {
			seenReview[r.FilePath] = true
			s.ManualReviewNeeded = append(s.ManualReviewNeeded, r.FilePath)
		}
		if r.Outcome == nil {
			continue
		}

		s.LinesAdded += r.Outcome.LinesAdded
		s.LinesRemoved += r.Outcome.LinesRemoved
		for _, w := range r.Outcome.Warnings {
			if !seenWarnings[w] {
				seenWarnings[w] = true
				s.Warnings = append(s.Warnings, w)
			}
		}
		if r.Outcome.RequiresManualReview && r.FilePath != "" && !seenReview[r.FilePath] {
			seenReview[r.FilePath] = true
			s.ManualReviewNeeded = append(s.ManualReviewNeeded, r.FilePath)
		}
		minutes += parseEstimate(r.Outcome.EstimatedTimeSaved)
	}

	s.EstimatedTimeSaved = formatMinutes(minutes)
	return s
}

// dedupeByPath keeps only the last result per file path; a path may be
// touched across multiple phases. Results without a path are all kept.
// Relative order is preserved.
func dedupeByPath(results []TaskResult) []TaskResult {
	lastForPath := make(map[string]int, len(results))
	for i, r := range results {
		if r.FilePath != "" {
			lastForPath[r.FilePath] = i
		}
	}

	kept := make([]TaskResult, 0, len(results))
	for i, r := range results {
		if r.FilePath == "" || lastForPath[r.FilePath] == i {
			kept = append(kept, r)
		}
	}
	return kept
}

var estimatePattern = regexp.MustCompile(`^(?:(\d+)\s*h(?:ours?)?)?\s*(?:(\d+)\s*m(?:in(?:utes?)?)?)?$`)

// parseEstimate converts a human-readable time-saved estimate to minutes.
// Recognized forms: "2h 15m", "3h", "45m", "2 hours", "30 minutes", and
// "< 1 minute" (counted as one minute). Anything else yields zero.
func parseEstimate(estimate string) int {
	s := strings.ToLower(strings.TrimSpace(estimate))
	if s == "" {
		return 0
	}
	if strings.HasPrefix(s, "<") {
		return 1
	}

	m := estimatePattern.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0
	}

	minutes := 0
	if m[1] != "" {
		hours, _ := strconv.Atoi(m[1])
		minutes += 60 * hours
	}
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		minutes += n
	}
	return minutes
}

// formatMinutes renders a minute total as "Xh Ym", "Xm", or "0m".
func formatMinutes(total int) string {
	if total <= 0 {
		return "0m"
	}
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %dm", total/60, total%60)
}
