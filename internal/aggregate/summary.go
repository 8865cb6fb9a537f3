package aggregate

import (
	"sort"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// DaySummary is one row of the per-day overview.
type DaySummary struct {
	BucketID  string
	Date      model.Day
	Total     int
	Counts    map[model.TaskStatus]int
	Shifted   int
	Submitted bool
}

// Summarize builds one summary per bucket, newest day first.
func Summarize(buckets []model.DailyTaskBucket) []DaySummary {
	summaries := make([]DaySummary, 0, len(buckets))
	for _, b := range buckets {
		counts, shifted := Count(b.Tasks)
		summaries = append(summaries, DaySummary{
			BucketID:  b.ID,
			Date:      b.SubmissionDate,
			Total:     len(b.Tasks),
			Counts:    counts,
			Shifted:   shifted,
			Submitted: b.Submitted,
		})
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[j].Date.Before(summaries[i].Date)
	})
	return summaries
}

// AllTasks flattens the tasks of every bucket, keeping bucket order.
func AllTasks(buckets []model.DailyTaskBucket) []model.Task {
	var tasks []model.Task
	for _, b := range buckets {
		tasks = append(tasks, b.Tasks...)
	}
	return tasks
}
