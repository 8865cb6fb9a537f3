// Package aggregate computes the summary counts and the filtered,
// paginated views of a day's tasks. All functions are pure.
package aggregate

import (
	"strings"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

const (
	DailyPageSize    = 5
	TaskTypePageSize = 10
)

// StatusAll disables the status filter, as does "".
const StatusAll = "all"

type Query struct {
	Search       string
	StatusFilter string
	Page         int // 1-based
	PageSize     int
}

func NewQuery(pageSize int) Query {
	return Query{Page: 1, PageSize: pageSize}
}

// WithSearch changes the search term and resets to the first page.
func (q Query) WithSearch(search string) Query {
	q.Search = search
	q.Page = 1
	return q
}

// WithStatus changes the status filter and resets to the first page.
func (q Query) WithStatus(status string) Query {
	q.StatusFilter = status
	q.Page = 1
	return q
}

func (q Query) WithPage(page int) Query {
	q.Page = page
	return q
}

type Result struct {
	// Counts and ShiftedCount cover the unfiltered task list.
	Counts       map[model.TaskStatus]int
	ShiftedCount int

	Filtered   []model.Task
	Items      []model.Task
	Page       int
	TotalPages int
}

func Aggregate(tasks []model.Task, q Query) Result {
	counts, shifted := Count(tasks)

	filtered := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, q.Search) && statusMatches(t, q.StatusFilter) {
			filtered = append(filtered, t)
		}
	}

	items, page, total := Paginate(filtered, q.Page, q.PageSize)
	return Result{
		Counts:       counts,
		ShiftedCount: shifted,
		Filtered:     filtered,
		Items:        items,
		Page:         page,
		TotalPages:   total,
	}
}

// Count tallies each observed status and the number of shifted tasks.
func Count(tasks []model.Task) (map[model.TaskStatus]int, int) {
	counts := make(map[model.TaskStatus]int)
	shifted := 0
	for _, t := range tasks {
		counts[t.Status]++
		if t.IsShifted {
			shifted++
		}
	}
	return counts, shifted
}

// Matches reports whether search occurs, case-insensitively, in the
// task's title, description, served company or related project. The
// term is used as typed; only the empty string matches everything.
func Matches(t model.Task, search string) bool {
	search = strings.ToLower(search)
	if search == "" {
		return true
	}
	for _, field := range []string{t.Title, t.Description, t.CompanyName(), t.RelatedProject} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func statusMatches(t model.Task, filter string) bool {
	if filter == "" || strings.EqualFold(filter, StatusAll) {
		return true
	}
	return string(t.Status) == filter
}

// Paginate returns the items of a 1-based page. The page is clamped to
// [1, totalPages]; an empty list still has one (empty) page.
func Paginate[T any](items []T, page, pageSize int) ([]T, int, int) {
	if pageSize <= 0 {
		pageSize = len(items)
		if pageSize == 0 {
			pageSize = 1
		}
	}
	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page, totalPages
}
