package aggregate

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "1", Title: "Fix login bug", Status: model.StatusCompleted, RelatedProject: "Portal"},
		{ID: "2", Title: "Write report", Description: "Quarterly FINANCE numbers", Status: model.StatusInProgress, IsShifted: true},
		{ID: "3", Title: "Client call", Status: model.StatusInProgress, CompanyServed: &model.Company{Name: "Acme Corp"}},
		{ID: "4", Title: "Deploy", Status: model.StatusDelayed, IsShifted: true},
		{ID: "5", Title: "Review PR", Status: model.StatusPending},
		{ID: "6", Title: "Plan sprint", Status: model.StatusInProgress, RelatedProject: "portal v2"},
		{ID: "7", Title: "Standup notes", Status: model.StatusCompleted},
	}
}

func ids(tasks []model.Task) string {
	var out []string
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return fmt.Sprint(out)
}

func TestAggregateCountsUseUnfilteredList(t *testing.T) {
	res := Aggregate(sampleTasks(), Query{StatusFilter: "completed", Page: 1, PageSize: DailyPageSize})
	want := map[model.TaskStatus]int{
		model.StatusCompleted:  2,
		model.StatusInProgress: 3,
		model.StatusDelayed:    1,
		model.StatusPending:    1,
	}
	if !reflect.DeepEqual(res.Counts, want) {
		t.Fatalf("counts = %v, want %v", res.Counts, want)
	}
	if res.ShiftedCount != 2 {
		t.Fatalf("shifted = %d, want 2", res.ShiftedCount)
	}
	if ids(res.Filtered) != "[1 7]" {
		t.Fatalf("filtered = %s", ids(res.Filtered))
	}
}

func TestAggregateSearchFields(t *testing.T) {
	cases := map[string]string{
		"":        "[1 2 3 4 5 6 7]",
		"finance": "[2]",
		"acme":    "[3]",
		"PORTAL":  "[1 6]",
		"deploy":  "[4]",
		"nothing": "[]",
	}
	for search, want := range cases {
		res := Aggregate(sampleTasks(), Query{Search: search, Page: 1, PageSize: 0})
		if got := ids(res.Filtered); got != want {
			t.Fatalf("search %q = %s, want %s", search, got, want)
		}
	}
}

func TestAggregateAllFilterPassesEverything(t *testing.T) {
	res := Aggregate(sampleTasks(), NewQuery(DailyPageSize).WithStatus("all"))
	if len(res.Filtered) != 7 {
		t.Fatalf("expected every task, got %d", len(res.Filtered))
	}
}

func TestAggregatePaginationClamps(t *testing.T) {
	tasks := sampleTasks()
	res := Aggregate(tasks, Query{Page: 2, PageSize: DailyPageSize})
	if res.TotalPages != 2 || res.Page != 2 || ids(res.Items) != "[6 7]" {
		t.Fatalf("page 2 = %+v", ids(res.Items))
	}
	res = Aggregate(tasks, Query{Page: 9, PageSize: DailyPageSize})
	if res.Page != 2 {
		t.Fatalf("page should clamp to 2, got %d", res.Page)
	}
	res = Aggregate(tasks, Query{Page: -3, PageSize: DailyPageSize})
	if res.Page != 1 || ids(res.Items) != "[1 2 3 4 5]" {
		t.Fatalf("page should clamp to 1, got %d", res.Page)
	}
	res = Aggregate(nil, Query{Page: 4, PageSize: DailyPageSize})
	if res.Page != 1 || res.TotalPages != 1 || len(res.Items) != 0 {
		t.Fatalf("empty list should have one empty page, got %+v", res)
	}
}

func TestQueryChangesResetPage(t *testing.T) {
	q := NewQuery(DailyPageSize).WithPage(3)
	if q.WithSearch("x").Page != 1 {
		t.Fatalf("search change must reset page")
	}
	if q.WithStatus("completed").Page != 1 {
		t.Fatalf("filter change must reset page")
	}
}

func TestAggregateIsPure(t *testing.T) {
	tasks := sampleTasks()
	q := Query{Search: "e", StatusFilter: "in_progress", Page: 1, PageSize: DailyPageSize}
	a := Aggregate(tasks, q)
	b := Aggregate(tasks, q)
	if !reflect.DeepEqual(a.Counts, b.Counts) || !reflect.DeepEqual(a.Filtered, b.Filtered) {
		t.Fatalf("aggregate is not deterministic")
	}
	if !reflect.DeepEqual(tasks, sampleTasks()) {
		t.Fatalf("aggregate mutated its input")
	}
}

func TestSummarizeNewestFirst(t *testing.T) {
	d1, _ := model.ParseDay("2025-01-09")
	d2, _ := model.ParseDay("2025-01-10")
	buckets := []model.DailyTaskBucket{
		{ID: "old", SubmissionDate: d1, Submitted: true, Tasks: []model.Task{{Status: model.StatusCompleted}}},
		{ID: "new", SubmissionDate: d2, Tasks: sampleTasks()},
	}
	rows := Summarize(buckets)
	if rows[0].BucketID != "new" || rows[0].Total != 7 || rows[0].Shifted != 2 {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
	if !rows[1].Submitted || rows[1].Counts[model.StatusCompleted] != 1 {
		t.Fatalf("unexpected second row %+v", rows[1])
	}
	if len(AllTasks(buckets)) != 8 {
		t.Fatalf("AllTasks should flatten every bucket")
	}
}

func TestAggregateSearchIsNotTrimmed(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Title: "nospace", Status: model.StatusPending},
		{ID: "2", Title: "has space", Status: model.StatusPending},
	}
	res := Aggregate(tasks, NewQuery(DailyPageSize).WithSearch(" "))
	if ids(res.Filtered) != "[2]" {
		t.Fatalf("search %q = %s, want [2]", " ", ids(res.Filtered))
	}
}
