package lifecycle

import (
	"errors"
	"testing"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func TestCanRework(t *testing.T) {
	cases := []struct {
		review  model.ReviewStatus
		shifted bool
		want    bool
	}{
		{model.ReviewPending, false, false},
		{model.ReviewApproved, false, false},
		{model.ReviewRejected, false, true},
		{model.ReviewPending, true, true},
		{model.ReviewApproved, true, true},
		{model.ReviewRejected, true, true},
	}
	for _, tc := range cases {
		task := model.Task{ReviewStatus: tc.review, IsShifted: tc.shifted}
		if got := CanRework(task); got != tc.want {
			t.Fatalf("CanRework(review=%s, shifted=%v) = %v, want %v", tc.review, tc.shifted, got, tc.want)
		}
		if (ReworkReason(task) != "") != tc.want {
			t.Fatalf("ReworkReason disagrees with CanRework for review=%s shifted=%v", tc.review, tc.shifted)
		}
	}
}

func TestReworkReasonListsBoth(t *testing.T) {
	got := ReworkReason(model.Task{ReviewStatus: model.ReviewRejected, IsShifted: true})
	if got != "rejected, shifted" {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestCanSubmitDay(t *testing.T) {
	if CanSubmitDay(nil) {
		t.Fatalf("empty day must not be submittable")
	}
	tasks := []model.Task{{Status: model.StatusInProgress}, {Status: model.StatusInProgress}}
	if CanSubmitDay(tasks) {
		t.Fatalf("day without completed task must not be submittable")
	}
	tasks[1].Status = model.StatusCompleted
	if !CanSubmitDay(tasks) {
		t.Fatalf("day with a completed task must be submittable")
	}
}

func TestValidateClientTransition(t *testing.T) {
	cases := []struct {
		from, to model.TaskStatus
		wantErr  error
	}{
		{model.StatusInProgress, model.StatusCompleted, nil},
		{model.StatusCompleted, model.StatusInProgress, nil},
		{model.StatusCompleted, model.StatusCompleted, nil},
		{model.StatusInProgress, model.StatusDelayed, ErrServerOwnedStatus},
		{model.StatusInProgress, model.StatusPending, ErrServerOwnedStatus},
		{model.StatusPending, model.StatusInProgress, ErrServerOwnedStatus},
		{model.StatusDelayed, model.StatusCompleted, ErrServerOwnedStatus},
		{model.StatusInProgress, "done", ErrInvalidTransition},
	}
	for _, tc := range cases {
		err := ValidateClientTransition(tc.from, tc.to)
		if tc.wantErr == nil && err != nil {
			t.Fatalf("%s -> %s: unexpected error %v", tc.from, tc.to, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.wantErr, err)
		}
	}
}

func TestReworkStatus(t *testing.T) {
	if got := ReworkStatus(model.Task{Status: model.StatusCompleted}); got != model.StatusCompleted {
		t.Fatalf("completed task should stay completed, got %s", got)
	}
	for _, s := range []model.TaskStatus{model.StatusPending, model.StatusDelayed, model.StatusInProgress} {
		if got := ReworkStatus(model.Task{Status: s}); got != model.StatusInProgress {
			t.Fatalf("%s task should rework as in_progress, got %s", s, got)
		}
	}
}

func TestIsOverdue(t *testing.T) {
	today, _ := model.ParseDay("2025-01-10")
	yesterday, _ := model.ParseDay("2025-01-09")
	if !IsOverdue(model.Task{Status: model.StatusInProgress, DueDate: yesterday}, today) {
		t.Fatalf("unfinished task due yesterday should be overdue")
	}
	if IsOverdue(model.Task{Status: model.StatusCompleted, DueDate: yesterday}, today) {
		t.Fatalf("completed task is never overdue")
	}
	if IsOverdue(model.Task{Status: model.StatusInProgress, DueDate: today}, today) {
		t.Fatalf("task due today is not overdue")
	}
}
