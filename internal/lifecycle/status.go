// Package lifecycle holds the status and review rules of a daily task.
// Every view consults these functions instead of re-deriving the rules.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

var (
	// ErrServerOwnedStatus is returned when a client tries to move a
	// task into or out of a status only the backend assigns.
	ErrServerOwnedStatus = errors.New("status is assigned by the server")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions is the full status graph, including server-driven edges.
var transitions = map[model.TaskStatus][]model.TaskStatus{
	model.StatusPending:    {model.StatusInProgress},
	model.StatusInProgress: {model.StatusCompleted, model.StatusDelayed},
	model.StatusCompleted:  {model.StatusInProgress},
	model.StatusDelayed:    {model.StatusInProgress},
}

// ClientSettable reports whether a user may pick this status in a form.
func ClientSettable(s model.TaskStatus) bool {
	return s == model.StatusInProgress || s == model.StatusCompleted
}

// CanTransition reports whether the status graph has an edge from -> to.
func CanTransition(from, to model.TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ValidateClientTransition checks a status change authored by the user.
// Only in_progress <-> completed is allowed; setting the same status is
// a no-op and accepted.
func ValidateClientTransition(from, to model.TaskStatus) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !ClientSettable(to) {
		return fmt.Errorf("%w: %s", ErrServerOwnedStatus, to)
	}
	if from == to {
		return nil
	}
	if !ClientSettable(from) {
		return fmt.Errorf("%w: task is %s", ErrServerOwnedStatus, from)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// CanRework reports whether a task may be resubmitted under its id.
func CanRework(t model.Task) bool {
	return t.ReviewStatus == model.ReviewRejected || t.IsShifted
}

// ReworkReason explains CanRework for display, or "" if not eligible.
func ReworkReason(t model.Task) string {
	var reasons []string
	if t.ReviewStatus == model.ReviewRejected {
		reasons = append(reasons, "rejected")
	}
	if t.IsShifted {
		reasons = append(reasons, "shifted")
	}
	return strings.Join(reasons, ", ")
}

// CanSubmitDay reports whether at least one task is completed.
func CanSubmitDay(tasks []model.Task) bool {
	for _, t := range tasks {
		if t.Status == model.StatusCompleted {
			return true
		}
	}
	return false
}

// ReworkStatus is the status a rework form starts with.
func ReworkStatus(prior model.Task) model.TaskStatus {
	if prior.Status == model.StatusCompleted {
		return model.StatusCompleted
	}
	return model.StatusInProgress
}

// IsOverdue reports whether an unfinished task is past its due date.
// It is informational only; the backend assigns the delayed status.
func IsOverdue(t model.Task, today model.Day) bool {
	if t.Status == model.StatusCompleted || t.DueDate.IsZero() {
		return false
	}
	return t.DueDate.Before(today)
}

// Label returns the display text of a status.
func Label(s model.TaskStatus) string {
	switch s {
	case model.StatusPending:
		return "Pending"
	case model.StatusInProgress:
		return "In Progress"
	case model.StatusCompleted:
		return "Completed"
	case model.StatusDelayed:
		return "Delayed"
	}
	return string(s)
}

func ReviewLabel(s model.ReviewStatus) string {
	switch s {
	case model.ReviewApproved:
		return "Approved"
	case model.ReviewRejected:
		return "Rejected"
	case model.ReviewPending, "":
		return "Pending Review"
	}
	return string(s)
}
