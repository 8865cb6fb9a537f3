package model

import "fmt"

type ShiftedTask struct {
	Title            string `json:"title"`
	PreviousWorkDays int    `json:"previousWorkDays"`
	WorkDaysCount    int    `json:"workDaysCount"`
}

// ShiftReport describes the outcome of the backend's last automatic
// carry-forward. It is never persisted.
type ShiftReport struct {
	TasksShifted int           `json:"tasksShifted"`
	ShiftDate    Day           `json:"shiftDate"`
	Tasks        []ShiftedTask `json:"tasks"`
}

func (r *ShiftReport) Validate() error {
	if r.TasksShifted < 0 {
		return fmt.Errorf("%w: negative shifted task count", ErrInvalidPayload)
	}
	if r.TasksShifted > 0 && r.ShiftDate.IsZero() {
		return fmt.Errorf("%w: shift report without shift date", ErrInvalidPayload)
	}
	return nil
}

// SameAs reports whether two reports describe the same shift, so a
// report decoded twice from the same fetch is recognised.
func (r *ShiftReport) SameAs(other *ShiftReport) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r == other {
		return true
	}
	if r.TasksShifted != other.TasksShifted || !r.ShiftDate.Equal(other.ShiftDate) || len(r.Tasks) != len(other.Tasks) {
		return false
	}
	for i := range r.Tasks {
		if r.Tasks[i] != other.Tasks[i] {
			return false
		}
	}
	return true
}
