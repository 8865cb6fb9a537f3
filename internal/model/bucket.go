package model

import (
	"fmt"
	"strings"
)

type Owner struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// DailyTaskBucket groups the tasks of one submission date.
type DailyTaskBucket struct {
	ID             string `json:"_id"`
	SubmissionDate Day    `json:"submission_date"`
	Tasks          []Task `json:"tasks"`
	Submitted      bool   `json:"submitted"`
	Owner          *Owner `json:"user,omitempty"`
}

func (b *DailyTaskBucket) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("%w: daily task bucket without id", ErrInvalidPayload)
	}
	if b.SubmissionDate.IsZero() {
		return fmt.Errorf("%w: daily task bucket %s without submission date", ErrInvalidPayload, b.ID)
	}
	for i := range b.Tasks {
		if err := b.Tasks[i].Validate(); err != nil {
			return fmt.Errorf("bucket %s: %w", b.ID, err)
		}
	}
	return nil
}

// FindTask returns the task with the given id in any of the buckets.
func FindTask(buckets []DailyTaskBucket, taskID string) (Task, DailyTaskBucket, bool) {
	for _, b := range buckets {
		for _, t := range b.Tasks {
			if t.ID == taskID {
				return t, b, true
			}
		}
	}
	return Task{}, DailyTaskBucket{}, false
}
