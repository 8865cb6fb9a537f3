// Package gate decides whether a day's tasks may be submitted and runs
// the submission against the backend.
package gate

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/nakachan-ing/dtl-cli/internal/aggregate"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

const (
	MessageAlreadySubmitted = "Already Submitted"
	MessageNothingCompleted = "Complete At Least One Task To Submit"
)

var (
	ErrAlreadySubmitted = errors.New("daily tasks already submitted")
	ErrNothingCompleted = errors.New("complete at least one task to submit")
	ErrSubmitInFlight   = errors.New("submission already in progress")
)

// Submitter is the part of the backend client the gate needs.
type Submitter interface {
	SubmitDailyTasks(ctx context.Context, userID, bucketID string) (model.DailyTaskBucket, error)
	FetchBucket(ctx context.Context, userID, bucketID string) (model.DailyTaskBucket, error)
}

func CanSubmit(b model.DailyTaskBucket) bool {
	return Check(b) == nil
}

// Check returns the pre-flight error that keeps b from being submitted.
func Check(b model.DailyTaskBucket) error {
	if b.Submitted {
		return ErrAlreadySubmitted
	}
	if !lifecycle.CanSubmitDay(b.Tasks) {
		return ErrNothingCompleted
	}
	return nil
}

// Reason is the text shown on a disabled submit action, "" if enabled.
func Reason(b model.DailyTaskBucket) string {
	switch Check(b) {
	case ErrAlreadySubmitted:
		return MessageAlreadySubmitted
	case ErrNothingCompleted:
		return MessageNothingCompleted
	}
	return ""
}

// Status summarises the gate for display.
type Status struct {
	CanSubmit bool
	Message   string
	Completed int
	Total     int
}

func StatusOf(b model.DailyTaskBucket) Status {
	counts, _ := aggregate.Count(b.Tasks)
	return Status{
		CanSubmit: CanSubmit(b),
		Message:   Reason(b),
		Completed: counts[model.StatusCompleted],
		Total:     len(b.Tasks),
	}
}

// Gate serialises submissions for one user. The bucket returned by
// Submit is always refetched from the backend, never patched locally.
type Gate struct {
	submitter Submitter
	userID    string
	inFlight  atomic.Bool
}

func New(s Submitter, userID string) *Gate {
	return &Gate{submitter: s, userID: userID}
}

// Busy reports whether a submission is in flight.
func (g *Gate) Busy() bool {
	return g.inFlight.Load()
}

func (g *Gate) Submit(ctx context.Context, b model.DailyTaskBucket) (model.DailyTaskBucket, error) {
	if err := Check(b); err != nil {
		return b, err
	}
	if !g.inFlight.CompareAndSwap(false, true) {
		return b, ErrSubmitInFlight
	}
	defer g.inFlight.Store(false)

	if _, err := g.submitter.SubmitDailyTasks(ctx, g.userID, b.ID); err != nil {
		return b, fmt.Errorf("failed to submit daily tasks for %s: %w", b.SubmissionDate, err)
	}
	refreshed, err := g.submitter.FetchBucket(ctx, g.userID, b.ID)
	if err != nil {
		return b, fmt.Errorf("submitted, but failed to refresh daily tasks for %s: %w", b.SubmissionDate, err)
	}
	return refreshed, nil
}
