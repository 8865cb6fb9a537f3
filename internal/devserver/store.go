package devserver

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/gate"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrBucketNotFound = errors.New("daily task not found")
	ErrNotReworkable  = errors.New("task is neither rejected nor shifted")
)

type storedFile struct {
	name        string
	contentType string
	data        []byte
}

// Store is the in-memory backend state. Past unsubmitted buckets have
// their unfinished tasks carried forward to today on every listing.
type Store struct {
	mu        sync.Mutex
	clock     clock.Clock
	buckets   map[string][]*model.DailyTaskBucket
	taskTypes []model.TaskType
	files     map[string]storedFile
}

func NewStore(c clock.Clock) *Store {
	return &Store{
		clock:   c,
		buckets: map[string][]*model.DailyTaskBucket{},
		taskTypes: []model.TaskType{
			{ID: 1, Name: "Development"},
			{ID: 2, Name: "Research"},
			{ID: 3, Name: "Meeting"},
			{ID: 4, Name: "Documentation"},
			{ID: 5, Name: "Support"},
		},
		files: map[string]storedFile{},
	}
}

func (s *Store) today() model.Day {
	return model.NewDay(s.clock.Now())
}

func newID() string {
	return uuid.NewString()
}

// AddBucket inserts a bucket as is. Used for seeding.
func (s *Store) AddBucket(userID string, b model.DailyTaskBucket) model.DailyTaskBucket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = newID()
	}
	for i := range b.Tasks {
		if b.Tasks[i].ID == "" {
			b.Tasks[i].ID = newID()
		}
		if b.Tasks[i].ReviewStatus == "" {
			b.Tasks[i].ReviewStatus = model.ReviewPending
		}
	}
	b.Owner = &model.Owner{ID: userID}
	stored := b
	s.buckets[userID] = append(s.buckets[userID], &stored)
	return stored
}

func (s *Store) TaskTypes() []model.TaskType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TaskType(nil), s.taskTypes...)
}

// List carries overdue work forward and returns a copy of the user's
// buckets, newest first, with the report of what was shifted.
func (s *Store) List(userID string) ([]model.DailyTaskBucket, *model.ShiftReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := s.shiftLocked(userID)

	out := make([]model.DailyTaskBucket, 0, len(s.buckets[userID]))
	for _, b := range s.buckets[userID] {
		cp := *b
		cp.Tasks = append([]model.Task(nil), b.Tasks...)
		out = append(out, cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].SubmissionDate.Before(out[i].SubmissionDate)
	})
	return out, report
}

// shiftLocked leaves overdue work where it is while today's bucket is
// already submitted; the carry-forward happens on the next day instead.
func (s *Store) shiftLocked(userID string) *model.ShiftReport {
	today := s.today()
	if b := s.findBucketByDateLocked(userID, today); b != nil && b.Submitted {
		return nil
	}
	var shifted []model.ShiftedTask
	var carried []model.Task

	for _, b := range s.buckets[userID] {
		if b.Submitted || !b.SubmissionDate.Before(today) {
			continue
		}
		kept := b.Tasks[:0]
		for _, t := range b.Tasks {
			if t.Status == model.StatusCompleted {
				kept = append(kept, t)
				continue
			}
			prev := t.WorkDaysCount
			t.WorkDaysCount = prev + b.SubmissionDate.DaysUntil(today)
			if t.OriginalDueDate.IsZero() {
				t.OriginalDueDate = t.DueDate
			}
			t.DueDate = today
			t.IsShifted = true
			t.Status = model.StatusDelayed
			carried = append(carried, t)
			shifted = append(shifted, model.ShiftedTask{Title: t.Title, PreviousWorkDays: prev, WorkDaysCount: t.WorkDaysCount})
		}
		b.Tasks = kept
	}
	if len(carried) == 0 {
		return nil
	}

	target := s.todayBucketLocked(userID)
	target.Tasks = append(target.Tasks, carried...)
	return &model.ShiftReport{TasksShifted: len(shifted), ShiftDate: today, Tasks: shifted}
}

func (s *Store) findBucketByDateLocked(userID string, day model.Day) *model.DailyTaskBucket {
	for _, b := range s.buckets[userID] {
		if b.SubmissionDate.Equal(day) {
			return b
		}
	}
	return nil
}

func (s *Store) todayBucketLocked(userID string) *model.DailyTaskBucket {
	today := s.today()
	if b := s.findBucketByDateLocked(userID, today); b != nil {
		return b
	}
	b := &model.DailyTaskBucket{
		ID:             newID(),
		SubmissionDate: today,
		Tasks:          []model.Task{},
		Owner:          &model.Owner{ID: userID},
	}
	s.buckets[userID] = append(s.buckets[userID], b)
	return b
}

func (s *Store) findTaskLocked(userID, taskID string) (*model.DailyTaskBucket, int) {
	for _, b := range s.buckets[userID] {
		for i := range b.Tasks {
			if b.Tasks[i].ID == taskID {
				return b, i
			}
		}
	}
	return nil, -1
}

// CreateTask adds t to today's bucket, which is created on demand.
// The due date is always today.
func (s *Store) CreateTask(userID string, t model.Task) (model.Task, error) {
	if !lifecycle.ClientSettable(t.Status) {
		return model.Task{}, fmt.Errorf("%w: %s", lifecycle.ErrServerOwnedStatus, t.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.todayBucketLocked(userID)
	if b.Submitted {
		return model.Task{}, gate.ErrAlreadySubmitted
	}
	t.ID = newID()
	t.DueDate = s.today()
	t.ReviewStatus = model.ReviewPending
	b.Tasks = append(b.Tasks, t)
	return t, nil
}

// ReworkTask replaces the editable fields of a rejected or shifted task
// and puts it back into review.
func (s *Store) ReworkTask(userID, taskID string, update model.Task) (model.Task, error) {
	if !lifecycle.ClientSettable(update.Status) {
		return model.Task{}, fmt.Errorf("%w: %s", lifecycle.ErrServerOwnedStatus, update.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, i := s.findTaskLocked(userID, taskID)
	if b == nil {
		return model.Task{}, ErrTaskNotFound
	}
	t := b.Tasks[i]
	if !lifecycle.CanRework(t) {
		return model.Task{}, ErrNotReworkable
	}

	t.Title = update.Title
	t.Description = update.Description
	t.Contribution = update.Contribution
	t.RelatedProject = update.RelatedProject
	t.AchievedDeliverables = update.AchievedDeliverables
	t.CompanyServed = update.CompanyServed
	if update.TaskType != nil {
		t.TaskType = update.TaskType
	}
	t.Status = update.Status
	t.DueDate = s.today()
	if !update.OriginalDueDate.IsZero() {
		t.OriginalDueDate = update.OriginalDueDate
	}
	t.ReviewStatus = model.ReviewPending
	t.Reviewed = false
	t.AttachedDocuments = append(t.AttachedDocuments, update.AttachedDocuments...)
	b.Tasks[i] = t
	return t, nil
}

// Review sets the supervisor verdict on a task, optionally with a
// comment.
func (s *Store) Review(userID, taskID string, verdict model.ReviewStatus, comment model.Comment) (model.Task, error) {
	if verdict != model.ReviewApproved && verdict != model.ReviewRejected {
		return model.Task{}, fmt.Errorf("invalid review status %q", verdict)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, i := s.findTaskLocked(userID, taskID)
	if b == nil {
		return model.Task{}, ErrTaskNotFound
	}
	t := &b.Tasks[i]
	t.ReviewStatus = verdict
	t.Reviewed = true
	if comment.Text != "" {
		comment.Timestamp = s.clock.Now().UTC()
		t.Comments = append(t.Comments, comment)
	}
	return *t, nil
}

// Submit applies the same rules as the client gate.
func (s *Store) Submit(userID, bucketID string) (model.DailyTaskBucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.buckets[userID] {
		if b.ID != bucketID {
			continue
		}
		if err := gate.Check(*b); err != nil {
			return model.DailyTaskBucket{}, err
		}
		b.Submitted = true
		cp := *b
		cp.Tasks = append([]model.Task(nil), b.Tasks...)
		return cp, nil
	}
	return model.DailyTaskBucket{}, ErrBucketNotFound
}

func (s *Store) PutFile(name, contentType string, data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := newID()
	s.files[id] = storedFile{name: name, contentType: contentType, data: data}
	return id
}

func (s *Store) File(id string) (storedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok
}
