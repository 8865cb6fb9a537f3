package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
)

// ErrInvalidPayload wraps every boundary validation failure of data
// decoded from the backend.
var ErrInvalidPayload = errors.New("invalid payload")

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusDelayed    TaskStatus = "delayed"
)

// AllStatuses lists task statuses in lifecycle order.
var AllStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted, StatusDelayed}

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusDelayed:
		return true
	}
	return false
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(strings.ToLower(strings.TrimSpace(s)))
	status = TaskStatus(strings.ReplaceAll(string(status), " ", "_"))
	if !status.IsValid() {
		return "", fmt.Errorf("unknown task status %q", s)
	}
	return status, nil
}

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) IsValid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

type Company struct {
	ID   string `json:"_id,omitempty" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type TaskType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Document is the metadata of an uploaded attachment as stored by the
// backend's media host.
type Document struct {
	OriginalFilename string `json:"original_filename"`
	Bytes            int64  `json:"bytes"`
	ResourceType     string `json:"resource_type"`
	Format           string `json:"format,omitempty"`
	PublicID         string `json:"public_id,omitempty"`
	SecureURL        string `json:"secure_url"`
}

type Comment struct {
	Text      string    `json:"text"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
}

type Task struct {
	ID                   string       `json:"_id"`
	Title                string       `json:"title"`
	Description          string       `json:"description"`
	Contribution         string       `json:"contribution"`
	RelatedProject       string       `json:"related_project"`
	AchievedDeliverables string       `json:"achieved_deliverables"`
	CompanyServed        *Company     `json:"company_served,omitempty"`
	TaskType             *TaskType    `json:"task_type,omitempty"`
	Status               TaskStatus   `json:"status"`
	ReviewStatus         ReviewStatus `json:"review_status"`
	Reviewed             bool         `json:"reviewed"`
	DueDate              Day          `json:"due_date"`
	OriginalDueDate      Day          `json:"originalDueDate"`
	IsShifted            bool         `json:"isShifted"`
	WorkDaysCount        int          `json:"workDaysCount"`
	AttachedDocuments    []Document   `json:"attached_documents"`
	Comments             []Comment    `json:"comments"`
}

// CompanyName returns the served company's name, or "" when unset.
func (t Task) CompanyName() string {
	if t.CompanyServed == nil {
		return ""
	}
	return t.CompanyServed.Name
}

// Validate checks the fields the engine relies on. Review status may be
// omitted by older backends and is then treated as pending.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: task without id", ErrInvalidPayload)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: task %s has unknown status %q", ErrInvalidPayload, t.ID, t.Status)
	}
	if t.ReviewStatus == "" {
		t.ReviewStatus = ReviewPending
	}
	if !t.ReviewStatus.IsValid() {
		return fmt.Errorf("%w: task %s has unknown review status %q", ErrInvalidPayload, t.ID, t.ReviewStatus)
	}
	if t.WorkDaysCount < 0 {
		return fmt.Errorf("%w: task %s has negative work day count", ErrInvalidPayload, t.ID)
	}
	for _, doc := range t.AttachedDocuments {
		if doc.SecureURL != "" && !govalidator.IsURL(doc.SecureURL) {
			return fmt.Errorf("%w: task %s document %q has malformed url", ErrInvalidPayload, t.ID, doc.OriginalFilename)
		}
	}
	for _, c := range t.Comments {
		if govalidator.IsNull(c.Text) {
			return fmt.Errorf("%w: task %s has an empty comment", ErrInvalidPayload, t.ID)
		}
	}
	return nil
}
