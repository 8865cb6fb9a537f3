package form

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/nakachan-ing/dtl-cli/internal/attachment"
	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

var (
	ErrSubmitInFlight = errors.New("submission already in progress")
	ErrNotReworkable  = errors.New("task is neither rejected nor shifted")
	ErrUnknownField   = errors.New("unknown form field")
)

// Submitter is the part of the backend client the form needs.
type Submitter interface {
	CreateTask(ctx context.Context, userID string, p SubmissionPayload) (model.Task, error)
	ReworkTask(ctx context.Context, userID, taskID string, p SubmissionPayload) (model.Task, error)
}

type Options struct {
	Clock   clock.Clock
	Company *model.Company // fixed company supplied by the organization
	Limits  attachment.Limits
}

// Controller is one open create or rework form. It is safe for
// concurrent use; a second Submit while one is running is rejected.
type Controller struct {
	mu              sync.Mutex
	clock           clock.Clock
	mode            Mode
	companyRequired bool
	limits          attachment.Limits
	initial         Fields
	fields          Fields
	staged          []model.AttachmentCandidate
	inFlight        atomic.Bool
}

func NewCreate(opts Options) *Controller {
	c := newController(ModeCreate, opts)
	c.initial[FieldStatus] = string(model.StatusInProgress)
	if c.companyRequired {
		c.initial[FieldCompanyServed] = opts.Company.Name
	}
	c.fields = c.initial.Clone()
	return c
}

// NewRework seeds the form from prior. Due date is reset to today and
// status to in_progress unless prior is already completed.
func NewRework(prior model.Task, opts Options) (*Controller, error) {
	if !lifecycle.CanRework(prior) {
		return nil, fmt.Errorf("%w: %s", ErrNotReworkable, prior.ID)
	}
	c := newController(ModeRework, opts)
	c.initial[FieldTitle] = prior.Title
	c.initial[FieldDescription] = prior.Description
	c.initial[FieldContribution] = prior.Contribution
	c.initial[FieldRelatedProject] = prior.RelatedProject
	c.initial[FieldAchievedDeliverables] = prior.AchievedDeliverables
	c.initial[FieldStatus] = string(lifecycle.ReworkStatus(prior))
	c.initial[FieldCompanyServed] = prior.CompanyName()
	if c.companyRequired {
		c.initial[FieldCompanyServed] = opts.Company.Name
	}
	if prior.TaskType != nil {
		c.initial[FieldTaskTypeID] = strconv.Itoa(prior.TaskType.ID)
	}
	c.initial[fieldTaskID] = prior.ID
	c.initial[fieldIsShifted] = strconv.FormatBool(prior.IsShifted)
	original := prior.OriginalDueDate
	if original.IsZero() {
		original = prior.DueDate
	}
	c.initial[fieldOriginalDueDate] = original.String()
	c.fields = c.initial.Clone()
	return c, nil
}

func newController(mode Mode, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Limits.MaxFiles == 0 {
		opts.Limits = attachment.DefaultLimits()
	}
	c := &Controller{
		clock:           opts.Clock,
		mode:            mode,
		companyRequired: opts.Company != nil && opts.Company.Name != "",
		limits:          opts.Limits,
		initial:         Fields{},
	}
	c.initial[FieldDueDate] = c.today().String()
	return c
}

func (c *Controller) today() model.Day {
	return model.NewDay(c.clock.Now())
}

func (c *Controller) Mode() Mode { return c.mode }

func (c *Controller) CompanyRequired() bool { return c.companyRequired }

func (c *Controller) Limits() attachment.Limits { return c.limits }

// Fields returns a copy of the current values.
func (c *Controller) Fields() Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields.Clone()
}

func (c *Controller) Value(f Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields[f]
}

// SetField updates one value. The due date is always overwritten with
// today and a company fixed by the organization cannot be changed.
func (c *Controller) SetField(f Field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch f {
	case FieldDueDate:
		c.fields[f] = c.today().String()
		return nil
	case FieldCompanyServed:
		if c.companyRequired {
			return nil
		}
	case FieldStatus:
		to, err := model.ParseTaskStatus(value)
		if err != nil {
			return err
		}
		from := model.TaskStatus(c.fields[FieldStatus])
		if err := lifecycle.ValidateClientTransition(from, to); err != nil {
			return err
		}
		value = string(to)
	case FieldTaskTypeID, FieldTitle, FieldDescription, FieldContribution,
		FieldRelatedProject, FieldAchievedDeliverables:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, f)
	}
	c.fields[f] = value
	return nil
}

func (c *Controller) RequiredFields() []Field {
	return RequiredFields(c.companyRequired)
}

func (c *Controller) CompletionPercent() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CompletionPercent(c.fields, c.companyRequired)
}

func (c *Controller) Missing() []Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Missing(c.fields, c.companyRequired)
}

// CanSubmit reports whether the submit action is enabled.
func (c *Controller) CanSubmit() bool {
	return !c.inFlight.Load() && c.CompletionPercent() >= 100
}

func (c *Controller) Submitting() bool {
	return c.inFlight.Load()
}

// Stage validates files against the staged set and keeps the accepted
// ones. Rejections are returned for display.
func (c *Controller) Stage(files []model.AttachmentCandidate) attachment.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	res := attachment.Validate(c.staged, files, c.limits)
	c.staged = append(c.staged, res.Accepted...)
	return res
}

func (c *Controller) Unstage(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, a := range c.staged {
		if a.ID == id {
			c.staged = append(c.staged[:i:i], c.staged[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Controller) Staged() []model.AttachmentCandidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.AttachmentCandidate(nil), c.staged...)
}

// Payload builds the submission from the current state after forcing
// the due date to today.
func (c *Controller) Payload() (SubmissionPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[FieldDueDate] = c.today().String()
	if missing := Missing(c.fields, c.companyRequired); len(missing) > 0 {
		return SubmissionPayload{}, fmt.Errorf("%w: %v", ErrIncomplete, missing)
	}
	return BuildSubmission(c.fields, c.staged, c.mode)
}

// Submit sends the form. On success the form returns to its initial
// values with nothing staged; on failure everything is kept so the user
// can correct and retry.
func (c *Controller) Submit(ctx context.Context, userID string, s Submitter) (model.Task, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return model.Task{}, ErrSubmitInFlight
	}
	defer c.inFlight.Store(false)

	payload, err := c.Payload()
	if err != nil {
		return model.Task{}, err
	}

	var task model.Task
	switch c.mode {
	case ModeRework:
		task, err = s.ReworkTask(ctx, userID, payload.TaskID, payload)
	default:
		task, err = s.CreateTask(ctx, userID, payload)
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to %s task: %w", c.mode, err)
	}

	c.Reset()
	return task, nil
}

// Reset discards edits and staged files.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields = c.initial.Clone()
	c.fields[FieldDueDate] = c.today().String()
	c.staged = nil
}
