package form

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeRework Mode = "rework"
)

var ErrIncomplete = errors.New("required fields are missing")

// SubmissionPayload is the normalized body handed to the backend client.
type SubmissionPayload struct {
	Mode                 Mode
	TaskID               string
	Title                string
	Description          string
	Contribution         string
	CompanyServed        string
	RelatedProject       string
	AchievedDeliverables string
	Status               model.TaskStatus
	DueDate              model.Day
	TaskTypeID           *int
	Attachments          []model.AttachmentCandidate

	// Rework passthrough.
	IsShifted       bool
	OriginalDueDate model.Day
}

// BuildSubmission normalizes form values into a payload. It checks
// value formats only; completeness is checked against the required set
// by the controller.
func BuildSubmission(fields Fields, attachments []model.AttachmentCandidate, mode Mode) (SubmissionPayload, error) {
	p := SubmissionPayload{
		Mode:                 mode,
		Title:                strings.TrimSpace(fields[FieldTitle]),
		Description:          strings.TrimSpace(fields[FieldDescription]),
		Contribution:         strings.TrimSpace(fields[FieldContribution]),
		CompanyServed:        strings.TrimSpace(fields[FieldCompanyServed]),
		RelatedProject:       strings.TrimSpace(fields[FieldRelatedProject]),
		AchievedDeliverables: strings.TrimSpace(fields[FieldAchievedDeliverables]),
		Attachments:          append([]model.AttachmentCandidate(nil), attachments...),
	}

	status, err := model.ParseTaskStatus(fields[FieldStatus])
	if err != nil {
		return SubmissionPayload{}, err
	}
	if !lifecycle.ClientSettable(status) {
		return SubmissionPayload{}, fmt.Errorf("%w: %s", lifecycle.ErrServerOwnedStatus, status)
	}
	p.Status = status

	if p.DueDate, err = model.ParseDay(fields[FieldDueDate]); err != nil {
		return SubmissionPayload{}, err
	}

	if raw := strings.TrimSpace(fields[FieldTaskTypeID]); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return SubmissionPayload{}, fmt.Errorf("invalid task type id %q", raw)
		}
		p.TaskTypeID = &id
	}

	if mode == ModeRework {
		p.TaskID = fields[fieldTaskID]
		if p.TaskID == "" {
			return SubmissionPayload{}, errors.New("rework submission without task id")
		}
		p.IsShifted = fields[fieldIsShifted] == "true"
		if p.OriginalDueDate, err = model.ParseDay(fields[fieldOriginalDueDate]); err != nil {
			return SubmissionPayload{}, err
		}
	}
	return p, nil
}
