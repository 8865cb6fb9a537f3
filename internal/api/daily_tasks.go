package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"

	"github.com/nakachan-ing/dtl-cli/internal/form"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// FetchResult is the decoded daily task listing. ShiftReport is nil
// when the backend did not shift anything.
type FetchResult struct {
	Buckets     []model.DailyTaskBucket
	ShiftReport *model.ShiftReport
}

type fetchEnvelope struct {
	DailyTasks  []model.DailyTaskBucket `json:"dailyTasks"`
	ShiftResult *model.ShiftReport      `json:"shiftResult"`
}

// FetchDailyTasks loads every bucket of userID. The backend answers
// either with {dailyTasks, shiftResult} or with a bare bucket array.
func (c *Client) FetchDailyTasks(ctx context.Context, userID string) (FetchResult, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, "FetchDailyTasks", c.endpoint("daily-tasks", "user", userID), &raw); err != nil {
		return FetchResult{}, err
	}

	var env fetchEnvelope
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &env.DailyTasks); err != nil {
			return FetchResult{}, fmt.Errorf("FetchDailyTasks: %w: %v", model.ErrInvalidPayload, err)
		}
	default:
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return FetchResult{}, fmt.Errorf("FetchDailyTasks: %w: %v", model.ErrInvalidPayload, err)
		}
	}

	for i := range env.DailyTasks {
		if err := env.DailyTasks[i].Validate(); err != nil {
			return FetchResult{}, fmt.Errorf("FetchDailyTasks: %w", err)
		}
	}
	result := FetchResult{Buckets: env.DailyTasks}
	if env.ShiftResult != nil {
		if err := env.ShiftResult.Validate(); err != nil {
			return FetchResult{}, fmt.Errorf("FetchDailyTasks: %w", err)
		}
		if env.ShiftResult.TasksShifted > 0 {
			result.ShiftReport = env.ShiftResult
		}
	}
	if result.Buckets == nil {
		result.Buckets = []model.DailyTaskBucket{}
	}
	return result, nil
}

// FetchBucket refetches the listing and returns one bucket.
func (c *Client) FetchBucket(ctx context.Context, userID, bucketID string) (model.DailyTaskBucket, error) {
	res, err := c.FetchDailyTasks(ctx, userID)
	if err != nil {
		return model.DailyTaskBucket{}, err
	}
	for _, b := range res.Buckets {
		if b.ID == bucketID {
			return b, nil
		}
	}
	return model.DailyTaskBucket{}, fmt.Errorf("daily task bucket %s: %w", bucketID, ErrNotFound)
}

type submitRequest struct {
	UserID      string `json:"userId"`
	DailyTaskID string `json:"dailyTaskId"`
}

// SubmitDailyTasks finalizes a bucket. The backend enforces the same
// rules as the client-side gate.
func (c *Client) SubmitDailyTasks(ctx context.Context, userID, bucketID string) (model.DailyTaskBucket, error) {
	var bucket model.DailyTaskBucket
	err := c.sendJSON(ctx, "SubmitDailyTasks", http.MethodPost, c.endpoint("daily-tasks", "submit"),
		submitRequest{UserID: userID, DailyTaskID: bucketID}, &bucket)
	if err != nil {
		return model.DailyTaskBucket{}, err
	}
	if bucket.ID == "" {
		// some backends answer with a bare acknowledgement
		return model.DailyTaskBucket{ID: bucketID, Submitted: true}, nil
	}
	if err := bucket.Validate(); err != nil {
		return model.DailyTaskBucket{}, fmt.Errorf("SubmitDailyTasks: %w", err)
	}
	return bucket, nil
}

func (c *Client) CreateTask(ctx context.Context, userID string, p form.SubmissionPayload) (model.Task, error) {
	return c.sendTask(ctx, "CreateTask", http.MethodPost, c.endpoint("daily-tasks", userID, "tasks"), p)
}

func (c *Client) ReworkTask(ctx context.Context, userID, taskID string, p form.SubmissionPayload) (model.Task, error) {
	return c.sendTask(ctx, "ReworkTask", http.MethodPut, c.endpoint("daily-tasks", userID, "tasks", taskID, "rework"), p)
}

func (c *Client) sendTask(ctx context.Context, operation, method, endpoint string, p form.SubmissionPayload) (model.Task, error) {
	body, contentType, err := EncodeSubmission(p)
	if err != nil {
		return model.Task{}, fmt.Errorf("%s: %w", operation, err)
	}
	req, err := c.newRequest(ctx, method, endpoint, body, contentType)
	if err != nil {
		return model.Task{}, err
	}

	var task model.Task
	if err := c.do(req, operation, &task); err != nil {
		return model.Task{}, err
	}
	if err := task.Validate(); err != nil {
		return model.Task{}, fmt.Errorf("%s: %w", operation, err)
	}
	return task, nil
}

// EncodeSubmission writes p as a multipart form. Staged files are
// sent under attached_documents.
func EncodeSubmission(p form.SubmissionPayload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"title", p.Title},
		{"description", p.Description},
		{"contribution", p.Contribution},
		{"company_served", p.CompanyServed},
		{"related_project", p.RelatedProject},
		{"achieved_deliverables", p.AchievedDeliverables},
		{"status", string(p.Status)},
		{"due_date", p.DueDate.String()},
	}
	if p.TaskTypeID != nil {
		fields = append(fields, struct{ name, value string }{"task_type_id", strconv.Itoa(*p.TaskTypeID)})
	}
	if p.Mode == form.ModeRework {
		fields = append(fields,
			struct{ name, value string }{"isShifted", strconv.FormatBool(p.IsShifted)},
			struct{ name, value string }{"originalDueDate", p.OriginalDueDate.String()},
		)
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.name, err)
		}
	}

	for _, a := range p.Attachments {
		if err := writeFile(w, a); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, a model.AttachmentCandidate) error {
	if a.Path == "" {
		return fmt.Errorf("attachment %s has no local file", a.Name)
	}
	f, err := os.Open(a.Path)
	if err != nil {
		return fmt.Errorf("failed to open attachment %s: %w", a.Name, err)
	}
	defer f.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="attached_documents"; filename=%q`, a.Name))
	if a.MIMEType != "" {
		h.Set("Content-Type", a.MIMEType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to add attachment %s: %w", a.Name, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read attachment %s: %w", a.Name, err)
	}
	return nil
}
