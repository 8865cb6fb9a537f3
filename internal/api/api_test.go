package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/devserver"
	"github.com/nakachan-ing/dtl-cli/internal/form"
	"github.com/nakachan-ing/dtl-cli/internal/gate"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

var now = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) (*Client, *devserver.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := devserver.NewStore(clock.Fake(now))
	srv := httptest.NewServer(devserver.SetupRouter(store, devserver.Options{}))
	t.Cleanup(srv.Close)

	c, err := New(model.APIConfig{BaseURL: srv.URL, Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}
	return c, store
}

func TestFetchDailyTasksWithShiftReport(t *testing.T) {
	c, store := newTestClient(t)
	store.AddBucket("u1", model.DailyTaskBucket{
		SubmissionDate: model.NewDay(now.AddDate(0, 0, -1)),
		Tasks:          []model.Task{{Title: "carry me", Status: model.StatusInProgress}},
	})

	res, err := c.FetchDailyTasks(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.ShiftReport == nil || res.ShiftReport.TasksShifted != 1 {
		t.Fatalf("shift report = %+v", res.ShiftReport)
	}
	if len(res.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(res.Buckets))
	}

	res, err = c.FetchDailyTasks(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if res.ShiftReport != nil {
		t.Error("report should only accompany the fetch that shifted")
	}
}

func TestFetchDailyTasksAcceptsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(RequestIDHeader) == "" {
			t.Error("missing request id")
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`[{"_id":"b1","submission_date":"2025-01-10T00:00:00.000Z","submitted":false,"tasks":[{"_id":"t1","title":"x","status":"completed"}]}]`))
	}))
	defer srv.Close()

	c, err := New(model.APIConfig{BaseURL: srv.URL, Token: "tok"})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.FetchDailyTasks(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Buckets) != 1 || res.Buckets[0].Tasks[0].ReviewStatus != model.ReviewPending {
		t.Errorf("buckets = %+v", res.Buckets)
	}
}

func TestInvalidPayloadIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"dailyTasks":[{"_id":"b1","submission_date":"2025-01-10","tasks":[{"_id":"t1","status":"archived"}]}]}`))
	}))
	defer srv.Close()

	c, _ := New(model.APIConfig{BaseURL: srv.URL})
	if _, err := c.FetchDailyTasks(context.Background(), "u1"); !errors.Is(err, model.ErrInvalidPayload) {
		t.Errorf("err = %v, want ErrInvalidPayload", err)
	}
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"User not found"}`))
	}))
	defer srv.Close()

	c, _ := New(model.APIConfig{BaseURL: srv.URL})
	_, err := c.FetchDailyTasks(context.Background(), "u1")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "User not found" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if !errors.Is(err, ErrNotFound) {
		t.Error("404 should match ErrNotFound")
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New(model.APIConfig{BaseURL: "not a url"}); err == nil {
		t.Error("expected error")
	}
}

func TestCreateTaskWithAttachmentAndSubmitDay(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0644); err != nil {
		t.Fatal(err)
	}

	fc := clock.Fake(now)
	ctrl := form.NewCreate(form.Options{Clock: fc})
	for f, v := range map[form.Field]string{
		form.FieldTitle:                "Quarterly report",
		form.FieldDescription:          "numbers",
		form.FieldContribution:         "wrote it",
		form.FieldRelatedProject:       "finance",
		form.FieldAchievedDeliverables: "pdf",
		form.FieldTaskTypeID:           "2",
	} {
		if err := ctrl.SetField(f, v); err != nil {
			t.Fatal(err)
		}
	}
	res := ctrl.Stage([]model.AttachmentCandidate{{ID: "a1", Name: "report.pdf", Size: 13, MIMEType: "application/pdf", Path: path}})
	if len(res.Errors) > 0 {
		t.Fatal(res.Errors)
	}

	task, err := ctrl.Submit(ctx, "u1", c)
	if err != nil {
		t.Fatal(err)
	}
	if task.TaskType == nil || task.TaskType.Name != "Research" {
		t.Errorf("task type = %+v", task.TaskType)
	}
	if len(task.AttachedDocuments) != 1 || task.AttachedDocuments[0].Bytes != 13 {
		t.Fatalf("documents = %+v", task.AttachedDocuments)
	}
	if !strings.Contains(task.AttachedDocuments[0].SecureURL, "/files/") {
		t.Errorf("secure url = %q", task.AttachedDocuments[0].SecureURL)
	}

	fetched, err := c.FetchDailyTasks(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	bucket := fetched.Buckets[0]

	g := gate.New(c, "u1")
	if _, err := g.Submit(ctx, bucket); !errors.Is(err, gate.ErrNothingCompleted) {
		t.Fatalf("submit with nothing completed: err = %v", err)
	}

	prior, _, _ := model.FindTask(fetched.Buckets, task.ID)
	if prior.ID == "" {
		t.Fatal("created task not listed")
	}
}

func TestReworkRoundTrip(t *testing.T) {
	c, store := newTestClient(t)
	ctx := context.Background()
	b := store.AddBucket("u1", model.DailyTaskBucket{
		SubmissionDate: model.NewDay(now),
		Tasks: []model.Task{{
			Title: "draft", Description: "d", Contribution: "c", RelatedProject: "p",
			AchievedDeliverables: "a", Status: model.StatusCompleted,
		}},
	})
	taskID := b.Tasks[0].ID
	if _, err := store.Review("u1", taskID, model.ReviewRejected, model.Comment{Text: "redo"}); err != nil {
		t.Fatal(err)
	}

	fetched, err := c.FetchDailyTasks(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	prior, bucket, ok := model.FindTask(fetched.Buckets, taskID)
	if !ok {
		t.Fatal("task not found")
	}

	ctrl, err := form.NewRework(prior, form.Options{Clock: clock.Fake(now)})
	if err != nil {
		t.Fatal(err)
	}
	if err := ctrl.SetField(form.FieldTitle, "final"); err != nil {
		t.Fatal(err)
	}
	updated, err := ctrl.Submit(ctx, "u1", c)
	if err != nil {
		t.Fatal(err)
	}
	if updated.ID != taskID || updated.Title != "final" || updated.ReviewStatus != model.ReviewPending {
		t.Errorf("updated = %+v", updated)
	}

	submitted, err := gate.New(c, "u1").Submit(ctx, bucket)
	if err != nil {
		t.Fatal(err)
	}
	if !submitted.Submitted {
		t.Error("bucket not marked submitted after refetch")
	}
}

func TestErrorMessageKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("a", maxErrorBody-1) + "日本"
	msg := errorMessage([]byte(body))
	if !utf8.ValidString(msg) {
		t.Fatalf("truncated message is not valid UTF-8: %q", msg)
	}
	if msg != strings.Repeat("a", maxErrorBody-1) {
		t.Errorf("message = %q", msg)
	}
	if got := errorMessage([]byte(`{"message":"日本語のエラー"}`)); got != "日本語のエラー" {
		t.Errorf("json message = %q", got)
	}
}
