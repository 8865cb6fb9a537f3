// Package devserver is an in-memory daily task backend for local
// development and end-to-end tests of the client.
package devserver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nakachan-ing/dtl-cli/internal/gate"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

const requestIDHeader = "X-Request-ID"

type Options struct {
	// Secret enables bearer-token auth when non-empty.
	Secret []byte
}

type controller struct {
	store *Store
}

func SetupRouter(store *Store, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	tc := controller{store: store}

	r.GET("/api/task-types", tc.ListTaskTypes)
	r.GET("/files/:id/:name", tc.GetFile)

	api := r.Group("/api/daily-tasks")
	if len(opts.Secret) > 0 {
		api.Use(AuthMiddleware(opts.Secret))
	}
	api.GET("/user/:userID", tc.ListDailyTasks)
	api.POST("/submit", tc.Submit)
	api.POST("/:userID/tasks", tc.CreateTask)
	api.PUT("/:userID/tasks/:taskID/rework", tc.ReworkTask)
	api.PUT("/:userID/tasks/:taskID/review", tc.ReviewTask)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"request_id", c.GetHeader(requestIDHeader))
	}
}

func (tc *controller) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, tc.store.TaskTypes())
}

func (tc *controller) ListDailyTasks(c *gin.Context) {
	buckets, report := tc.store.List(c.Param("userID"))
	body := gin.H{"dailyTasks": buckets}
	if report != nil {
		body["shiftResult"] = report
	}
	c.JSON(http.StatusOK, body)
}

type submitBody struct {
	UserID      string `json:"userId" binding:"required"`
	DailyTaskID string `json:"dailyTaskId" binding:"required"`
}

func (tc *controller) Submit(c *gin.Context) {
	var body submitBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if uid, ok := c.Get("user_id"); ok && uid != body.UserID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied"})
		return
	}

	bucket, err := tc.store.Submit(body.UserID, body.DailyTaskID)
	switch {
	case errors.Is(err, gate.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, gin.H{"message": gate.MessageAlreadySubmitted})
	case errors.Is(err, gate.ErrNothingCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"message": gate.MessageNothingCompleted})
	case errors.Is(err, ErrBucketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
	default:
		c.JSON(http.StatusOK, bucket)
	}
}

func (tc *controller) CreateTask(c *gin.Context) {
	task, err := tc.bindTask(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	created, err := tc.store.CreateTask(c.Param("userID"), task)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (tc *controller) ReworkTask(c *gin.Context) {
	task, err := tc.bindTask(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	updated, err := tc.store.ReworkTask(c.Param("userID"), c.Param("taskID"), task)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

type reviewBody struct {
	ReviewStatus model.ReviewStatus `json:"review_status" binding:"required"`
	Comment      string             `json:"comment"`
	Reviewer     string             `json:"reviewer"`
}

func (tc *controller) ReviewTask(c *gin.Context) {
	var body reviewBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	task, err := tc.store.Review(c.Param("userID"), c.Param("taskID"), body.ReviewStatus,
		model.Comment{Text: body.Comment, UserName: body.Reviewer})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (tc *controller) GetFile(c *gin.Context) {
	f, ok := tc.store.File(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "File not found"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", f.name))
	c.Data(http.StatusOK, f.contentType, f.data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrBucketNotFound):
		return http.StatusNotFound
	case errors.Is(err, gate.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, ErrNotReworkable), errors.Is(err, lifecycle.ErrServerOwnedStatus):
		return http.StatusBadRequest
	}
	if strings.HasPrefix(err.Error(), "invalid") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// bindTask reads the multipart task form and stores its attachments.
func (tc *controller) bindTask(c *gin.Context) (model.Task, error) {
	if _, err := c.MultipartForm(); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return model.Task{}, fmt.Errorf("invalid form: %w", err)
	}

	status, err := model.ParseTaskStatus(c.DefaultPostForm("status", string(model.StatusInProgress)))
	if err != nil {
		return model.Task{}, err
	}
	t := model.Task{
		Title:                strings.TrimSpace(c.PostForm("title")),
		Description:          strings.TrimSpace(c.PostForm("description")),
		Contribution:         strings.TrimSpace(c.PostForm("contribution")),
		RelatedProject:       strings.TrimSpace(c.PostForm("related_project")),
		AchievedDeliverables: strings.TrimSpace(c.PostForm("achieved_deliverables")),
		Status:               status,
	}
	if t.Title == "" {
		return model.Task{}, errors.New("title is required")
	}
	if company := strings.TrimSpace(c.PostForm("company_served")); company != "" {
		t.CompanyServed = &model.Company{Name: company}
	}
	if raw := c.PostForm("task_type_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return model.Task{}, fmt.Errorf("invalid task_type_id %q", raw)
		}
		for _, tt := range tc.store.TaskTypes() {
			if tt.ID == id {
				t.TaskType = &tt
			}
		}
		if t.TaskType == nil {
			return model.Task{}, fmt.Errorf("unknown task_type_id %d", id)
		}
	}
	if raw := c.PostForm("originalDueDate"); raw != "" {
		if t.OriginalDueDate, err = model.ParseDay(raw); err != nil {
			return model.Task{}, err
		}
	}

	if c.Request.MultipartForm != nil {
		for _, fh := range c.Request.MultipartForm.File["attached_documents"] {
			doc, err := tc.storeUpload(c, fh)
			if err != nil {
				return model.Task{}, err
			}
			t.AttachedDocuments = append(t.AttachedDocuments, doc)
		}
	}
	return t, nil
}

func (tc *controller) storeUpload(c *gin.Context, fh *multipart.FileHeader) (model.Document, error) {
	f, err := fh.Open()
	if err != nil {
		return model.Document{}, fmt.Errorf("invalid attachment %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return model.Document{}, fmt.Errorf("invalid attachment %s: %w", fh.Filename, err)
	}

	contentType := fh.Header.Get("Content-Type")
	id := tc.store.PutFile(fh.Filename, contentType, data)
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	return model.Document{
		OriginalFilename: fh.Filename,
		Bytes:            int64(len(data)),
		ResourceType:     resourceType(contentType),
		Format:           strings.TrimPrefix(filepath.Ext(fh.Filename), "."),
		PublicID:         id,
		SecureURL:        fmt.Sprintf("%s://%s/files/%s/%s", scheme, c.Request.Host, id, url.PathEscape(fh.Filename)),
	}, nil
}

func resourceType(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return "video"
	}
	return "raw"
}
