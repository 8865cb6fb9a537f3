package cmd

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/nakachan-ing/dtl-cli/internal/clock"
	"github.com/nakachan-ing/dtl-cli/internal/form"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func TestConfigFieldsRoundTrip(t *testing.T) {
	config := model.DefaultConfig()
	values := map[string]string{
		"api.base_url":               "https://tasks.example.com",
		"api.timeout":                "15",
		"user.id":                    "u1",
		"organization.company":       "Acme",
		"attachments.max_files":      "3",
		"attachments.accepted_types": ".pdf,image/*",
		"telemetry.enable":           "true",
		"sync.bucket":                "dtl-cache",
	}
	for key, v := range values {
		field, err := lookupConfigField(key)
		if err != nil {
			t.Fatal(err)
		}
		if err := field.set(&config, v); err != nil {
			t.Fatalf("%s: %v", key, err)
		}
		if got := field.get(&config); got != v {
			t.Errorf("%s = %q, want %q", key, got, v)
		}
	}
	if !config.CompanyRequired() {
		t.Error("setting organization.company should make the company required")
	}

	company, _ := lookupConfigField("organization.company")
	if err := company.set(&config, "  "); err != nil {
		t.Fatal(err)
	}
	if config.Organization.Company != nil {
		t.Error("blank company should clear it")
	}
}

func TestConfigFieldsRejectBadValues(t *testing.T) {
	config := model.DefaultConfig()
	for key, v := range map[string]string{
		"api.timeout":           "soon",
		"attachments.max_files": "-1",
		"telemetry.enable":      "maybe",
	} {
		field, err := lookupConfigField(key)
		if err != nil {
			t.Fatal(err)
		}
		if err := field.set(&config, v); err == nil {
			t.Errorf("%s accepted %q", key, v)
		}
	}
	if _, err := lookupConfigField("notes_dir"); err == nil {
		t.Error("unknown key should be rejected")
	}
}

func TestMaskSecret(t *testing.T) {
	if got := maskSecret("abcdefgh"); got != "****efgh" {
		t.Errorf("maskSecret = %q", got)
	}
	if got := maskSecret("abc"); got != "***" {
		t.Errorf("maskSecret = %q", got)
	}
}

func TestFindBucket(t *testing.T) {
	today := model.NewDay(time.Now())
	buckets := []model.DailyTaskBucket{
		{ID: "b1", SubmissionDate: today},
		{ID: "b2", SubmissionDate: model.NewDay(time.Now().AddDate(0, 0, -1))},
	}
	for _, ref := range []string{"", "today", "b1", today.String()} {
		b, err := findBucket(buckets, ref)
		if err != nil || b.ID != "b1" {
			t.Errorf("findBucket(%q) = %v, %v", ref, b.ID, err)
		}
	}
	if _, err := findBucket(buckets, "1999-01-01"); err == nil {
		t.Error("expected an error for a missing day")
	}
}

func TestReworkHint(t *testing.T) {
	rejected := model.Task{ID: "t1", Status: model.StatusCompleted, ReviewStatus: model.ReviewRejected}
	if hint := reworkHint(rejected); !strings.Contains(hint, "dtl task rework t1") {
		t.Errorf("hint = %q", hint)
	}
	approved := model.Task{ID: "t2", Status: model.StatusCompleted, ReviewStatus: model.ReviewApproved}
	if hint := reworkHint(approved); hint != "" {
		t.Errorf("approved task should have no hint, got %q", hint)
	}
}

func TestTaskFormUpdatesCompletionWhileTyping(t *testing.T) {
	ctrl := form.NewCreate(form.Options{Clock: clock.Fake(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))})
	m := newTaskFormModel(context.Background(), ctrl, nil, "u1", nil)
	before := ctrl.CompletionPercent()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Fix login")})

	if got := ctrl.Value(form.FieldTitle); got != "Fix login" {
		t.Fatalf("title = %q, want it set without leaving the row", got)
	}
	if ctrl.CompletionPercent() <= before {
		t.Errorf("completion did not move: %v -> %v", before, ctrl.CompletionPercent())
	}
}
