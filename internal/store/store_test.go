package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

func TestConfigRoundTripWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dtl", "config.yaml")
	t.Setenv(EnvConfig, path)

	cfg := model.DefaultConfig()
	cfg.User.ID = "file-user"
	cfg.API.Token = "file-token"
	cfg.Organization.Company = &model.Company{ID: "c1", Name: "Acme"}
	if err := SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvAPIToken, "env-token")
	t.Setenv(EnvUserID, "")
	t.Setenv(EnvAPITimeout, "nope")

	loaded, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if loaded.API.Token != "env-token" {
		t.Errorf("token = %q, want env override", loaded.API.Token)
	}
	if loaded.User.ID != "file-user" {
		t.Errorf("user = %q, want value from file", loaded.User.ID)
	}
	if loaded.API.Timeout != 30 {
		t.Errorf("timeout = %d, invalid env value should be ignored", loaded.API.Timeout)
	}
	if !loaded.CompanyRequired() {
		t.Error("organization company was lost")
	}
}

func TestLoadConfigKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("user:\n  id: u1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Attachments.MaxFiles != 5 || cfg.API.BaseURL == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if _, err := RequireUser(*cfg); err != nil {
		t.Error(err)
	}
	if _, err := RequireUser(model.Config{}); !errors.Is(err, ErrNoUser) {
		t.Errorf("err = %v, want ErrNoUser", err)
	}
}

func TestCacheBuckets(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	empty, err := cache.LoadBuckets()
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty cache = %v, %v", empty, err)
	}

	d1, _ := model.ParseDay("2025-03-09")
	d2, _ := model.ParseDay("2025-03-10")
	err = cache.SaveBuckets([]model.DailyTaskBucket{
		{ID: "b1", SubmissionDate: d1},
		{ID: "b2", SubmissionDate: d2, Tasks: []model.Task{{ID: "t1", Status: model.StatusCompleted}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	buckets, err := cache.LoadBuckets()
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 2 || buckets[0].ID != "b2" {
		t.Fatalf("buckets = %+v, want newest first", buckets)
	}

	if err := cache.UpsertBucket(model.DailyTaskBucket{ID: "b1", SubmissionDate: d1, Submitted: true}); err != nil {
		t.Fatal(err)
	}
	buckets, _ = cache.LoadBuckets()
	b, ok := FindBucket(buckets, "2025-03-09")
	if !ok || !b.Submitted {
		t.Errorf("FindBucket by date = %+v, %v", b, ok)
	}
	if _, ok := FindBucket(buckets, "b2"); !ok {
		t.Error("FindBucket by id failed")
	}
	if _, ok := FindBucket(buckets, "missing"); ok {
		t.Error("FindBucket found a missing bucket")
	}
	if _, err := os.Stat(filepath.Join(cache.Dir(), lockFileName)); !os.IsNotExist(err) {
		t.Error("lock file left behind")
	}
}

func TestCacheTaskTypes(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	want := []model.TaskType{{ID: 1, Name: "Research"}, {ID: 2, Name: "Meeting"}}
	if err := cache.SaveTaskTypes(want); err != nil {
		t.Fatal(err)
	}
	got, err := cache.LoadTaskTypes()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Name != "Meeting" {
		t.Errorf("task types = %+v", got)
	}
}
