package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/util"
)

const (
	BucketsFile   = "daily_tasks.json"
	TaskTypesFile = "task_types.json"
	lockFileName  = ".dtl.lock"
)

func LoadJson[T any](filePath string, v *[]T) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		// a missing file is an empty collection
		*v = []T{}
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check JSON file: %w", err)
	}

	jsonBytes, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}

	if len(jsonBytes) > 0 {
		if err := json.Unmarshal(jsonBytes, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
	}

	return nil
}

// SaveJson writes v through a temp file so readers never see a
// partial document.
func SaveJson[T any](filePath string, v []T) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to convert to JSON: %w", err)
	}

	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("failed to replace JSON file: %w", err)
	}

	slog.Debug("updated JSON file", "path", filePath, "items", len(v))
	return nil
}

// Cache keeps the last fetched buckets and task types so read-only
// commands work without the backend.
type Cache struct {
	dir string
}

func NewCache(config model.Config) (*Cache, error) {
	return OpenCache(config.CacheDir)
}

func OpenCache(dir string) (*Cache, error) {
	if dir == "" {
		return nil, fmt.Errorf("cache directory is not configured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string { return c.dir }

func (c *Cache) path(name string) string { return filepath.Join(c.dir, name) }

// withLock runs fn while holding the cache lock file.
func (c *Cache) withLock(fn func() error) error {
	lock, err := util.CreateLockFile(c.path(lockFileName), 30*time.Second)
	if err != nil {
		return err
	}
	defer lock.Release()
	return fn()
}

func (c *Cache) LoadBuckets() ([]model.DailyTaskBucket, error) {
	var buckets []model.DailyTaskBucket
	if err := LoadJson(c.path(BucketsFile), &buckets); err != nil {
		return nil, fmt.Errorf("failed to load cached daily tasks: %w", err)
	}
	return buckets, nil
}

// SaveBuckets replaces the cached buckets, newest submission date first.
func (c *Cache) SaveBuckets(buckets []model.DailyTaskBucket) error {
	sorted := append([]model.DailyTaskBucket(nil), buckets...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[j].SubmissionDate.Before(sorted[i].SubmissionDate)
	})
	return c.withLock(func() error {
		return SaveJson(c.path(BucketsFile), sorted)
	})
}

// UpsertBucket replaces the cached bucket with the same id, or adds it.
func (c *Cache) UpsertBucket(bucket model.DailyTaskBucket) error {
	buckets, err := c.LoadBuckets()
	if err != nil {
		return err
	}
	replaced := false
	for i := range buckets {
		if buckets[i].ID == bucket.ID {
			buckets[i] = bucket
			replaced = true
		}
	}
	if !replaced {
		buckets = append(buckets, bucket)
	}
	return c.SaveBuckets(buckets)
}

func (c *Cache) LoadTaskTypes() ([]model.TaskType, error) {
	var types []model.TaskType
	if err := LoadJson(c.path(TaskTypesFile), &types); err != nil {
		return nil, fmt.Errorf("failed to load cached task types: %w", err)
	}
	return types, nil
}

func (c *Cache) SaveTaskTypes(types []model.TaskType) error {
	return c.withLock(func() error {
		return SaveJson(c.path(TaskTypesFile), types)
	})
}

// FindBucket resolves a bucket by id or by submission date (YYYY-MM-DD).
func FindBucket(buckets []model.DailyTaskBucket, ref string) (model.DailyTaskBucket, bool) {
	for _, b := range buckets {
		if b.ID == ref {
			return b, true
		}
	}
	day, err := model.ParseDay(ref)
	if err != nil || day.IsZero() {
		return model.DailyTaskBucket{}, false
	}
	for _, b := range buckets {
		if b.SubmissionDate.Equal(day) {
			return b, true
		}
	}
	return model.DailyTaskBucket{}, false
}
