package util

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemS3() *memS3 { return &memS3{objects: map[string][]byte{}} }

func (m *memS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestDetectChanges(t *testing.T) {
	local := map[string]string{
		"same.json":   "2025-03-10T10:00:00Z",
		"newer.json":  "2025-03-10T12:00:00Z",
		"local.json":  "2025-03-10T10:00:00Z",
		"older.json":  "2025-03-10T08:00:00Z",
		"jitter.json": "2025-03-10T10:00:01Z",
	}
	remote := map[string]string{
		"same.json":   "2025-03-10T10:00:00Z",
		"newer.json":  "2025-03-10T10:00:00Z",
		"remote.json": "2025-03-10T10:00:00Z",
		"older.json":  "2025-03-10T10:00:00Z",
		"jitter.json": "2025-03-10T10:00:00Z",
	}

	if got, want := DetectChanges(local, remote, Push), []string{"local.json", "newer.json"}; !reflect.DeepEqual(got, want) {
		t.Errorf("push = %v, want %v", got, want)
	}
	if got, want := DetectChanges(local, remote, Pull), []string{"older.json", "remote.json"}; !reflect.DeepEqual(got, want) {
		t.Errorf("pull = %v, want %v", got, want)
	}
}

func TestSyncCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newMemS3()

	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "daily_tasks.json"), []byte(`[]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, ".dtl.lock"), []byte(`x`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := model.Config{CacheDir: src, Sync: model.SyncConfig{Bucket: "b", Prefix: "dtl"}}

	pushed, err := SyncCache(ctx, client, cfg, Push)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pushed, []string{"daily_tasks.json"}) {
		t.Fatalf("pushed = %v", pushed)
	}
	if _, ok := client.objects["dtl/cache/daily_tasks.json"]; !ok {
		t.Error("object was not uploaded under the prefix")
	}
	if _, ok := client.objects["dtl/cache/metadata.json"]; !ok {
		t.Error("metadata was not uploaded")
	}

	again, err := SyncCache(ctx, client, cfg, Push)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Errorf("second push transferred %v", again)
	}

	dst := t.TempDir()
	cfg.CacheDir = dst
	pulled, err := SyncCache(ctx, client, cfg, Pull)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(pulled, []string{"daily_tasks.json"}) {
		t.Fatalf("pulled = %v", pulled)
	}
	data, err := os.ReadFile(filepath.Join(dst, "daily_tasks.json"))
	if err != nil || string(data) != "[]" {
		t.Errorf("pulled content = %q, %v", data, err)
	}
	meta, err := LoadMetadata(filepath.Join(dst, MetadataFile))
	if err != nil {
		t.Fatal(err)
	}
	remoteTime, err := time.Parse(time.RFC3339, meta["daily_tasks.json"])
	if err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dst, "daily_tasks.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Truncate(time.Second).Equal(remoteTime) {
		t.Errorf("pulled mtime = %v, want remote %v", info.ModTime(), remoteTime)
	}

	toPush, toPull, err := SyncStatus(ctx, client, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if len(toPush) != 0 || len(toPull) != 0 {
		t.Errorf("status after pull: push=%v pull=%v", toPush, toPull)
	}
}

func TestLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".dtl.lock")

	lock, err := CreateLockFile(path, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	info, err := ReadLockFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Pid != os.Getpid() {
		t.Errorf("pid = %d", info.Pid)
	}

	if _, err := CreateLockFile(path, time.Minute); err == nil {
		t.Error("second lock should fail while held")
	}

	lock.Release()
	lock, err = CreateLockFile(path, time.Minute)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	lock.Release()
}

func TestStaleLockIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".dtl.lock")
	if err := os.WriteFile(path, []byte("pid: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}

	lock, err := CreateLockFile(path, time.Minute)
	if err != nil {
		t.Fatalf("stale lock not replaced: %v", err)
	}
	lock.Release()
}

func TestFilterBuckets(t *testing.T) {
	day := func(s string) model.Day {
		d, err := model.ParseDay(s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	buckets := []model.DailyTaskBucket{
		{ID: "a", SubmissionDate: day("2025-03-08")},
		{ID: "b", SubmissionDate: day("2025-03-09"), Submitted: true},
		{ID: "c", SubmissionDate: day("2025-03-10")},
	}

	tests := []struct {
		from, to string
		want     []string
	}{
		{"", "", []string{"a", "b", "c"}},
		{"2025-03-09", "", []string{"b", "c"}},
		{"", "2025-03-09", []string{"a", "b"}},
		{"2025-03-09", "2025-03-09", []string{"b"}},
	}
	for _, tt := range tests {
		var got []string
		for _, b := range FilterBuckets(buckets, tt.from, tt.to) {
			got = append(got, b.ID)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("FilterBuckets(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	if got := FilterPending(buckets); len(got) != 2 {
		t.Errorf("FilterPending = %d buckets, want 2", len(got))
	}
}
