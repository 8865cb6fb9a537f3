package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"golang.org/x/sync/errgroup"
)

const MetadataFile = "metadata.json"

const syncConcurrency = 4

type Direction string

const (
	Push Direction = "push"
	Pull Direction = "pull"
)

// GenerateMetadata maps every file under dir (relative path) to its
// modification time. Lock, temp and metadata files are skipped.
func GenerateMetadata(dir string) (map[string]string, error) {
	metadata := make(map[string]string)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("failed to access path", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, path)
		if err != nil {
			slog.Warn("failed to get relative path", "path", path, "error", err)
			return nil
		}
		if relPath == MetadataFile || strings.HasSuffix(relPath, ".lock") || strings.HasSuffix(relPath, ".tmp") {
			return nil
		}

		metadata[filepath.ToSlash(relPath)] = info.ModTime().UTC().Format(time.RFC3339)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	return metadata, nil
}

func SaveMetadata(metadataPath string, metadata map[string]string) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", MetadataFile, err)
	}

	if err := os.WriteFile(metadataPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetadataFile, err)
	}
	return nil
}

func LoadMetadata(metadataPath string) (map[string]string, error) {
	data, err := os.ReadFile(metadataPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", MetadataFile, err)
	}

	var metadata map[string]string
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	return metadata, nil
}

func UploadMetadataToS3(ctx context.Context, client ObjectAPI, config model.Config, metadata map[string]string) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", MetadataFile, err)
	}

	key := objectKey(config.Sync, MetadataFile)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(config.Sync.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return nil
}

// DownloadMetadataFromS3 returns the remote metadata, or an empty map
// when nothing has been pushed yet.
func DownloadMetadataFromS3(ctx context.Context, client ObjectAPI, config model.Config) (map[string]string, error) {
	key := objectKey(config.Sync, MetadataFile)
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(config.Sync.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundErr(err) {
			slog.Info("no remote metadata, treating as empty", "key", key)
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to download %s from S3: %w", key, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from S3: %w", key, err)
	}

	metadata := make(map[string]string)
	if err := json.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse remote %s: %w", MetadataFile, err)
	}
	return metadata, nil
}

// DetectChanges lists the files that a transfer in direction would
// move. Timestamps within one second are considered equal.
func DetectChanges(localMeta, remoteMeta map[string]string, direction Direction) []string {
	var filesToSync []string

	for file, remoteTimeStr := range remoteMeta {
		localTimeStr, exists := localMeta[file]
		if !exists {
			if direction == Pull {
				filesToSync = append(filesToSync, file)
			}
			continue
		}

		remoteTime, err := time.Parse(time.RFC3339, remoteTimeStr)
		if err != nil {
			slog.Warn("failed to parse remote timestamp", "file", file, "error", err)
			continue
		}
		localTime, err := time.Parse(time.RFC3339, localTimeStr)
		if err != nil {
			slog.Warn("failed to parse local timestamp", "file", file, "error", err)
			continue
		}

		if direction == Pull && remoteTime.After(localTime.Add(time.Second)) {
			filesToSync = append(filesToSync, file)
		}
		if direction == Push && localTime.After(remoteTime.Add(time.Second)) {
			filesToSync = append(filesToSync, file)
		}
	}

	if direction == Push {
		for file := range localMeta {
			if _, exists := remoteMeta[file]; !exists {
				filesToSync = append(filesToSync, file)
			}
		}
	}

	sort.Strings(filesToSync)
	return filesToSync
}

// SyncCache copies changed cache files between dir and S3 and returns
// the files it transferred.
func SyncCache(ctx context.Context, client ObjectAPI, config model.Config, direction Direction) ([]string, error) {
	if config.Sync.Bucket == "" {
		return nil, fmt.Errorf("sync.bucket is not configured")
	}
	dir := config.CacheDir
	metadataPath := filepath.Join(dir, MetadataFile)

	local, err := GenerateMetadata(dir)
	if err != nil {
		return nil, err
	}
	remote, err := DownloadMetadataFromS3(ctx, client, config)
	if err != nil {
		return nil, err
	}

	if direction != Push && direction != Pull {
		return nil, fmt.Errorf("unknown sync direction: %s", direction)
	}

	files := DetectChanges(local, remote, direction)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncConcurrency)
	for _, file := range files {
		localPath := filepath.Join(dir, filepath.FromSlash(file))
		key := objectKey(config.Sync, file)
		g.Go(func() error {
			if direction == Push {
				return UploadToS3(gctx, client, config.Sync.Bucket, localPath, key)
			}
			return DownloadFromS3(gctx, client, config.Sync.Bucket, key, localPath)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch direction {
	case Push:
		for _, file := range files {
			remote[file] = local[file]
		}
		if err := UploadMetadataToS3(ctx, client, config, remote); err != nil {
			return nil, err
		}
		if err := SaveMetadata(metadataPath, remote); err != nil {
			return nil, err
		}
	case Pull:
		// downloaded files carry a fresh mtime; align them with the
		// remote timestamps so the next push does not re-upload them
		for _, file := range files {
			ts, err := time.Parse(time.RFC3339, remote[file])
			if err != nil {
				slog.Warn("invalid remote timestamp", "file", file, "value", remote[file], "error", err)
				continue
			}
			if err := os.Chtimes(filepath.Join(dir, filepath.FromSlash(file)), ts, ts); err != nil {
				slog.Warn("failed to set modification time", "file", file, "error", err)
			}
		}
		if err := SaveMetadata(metadataPath, remote); err != nil {
			return nil, err
		}
	}

	return files, nil
}

// SyncStatus returns the files a push and a pull would transfer.
func SyncStatus(ctx context.Context, client ObjectAPI, config model.Config) (toPush, toPull []string, err error) {
	local, err := GenerateMetadata(config.CacheDir)
	if err != nil {
		return nil, nil, err
	}
	remote, err := DownloadMetadataFromS3(ctx, client, config)
	if err != nil {
		return nil, nil, err
	}
	return DetectChanges(local, remote, Push), DetectChanges(local, remote, Pull), nil
}
