package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/util"
)

var errSyncDisabled = errors.New("sync is disabled; set sync.enable and sync.bucket in the config")

func syncClient(ctx context.Context, config model.Config) (util.ObjectAPI, error) {
	if !config.Sync.Enable || config.Sync.Bucket == "" {
		return nil, errSyncDisabled
	}
	client, err := util.NewS3Client(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	return client, nil
}

// SyncWithS3 pushes or pulls the cache files whose timestamps differ
// from the remote metadata.
func SyncWithS3(ctx context.Context, config model.Config, direction util.Direction) ([]string, error) {
	client, err := syncClient(ctx, config)
	if err != nil {
		return nil, err
	}
	fmt.Printf("🔄 Syncing cache (%s)...\n", direction)
	return util.SyncCache(ctx, client, config, direction)
}

// ShowSyncStatus prints what a push and a pull would transfer.
func ShowSyncStatus(ctx context.Context, config model.Config) error {
	client, err := syncClient(ctx, config)
	if err != nil {
		return err
	}
	toPush, toPull, err := util.SyncStatus(ctx, client, config)
	if err != nil {
		return err
	}

	fmt.Println("📌 Files to be uploaded to S3:")
	for _, file := range toPush {
		fmt.Println("   -", file)
	}
	fmt.Println("📌 Files to be updated from S3:")
	for _, file := range toPull {
		fmt.Println("   -", file)
	}
	if len(toPush) == 0 && len(toPull) == 0 {
		fmt.Println("✅ Everything is up-to-date.")
	}
	return nil
}
