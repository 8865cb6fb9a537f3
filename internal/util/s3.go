package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// ObjectAPI is the subset of the S3 client used by sync. *s3.Client
// satisfies it.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// UploadToS3 uploads a local file to bucket/key.
func UploadToS3(ctx context.Context, client ObjectAPI, bucket, filePath, key string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}

	slog.Info("uploaded to S3", "key", key, "bytes", len(data))
	return nil
}

// DownloadFromS3 writes bucket/key to localPath, creating parent
// directories as needed.
func DownloadFromS3(ctx context.Context, client ObjectAPI, bucket, key, localPath string) error {
	resp, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to download %s from S3: %w", key, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(localPath), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(localPath), err)
	}

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", localPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to write file %s: %w", localPath, err)
	}

	slog.Info("downloaded from S3", "key", key)
	return nil
}

func isNotFoundErr(err error) bool {
	var noKey *types.NoSuchKey
	return errors.As(err, &noKey)
}

// objectKey maps a path relative to the cache directory to its S3 key.
func objectKey(cfg model.SyncConfig, rel string) string {
	return path.Join(cfg.Prefix, "cache", filepath.ToSlash(rel))
}

func NewS3Client(ctx context.Context, dtlConfig model.Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(dtlConfig.Sync.AWSRegion),
	}
	if dtlConfig.Sync.AWSProfile != "" {
		opts = append(opts, config.WithSharedConfigProfile(dtlConfig.Sync.AWSProfile))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}

	return s3.NewFromConfig(cfg), nil
}
