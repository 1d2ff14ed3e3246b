package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"SelahFM/config"
	"SelahFM/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	minioClient *minio.Client
	minioBucket string
)

// durationMetaKey carries the track length (seconds) set at ingest time,
// so playback sessions never have to decode audio.
const durationMetaKey = "X-Amz-Meta-Duration-Seconds"

// InitMinio initializes the MinIO client and ensures the bucket exists.
func InitMinio(cfg *config.Config) error {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", cfg.MinioBucket, err)
	}
	if !exists {
		err = client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{
			Region: cfg.MinioRegion,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", cfg.MinioBucket, err)
		}
		logger.Info("created MinIO bucket", logger.String("bucket", cfg.MinioBucket))
	}

	minioClient = client
	minioBucket = cfg.MinioBucket
	logger.Info("MinIO client initialized",
		logger.String("endpoint", cfg.MinioEndpoint),
		logger.String("bucket", cfg.MinioBucket),
	)
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

// ObjectEntry is one listed object.
type ObjectEntry struct {
	Key  string
	Size int64
}

// ListObjects lists objects in the bucket under the given prefix.
func ListObjects(ctx context.Context, prefix string, recursive bool) ([]ObjectEntry, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	var entries []ObjectEntry
	for obj := range minioClient.ListObjects(ctx, minioBucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: recursive,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		entries = append(entries, ObjectEntry{Key: obj.Key, Size: obj.Size})
	}
	return entries, nil
}

// UploadAudio uploads an audio stream under objectKey, stamping the
// duration metadata used later by playback probes.
func UploadAudio(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string, durationSeconds float64) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	if durationSeconds > 0 {
		opts.UserMetadata = map[string]string{
			"Duration-Seconds": strconv.FormatFloat(durationSeconds, 'f', 3, 64),
		}
	}
	_, err := minioClient.PutObject(ctx, minioBucket, objectKey, reader, size, opts)
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectKey, err)
	}
	return nil
}

// GetObject opens an object for streaming. The caller must Close it.
func GetObject(ctx context.Context, objectKey string) (*minio.Object, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}
	obj, err := minioClient.GetObject(ctx, minioBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectKey, err)
	}
	return obj, nil
}

// StatObject returns object metadata, or an error when the key is absent.
func StatObject(ctx context.Context, objectKey string) (minio.ObjectInfo, error) {
	if minioClient == nil {
		return minio.ObjectInfo{}, fmt.Errorf("MinIO client not initialized")
	}
	info, err := minioClient.StatObject(ctx, minioBucket, objectKey, minio.StatObjectOptions{})
	if err != nil {
		return minio.ObjectInfo{}, fmt.Errorf("failed to stat object %s: %w", objectKey, err)
	}
	return info, nil
}

// RemoveObject deletes an object from the bucket.
func RemoveObject(ctx context.Context, objectKey string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if err := minioClient.RemoveObject(ctx, minioBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectKey, err)
	}
	return nil
}
