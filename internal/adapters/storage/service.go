package storage

import (
	"context"
	"io"
)

// StorageService abstracts object storage for contract documents.
type StorageService interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// Upload stores an object under folder/fileName and returns its key.
	Upload(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// Download retrieves an object directly from storage.
	// The caller is responsible for closing the returned io.ReadCloser.
	Download(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)

	// GenerateDownloadURL creates a presigned URL for downloading an object.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)
}

// Compile-time check that the MinIO implementation satisfies the interface.
var _ StorageService = (*MinIOService)(nil)
