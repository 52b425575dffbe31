/*
Package media stores admin-uploaded images in S3-compatible object storage.

Browsers upload directly to the bucket through presigned URLs; the server only validates
the request and signs it. Small files posted through the admin forms can also be uploaded
server-side.
*/
package media

import (
	"context"
	"io"
	"time"
)

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service is the media storage API used by the handlers.
type Service interface {
	// PresignUpload generates a pre-signed URL for uploading a file.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload generates a pre-signed URL for downloading a file.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Upload streams body into key and returns the object location.
	Upload(ctx context.Context, key, mimeType string, body io.Reader) (string, error)

	// Delete removes the file specified by the given key.
	Delete(ctx context.Context, key string) error

	// GetObjectMetadata retrieves the object's metadata.
	GetObjectMetadata(ctx context.Context, key string) (map[string]string, error)
}

// NewService returns the S3-compatible implementation.
func NewService(ctx context.Context, cfg ServiceConfig) (Service, error) {
	return newS3Client(ctx, cfg)
}
