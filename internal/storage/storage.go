// Package storage provides object storage for report evidence photos.
//
// Two implementations exist:
// - LocalStorage: filesystem storage for development
// - S3Storage: any S3-compatible bucket (AWS S3, R2, MinIO) for production
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/civicdesk/civicdesk/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the interface for photo storage operations.
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key with the given options.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close the
	// reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object at the specified key,
	// presigned for the given duration where the provider supports it.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object exists at the specified key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	// If empty, it is derived from the key's extension.
	ContentType string

	// MaxSize specifies the maximum allowed size in bytes.
	// If the data exceeds this size, ErrTooLarge is returned.
	// A value of 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	// If false and the key exists, ErrKeyExists is returned.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	// Example: "http://localhost:8080/files"
	BaseURL string
}

// S3Config holds configuration for S3-compatible object storage.
type S3Config struct {
	// Endpoint overrides the S3 endpoint URL. Leave empty for AWS S3;
	// set for R2 or MinIO deployments.
	Endpoint string

	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Region is required by the AWS SDK; "auto" works for R2.
	Region string
}

// =============================================================================
// Provider Constants
// =============================================================================

const (
	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderS3 identifies the S3-compatible storage provider.
	ProviderS3 = "s3"
)

// =============================================================================
// Key Generation
// =============================================================================

// PhotoKey generates a storage key for an uploaded evidence photo.
// Format: reports/{reportID}/photos/{phase}/{uuid}{ext}
func PhotoKey(reportID uuid.UUID, phase domain.PhotoPhase, filename string) string {
	ext := filepath.Ext(filename)
	photoID := uuid.New()
	return fmt.Sprintf("reports/%s/photos/%s/%s%s", reportID, phase, photoID, ext)
}
