package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// Object is a file in the document store.
type Object struct {
	Path    string    `json:"path"` // provider-relative, forward slashes
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Provider defines the interface for document stores
type Provider interface {
	// List returns the files directly inside folder.
	List(ctx context.Context, folder string) ([]Object, error)

	// Read returns the content of a file.
	Read(ctx context.Context, path string) ([]byte, error)

	// Move relocates a file into destFolder and returns its new path.
	Move(ctx context.Context, path, destFolder string) (string, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// Config selects and configures a provider.
type Config struct {
	Provider  string // local | s3
	LocalPath string

	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSRegion          string
	S3Bucket           string
}

// NewProvider builds the configured provider.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocalProvider(cfg.LocalPath)
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 storage provider")
		}
		return NewS3Provider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, cfg.AWSRegion, cfg.S3Bucket)
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Provider)
	}
}

// ContentTypeFor detects the content type based on file extension
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// cleanKey normalizes a relative path. Leading ".." segments are dropped so
// the result never leaves the storage root.
func cleanKey(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
