// Package storage keeps receipt files in an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fkhayef/splitbuddy/internal/config"
)

// ErrNotConfigured is returned by every operation when no bucket is configured
var ErrNotConfigured = errors.New("object storage is not configured")

// Object describes a stored file
type Object struct {
	Key  string
	URL  string
	Size int64
}

// ObjectStore stores uploaded files
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
}

// MinioStore is an ObjectStore backed by minio-go
type MinioStore struct {
	client *minio.Client
	bucket string
}

// New connects to the configured endpoint and makes sure the bucket exists.
// An empty endpoint returns a Disabled store.
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	if cfg.Endpoint == "" {
		return Disabled{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads r under key
func (s *MinioStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	info, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}
	return &Object{
		Key:  info.Key,
		URL:  ObjectURL(s.client.EndpointURL(), s.bucket, info.Key),
		Size: info.Size,
	}, nil
}

// ObjectURL is the path-style address of key in bucket
func ObjectURL(endpoint *url.URL, bucket, key string) string {
	u := *endpoint
	u.Path = path.Join("/", u.Path, bucket, key)
	return u.String()
}

// Disabled rejects uploads when no bucket is configured
type Disabled struct{}

// Put always fails with ErrNotConfigured
func (Disabled) Put(context.Context, string, io.Reader, int64, string) (*Object, error) {
	return nil, ErrNotConfigured
}
