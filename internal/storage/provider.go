package storage

import (
	"context"
	"io"
)

type Object struct {
	Name string
	Size int64
}

// Provider is the object store holding sentence files and trained models.
type Provider interface {
	CreateBucket(ctx context.Context, bucket string) error

	GetObject(ctx context.Context, bucket, key string) ([]byte, error)

	PutObject(ctx context.Context, bucket, key string, data io.Reader) error

	ListObjects(ctx context.Context, bucket, prefix string) ([]Object, error)

	// UploadDir copies every file under src to bucket, keyed by prefix/<relative path>.
	UploadDir(ctx context.Context, bucket, prefix, src string) error
}

type UploadFunc func(ctx context.Context, key string, data io.Reader) error
