package port

import (
	"context"
	"io"
	"time"
)

// PutInput encapsulates the parameters needed to store a blob.
type PutInput struct {
	Key         string
	Body        io.Reader
	ContentType string
	Size        int64
}

// BlobStore abstracts storage of document bytes.
type BlobStore interface {
	Put(ctx context.Context, input PutInput) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	Ping(ctx context.Context) error
}
