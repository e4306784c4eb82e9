package storage

import (
	"context"
	"io"

	"github.com/iliyamo/theta-web/internal/model"
)

// BlobStore is implemented by MinioStore and MemoryStore.  Missing objects
// are reported as ErrNotFound by Stat and Get.
type BlobStore interface {
	Put(ctx context.Context, blob model.Blob, r io.Reader) error
	Stat(ctx context.Context, bucket, key string) (model.Blob, error)
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, model.Blob, error)
}

var (
	_ BlobStore = (*MinioStore)(nil)
	_ BlobStore = (*MemoryStore)(nil)
)
