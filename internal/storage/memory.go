package storage

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/iliyamo/theta-web/internal/model"
)

// MemoryStore keeps blobs in process memory.  It backs tests and local
// runs without an S3 endpoint; contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memObject
}

type memObject struct {
	blob model.Blob
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]memObject)}
}

func memKey(bucket, key string) string { return bucket + "/" + key }

// Put reads r fully and stores it.
func (m *MemoryStore) Put(ctx context.Context, blob model.Blob, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	blob.Size = int64(len(data))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[memKey(blob.Bucket, blob.Key)] = memObject{blob: blob, data: data}
	return nil
}

func (m *MemoryStore) Stat(ctx context.Context, bucket, key string) (model.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return model.Blob{}, ErrNotFound
	}
	return obj.blob, nil
}

func (m *MemoryStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, model.Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memKey(bucket, key)]
	if !ok {
		return nil, model.Blob{}, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.blob, nil
}

// Len returns the number of stored objects across buckets.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
