// Package storage keeps uploaded documents and project images in S3
// compatible buckets.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/iliyamo/theta-web/internal/config"
	"github.com/iliyamo/theta-web/internal/model"
)

// Bucket names.  Documents attached to inquiries and portfolio images are
// kept apart so retention can differ.
const (
	BucketDocuments = "contact-documents"
	BucketImages    = "project-images"
)

// ErrNotFound is returned when a key does not exist in the bucket.
var ErrNotFound = errors.New("object not found")

const (
	metaOriginalName = "Original-Name"
	metaUploadedAt   = "Uploaded-At"
)

// MinioStore implements the blob store on top of minio-go.
type MinioStore struct {
	client *minio.Client
	region string
}

// NewMinioStore creates a client for the configured endpoint.  No request
// is made until EnsureBuckets or the first upload.
func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}
	return &MinioStore{client: client, region: cfg.Region}, nil
}

// EnsureBuckets creates the document and image buckets when missing.
func (s *MinioStore) EnsureBuckets(ctx context.Context) error {
	for _, bucket := range []string{BucketDocuments, BucketImages} {
		exists, err := s.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
				return fmt.Errorf("make bucket %s: %w", bucket, err)
			}
		}
	}
	return nil
}

// Put stores size bytes from r under blob.Key in blob.Bucket.  The original
// filename and upload time travel as object metadata.
func (s *MinioStore) Put(ctx context.Context, blob model.Blob, r io.Reader) error {
	opts := minio.PutObjectOptions{
		ContentType: blob.ContentType,
		UserMetadata: map[string]string{
			metaOriginalName: url.PathEscape(blob.OriginalName),
			metaUploadedAt:   blob.UploadedAt.UTC().Format(time.RFC3339),
		},
	}
	if _, err := s.client.PutObject(ctx, blob.Bucket, blob.Key, r, blob.Size, opts); err != nil {
		return fmt.Errorf("put %s/%s: %w", blob.Bucket, blob.Key, err)
	}
	return nil
}

// Stat returns the metadata of an object or ErrNotFound.
func (s *MinioStore) Stat(ctx context.Context, bucket, key string) (model.Blob, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return model.Blob{}, ErrNotFound
		}
		return model.Blob{}, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}
	return blobFromInfo(bucket, info), nil
}

// Get opens an object for streaming.  The caller closes the reader.
func (s *MinioStore) Get(ctx context.Context, bucket, key string) (io.ReadCloser, model.Blob, error) {
	blob, err := s.Stat(ctx, bucket, key)
	if err != nil {
		return nil, model.Blob{}, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, model.Blob{}, fmt.Errorf("get %s/%s: %w", bucket, key, err)
	}
	return obj, blob, nil
}

func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

func blobFromInfo(bucket string, info minio.ObjectInfo) model.Blob {
	b := model.Blob{
		Bucket:       bucket,
		Key:          info.Key,
		ContentType:  info.ContentType,
		Size:         info.Size,
		UploadedAt:   info.LastModified,
		OriginalName: info.Key,
	}
	// minio-go strips the X-Amz-Meta- prefix and canonicalises keys.
	if v := info.UserMetadata[metaOriginalName]; v != "" {
		if name, err := url.PathUnescape(v); err == nil {
			b.OriginalName = name
		}
	}
	if v := info.UserMetadata[metaUploadedAt]; v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			b.UploadedAt = t
		}
	}
	return b
}
