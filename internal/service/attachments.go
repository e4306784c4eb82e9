package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/metrics"
	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/storage"
)

// Retrieval URL prefixes handed back to clients.
const (
	DocumentURLPrefix = "/api/documents/"
	ImageURLPrefix    = "/api/images/"
)

// UploadPolicy bounds what may be stored in one bucket.  A file passes the
// type check when either its declared MIME type or its extension is on the
// list.
type UploadPolicy struct {
	Bucket     string
	MaxSize    int64
	MIMETypes  []string
	Extensions []string
	URLPrefix  string
	TypeHint   string // shown to the client on rejection
}

var (
	// DocumentPolicy applies to files attached to inquiries.  DWG drawings
	// arrive with all sorts of MIME types, hence the extension list.
	DocumentPolicy = UploadPolicy{
		Bucket:  storage.BucketDocuments,
		MaxSize: 10 << 20,
		MIMETypes: []string{
			"application/pdf",
			"image/jpeg",
			"image/jpg",
			"image/png",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
		Extensions: []string{".pdf", ".dwg", ".jpg", ".jpeg", ".png", ".doc", ".docx"},
		URLPrefix:  DocumentURLPrefix,
		TypeHint:   "Only PDF, DWG, JPG, PNG and DOC/DOCX files are allowed.",
	}

	// ImagePolicy applies to admin uploaded project images.
	ImagePolicy = UploadPolicy{
		Bucket:    storage.BucketImages,
		MaxSize:   5 << 20,
		MIMETypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		URLPrefix: ImageURLPrefix,
		TypeHint:  "Only images are allowed.",
	}
)

func (p UploadPolicy) allows(filename, contentType string) bool {
	if ct, _, err := mime.ParseMediaType(contentType); err == nil && slices.Contains(p.MIMETypes, strings.ToLower(ct)) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(filename))
	return ext != "" && slices.Contains(p.Extensions, ext)
}

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	dotRuns         = regexp.MustCompile(`\.{2,}`)
	blobIDPattern   = regexp.MustCompile(`^[0-9]{10,16}-[0-9a-f]{8}-[a-zA-Z0-9._-]{1,128}$`)
)

const maxStoredNameLen = 100

// NewBlobID builds "<unix millis>-<8 hex chars>-<sanitized name>".  Every
// id it returns passes ValidBlobID.
func NewBlobID(now time.Time, filename string) string {
	name := unsafeNameChars.ReplaceAllString(filepath.Base(filename), "_")
	name = dotRuns.ReplaceAllString(name, ".")
	name = strings.TrimLeft(name, ".")
	if len(name) > maxStoredNameLen {
		name = name[len(name)-maxStoredNameLen:]
	}
	if name == "" {
		name = "file"
	}
	rnd := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), rnd, name)
}

// ValidBlobID reports whether id has the shape NewBlobID produces.
func ValidBlobID(id string) bool {
	return blobIDPattern.MatchString(id) && !strings.Contains(id, "..")
}

// AttachmentService stores and serves uploaded files.
type AttachmentService struct {
	store   storage.BlobStore
	now     func() time.Time
	log     logger.Logger
	metrics metrics.Recorder
}

// NewAttachmentService returns a service writing to store.
func NewAttachmentService(store storage.BlobStore, log logger.Logger, rec metrics.Recorder) *AttachmentService {
	if store == nil {
		panic("nil blob store passed to NewAttachmentService")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AttachmentService{store: store, now: time.Now, log: log, metrics: rec}
}

// Upload checks size then type against policy and stores the bytes.  A
// rejected file never reaches the store.
func (s *AttachmentService) Upload(ctx context.Context, policy UploadPolicy, r io.Reader, size int64, filename, contentType string) (model.Attachment, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" || r == nil {
		s.metrics.RecordUpload(policy.Bucket, "invalid")
		return model.Attachment{}, errValidation("file", "No file provided")
	}
	if size > policy.MaxSize {
		s.metrics.RecordUpload(policy.Bucket, "too_large")
		return model.Attachment{}, &Error{
			Code:    CodeFileTooLarge,
			Field:   "file",
			Message: fmt.Sprintf("File size exceeds %dMB limit", policy.MaxSize>>20),
		}
	}
	if !policy.allows(filename, contentType) {
		s.metrics.RecordUpload(policy.Bucket, "invalid_type")
		return model.Attachment{}, &Error{
			Code:    CodeInvalidFileType,
			Field:   "file",
			Message: "Invalid file type. " + policy.TypeHint,
		}
	}

	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := s.now().UTC()
	id := NewBlobID(now, filename)
	blob := model.Blob{
		Bucket:       policy.Bucket,
		Key:          id,
		OriginalName: filename,
		ContentType:  contentType,
		Size:         size,
		UploadedAt:   now,
	}
	// One extra byte lets the store notice a body longer than declared.
	if err := s.store.Put(ctx, blob, io.LimitReader(r, policy.MaxSize+1)); err != nil {
		s.metrics.RecordUpload(policy.Bucket, "error")
		s.log.Error("attachment not stored", logger.String("bucket", policy.Bucket), logger.Error(err))
		return model.Attachment{}, errStorage("could not store file", err)
	}

	s.metrics.RecordUpload(policy.Bucket, "ok")
	s.log.Info("attachment stored",
		logger.String("bucket", policy.Bucket), logger.String("id", id), logger.Int64("size", size))
	return model.Attachment{ID: id, Filename: filename, URL: policy.URLPrefix + id}, nil
}

// OpenDocument looks id up in the documents bucket and then in the images
// bucket, where some early attachments were written.
func (s *AttachmentService) OpenDocument(ctx context.Context, id string) (io.ReadCloser, model.Blob, error) {
	return s.open(ctx, id, storage.BucketDocuments, storage.BucketImages)
}

// OpenImage looks id up in the images bucket only.
func (s *AttachmentService) OpenImage(ctx context.Context, id string) (io.ReadCloser, model.Blob, error) {
	return s.open(ctx, id, storage.BucketImages)
}

func (s *AttachmentService) open(ctx context.Context, id string, buckets ...string) (io.ReadCloser, model.Blob, error) {
	if !ValidBlobID(id) {
		return nil, model.Blob{}, errValidation("id", "Invalid document ID")
	}
	for _, bucket := range buckets {
		rc, blob, err := s.store.Get(ctx, bucket, id)
		if err == nil {
			return rc, blob, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return nil, model.Blob{}, errStorage("could not read file", err)
		}
	}
	return nil, model.Blob{}, errNotFound("Document not found", storage.ErrNotFound)
}
