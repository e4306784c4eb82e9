package handler

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/service"
)

// AttachmentAPI stores and serves uploaded files.
type AttachmentAPI interface {
	Upload(ctx context.Context, policy service.UploadPolicy, r io.Reader, size int64, filename, contentType string) (model.Attachment, error)
	OpenDocument(ctx context.Context, id string) (io.ReadCloser, model.Blob, error)
	OpenImage(ctx context.Context, id string) (io.ReadCloser, model.Blob, error)
}

type AttachmentHandler struct {
	Files      AttachmentAPI
	Production bool
}

func NewAttachmentHandler(files AttachmentAPI, production bool) *AttachmentHandler {
	if files == nil {
		panic("nil attachment service passed to NewAttachmentHandler")
	}
	return &AttachmentHandler{Files: files, Production: production}
}

// UploadDocument accepts a public inquiry attachment.
func (h *AttachmentHandler) UploadDocument(c echo.Context) error {
	return h.upload(c, service.DocumentPolicy)
}

// UploadImage accepts an admin project image.
func (h *AttachmentHandler) UploadImage(c echo.Context) error {
	return h.upload(c, service.ImagePolicy)
}

func (h *AttachmentHandler) upload(c echo.Context, policy service.UploadPolicy) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file", "No file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "file", "could not read upload")
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), transferTimeout)
	defer cancel()

	att, err := h.Files.Upload(ctx, policy, f, fh.Size, fh.Filename, fh.Header.Get(echo.HeaderContentType))
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, att)
}

// ServeDocument streams an attachment from the documents bucket, falling
// back to the images bucket.
func (h *AttachmentHandler) ServeDocument(c echo.Context) error {
	return h.serve(c, h.Files.OpenDocument, "application/octet-stream", true)
}

// ServeImage streams a project image.
func (h *AttachmentHandler) ServeImage(c echo.Context) error {
	return h.serve(c, h.Files.OpenImage, "image/jpeg", false)
}

type opener func(ctx context.Context, id string) (io.ReadCloser, model.Blob, error)

func (h *AttachmentHandler) serve(c echo.Context, open opener, fallbackType string, disposition bool) error {
	// The object body is read lazily, so the deadline covers the stream.
	ctx, cancel := context.WithTimeout(c.Request().Context(), transferTimeout)
	defer cancel()

	rc, blob, err := open(ctx, c.Param("id"))
	if err != nil {
		return writeError(c, err, h.Production)
	}
	defer rc.Close()

	ct := blob.ContentType
	if ct == "" {
		ct = fallbackType
	}
	hdr := c.Response().Header()
	hdr.Set(echo.HeaderContentLength, strconv.FormatInt(blob.Size, 10))
	hdr.Set("Cache-Control", "public, max-age=31536000, immutable")
	hdr.Set("X-Content-Type-Options", "nosniff")
	if disposition && blob.OriginalName != "" {
		hdr.Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": blob.OriginalName}))
	}
	return c.Stream(http.StatusOK, ct, rc)
}
