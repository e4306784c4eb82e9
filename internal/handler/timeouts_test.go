package handler

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/service"
)

// stalled answers every call only once its context is done, like a
// database that stopped responding.
type stalled struct{}

func (stalled) wait(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		// Surfaces as a 404 instead of hanging the test.
		return service.NewError(service.CodeNotFound, "no deadline on context", nil)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s stalled) List(ctx context.Context, status, kind string) ([]model.Inquiry, error) {
	return nil, s.wait(ctx)
}

func (s stalled) Get(ctx context.Context, id uint64) (*model.Inquiry, error) {
	return nil, s.wait(ctx)
}

func (s stalled) Transition(ctx context.Context, id uint64, next string) (*model.Inquiry, error) {
	return nil, s.wait(ctx)
}

func (s stalled) Delete(ctx context.Context, id uint64) error { return s.wait(ctx) }

func (s stalled) UnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	return nil, s.wait(ctx)
}

func (s stalled) CreateWithNotification(ctx context.Context, in *model.Inquiry) error {
	return s.wait(ctx)
}

type stalledProjects struct{ stalled }

func (s stalledProjects) List(ctx context.Context, featuredOnly bool) ([]model.Project, error) {
	return nil, s.wait(ctx)
}

func (s stalledProjects) Get(ctx context.Context, id uint64) (*model.Project, error) {
	return nil, s.wait(ctx)
}

func (s stalledProjects) Create(ctx context.Context, in model.ProjectPatch) (*model.Project, error) {
	return nil, s.wait(ctx)
}

func (s stalledProjects) Update(ctx context.Context, id uint64, patch model.ProjectPatch) (*model.Project, error) {
	return nil, s.wait(ctx)
}

func (s stalledProjects) Delete(ctx context.Context, id uint64) error { return s.wait(ctx) }

type stalledFiles struct{ stalled }

func (s stalledFiles) Upload(ctx context.Context, policy service.UploadPolicy, r io.Reader, size int64, filename, contentType string) (model.Attachment, error) {
	return model.Attachment{}, s.wait(ctx)
}

func (s stalledFiles) OpenDocument(ctx context.Context, id string) (io.ReadCloser, model.Blob, error) {
	return nil, model.Blob{}, s.wait(ctx)
}

func (s stalledFiles) OpenImage(ctx context.Context, id string) (io.ReadCloser, model.Blob, error) {
	return nil, model.Blob{}, s.wait(ctx)
}

func shortDeadlines(t *testing.T) {
	t.Helper()
	req, xfer := requestTimeout, transferTimeout
	requestTimeout, transferTimeout = 20*time.Millisecond, 20*time.Millisecond
	t.Cleanup(func() { requestTimeout, transferTimeout = req, xfer })
}

func TestHandlers_StalledStoreFailsWithinDeadline(t *testing.T) {
	shortDeadlines(t)

	inbox := NewInquiryHandler(stalled{}, true)
	portfolio := NewProjectHandler(stalledProjects{}, true)
	files := NewAttachmentHandler(stalledFiles{}, true)

	cases := []struct {
		name   string
		h      echo.HandlerFunc
		method string
		body   any
		setup  []func(echo.Context)
	}{
		{"quotes list", inbox.List, http.MethodGet, nil, nil},
		{"quote get", inbox.Get, http.MethodGet, nil, []func(echo.Context){withID("1")}},
		{"quote transition", inbox.Transition, http.MethodPatch, map[string]string{"status": "read"}, []func(echo.Context){withID("1")}},
		{"quote delete", inbox.Delete, http.MethodDelete, nil, []func(echo.Context){withID("1")}},
		{"notifications", inbox.Notifications, http.MethodGet, nil, nil},
		{"projects list", portfolio.List, http.MethodGet, nil, nil},
		{"project get", portfolio.Get, http.MethodGet, nil, []func(echo.Context){withID("1")}},
		{"project create", portfolio.Create, http.MethodPost, map[string]string{"title": "Brug"}, nil},
		{"project update", portfolio.Update, http.MethodPut, map[string]string{"title": "Brug"}, []func(echo.Context){withID("1")}},
		{"project delete", portfolio.Delete, http.MethodDelete, nil, []func(echo.Context){withID("1")}},
		{"document serve", files.ServeDocument, http.MethodGet, nil, []func(echo.Context){withID("1714557600123-abcdef12-plan.pdf")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start := time.Now()
			rec := call(t, tc.h, tc.method, "/", tc.body, tc.setup...)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "Internal server error", decode(t, rec)["error"])
			assert.Less(t, time.Since(start), 2*time.Second)
		})
	}
}

func TestContactSubmit_StalledStoreFailsWithinDeadline(t *testing.T) {
	intake := service.NewIntakeService(service.IntakeDeps{Store: stalled{}, StoreTimeout: 20 * time.Millisecond})
	h := NewContactHandler(intake, true)

	start := time.Now()
	rec := call(t, h.Submit, http.MethodPost, "/api/contact", formBody())
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.CodeStorageError, decode(t, rec)["code"])
	assert.Less(t, time.Since(start), 2*time.Second)
	intake.Wait()
}
