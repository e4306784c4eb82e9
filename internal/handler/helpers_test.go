package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/repository"
	"github.com/iliyamo/theta-web/internal/utils"
)

// call runs h against a JSON request and returns the recorder.
func call(t *testing.T, h echo.HandlerFunc, method, target string, body any, setup ...func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	return serve(t, h, req, setup...)
}

func serve(t *testing.T, h echo.HandlerFunc, req *http.Request, setup ...func(echo.Context)) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for _, fn := range setup {
		fn(c)
	}
	require.NoError(t, h(c))
	return rec
}

func withID(id string) func(echo.Context) {
	return func(c echo.Context) {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// memAdmins is an in-memory service.AdminStore.
type memAdmins struct {
	mu     sync.Mutex
	nextID uint64
	byName map[string]*model.Admin
}

func newMemAdmins() *memAdmins { return &memAdmins{byName: map[string]*model.Admin{}} }

func (m *memAdmins) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byName[username]
	if !ok {
		return nil, repository.ErrAdminNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAdmins) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byName), nil
}

func (m *memAdmins) Create(ctx context.Context, username, plain, email string, cost int) (uint64, error) {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[username]; ok {
		return 0, repository.ErrDuplicateUsername
	}
	m.nextID++
	m.byName[username] = &model.Admin{ID: m.nextID, Username: username, PasswordHash: hash}
	return m.nextID, nil
}

func (m *memAdmins) UpdatePassword(ctx context.Context, username, plain string, cost int) error {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byName[username]
	if !ok {
		return repository.ErrAdminNotFound
	}
	a.PasswordHash = hash
	return nil
}

func (m *memAdmins) UpdateUsername(ctx context.Context, current, next string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byName[next]; ok {
		return repository.ErrDuplicateUsername
	}
	a, ok := m.byName[current]
	if !ok {
		return repository.ErrAdminNotFound
	}
	delete(m.byName, current)
	a.Username = next
	m.byName[next] = a
	return nil
}

// memInquiries records what the intake pipeline persists.
type memInquiries struct {
	mu   sync.Mutex
	rows []model.Inquiry
}

func (m *memInquiries) CreateWithNotification(ctx context.Context, in *model.Inquiry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	in.ID = uint64(len(m.rows) + 1)
	in.Status = model.StatusNew
	m.rows = append(m.rows, *in)
	return nil
}

func (m *memInquiries) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
