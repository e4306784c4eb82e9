package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/repository"
	"github.com/iliyamo/theta-web/internal/service"
)

// memProjects is an in-memory service.ProjectStore.
type memProjects struct {
	mu   sync.Mutex
	rows map[uint64]model.Project
	next uint64
}

func (m *memProjects) List(ctx context.Context, featuredOnly bool) ([]model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Project
	for id := m.next; id > 0; id-- {
		p, ok := m.rows[id]
		if ok && (!featuredOnly || p.Featured) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProjects) Get(ctx context.Context, id uint64) (*model.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	return &p, nil
}

func (m *memProjects) Create(ctx context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = map[uint64]model.Project{}
	}
	m.next++
	p.ID = m.next
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	m.rows[p.ID] = *p
	return nil
}

func (m *memProjects) Update(ctx context.Context, p *model.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[p.ID]; !ok {
		return repository.ErrProjectNotFound
	}
	m.rows[p.ID] = *p
	return nil
}

func (m *memProjects) Delete(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrProjectNotFound
	}
	delete(m.rows, id)
	return nil
}

func newProjectHandler() *ProjectHandler {
	return NewProjectHandler(service.NewProjectService(&memProjects{}, nil), false)
}

func projectBody(featured bool) map[string]any {
	return map[string]any{
		"title":       map[string]string{"en": "Bridge", "nl": "Brug"},
		"description": map[string]string{"en": "Steel footbridge", "nl": "Stalen voetgangersbrug"},
		"images":      []string{"/api/images/1700000000000-deadbeef-a.png"},
		"featured":    featured,
	}
}

func TestProjectCRUD(t *testing.T) {
	h := newProjectHandler()

	rec := call(t, h.Create, http.MethodPost, "/api/projects", projectBody(true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 1, body["id"])

	rec = call(t, h.Create, http.MethodPost, "/api/projects", projectBody(false))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = call(t, h.Update, http.MethodPut, "/api/projects/2", map[string]any{"client": "Gemeente Utrecht"}, withID("2"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	project := decode(t, rec)["project"].(map[string]any)
	assert.Equal(t, "Gemeente Utrecht", project["client"])
	assert.Equal(t, "Bridge", project["title"].(map[string]any)["en"])

	rec = call(t, h.List, http.MethodGet, "/api/projects?featured=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var featured []model.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &featured))
	require.Len(t, featured, 1)
	assert.Equal(t, uint64(1), featured[0].ID)

	rec = call(t, h.Delete, http.MethodDelete, "/api/projects/1", nil, withID("1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h.Get, http.MethodGet, "/api/projects/1", nil, withID("1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectValidation(t *testing.T) {
	h := newProjectHandler()

	body := projectBody(false)
	body["title"] = map[string]string{"en": "Bridge"}
	rec := call(t, h.Create, http.MethodPost, "/api/projects", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "title", decode(t, rec)["field"])

	rec = call(t, h.List, http.MethodGet, "/api/projects?featured=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.Update, http.MethodPut, "/api/projects/42", map[string]any{"featured": true}, withID("42"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
