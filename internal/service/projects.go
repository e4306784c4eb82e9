package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/repository"
)

// ProjectStore persists portfolio projects.
type ProjectStore interface {
	List(ctx context.Context, featuredOnly bool) ([]model.Project, error)
	Get(ctx context.Context, id uint64) (*model.Project, error)
	Create(ctx context.Context, p *model.Project) error
	Update(ctx context.Context, p *model.Project) error
	Delete(ctx context.Context, id uint64) error
}

type ProjectService struct {
	projects ProjectStore
	now      func() time.Time
	log      logger.Logger
}

// NewProjectService returns a portfolio service backed by projects.
func NewProjectService(projects ProjectStore, log logger.Logger) *ProjectService {
	if projects == nil {
		panic("nil store passed to NewProjectService")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &ProjectService{projects: projects, now: time.Now, log: log}
}

func (s *ProjectService) List(ctx context.Context, featuredOnly bool) ([]model.Project, error) {
	out, err := s.projects.List(ctx, featuredOnly)
	if err != nil {
		return nil, errStorage("could not load projects", err)
	}
	if out == nil {
		out = []model.Project{}
	}
	return out, nil
}

func (s *ProjectService) Get(ctx context.Context, id uint64) (*model.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, projectErr(err, "could not load project")
	}
	return p, nil
}

// Create adds a project.  Title and description are required in both
// languages; year defaults to the current year.
func (s *ProjectService) Create(ctx context.Context, in model.ProjectPatch) (*model.Project, error) {
	p := &model.Project{Images: []string{}, Year: s.now().Year()}
	in.Apply(p)
	normalizeProject(p)
	if err := validateProject(p); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, errStorage("could not create project", err)
	}
	s.log.Info("project created", logger.Uint64("project_id", p.ID))
	return p, nil
}

// Update applies the fields present in patch.  The result must still
// satisfy the create rules.
func (s *ProjectService) Update(ctx context.Context, id uint64, patch model.ProjectPatch) (*model.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	normalizeProject(p)
	if err := validateProject(p); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, projectErr(err, "could not update project")
	}
	s.log.Info("project updated", logger.Uint64("project_id", id))
	return p, nil
}

func (s *ProjectService) Delete(ctx context.Context, id uint64) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		return projectErr(err, "could not delete project")
	}
	s.log.Info("project deleted", logger.Uint64("project_id", id))
	return nil
}

func normalizeProject(p *model.Project) {
	for _, l := range []*model.Localized{&p.Title, &p.Description, &p.Content} {
		l.EN = strings.TrimSpace(l.EN)
		l.NL = strings.TrimSpace(l.NL)
	}
	p.Category = strings.TrimSpace(p.Category)
	p.Client = strings.TrimSpace(p.Client)
	if p.Images == nil {
		p.Images = []string{}
	}
}

func validateProject(p *model.Project) error {
	if !p.Title.Complete() {
		return errValidation("title", "Title and description (both languages) are required")
	}
	if !p.Description.Complete() {
		return errValidation("description", "Title and description (both languages) are required")
	}
	if p.Year < 1900 || p.Year > 9999 {
		return errValidation("year", "year is out of range")
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img) == "" {
			return errValidation("images", "image URL must not be empty")
		}
	}
	return nil
}

func projectErr(err error, msg string) error {
	if errors.Is(err, repository.ErrProjectNotFound) {
		return errNotFound("Project not found", err)
	}
	return errStorage(msg, err)
}
