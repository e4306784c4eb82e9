package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iliyamo/theta-web/internal/model"
)

// ProjectRepo persists portfolio projects.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo creates a new ProjectRepo with the given database connection.
func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

const projectColumns = `id, title_en, title_nl, description_en, description_nl, content_en, content_nl,
	images, category, client, year, featured, created_at, updated_at`

// List returns projects newest first, optionally only featured ones.
func (r *ProjectRepo) List(ctx context.Context, featuredOnly bool) ([]model.Project, error) {
	q := "SELECT " + projectColumns + " FROM projects"
	if featuredOnly {
		q += " WHERE featured=TRUE"
	}
	q += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Get returns one project or ErrProjectNotFound.
func (r *ProjectRepo) Get(ctx context.Context, id uint64) (*model.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id=?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create inserts p and reloads it so timestamps are populated.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `INSERT INTO projects
		(title_en, title_nl, description_en, description_nl, content_en, content_nl,
		 images, category, client, year, featured)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		p.Title.EN, p.Title.NL, p.Description.EN, p.Description.NL, p.Content.EN, p.Content.NL,
		images, nullStr(p.Category), nullStr(p.Client), p.Year, p.Featured)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.Get(ctx, uint64(id))
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Update overwrites every editable column of p.
func (r *ProjectRepo) Update(ctx context.Context, p *model.Project) error {
	images, err := marshalImages(p.Images)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE projects SET
		title_en=?, title_nl=?, description_en=?, description_nl=?, content_en=?, content_nl=?,
		images=?, category=?, client=?, year=?, featured=?, updated_at=CURRENT_TIMESTAMP(3)
		WHERE id=?`,
		p.Title.EN, p.Title.NL, p.Description.EN, p.Description.NL, p.Content.EN, p.Content.NL,
		images, nullStr(p.Category), nullStr(p.Client), p.Year, p.Featured, p.ID)
	if err != nil {
		return err
	}
	if err := requireOneRow(res, ErrProjectNotFound); err != nil {
		return err
	}
	stored, err := r.Get(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Delete removes a project.  Its images stay in the blob store.
func (r *ProjectRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id=?", id)
	if err != nil {
		return err
	}
	return requireOneRow(res, ErrProjectNotFound)
}

func scanProject(s rowScanner) (model.Project, error) {
	var (
		p                                      model.Project
		contentEN, contentNL, category, client sql.NullString
		images                                 []byte
	)
	err := s.Scan(&p.ID, &p.Title.EN, &p.Title.NL, &p.Description.EN, &p.Description.NL,
		&contentEN, &contentNL, &images, &category, &client, &p.Year, &p.Featured,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Project{}, err
	}
	p.Content = model.Localized{EN: contentEN.String, NL: contentNL.String}
	p.Category = category.String
	p.Client = client.String
	p.Images = []string{}
	if len(images) > 0 && string(images) != "null" {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return model.Project{}, fmt.Errorf("project %d images: %w", p.ID, err)
		}
	}
	return p, nil
}

func marshalImages(images []string) ([]byte, error) {
	if images == nil {
		images = []string{}
	}
	return json.Marshal(images)
}
