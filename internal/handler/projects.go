package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theta-web/internal/model"
)

// ProjectAPI manages the portfolio.
type ProjectAPI interface {
	List(ctx context.Context, featuredOnly bool) ([]model.Project, error)
	Get(ctx context.Context, id uint64) (*model.Project, error)
	Create(ctx context.Context, in model.ProjectPatch) (*model.Project, error)
	Update(ctx context.Context, id uint64, patch model.ProjectPatch) (*model.Project, error)
	Delete(ctx context.Context, id uint64) error
}

// ProjectHandler serves the portfolio, public reads and admin writes.
type ProjectHandler struct {
	Projects   ProjectAPI
	Production bool
}

func NewProjectHandler(projects ProjectAPI, production bool) *ProjectHandler {
	if projects == nil {
		panic("nil project service passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: projects, Production: production}
}

// List: GET /api/projects[?featured=true]
func (h *ProjectHandler) List(c echo.Context) error {
	featured := false
	if v := c.QueryParam("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "featured", "featured must be true or false")
		}
		featured = b
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Projects.List(ctx, featured)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProjectHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "id", "Invalid project ID")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Projects.Get(ctx, id)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) Create(c echo.Context) error {
	var in model.ProjectPatch
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "", "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Projects.Create(ctx, in)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "id": p.ID, "project": p})
}

// Update applies only the fields present in the body.
func (h *ProjectHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "id", "Invalid project ID")
	}
	var patch model.ProjectPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "", "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	p, err := h.Projects.Update(ctx, id, patch)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "project": p})
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "id", "Invalid project ID")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Projects.Delete(ctx, id); err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
