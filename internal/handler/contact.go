package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/service"
)

// IntakeAPI accepts public form submissions.
type IntakeAPI interface {
	Submit(ctx context.Context, sub service.Submission, remoteIP string) (*model.Inquiry, error)
}

// ContactHandler serves the public contact and quote form.
type ContactHandler struct {
	Intake     IntakeAPI
	Production bool
}

func NewContactHandler(intake IntakeAPI, production bool) *ContactHandler {
	if intake == nil {
		panic("nil intake passed to NewContactHandler")
	}
	return &ContactHandler{Intake: intake, Production: production}
}

// Submit runs one submission through the intake pipeline.  The response
// never reveals which spam check fired.
func (h *ContactHandler) Submit(c echo.Context) error {
	var sub service.Submission
	if err := c.Bind(&sub); err != nil {
		return badRequest(c, "", "invalid body")
	}
	if _, err := h.Intake.Submit(c.Request().Context(), sub, c.RealIP()); err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Form submitted successfully"})
}
