package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theta-web/internal/model"
)

// InquiryAPI is the admin inbox.
type InquiryAPI interface {
	List(ctx context.Context, status, kind string) ([]model.Inquiry, error)
	Get(ctx context.Context, id uint64) (*model.Inquiry, error)
	Transition(ctx context.Context, id uint64, next string) (*model.Inquiry, error)
	Delete(ctx context.Context, id uint64) error
	UnreadNotifications(ctx context.Context) ([]model.Notification, error)
}

// InquiryHandler serves /api/quotes and /api/notifications.
type InquiryHandler struct {
	Inquiries  InquiryAPI
	Production bool
}

func NewInquiryHandler(inquiries InquiryAPI, production bool) *InquiryHandler {
	if inquiries == nil {
		panic("nil inquiry service passed to NewInquiryHandler")
	}
	return &InquiryHandler{Inquiries: inquiries, Production: production}
}

type transitionReq struct {
	Status string `json:"status"`
}

// List: GET /api/quotes?status=&type=
func (h *InquiryHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Inquiries.List(ctx, c.QueryParam("status"), c.QueryParam("type"))
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InquiryHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "id", "Invalid quote ID")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	in, err := h.Inquiries.Get(ctx, id)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, in)
}

// Transition: PATCH /api/quotes/:id {"status": "..."}
func (h *InquiryHandler) Transition(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "id", "Invalid quote ID")
	}
	var req transitionReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "", "invalid body")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	in, err := h.Inquiries.Transition(ctx, id, req.Status)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "quote": in})
}

func (h *InquiryHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "id", "Invalid quote ID")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Inquiries.Delete(ctx, id); err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// Notifications: GET /api/notifications, unread only.
func (h *InquiryHandler) Notifications(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	out, err := h.Inquiries.UnreadNotifications(ctx)
	if err != nil {
		return writeError(c, err, h.Production)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": out, "unread": len(out)})
}
