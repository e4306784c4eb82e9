package service

import (
	"context"
	"errors"
	"time"

	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/repository"
)

// InquiryStore is the admin side of the inquiry repository.
type InquiryStore interface {
	List(ctx context.Context, f repository.InquiryFilter) ([]model.Inquiry, error)
	Get(ctx context.Context, id uint64) (*model.Inquiry, error)
	UpdateStatus(ctx context.Context, id uint64, from, to model.Status, at time.Time) error
	Delete(ctx context.Context, id uint64) error
}

// NotificationStore lists dashboard notifications.
type NotificationStore interface {
	ListUnread(ctx context.Context) ([]model.Notification, error)
}

// InquiryService backs the admin inbox.
type InquiryService struct {
	inquiries     InquiryStore
	notifications NotificationStore
	now           func() time.Time
	log           logger.Logger
}

// NewInquiryService returns the admin inbox over the given stores.
func NewInquiryService(inquiries InquiryStore, notifications NotificationStore, log logger.Logger) *InquiryService {
	if inquiries == nil || notifications == nil {
		panic("nil store passed to NewInquiryService")
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &InquiryService{inquiries: inquiries, notifications: notifications, now: time.Now, log: log}
}

// List returns inquiries newest first.  status and kind come straight from
// the query string; empty means no filter.
func (s *InquiryService) List(ctx context.Context, status, kind string) ([]model.Inquiry, error) {
	var f repository.InquiryFilter
	if status != "" {
		st, ok := model.ParseStatus(status)
		if !ok {
			return nil, errValidation("status", "invalid status filter")
		}
		f.Status = st
	}
	if kind != "" {
		k, ok := model.ParseKind(kind)
		if !ok {
			return nil, errValidation("type", "invalid type filter")
		}
		f.Kind = k
	}
	out, err := s.inquiries.List(ctx, f)
	if err != nil {
		return nil, errStorage("could not load inquiries", err)
	}
	if out == nil {
		out = []model.Inquiry{}
	}
	return out, nil
}

func (s *InquiryService) Get(ctx context.Context, id uint64) (*model.Inquiry, error) {
	in, err := s.inquiries.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInquiryNotFound) {
			return nil, errNotFound("Quote not found", err)
		}
		return nil, errStorage("could not load inquiry", err)
	}
	return in, nil
}

// Transition moves inquiry id to status next.  Moving to the current
// status succeeds without touching the row.  The update is conditional on
// the status read here, so two admins racing on the same inquiry get one
// success and one CONFLICT.
func (s *InquiryService) Transition(ctx context.Context, id uint64, next string) (*model.Inquiry, error) {
	to, ok := model.ParseStatus(next)
	if !ok {
		return nil, errValidation("status", "Invalid status")
	}
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == to {
		return cur, nil
	}
	if !cur.Status.CanTransitionTo(to) {
		return nil, &Error{
			Code:    CodeInvalidTransition,
			Field:   "status",
			Message: "cannot move inquiry from " + string(cur.Status) + " to " + string(to),
		}
	}

	if err := s.inquiries.UpdateStatus(ctx, id, cur.Status, to, s.now()); err != nil {
		switch {
		case errors.Is(err, repository.ErrInquiryNotFound):
			return nil, errNotFound("Quote not found", err)
		case errors.Is(err, repository.ErrConflict):
			return nil, NewError(CodeConflict, "inquiry was changed concurrently, reload and retry", err)
		}
		return nil, errStorage("could not update inquiry", err)
	}
	s.log.Info("inquiry status changed",
		logger.Uint64("inquiry_id", id), logger.String("from", string(cur.Status)), logger.String("to", string(to)))
	return s.Get(ctx, id)
}

// Delete removes the inquiry and its notification.  Uploaded documents are
// kept in the blob store.
func (s *InquiryService) Delete(ctx context.Context, id uint64) error {
	if err := s.inquiries.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrInquiryNotFound) {
			return errNotFound("Quote not found", err)
		}
		return errStorage("could not delete inquiry", err)
	}
	s.log.Info("inquiry deleted", logger.Uint64("inquiry_id", id))
	return nil
}

// UnreadNotifications feeds the dashboard badge.
func (s *InquiryService) UnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	out, err := s.notifications.ListUnread(ctx)
	if err != nil {
		return nil, errStorage("could not load notifications", err)
	}
	if out == nil {
		out = []model.Notification{}
	}
	return out, nil
}
