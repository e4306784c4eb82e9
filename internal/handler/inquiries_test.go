package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/theta-web/internal/model"
	"github.com/iliyamo/theta-web/internal/service"
)

// stubInquiries answers with canned values and records the last call.
type stubInquiries struct {
	rows       []model.Inquiry
	err        error
	lastStatus string
	lastKind   string
	lastNext   string
	deleted    uint64
	unread     []model.Notification
}

func (s *stubInquiries) List(ctx context.Context, status, kind string) ([]model.Inquiry, error) {
	s.lastStatus, s.lastKind = status, kind
	return s.rows, s.err
}

func (s *stubInquiries) Get(ctx context.Context, id uint64) (*model.Inquiry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Inquiry{ID: id, Status: model.StatusNew}, nil
}

func (s *stubInquiries) Transition(ctx context.Context, id uint64, next string) (*model.Inquiry, error) {
	s.lastNext = next
	if s.err != nil {
		return nil, s.err
	}
	return &model.Inquiry{ID: id, Status: model.Status(next)}, nil
}

func (s *stubInquiries) Delete(ctx context.Context, id uint64) error {
	s.deleted = id
	return s.err
}

func (s *stubInquiries) UnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	return s.unread, s.err
}

func TestInquiryList_PassesFilters(t *testing.T) {
	stub := &stubInquiries{rows: []model.Inquiry{{ID: 2}, {ID: 1}}}
	h := NewInquiryHandler(stub, false)

	rec := call(t, h.List, http.MethodGet, "/api/quotes?status=new&type=quote", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new", stub.lastStatus)
	assert.Equal(t, "quote", stub.lastKind)
	var got []model.Inquiry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].ID)
}

func TestInquiryTransition(t *testing.T) {
	stub := &stubInquiries{}
	h := NewInquiryHandler(stub, false)

	rec := call(t, h.Transition, http.MethodPatch, "/api/quotes/7", transitionReq{Status: "read"}, withID("7"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "read", stub.lastNext)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])

	stub.err = service.NewError(service.CodeInvalidTransition, "cannot move from read to new", nil)
	rec = call(t, h.Transition, http.MethodPatch, "/api/quotes/7", transitionReq{Status: "new"}, withID("7"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.CodeInvalidTransition, decode(t, rec)["code"])
}

func TestInquiryByID_Errors(t *testing.T) {
	stub := &stubInquiries{}
	h := NewInquiryHandler(stub, false)

	for _, id := range []string{"abc", "0", "-1"} {
		rec := call(t, h.Get, http.MethodGet, "/api/quotes/"+id, nil, withID(id))
		assert.Equal(t, http.StatusBadRequest, rec.Code, id)
	}

	stub.err = service.NewError(service.CodeNotFound, "Quote not found", nil)
	rec := call(t, h.Delete, http.MethodDelete, "/api/quotes/9", nil, withID("9"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, uint64(9), stub.deleted)
}

func TestNotifications(t *testing.T) {
	stub := &stubInquiries{unread: []model.Notification{{ID: 1, QuoteID: 3}}}
	h := NewInquiryHandler(stub, false)

	rec := call(t, h.Notifications, http.MethodGet, "/api/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["unread"])
}
