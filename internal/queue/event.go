// Package queue defines message payloads exchanged over the message broker
// together with the publisher used by the API and the consumer run by the
// worker.
package queue

import (
    "time"

    "github.com/iliyamo/theta-web/internal/model"
)

// InquiryReceivedQueue is the durable queue inquiry events are routed to.
const InquiryReceivedQueue = "inquiry.received"

// InquiryReceivedEvent is published after an inquiry and its notification
// have been committed.  It carries enough information for downstream
// consumers to log or alert without querying the database; the message text
// and contact details beyond the email address stay out of the event.
type InquiryReceivedEvent struct {
    InquiryID        uint64 `json:"inquiry_id"`
    Type             string `json:"type"`
    Name             string `json:"name"`
    Email            string `json:"email"`
    ClientType       string `json:"client_type"`
    OrganizationName string `json:"organization_name,omitempty"`
    ProjectType      string `json:"project_type,omitempty"`
    Documents        int    `json:"documents"`
    ReceivedAt       string `json:"received_at"`
}

// NewInquiryReceivedEvent builds the event for a stored inquiry.
func NewInquiryReceivedEvent(in model.Inquiry) InquiryReceivedEvent {
    at := in.CreatedAt
    if at.IsZero() {
        at = time.Now()
    }
    return InquiryReceivedEvent{
        InquiryID:        in.ID,
        Type:             string(in.Kind),
        Name:             in.Name,
        Email:            in.Email,
        ClientType:       string(in.ClientType),
        OrganizationName: in.OrganizationName,
        ProjectType:      string(in.ProjectType),
        Documents:        len(in.Documents),
        ReceivedAt:       at.UTC().Format(time.RFC3339),
    }
}
