package model

import (
    "encoding/json"
    "fmt"
    "strings"
    "time"
)

// ClientType distinguishes organisations from private persons.  The values
// are the Dutch labels the public form posts.
type ClientType string

const (
    ClientOrganisation ClientType = "organisatie"
    ClientPrivate      ClientType = "particulier"
)

// ProjectType is the service category picked on the form.
type ProjectType string

const (
    ProjectStructuralDesign ProjectType = "constructief-ontwerp"
    ProjectSafetyAssessment ProjectType = "beoordeling-veiligheid"
    ProjectManagement       ProjectType = "projectmanagement"
    ProjectInspection       ProjectType = "inspectie-advies"
)

// Kind says whether a submission is a quote request or a plain contact message.
type Kind string

const (
    KindQuote   Kind = "quote"
    KindContact Kind = "contact"
)

// ParseKind validates a kind coming from a query string or request body.
func ParseKind(s string) (Kind, bool) {
    switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
    case KindQuote, KindContact:
        return k, true
    }
    return "", false
}

// Status tracks where an inquiry is in the admin inbox.
type Status string

const (
    StatusNew      Status = "new"
    StatusRead     Status = "read"
    StatusArchived Status = "archived"
)

// ParseStatus validates a status coming from a query string or request body.
func ParseStatus(s string) (Status, bool) {
    switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
    case StatusNew, StatusRead, StatusArchived:
        return st, true
    }
    return "", false
}

// CanTransitionTo reports whether the inbox allows moving from s to next.
//
//  new      -> read | archived
//  read     -> archived
//  archived -> read
//
// Staying in the same state is allowed and is a no-op.  Nothing moves back
// to new.
func (s Status) CanTransitionTo(next Status) bool {
    if s == next {
        return true
    }
    switch s {
    case StatusNew:
        return next == StatusRead || next == StatusArchived
    case StatusRead:
        return next == StatusArchived
    case StatusArchived:
        return next == StatusRead
    }
    return false
}

// DocumentRef points at an uploaded attachment.  Older submissions stored
// bare URL strings; both shapes decode into a DocumentRef.
type DocumentRef struct {
    ID       string `json:"id,omitempty"`
    Filename string `json:"filename,omitempty"`
    URL      string `json:"url"`
}

// UnmarshalJSON accepts either {"url","filename","id"} or a plain string.
func (d *DocumentRef) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err == nil {
        *d = DocumentRef{URL: s}
        if i := strings.LastIndex(s, "/"); i >= 0 && i < len(s)-1 {
            d.ID = s[i+1:]
        }
        return nil
    }
    type plain DocumentRef
    var p plain
    if err := json.Unmarshal(b, &p); err != nil {
        return fmt.Errorf("document ref: %w", err)
    }
    *d = DocumentRef(p)
    return nil
}

// Inquiry is a contact or quote submission in its current schema.
type Inquiry struct {
    ID               uint64        `json:"id"`
    Kind             Kind          `json:"type"`
    Name             string        `json:"name"`
    Email            string        `json:"email"`
    Phone            string        `json:"phone,omitempty"`
    ClientType       ClientType    `json:"clientType"`
    OrganizationName string        `json:"organizationName,omitempty"`
    ProjectLocation  string        `json:"projectLocation,omitempty"`
    ProjectType      ProjectType   `json:"projectType,omitempty"`
    Message          string        `json:"message"`
    Documents        []DocumentRef `json:"documents"`
    PrivacyAccepted  bool          `json:"privacyAccepted"`
    Status           Status        `json:"status"`
    CreatedAt        time.Time     `json:"createdAt"`
    ReadAt           *time.Time    `json:"readAt,omitempty"`
    ArchivedAt       *time.Time    `json:"archivedAt,omitempty"`
}

// Schema versions of stored quote rows.  Version 1 rows were written before
// the client type split and only carry a free-form company field.
const (
    SchemaLegacy  = 1
    SchemaCurrent = 2
)

// InquiryRecord is the raw row shape of the quotes table, legacy columns
// included.  Callers convert it with Migrate before handing it out.
type InquiryRecord struct {
    ID               uint64
    SchemaVersion    int
    Kind             string
    Name             string
    Email            string
    Phone            *string
    ClientType       *string
    OrganizationName *string
    Company          *string // legacy, superseded by OrganizationName
    ProjectLocation  *string
    ProjectType      *string
    Message          string
    Documents        []byte // JSON array
    PrivacyAccepted  bool
    Status           string
    CreatedAt        time.Time
    ReadAt           *time.Time
    ArchivedAt       *time.Time
}

// Migrate maps a stored row of any schema version onto the current Inquiry.
// Legacy rows have their company moved to OrganizationName and, when no
// client type was recorded, are classified by whether an organisation name
// is present.
func (r InquiryRecord) Migrate() (Inquiry, error) {
    in := Inquiry{
        ID:               r.ID,
        Kind:             Kind(r.Kind),
        Name:             r.Name,
        Email:            r.Email,
        Phone:            deref(r.Phone),
        ClientType:       ClientType(deref(r.ClientType)),
        OrganizationName: deref(r.OrganizationName),
        ProjectLocation:  deref(r.ProjectLocation),
        ProjectType:      ProjectType(deref(r.ProjectType)),
        Message:          r.Message,
        PrivacyAccepted:  r.PrivacyAccepted,
        Status:           Status(r.Status),
        CreatedAt:        r.CreatedAt,
        ReadAt:           r.ReadAt,
        ArchivedAt:       r.ArchivedAt,
        Documents:        []DocumentRef{},
    }

    if in.OrganizationName == "" {
        in.OrganizationName = strings.TrimSpace(deref(r.Company))
    }
    if in.ClientType == "" {
        if in.OrganizationName != "" {
            in.ClientType = ClientOrganisation
        } else {
            in.ClientType = ClientPrivate
        }
    }
    if in.Kind == "" {
        in.Kind = KindContact
    }
    if in.Status == "" {
        in.Status = StatusNew
    }
    if r.SchemaVersion <= SchemaLegacy && !r.PrivacyAccepted {
        // v1 forms had no consent checkbox; the submission itself was consent.
        in.PrivacyAccepted = true
    }

    if len(r.Documents) > 0 && string(r.Documents) != "null" {
        if err := json.Unmarshal(r.Documents, &in.Documents); err != nil {
            return Inquiry{}, fmt.Errorf("inquiry %d documents: %w", r.ID, err)
        }
    }
    return in, nil
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
