package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
    tests := []struct {
        from, to Status
        want     bool
    }{
        {StatusNew, StatusRead, true},
        {StatusNew, StatusArchived, true},
        {StatusRead, StatusArchived, true},
        {StatusArchived, StatusRead, true},
        {StatusRead, StatusRead, true},
        {StatusRead, StatusNew, false},
        {StatusArchived, StatusNew, false},
        {Status("bogus"), StatusRead, false},
    }
    for _, tt := range tests {
        t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
            assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
        })
    }
}

func TestParseStatusAndKind(t *testing.T) {
    s, ok := ParseStatus(" Archived ")
    assert.True(t, ok)
    assert.Equal(t, StatusArchived, s)

    _, ok = ParseStatus("deleted")
    assert.False(t, ok)

    k, ok := ParseKind("QUOTE")
    assert.True(t, ok)
    assert.Equal(t, KindQuote, k)

    _, ok = ParseKind("")
    assert.False(t, ok)
}

func strp(s string) *string { return &s }

func TestInquiryRecord_Migrate_Legacy(t *testing.T) {
    created := time.Date(2023, 3, 1, 10, 0, 0, 0, time.UTC)
    rec := InquiryRecord{
        ID:            4,
        SchemaVersion: SchemaLegacy,
        Kind:          "quote",
        Name:          "Bouwbedrijf",
        Email:         "info@example.nl",
        Company:       strp("  De Bouwers BV "),
        Message:       "old style submission",
        Documents:     []byte(`["/api/documents/1700000000000-abcd1234-plan.pdf"]`),
        Status:        "read",
        CreatedAt:     created,
    }

    in, err := rec.Migrate()
    require.NoError(t, err)

    assert.Equal(t, "De Bouwers BV", in.OrganizationName)
    assert.Equal(t, ClientOrganisation, in.ClientType)
    assert.True(t, in.PrivacyAccepted)
    assert.Equal(t, StatusRead, in.Status)
    require.Len(t, in.Documents, 1)
    assert.Equal(t, "1700000000000-abcd1234-plan.pdf", in.Documents[0].ID)
    assert.Equal(t, "/api/documents/1700000000000-abcd1234-plan.pdf", in.Documents[0].URL)
}

func TestInquiryRecord_Migrate_LegacyWithoutCompany(t *testing.T) {
    in, err := InquiryRecord{ID: 1, SchemaVersion: SchemaLegacy, Name: "Jan", Message: "hello there"}.Migrate()
    require.NoError(t, err)

    assert.Equal(t, ClientPrivate, in.ClientType)
    assert.Empty(t, in.OrganizationName)
    assert.Equal(t, KindContact, in.Kind)
    assert.Equal(t, StatusNew, in.Status)
    assert.NotNil(t, in.Documents)
}

func TestInquiryRecord_Migrate_CurrentKeepsFields(t *testing.T) {
    rec := InquiryRecord{
        ID:               9,
        SchemaVersion:    SchemaCurrent,
        Kind:             "contact",
        ClientType:       strp("particulier"),
        OrganizationName: nil,
        Documents:        []byte(`[{"id":"x","filename":"a.pdf","url":"/api/documents/x"}]`),
        PrivacyAccepted:  false,
        Status:           "new",
    }
    in, err := rec.Migrate()
    require.NoError(t, err)

    assert.Equal(t, ClientPrivate, in.ClientType)
    assert.False(t, in.PrivacyAccepted)
    assert.Equal(t, []DocumentRef{{ID: "x", Filename: "a.pdf", URL: "/api/documents/x"}}, in.Documents)
}

func TestInquiryRecord_Migrate_BadDocuments(t *testing.T) {
    _, err := InquiryRecord{ID: 2, Documents: []byte(`{`)}.Migrate()
    assert.Error(t, err)
}

func TestDocumentRef_MarshalRoundTripShape(t *testing.T) {
    b, err := json.Marshal(DocumentRef{ID: "k", Filename: "f.png", URL: "/api/documents/k"})
    require.NoError(t, err)
    assert.JSONEq(t, `{"id":"k","filename":"f.png","url":"/api/documents/k"}`, string(b))
}

func TestProjectPatch_Apply(t *testing.T) {
    p := Project{Title: Localized{EN: "Bridge", NL: "Brug"}, Year: 2020, Featured: false}
    year := 2024
    featured := true
    ProjectPatch{Year: &year, Featured: &featured}.Apply(&p)

    assert.Equal(t, "Bridge", p.Title.EN)
    assert.Equal(t, 2024, p.Year)
    assert.True(t, p.Featured)
    assert.False(t, Localized{EN: "x"}.Complete())
}
