package model

import "time"

// Localized holds the English and Dutch variants of a text.
type Localized struct {
    EN string `json:"en"`
    NL string `json:"nl"`
}

// Complete reports whether both languages are filled in.
func (l Localized) Complete() bool {
    return l.EN != "" && l.NL != ""
}

// Project is a portfolio entry shown on the public site.
type Project struct {
    ID          uint64    `json:"id"`
    Title       Localized `json:"title"`
    Description Localized `json:"description"`
    Content     Localized `json:"content"`
    Images      []string  `json:"images"`
    Category    string    `json:"category,omitempty"`
    Client      string    `json:"client,omitempty"`
    Year        int       `json:"year"`
    Featured    bool      `json:"featured"`
    CreatedAt   time.Time `json:"createdAt"`
    UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectPatch carries a partial update.  Nil fields are left unchanged.
type ProjectPatch struct {
    Title       *Localized `json:"title"`
    Description *Localized `json:"description"`
    Content     *Localized `json:"content"`
    Images      *[]string  `json:"images"`
    Category    *string    `json:"category"`
    Client      *string    `json:"client"`
    Year        *int       `json:"year"`
    Featured    *bool      `json:"featured"`
}

// Apply copies the set fields of p onto dst.
func (p ProjectPatch) Apply(dst *Project) {
    if p.Title != nil {
        dst.Title = *p.Title
    }
    if p.Description != nil {
        dst.Description = *p.Description
    }
    if p.Content != nil {
        dst.Content = *p.Content
    }
    if p.Images != nil {
        dst.Images = *p.Images
    }
    if p.Category != nil {
        dst.Category = *p.Category
    }
    if p.Client != nil {
        dst.Client = *p.Client
    }
    if p.Year != nil {
        dst.Year = *p.Year
    }
    if p.Featured != nil {
        dst.Featured = *p.Featured
    }
}
