package model

import "time"

// Notification marks a new submission on the admin dashboard.  Exactly one
// exists per inquiry and it is removed together with the inquiry.
type Notification struct {
    ID        uint64    `json:"id"`
    QuoteID   uint64    `json:"quoteId"`
    Kind      Kind      `json:"type"`
    Read      bool      `json:"read"`
    CreatedAt time.Time `json:"createdAt"`
}
