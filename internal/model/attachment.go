package model

import "time"

// Attachment is an uploaded document or image as returned to clients.
type Attachment struct {
    ID       string `json:"id"`
    Filename string `json:"filename"`
    URL      string `json:"url"`
}

// Blob describes a stored object without its bytes.
type Blob struct {
    Bucket       string
    Key          string
    OriginalName string
    ContentType  string
    Size         int64
    UploadedAt   time.Time
}
