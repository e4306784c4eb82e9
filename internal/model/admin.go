package model

import "time"

// Admin mirrors the admins table.  The password hash never leaves the
// repository and handler layers.
type Admin struct {
    ID           uint64     // admins.id
    Username     string     // admins.username (unique)
    Email        *string    // admins.email (nullable)
    PasswordHash string     // admins.password_hash
    CreatedAt    time.Time  // admins.created_at
    UpdatedAt    time.Time  // admins.updated_at
}
