package models

import "time"

// User represents a registered account owner. The email doubles as the
// identity used for plan ownership.
type User struct {
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not serialized
	CreatedAt    time.Time `json:"created_at"`
}
