package model

import "time"

// User represents a registered account.
//
// A user never holds credentials directly — those live in Account rows.
// One user can have several accounts (a "credential" account with a password
// hash, a "google" account from OAuth), all pointing at the same user row.
// This identity/credential split mirrors how hosted auth providers lay out
// their schema.
type User struct {
	ID            string    `json:"id"            db:"id"`
	Name          string    `json:"name"          db:"name"`
	Email         string    `json:"email"         db:"email"` // unique
	EmailVerified bool      `json:"emailVerified" db:"email_verified"`
	Image         string    `json:"image"         db:"image"` // avatar URL, may be empty
	CreatedAt     time.Time `json:"createdAt"     db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt"     db:"updated_at"`
}
