// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Visibility is the access class of a snippet or folder.
// "private" rows are visible to their owner only; "public" rows to anyone.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

// Snippet represents a stored code fragment with its metadata.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize
// this struct; the `db:"..."` tags document the column each field maps to.
//
// FolderID is a *string rather than a string: a snippet may live outside any
// folder, and NULL in the database is distinct from the empty string. The
// same reasoning applies to Folder.ParentID.
type Snippet struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`    // owning user, never empty
	Title       string    `json:"title"       db:"title"`      // defaults to "untitled"
	Visibility  string    `json:"visibility"  db:"visibility"` // "private" or "public"
	Language    string    `json:"language"    db:"language"`   // free-text tag, defaults to "plaintext"
	Description string    `json:"description" db:"description"`
	Content     string    `json:"content"     db:"content"` // the code body, required
	FolderID    *string   `json:"folderId"    db:"folder_id"`
	Tags        []string  `json:"tags"        db:"tags"` // ordered, stored as a JSON text array
	Starred     bool      `json:"starred"     db:"starred"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
