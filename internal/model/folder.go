package model

import "time"

// Folder is a named, hierarchical container for snippets.
//
// The hierarchy is a flat set of rows with an optional self-reference:
// ParentID points at another folder owned by the same user, or is nil for a
// root folder. Deleting a folder cascades to its child folders and to every
// snippet inside it — the database enforces this, not application code.
type Folder struct {
	ID          string    `json:"id"          db:"id"`
	UserID      string    `json:"userId"      db:"user_id"`
	Title       string    `json:"title"       db:"title"`
	Visibility  string    `json:"visibility"  db:"visibility"`
	Description string    `json:"description" db:"description"`
	ParentID    *string   `json:"parentId"    db:"parent_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
