// Package repository defines the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
//
// Every read that takes an ownerID applies it as a row filter: an empty
// result means "not found or not owned" and surfaces as a NotFound error,
// never as a distinct "exists but forbidden" signal.
package repository

import (
	"context"
	"time"

	"github.com/sakif/snippethub/internal/model"
)

type SnippetRepository interface {
	Create(ctx context.Context, snippet *model.Snippet) error
	GetByID(ctx context.Context, id, ownerID string) (*model.Snippet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error)
	ListByFolder(ctx context.Context, folderID string) ([]model.Snippet, error)
	ListStarred(ctx context.Context, ownerID string) ([]model.Snippet, error)

	// GetPublic returns the snippet only when its visibility is "public";
	// private rows are indistinguishable from missing ones.
	GetPublic(ctx context.Context, id string) (*model.Snippet, error)

	// IsPublic reports whether the snippet exists AND is public.
	// A missing row collapses to false rather than an error.
	IsPublic(ctx context.Context, id string) (bool, error)

	// SearchPublic returns public snippets whose title contains query as a
	// case-sensitive substring.
	SearchPublic(ctx context.Context, query string) ([]model.Snippet, error)

	Update(ctx context.Context, snippet *model.Snippet) error
	Delete(ctx context.Context, id, ownerID string) error
	SetStarred(ctx context.Context, id, ownerID string, starred bool) error
}

type FolderRepository interface {
	CreateFolder(ctx context.Context, folder *model.Folder) error
	GetFolderByID(ctx context.Context, id, ownerID string) (*model.Folder, error)
	ListFoldersByOwner(ctx context.Context, ownerID string) ([]model.Folder, error)
	ListFoldersByParent(ctx context.Context, parentID string) ([]model.Folder, error)
	UpdateFolder(ctx context.Context, folder *model.Folder) error

	// DeleteFolder removes the folder; child folders and contained snippets
	// go with it via storage-level cascade rules, not application logic.
	DeleteFolder(ctx context.Context, id, ownerID string) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

// AuthRepository persists the credential-side records: accounts, sessions
// and short-lived verification values. The identity records themselves are
// handled by UserRepository.
type AuthRepository interface {
	CreateAccount(ctx context.Context, account *model.Account) error
	GetAccountByProvider(ctx context.Context, providerID, accountID string) (*model.Account, error)
	GetCredentialAccount(ctx context.Context, userID string) (*model.Account, error)

	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByID(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error

	CreateVerification(ctx context.Context, v *model.Verification) error

	// ConsumeVerification deletes and returns the row matching
	// (identifier, value) if it exists and has not expired. Single use.
	ConsumeVerification(ctx context.Context, identifier, value string) (*model.Verification, error)
}
