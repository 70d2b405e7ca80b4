package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
)

func createTestFolder(t *testing.T, db *DB, ownerID, title string, parentID *string) *model.Folder {
	t.Helper()
	folder := &model.Folder{
		UserID:     ownerID,
		Title:      title,
		Visibility: model.VisibilityPrivate,
		ParentID:   parentID,
	}
	if err := db.CreateFolder(context.Background(), folder); err != nil {
		t.Fatalf("failed to create test folder: %v", err)
	}
	return folder
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateFolder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "folder@example.com")

	folder := &model.Folder{
		UserID:      user.ID,
		Title:       "Work",
		Visibility:  model.VisibilityPrivate,
		Description: "day job",
	}
	if err := db.CreateFolder(context.Background(), folder); err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}

	if folder.ID == "" {
		t.Error("CreateFolder() did not set folder.ID")
	}
	if folder.CreatedAt.IsZero() {
		t.Error("CreateFolder() did not set folder.CreatedAt")
	}

	found, err := db.GetFolderByID(context.Background(), folder.ID, user.ID)
	if err != nil {
		t.Fatalf("GetFolderByID() error = %v", err)
	}
	if found.Title != "Work" || found.Description != "day job" {
		t.Errorf("round trip mismatch: %+v", found)
	}
	if found.ParentID != nil {
		t.Errorf("ParentID = %v, want nil for root folder", *found.ParentID)
	}
}

func TestGetFolderByID_WrongOwnerReportsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "fowner@example.com")
	other := createTestUser(t, db, "fother@example.com")
	folder := createTestFolder(t, db, owner.ID, "mine", nil)

	_, err := db.GetFolderByID(context.Background(), folder.ID, other.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetFolderByID() with wrong owner error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListFoldersByOwner(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "falice@example.com")
	bob := createTestUser(t, db, "fbob@example.com")

	root := createTestFolder(t, db, alice.ID, "root", nil)
	createTestFolder(t, db, alice.ID, "child", &root.ID)
	createTestFolder(t, db, bob.ID, "bobs", nil)

	folders, err := db.ListFoldersByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListFoldersByOwner() error = %v", err)
	}
	if len(folders) != 2 {
		t.Fatalf("ListFoldersByOwner() returned %d folders, want 2", len(folders))
	}
}

func TestListFoldersByParent(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "fparent@example.com")

	root := createTestFolder(t, db, user.ID, "root", nil)
	childA := createTestFolder(t, db, user.ID, "a", &root.ID)
	createTestFolder(t, db, user.ID, "b", &root.ID)
	createTestFolder(t, db, user.ID, "grandchild", &childA.ID)

	children, err := db.ListFoldersByParent(context.Background(), root.ID)
	if err != nil {
		t.Fatalf("ListFoldersByParent() error = %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("ListFoldersByParent() returned %d folders, want 2 direct children", len(children))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUpdateFolder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "fupdate@example.com")
	folder := createTestFolder(t, db, user.ID, "before", nil)
	newParent := createTestFolder(t, db, user.ID, "parent", nil)

	folder.Title = "after"
	folder.ParentID = &newParent.ID
	if err := db.UpdateFolder(context.Background(), folder); err != nil {
		t.Fatalf("UpdateFolder() error = %v", err)
	}

	found, err := db.GetFolderByID(context.Background(), folder.ID, user.ID)
	if err != nil {
		t.Fatalf("GetFolderByID() error = %v", err)
	}
	if found.Title != "after" {
		t.Errorf("Title = %q, want %q", found.Title, "after")
	}
	if found.ParentID == nil || *found.ParentID != newParent.ID {
		t.Errorf("ParentID = %v, want %s", found.ParentID, newParent.ID)
	}
}

// =========================================================================
// CASCADE TESTS
// =========================================================================

// Deleting a folder takes the whole subtree with it: child folders through
// the self-referencing foreign key, snippets through folder_id. All of it
// rides on PRAGMA foreign_keys=ON, so this test guards the pragma as much
// as the schema.
func TestDeleteFolder_CascadesToSubtree(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "cascade@example.com")

	work := createTestFolder(t, db, user.ID, "Work", nil)
	sub := createTestFolder(t, db, user.ID, "Sub", &work.ID)

	hello := &model.Snippet{
		UserID:     user.ID,
		Title:      "hello.js",
		Visibility: model.VisibilityPrivate,
		Language:   "javascript",
		Content:    "console.log('hi')",
		FolderID:   &sub.ID,
	}
	if err := db.Create(context.Background(), hello); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loose := createTestSnippet(t, db, user.ID, "loose", "x") // not in any folder

	if err := db.DeleteFolder(context.Background(), work.ID, user.ID); err != nil {
		t.Fatalf("DeleteFolder() error = %v", err)
	}

	if _, err := db.GetFolderByID(context.Background(), sub.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("child folder survived the cascade: err = %v", err)
	}
	if _, err := db.GetByID(context.Background(), hello.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("nested snippet survived the cascade: err = %v", err)
	}
	if _, err := db.GetByID(context.Background(), loose.ID, user.ID); err != nil {
		t.Errorf("unrelated snippet was caught in the cascade: err = %v", err)
	}
}

func TestDeleteFolder_WrongOwnerReportsNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "downer@example.com")
	other := createTestUser(t, db, "dother@example.com")
	folder := createTestFolder(t, db, owner.ID, "keep", nil)

	if err := db.DeleteFolder(context.Background(), folder.ID, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteFolder() with wrong owner error = %v, want ErrNotFound", err)
	}

	if _, err := db.GetFolderByID(context.Background(), folder.ID, owner.ID); err != nil {
		t.Errorf("folder was deleted by a non-owner: err = %v", err)
	}
}
