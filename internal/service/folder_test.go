package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
)

func newTestFolderService() (*FolderService, *mockFolderRepo) {
	folders := newMockFolderRepo()
	return NewFolderService(folders, testLogger()), folders
}

// mustCreateFolder is a shortcut for tests that need an existing tree.
func mustCreateFolder(t *testing.T, svc *FolderService, ownerID, title, parentID string) *model.Folder {
	t.Helper()
	folder, err := svc.Create(context.Background(), ownerID, CreateFolderInput{
		Title:    title,
		ParentID: parentID,
	})
	if err != nil {
		t.Fatalf("creating folder %q: %v", title, err)
	}
	return folder
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestFolderCreate_AppliesDefaults(t *testing.T) {
	svc, _ := newTestFolderService()

	folder, err := svc.Create(context.Background(), "user-1", CreateFolderInput{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if folder.Title != "untitled" {
		t.Errorf("Title = %q, want %q", folder.Title, "untitled")
	}
	if folder.Visibility != model.VisibilityPrivate {
		t.Errorf("Visibility = %q, want %q", folder.Visibility, model.VisibilityPrivate)
	}
	if folder.ParentID != nil {
		t.Errorf("ParentID = %v, want nil", *folder.ParentID)
	}
}

func TestFolderCreate_RejectsMissingParent(t *testing.T) {
	svc, _ := newTestFolderService()

	_, err := svc.Create(context.Background(), "user-1", CreateFolderInput{
		Title:    "orphan",
		ParentID: "no-such-folder",
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() with missing parent error = %v, want ErrValidation", err)
	}
}

func TestFolderCreate_RejectsForeignParent(t *testing.T) {
	svc, _ := newTestFolderService()
	theirs := mustCreateFolder(t, svc, "user-2", "theirs", "")

	_, err := svc.Create(context.Background(), "user-1", CreateFolderInput{
		Title:    "intruder",
		ParentID: theirs.ID,
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Create() under a foreign parent error = %v, want ErrValidation", err)
	}
}

func TestFolderCreate_Nested(t *testing.T) {
	svc, _ := newTestFolderService()

	root := mustCreateFolder(t, svc, "user-1", "root", "")
	child := mustCreateFolder(t, svc, "user-1", "child", root.ID)

	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("ParentID = %v, want %s", child.ParentID, root.ID)
	}
}

// =========================================================================
// MOVE / CYCLE TESTS
// =========================================================================

func TestFolderUpdate_MoveBetweenParents(t *testing.T) {
	svc, _ := newTestFolderService()

	a := mustCreateFolder(t, svc, "user-1", "a", "")
	b := mustCreateFolder(t, svc, "user-1", "b", "")
	child := mustCreateFolder(t, svc, "user-1", "child", a.ID)

	moved, err := svc.Update(context.Background(), "user-1", UpdateFolderInput{
		ID:       child.ID,
		ParentID: strPtr(b.ID),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != b.ID {
		t.Errorf("ParentID = %v, want %s", moved.ParentID, b.ID)
	}
}

func TestFolderUpdate_MoveToRoot(t *testing.T) {
	svc, _ := newTestFolderService()

	root := mustCreateFolder(t, svc, "user-1", "root", "")
	child := mustCreateFolder(t, svc, "user-1", "child", root.ID)

	moved, err := svc.Update(context.Background(), "user-1", UpdateFolderInput{
		ID:       child.ID,
		ParentID: strPtr("none"),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("ParentID = %v, want nil after move to root", *moved.ParentID)
	}
}

func TestFolderUpdate_RejectsSelfAsParent(t *testing.T) {
	svc, _ := newTestFolderService()
	folder := mustCreateFolder(t, svc, "user-1", "loop", "")

	_, err := svc.Update(context.Background(), "user-1", UpdateFolderInput{
		ID:       folder.ID,
		ParentID: strPtr(folder.ID),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() with self as parent error = %v, want ErrValidation", err)
	}
}

func TestFolderUpdate_RejectsDescendantAsParent(t *testing.T) {
	svc, _ := newTestFolderService()

	root := mustCreateFolder(t, svc, "user-1", "root", "")
	child := mustCreateFolder(t, svc, "user-1", "child", root.ID)
	grandchild := mustCreateFolder(t, svc, "user-1", "grandchild", child.ID)

	// Moving root under its own grandchild would cycle the chain.
	_, err := svc.Update(context.Background(), "user-1", UpdateFolderInput{
		ID:       root.ID,
		ParentID: strPtr(grandchild.ID),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() into own subtree error = %v, want ErrValidation", err)
	}
}

func TestFolderUpdate_RejectsMissingParent(t *testing.T) {
	svc, _ := newTestFolderService()
	folder := mustCreateFolder(t, svc, "user-1", "f", "")

	_, err := svc.Update(context.Background(), "user-1", UpdateFolderInput{
		ID:       folder.ID,
		ParentID: strPtr("no-such-folder"),
	})
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("Update() with missing parent error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// CHILDREN / DELETE TESTS
// =========================================================================

func TestFolderChildren(t *testing.T) {
	svc, _ := newTestFolderService()

	root := mustCreateFolder(t, svc, "user-1", "root", "")
	mustCreateFolder(t, svc, "user-1", "a", root.ID)
	mustCreateFolder(t, svc, "user-1", "b", root.ID)

	children, err := svc.Children(context.Background(), root.ID, "user-1")
	if err != nil {
		t.Fatalf("Children() error = %v", err)
	}
	if len(children) != 2 {
		t.Errorf("Children() returned %d folders, want 2", len(children))
	}
}

func TestFolderChildren_ForeignFolderReportsNotFound(t *testing.T) {
	svc, _ := newTestFolderService()
	theirs := mustCreateFolder(t, svc, "user-2", "theirs", "")

	_, err := svc.Children(context.Background(), theirs.ID, "user-1")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Children() on a foreign folder error = %v, want ErrNotFound", err)
	}
}

func TestFolderDelete_ForeignFolderReportsNotFound(t *testing.T) {
	svc, repo := newTestFolderService()
	theirs := mustCreateFolder(t, svc, "user-2", "theirs", "")

	if err := svc.Delete(context.Background(), theirs.ID, "user-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() on a foreign folder error = %v, want ErrNotFound", err)
	}
	if _, ok := repo.folders[theirs.ID]; !ok {
		t.Error("Delete() by non-owner removed the folder")
	}
}
