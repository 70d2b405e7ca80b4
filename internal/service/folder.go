package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
	"github.com/sakif/snippethub/internal/repository"
	"github.com/sakif/snippethub/internal/validation"
)

// maxFolderDepth bounds the ancestor walk in the cycle check. Nothing in
// the UI nests anywhere near this deep; hitting the cap means the parent
// chain is corrupt.
const maxFolderDepth = 100

// FolderService handles the folder procedures.
type FolderService struct {
	folders  repository.FolderRepository
	validate *validation.Validator
	logger   *slog.Logger
}

// NewFolderService creates a FolderService.
func NewFolderService(folders repository.FolderRepository, logger *slog.Logger) *FolderService {
	return &FolderService{
		folders:  folders,
		validate: validation.New(),
		logger:   logger,
	}
}

// CreateFolderInput is the strict input shape for folders.create.
// ParentID of "" or the literal "none" means a root folder.
type CreateFolderInput struct {
	Title       string `json:"title"       validate:"max=200"`
	Visibility  string `json:"visibility"  validate:"omitempty,oneof=private public"`
	Description string `json:"description" validate:"max=2000"`
	ParentID    string `json:"parentId"`
}

// UpdateFolderInput is the partial shape for folders.update.
type UpdateFolderInput struct {
	ID          string  `json:"id"          validate:"required"`
	Title       *string `json:"title"       validate:"omitempty,max=200"`
	Visibility  *string `json:"visibility"  validate:"omitempty,oneof=private public"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	ParentID    *string `json:"parentId"`
}

// Create validates and saves a new folder for ownerID. A referenced parent
// must exist and belong to the caller.
func (s *FolderService) Create(ctx context.Context, ownerID string, in CreateFolderInput) (*model.Folder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultTitle
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}

	parentID := normalizeFolderRef(in.ParentID)
	if parentID != nil {
		if _, err := s.folders.GetFolderByID(ctx, *parentID, ownerID); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				return nil, apperror.ValidationFailed("parentId",
					fmt.Sprintf("parent folder %s does not exist", *parentID))
			}
			return nil, err
		}
	}

	folder := &model.Folder{
		UserID:      ownerID,
		Title:       title,
		Visibility:  visibility,
		Description: strings.TrimSpace(in.Description),
		ParentID:    parentID,
	}

	if err := s.folders.CreateFolder(ctx, folder); err != nil {
		s.logger.Error("failed to create folder",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.logger.Info("folder created",
		slog.String("id", folder.ID),
		slog.String("userID", ownerID),
	)

	return folder, nil
}

// GetByID retrieves one of the caller's folders.
func (s *FolderService) GetByID(ctx context.Context, id, ownerID string) (*model.Folder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "folder id is required")
	}
	return s.folders.GetFolderByID(ctx, id, ownerID)
}

// ListByOwner returns all of the caller's folders as a flat list; the
// front-end assembles the tree from parentId references.
func (s *FolderService) ListByOwner(ctx context.Context, ownerID string) ([]model.Folder, error) {
	folders, err := s.folders.ListFoldersByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list folders", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	return folders, nil
}

// Children returns the direct child folders of one of the caller's folders.
func (s *FolderService) Children(ctx context.Context, id, ownerID string) ([]model.Folder, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "folder id is required")
	}

	if _, err := s.folders.GetFolderByID(ctx, id, ownerID); err != nil {
		return nil, err
	}

	children, err := s.folders.ListFoldersByParent(ctx, id)
	if err != nil {
		s.logger.Error("failed to list child folders", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing child folders: %w", err)
	}
	return children, nil
}

// Update applies a partial update to one of the caller's folders.
//
// Moving a folder re-checks the parent chain: the new parent must exist, be
// owned by the caller, and must not sit inside the folder being moved.
// Without that last check a cycle would orphan the whole subtree — nothing
// in storage prevents it, and a cycled chain makes the cascade rules
// undefined.
func (s *FolderService) Update(ctx context.Context, ownerID string, in UpdateFolderInput) (*model.Folder, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	folder, err := s.folders.GetFolderByID(ctx, in.ID, ownerID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			title = defaultTitle
		}
		folder.Title = title
	}
	if in.Visibility != nil {
		folder.Visibility = *in.Visibility
	}
	if in.Description != nil {
		folder.Description = strings.TrimSpace(*in.Description)
	}
	if in.ParentID != nil {
		parentID := normalizeFolderRef(*in.ParentID)
		if parentID != nil {
			if err := s.checkNoCycle(ctx, folder.ID, *parentID, ownerID); err != nil {
				return nil, err
			}
		}
		folder.ParentID = parentID
	}

	if err := s.folders.UpdateFolder(ctx, folder); err != nil {
		s.logger.Error("failed to update folder",
			slog.String("id", in.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating folder: %w", err)
	}

	s.logger.Info("folder updated", slog.String("id", folder.ID))
	return folder, nil
}

// Delete removes one of the caller's folders. Child folders and contained
// snippets are removed by the storage cascade, recursively.
func (s *FolderService) Delete(ctx context.Context, id, ownerID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "folder id is required")
	}

	if err := s.folders.DeleteFolder(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info("folder deleted", slog.String("id", id))
	return nil
}

// checkNoCycle walks up from newParentID and rejects the move if the chain
// reaches folderID (the folder being moved) — i.e. the new parent is the
// folder itself or one of its descendants. Also verifies the new parent
// exists and is owned by the caller, since the walk starts by fetching it.
func (s *FolderService) checkNoCycle(ctx context.Context, folderID, newParentID, ownerID string) error {
	current := newParentID
	for depth := 0; depth < maxFolderDepth; depth++ {
		if current == folderID {
			return apperror.ValidationFailed("parentId",
				"a folder cannot be moved inside itself or its descendants")
		}

		parent, err := s.folders.GetFolderByID(ctx, current, ownerID)
		if err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				if current == newParentID {
					return apperror.ValidationFailed("parentId",
						fmt.Sprintf("parent folder %s does not exist", newParentID))
				}
				// A broken chain above the parent is storage corruption,
				// not caller error; treat the chain as ended.
				return nil
			}
			return err
		}

		if parent.ParentID == nil {
			return nil // reached a root folder, no cycle
		}
		current = *parent.ParentID
	}

	return apperror.ValidationFailed("parentId", "folder hierarchy is too deep")
}
