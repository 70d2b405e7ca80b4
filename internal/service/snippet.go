// Package service contains the business logic layer of the application.
//
// Each exported method is one procedure: it validates and shapes caller
// input, calls exactly one repository operation (plus at most one cheap
// existence check), and returns the result unchanged. No procedure spans
// multiple storage writes, so there are no transactions to manage here.
//
// Services receive repository interfaces, not *sqlite.DB — tests swap in
// in-memory mocks and the services never notice.
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

// Validation limits. Content is capped at ~100KB of code.
const (
	MaxTitleLength   = 200
	MaxContentLength = 100000
)

const (
	defaultTitle    = "untitled"
	defaultLanguage = "plaintext"
)

// SnippetService handles the snippet procedures. It also holds the folder
// repository so folder references on snippets can be checked for ownership
// before a row is written.
type SnippetService struct {
	snippets repository.SnippetRepository
	folders  repository.FolderRepository
	validate *validation.Validator
	logger   *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(
	snippets repository.SnippetRepository,
	folders repository.FolderRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets: snippets,
		folders:  folders,
		validate: validation.New(),
		logger:   logger,
	}
}

// CreateSnippetInput is the strict input shape for snippets.create.
// Tags arrive as a comma-separated string and are parsed server-side;
// any client-supplied id or timestamps are simply not part of the shape.
type CreateSnippetInput struct {
	Title       string `json:"title"       validate:"max=200"`
	Content     string `json:"content"     validate:"required,max=100000"`
	Language    string `json:"language"    validate:"max=50"`
	Description string `json:"description" validate:"max=2000"`
	Visibility  string `json:"visibility"  validate:"omitempty,oneof=private public"`
	FolderID    string `json:"folderId"`
	Tags        string `json:"tags"`
}

// UpdateSnippetInput is the partial shape for snippets.update. Pointer
// fields distinguish "absent" from "set to zero value"; created/updated
// timestamps are never accepted from the caller.
type UpdateSnippetInput struct {
	ID          string  `json:"id"          validate:"required"`
	Title       *string `json:"title"       validate:"omitempty,max=200"`
	Content     *string `json:"content"     validate:"omitempty,max=100000"`
	Language    *string `json:"language"    validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Visibility  *string `json:"visibility"  validate:"omitempty,oneof=private public"`
	FolderID    *string `json:"folderId"`
	Tags        *string `json:"tags"`
}

// parseTags splits a comma-separated tag string into an ordered list,
// trimming whitespace and dropping empty entries. "go,,web , cli" becomes
// ["go", "web", "cli"].
func parseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// normalizeFolderRef maps the client's folder reference to a nullable id.
// Both the empty string and the literal "none" mean "no folder".
func normalizeFolderRef(ref string) *string {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "none" {
		return nil
	}
	return &ref
}

// checkFolderOwned verifies the referenced folder exists and belongs to
// ownerID. A missing or foreign folder is the caller's mistake, so the
// NotFound from the repository is reshaped into a validation failure.
func (s *SnippetService) checkFolderOwned(ctx context.Context, folderID, ownerID string) error {
	_, err := s.folders.GetFolderByID(ctx, folderID, ownerID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.ValidationFailed("folderId",
				fmt.Sprintf("folder %s does not exist", folderID))
		}
		return err
	}
	return nil
}

// Create validates and saves a new snippet for ownerID.
//
// Defaults applied when absent: title "untitled", language "plaintext",
// visibility "private". Content is required — an empty body is rejected
// before any default is considered and before storage is touched.
func (s *SnippetService) Create(ctx context.Context, ownerID string, in CreateSnippetInput) (*model.Snippet, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = defaultTitle
	}
	language := strings.TrimSpace(in.Language)
	if language == "" {
		language = defaultLanguage
	}
	visibility := in.Visibility
	if visibility == "" {
		visibility = model.VisibilityPrivate
	}

	folderID := normalizeFolderRef(in.FolderID)
	if folderID != nil {
		if err := s.checkFolderOwned(ctx, *folderID, ownerID); err != nil {
			return nil, err
		}
	}

	snippet := &model.Snippet{
		UserID:      ownerID,
		Title:       title,
		Visibility:  visibility,
		Language:    language,
		Description: strings.TrimSpace(in.Description),
		Content:     in.Content,
		FolderID:    folderID,
		Tags:        parseTags(in.Tags),
	}

	if err := s.snippets.Create(ctx, snippet); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("userID", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("userID", ownerID),
	)

	return snippet, nil
}

// GetByID retrieves one of the caller's own snippets.
func (s *SnippetService) GetByID(ctx context.Context, id, ownerID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet id is required")
	}
	return s.snippets.GetByID(ctx, id, ownerID)
}

// ListByOwner returns all of the caller's snippets.
func (s *SnippetService) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing snippets: %w", err)
	}
	return snippets, nil
}

// ListByFolder returns the snippets inside one of the caller's folders.
func (s *SnippetService) ListByFolder(ctx context.Context, folderID, ownerID string) ([]model.Snippet, error) {
	folderID = strings.TrimSpace(folderID)
	if folderID == "" {
		return nil, apperror.ValidationFailed("folderId", "folder id is required")
	}

	// Confirms both existence and ownership before listing.
	if _, err := s.folders.GetFolderByID(ctx, folderID, ownerID); err != nil {
		return nil, err
	}

	snippets, err := s.snippets.ListByFolder(ctx, folderID)
	if err != nil {
		s.logger.Error("failed to list folder snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing folder snippets: %w", err)
	}
	return snippets, nil
}

// ListStarred returns the caller's starred snippets.
func (s *SnippetService) ListStarred(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	snippets, err := s.snippets.ListStarred(ctx, ownerID)
	if err != nil {
		s.logger.Error("failed to list starred snippets", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing starred snippets: %w", err)
	}
	return snippets, nil
}

// GetPublic retrieves a public snippet for an anonymous caller. Private and
// missing snippets both report NotFound.
func (s *SnippetService) GetPublic(ctx context.Context, id string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet id is required")
	}
	return s.snippets.GetPublic(ctx, id)
}

// Visibility reports whether a snippet may be rendered anonymously.
// A missing snippet is simply "not public" — false, not an error.
func (s *SnippetService) Visibility(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, apperror.ValidationFailed("id", "snippet id is required")
	}

	public, err := s.snippets.IsPublic(ctx, id)
	if err != nil {
		s.logger.Error("failed to check snippet visibility",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("checking snippet visibility: %w", err)
	}
	return public, nil
}

// SearchPublic returns public snippets whose title contains query as a
// case-sensitive substring. An empty query returns an empty list without
// touching storage rather than erroring (or matching everything).
func (s *SnippetService) SearchPublic(ctx context.Context, query string) ([]model.Snippet, error) {
	if strings.TrimSpace(query) == "" {
		return []model.Snippet{}, nil
	}

	snippets, err := s.snippets.SearchPublic(ctx, query)
	if err != nil {
		s.logger.Error("search failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("searching snippets: %w", err)
	}
	return snippets, nil
}

// Update applies a partial update to one of the caller's snippets.
//
// Fetch-then-update: the existing row (already ownership-filtered) is the
// base, set fields overwrite it, and the repository refreshes updated_at.
func (s *SnippetService) Update(ctx context.Context, ownerID string, in UpdateSnippetInput) (*model.Snippet, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}

	snippet, err := s.snippets.GetByID(ctx, in.ID, ownerID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			title = defaultTitle
		}
		snippet.Title = title
	}
	if in.Content != nil {
		if *in.Content == "" {
			return nil, apperror.ValidationFailed("content", "content cannot be emptied")
		}
		snippet.Content = *in.Content
	}
	if in.Language != nil {
		language := strings.TrimSpace(*in.Language)
		if language == "" {
			language = defaultLanguage
		}
		snippet.Language = language
	}
	if in.Description != nil {
		snippet.Description = strings.TrimSpace(*in.Description)
	}
	if in.Visibility != nil {
		snippet.Visibility = *in.Visibility
	}
	if in.FolderID != nil {
		folderID := normalizeFolderRef(*in.FolderID)
		if folderID != nil {
			if err := s.checkFolderOwned(ctx, *folderID, ownerID); err != nil {
				return nil, err
			}
		}
		snippet.FolderID = folderID
	}
	if in.Tags != nil {
		snippet.Tags = parseTags(*in.Tags)
	}

	if err := s.snippets.Update(ctx, snippet); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", in.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", snippet.ID))
	return snippet, nil
}

// Delete removes one of the caller's snippets.
func (s *SnippetService) Delete(ctx context.Context, id, ownerID string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet id is required")
	}

	if err := s.snippets.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// Star sets or clears the starred flag on one of the caller's snippets.
// Starring someone else's snippet reports NotFound, same as a missing id.
func (s *SnippetService) Star(ctx context.Context, id, ownerID string, starred bool) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "snippet id is required")
	}

	if err := s.snippets.SetStarred(ctx, id, ownerID, starred); err != nil {
		return err
	}

	s.logger.Info("snippet star toggled",
		slog.String("id", id),
		slog.Bool("starred", starred),
	)
	return nil
}
