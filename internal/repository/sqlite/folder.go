package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
	"github.com/sakif/snippethub/internal/repository"
)

var _ repository.FolderRepository = (*DB)(nil)

const folderColumns = `id, user_id, title, visibility, description, parent_id,
	created_at, updated_at`

func scanFolder(scan func(dest ...any) error) (*model.Folder, error) {
	var (
		f        model.Folder
		parentID sql.NullString
	)
	err := scan(
		&f.ID, &f.UserID, &f.Title, &f.Visibility, &f.Description,
		&parentID, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		f.ParentID = &parentID.String
	}
	return &f, nil
}

func collectFolders(rows *sql.Rows) ([]model.Folder, error) {
	folders := []model.Folder{}
	for rows.Next() {
		f, err := scanFolder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning folder row: %w", err)
		}
		folders = append(folders, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folders: %w", err)
	}
	return folders, nil
}

// CreateFolder inserts a new folder. ID and timestamps are assigned here and
// written back into the caller's struct.
func (db *DB) CreateFolder(ctx context.Context, folder *model.Folder) error {
	folder.ID = xid.New().String()

	now := time.Now()
	folder.CreatedAt = now
	folder.UpdatedAt = now

	var parentID any // nil → NULL, a root folder
	if folder.ParentID != nil {
		parentID = *folder.ParentID
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO folders (id, user_id, title, visibility, description,
		 parent_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		folder.ID,
		folder.UserID,
		folder.Title,
		folder.Visibility,
		folder.Description,
		parentID,
		folder.CreatedAt,
		folder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating folder: %w", err)
	}

	return nil
}

// GetFolderByID retrieves a folder owned by ownerID.
func (db *DB) GetFolderByID(ctx context.Context, id, ownerID string) (*model.Folder, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+folderColumns+` FROM folders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	f, err := scanFolder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("folder", id)
		}
		return nil, fmt.Errorf("sqlite: getting folder %s: %w", id, err)
	}
	return f, nil
}

// ListFoldersByOwner returns every folder belonging to ownerID.
func (db *DB) ListFoldersByOwner(ctx context.Context, ownerID string) ([]model.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders
		 WHERE user_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing folders: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// ListFoldersByParent returns the direct children of a folder. The tree is
// assembled one level at a time from flat rows — there is no recursive
// traversal in the application.
func (db *DB) ListFoldersByParent(ctx context.Context, parentID string) ([]model.Folder, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+folderColumns+` FROM folders
		 WHERE parent_id = ? ORDER BY created_at DESC`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing child folders: %w", err)
	}
	defer rows.Close()

	return collectFolders(rows)
}

// UpdateFolder writes the mutable fields of an existing folder, overwriting
// updated_at with the current time. Ownership is part of the WHERE clause.
func (db *DB) UpdateFolder(ctx context.Context, folder *model.Folder) error {
	folder.UpdatedAt = time.Now()

	var parentID any
	if folder.ParentID != nil {
		parentID = *folder.ParentID
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE folders
		 SET title = ?, visibility = ?, description = ?, parent_id = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		folder.Title,
		folder.Visibility,
		folder.Description,
		parentID,
		folder.UpdatedAt,
		folder.ID,
		folder.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating folder %s: %w", folder.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("folder", folder.ID)
	}

	return nil
}

// DeleteFolder removes a folder owned by ownerID. Child folders and every
// snippet in the subtree disappear with it — the ON DELETE CASCADE rules on
// folders.parent_id and snippets.folder_id do the recursion, not this code.
func (db *DB) DeleteFolder(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM folders WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting folder %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("folder", id)
	}

	return nil
}
