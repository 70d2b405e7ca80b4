package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
	"github.com/sakif/snippethub/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, user_id, title, visibility, language, description,
	content, folder_id, tags, starred, created_at, updated_at`

// encodeTags serializes the tag list as a JSON text array — SQLite has no
// native array type. A nil slice is stored as "[]" so scans never see NULL.
func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(b), nil
}

// scanSnippet reads one row into a Snippet. The scanner interface is
// satisfied by both *sql.Row and *sql.Rows, so every SELECT in this file
// shares this function.
func scanSnippet(scan func(dest ...any) error) (*model.Snippet, error) {
	var (
		s        model.Snippet
		folderID sql.NullString
		tagsJSON string
	)
	err := scan(
		&s.ID, &s.UserID, &s.Title, &s.Visibility, &s.Language,
		&s.Description, &s.Content, &folderID, &tagsJSON, &s.Starred,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if folderID.Valid {
		s.FolderID = &folderID.String
	}
	if err := json.Unmarshal([]byte(tagsJSON), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	return &s, nil
}

// collectSnippets drains a result set. Always closes rows via the caller's
// defer; checks rows.Err() to catch mid-iteration failures.
func collectSnippets(rows *sql.Rows) ([]model.Snippet, error) {
	snippets := []model.Snippet{}
	for rows.Next() {
		s, err := scanSnippet(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snippets: %w", err)
	}
	return snippets, nil
}

// Create inserts a new snippet. The generated ID and the server-assigned
// timestamps are written back into the caller's struct.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()

	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	tagsJSON, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	var folderID any // nil → NULL
	if snippet.FolderID != nil {
		folderID = *snippet.FolderID
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (id, user_id, title, visibility, language,
		 description, content, folder_id, tags, starred, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.UserID,
		snippet.Title,
		snippet.Visibility,
		snippet.Language,
		snippet.Description,
		snippet.Content,
		folderID,
		tagsJSON,
		snippet.Starred,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a snippet owned by ownerID. A row owned by someone else
// is indistinguishable from a missing one — both return NotFound.
func (db *DB) GetByID(ctx context.Context, id, ownerID string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	s, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return s, nil
}

// ListByOwner returns all snippets belonging to ownerID, newest first.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE user_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListByFolder returns all snippets inside the given folder.
func (db *DB) ListByFolder(ctx context.Context, folderID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE folder_id = ? ORDER BY created_at DESC`,
		folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing folder snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// ListStarred returns the owner's starred snippets, newest first.
func (db *DB) ListStarred(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE user_id = ? AND starred = 1 ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing starred snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// GetPublic retrieves a snippet only if its visibility is "public".
// Used for anonymous access — no owner filter, visibility is the gate.
func (db *DB) GetPublic(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE id = ? AND visibility = ?`,
		id, model.VisibilityPublic,
	)

	s, err := scanSnippet(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting public snippet %s: %w", id, err)
	}
	return s, nil
}

// IsPublic reports whether the snippet exists and is public. A missing row
// collapses to (false, nil) — callers use this as a cheap access check
// before serving content to anonymous requests, and "doesn't exist" and
// "not public" should look the same from outside.
func (db *DB) IsPublic(ctx context.Context, id string) (bool, error) {
	var visibility string
	err := db.conn.QueryRowContext(ctx,
		`SELECT visibility FROM snippets WHERE id = ?`, id,
	).Scan(&visibility)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("sqlite: checking snippet visibility %s: %w", id, err)
	}
	return visibility == model.VisibilityPublic, nil
}

// SearchPublic returns public snippets whose title contains query.
//
// instr() rather than LIKE: SQLite's LIKE is case-insensitive for ASCII and
// treats % and _ as metacharacters. The contract is a plain case-sensitive
// substring match, which is exactly what instr gives us.
func (db *DB) SearchPublic(ctx context.Context, query string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets
		 WHERE visibility = ? AND instr(title, ?) > 0
		 ORDER BY created_at DESC`,
		model.VisibilityPublic, query,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching snippets: %w", err)
	}
	defer rows.Close()

	return collectSnippets(rows)
}

// Update writes the mutable fields of an existing snippet. updated_at is
// overwritten with the current time here regardless of what the struct
// carries — the caller never controls timestamps.
//
// The WHERE clause filters on both id and user_id, so updating someone
// else's snippet reports NotFound just like updating a missing one.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now()

	tagsJSON, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	var folderID any
	if snippet.FolderID != nil {
		folderID = *snippet.FolderID
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, visibility = ?, language = ?, description = ?,
		     content = ?, folder_id = ?, tags = ?, starred = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		snippet.Title,
		snippet.Visibility,
		snippet.Language,
		snippet.Description,
		snippet.Content,
		folderID,
		tagsJSON,
		snippet.Starred,
		snippet.UpdatedAt,
		snippet.ID,
		snippet.UserID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	return nil
}

// Delete removes a snippet owned by ownerID.
func (db *DB) Delete(ctx context.Context, id, ownerID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// SetStarred flips the starred flag on a snippet owned by ownerID.
// Concurrent toggles are last-write-wins; no locking beyond the statement.
func (db *DB) SetStarred(ctx context.Context, id, ownerID string, starred bool) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET starred = ?, updated_at = ?
		 WHERE id = ? AND user_id = ?`,
		starred, time.Now(), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: starring snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	return nil
}
