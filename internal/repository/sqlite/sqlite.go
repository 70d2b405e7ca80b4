// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere
// Go works.
//
// Cascading deletes are the load-bearing part of this schema: deleting a
// user removes their sessions, accounts, folders and snippets; deleting a
// folder removes its child folders (recursively, via the self-referencing
// foreign key) and every snippet inside the subtree. None of that is
// application code — it all rides on PRAGMA foreign_keys=ON.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import: the driver registers itself with database/sql under the
	// name "sqlite" in its init function.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface. One struct for all of them keeps the wiring in server.New
// trivial — the services each receive the interface slice they need.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
// Use ":memory:" in tests for a throwaway database.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Force an immediate connection so a bad path fails here, not on the
	// first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL allows concurrent reads while a write is in progress — required
	// for a web server sharing one database file across requests.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Everything about ownership
	// and folder cascades depends on them being on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool. Defer this wherever New is called.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates all tables. CREATE TABLE IF NOT EXISTS keeps this safe to
// run on every start; a real multi-version deployment would use a migration
// tool that tracks applied versions.
func (db *DB) migrate() error {
	// Identity and credential tables. The layout follows the usual hosted
	// auth-provider schema: identity in user, credentials in account,
	// server-side sessions in session, single-use values in verification.
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS user (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			email          TEXT NOT NULL UNIQUE,
			email_verified INTEGER NOT NULL DEFAULT 0,
			image          TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL,
			updated_at     DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS session (
			id         TEXT PRIMARY KEY,
			token      TEXT NOT NULL UNIQUE,
			user_id    TEXT NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			expires_at DATETIME NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_session_user_id ON session(user_id);

		CREATE TABLE IF NOT EXISTS account (
			id          TEXT PRIMARY KEY,
			account_id  TEXT NOT NULL,
			provider_id TEXT NOT NULL,
			user_id     TEXT NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			password    TEXT NOT NULL DEFAULT '',
			scope       TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL,
			UNIQUE(provider_id, account_id)
		);
		CREATE INDEX IF NOT EXISTS idx_account_user_id ON account(user_id);

		CREATE TABLE IF NOT EXISTS verification (
			id         TEXT PRIMARY KEY,
			identifier TEXT NOT NULL,
			value      TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_verification_value ON verification(identifier, value);
	`)
	if err != nil {
		return fmt.Errorf("creating auth tables: %w", err)
	}

	// Content tables. folders.parent_id references folders.id with cascade,
	// so deleting a folder deletes the entire subtree below it; snippets
	// cascade off both their owner and their containing folder.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS folders (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			title       TEXT NOT NULL DEFAULT 'untitled',
			visibility  TEXT NOT NULL DEFAULT 'private',
			description TEXT NOT NULL DEFAULT '',
			parent_id   TEXT REFERENCES folders(id) ON DELETE CASCADE,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id);
		CREATE INDEX IF NOT EXISTS idx_folders_parent_id ON folders(parent_id);

		CREATE TABLE IF NOT EXISTS snippets (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL REFERENCES user(id) ON DELETE CASCADE,
			title       TEXT NOT NULL DEFAULT 'untitled',
			visibility  TEXT NOT NULL DEFAULT 'private',
			language    TEXT NOT NULL DEFAULT 'plaintext',
			description TEXT NOT NULL DEFAULT '',
			content     TEXT NOT NULL,
			folder_id   TEXT REFERENCES folders(id) ON DELETE CASCADE,
			tags        TEXT NOT NULL DEFAULT '[]',
			starred     INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snippets_user_id ON snippets(user_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_folder_id ON snippets(folder_id);
		CREATE INDEX IF NOT EXISTS idx_snippets_visibility ON snippets(visibility);
	`)
	if err != nil {
		return fmt.Errorf("creating content tables: %w", err)
	}

	return nil
}
