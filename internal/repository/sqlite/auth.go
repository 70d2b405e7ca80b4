package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
	"github.com/sakif/snippethub/internal/repository"
)

var (
	_ repository.UserRepository = (*DB)(nil)
	_ repository.AuthRepository = (*DB)(nil)
)

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes no typed error for this, so we match
// the message the engine produces.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new user. Duplicate emails surface as a Conflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO user (id, name, email, email_verified, image, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.EmailVerified,
		user.Image,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, email_verified, image, created_at, updated_at
		 FROM user WHERE id = ?`,
		id,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}

	return &u, nil
}

// GetUserByEmail retrieves a user by their unique email address.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, email, email_verified, image, created_at, updated_at
		 FROM user WHERE email = ?`,
		email,
	).Scan(
		&u.ID, &u.Name, &u.Email, &u.EmailVerified, &u.Image,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// UpdateUser writes a user's profile fields (name, email flags, avatar).
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE user SET name = ?, email = ?, email_verified = ?, image = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.EmailVerified,
		user.Image,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// CreateAccount links an authentication method to a user. The UNIQUE
// (provider_id, account_id) constraint guarantees one row per external
// identity.
func (db *DB) CreateAccount(ctx context.Context, account *model.Account) error {
	account.ID = xid.New().String()

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO account (id, account_id, provider_id, user_id, password,
		 scope, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.AccountID,
		account.ProviderID,
		account.UserID,
		account.Password,
		account.Scope,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("account", account.AccountID)
		}
		return fmt.Errorf("sqlite: inserting account: %w", err)
	}

	return nil
}

// GetAccountByProvider looks up an account by its external identity, e.g.
// ("google", "<google subject id>") or ("credential", "<email>").
func (db *DB) GetAccountByProvider(ctx context.Context, providerID, accountID string) (*model.Account, error) {
	var a model.Account

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, account_id, provider_id, user_id, password, scope, created_at, updated_at
		 FROM account WHERE provider_id = ? AND account_id = ?`,
		providerID, accountID,
	).Scan(
		&a.ID, &a.AccountID, &a.ProviderID, &a.UserID, &a.Password, &a.Scope,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", accountID)
		}
		return nil, fmt.Errorf("sqlite: getting account: %w", err)
	}

	return &a, nil
}

// GetCredentialAccount returns the password-carrying account for a user.
func (db *DB) GetCredentialAccount(ctx context.Context, userID string) (*model.Account, error) {
	var a model.Account

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, account_id, provider_id, user_id, password, scope, created_at, updated_at
		 FROM account WHERE user_id = ? AND provider_id = ?`,
		userID, model.ProviderCredential,
	).Scan(
		&a.ID, &a.AccountID, &a.ProviderID, &a.UserID, &a.Password, &a.Scope,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("account", userID)
		}
		return nil, fmt.Errorf("sqlite: getting credential account: %w", err)
	}

	return &a, nil
}

// CreateSession inserts a login session row.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	session.ID = xid.New().String()
	session.Token = xid.New().String()

	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO session (id, token, user_id, expires_at, ip_address,
		 user_agent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.Token,
		session.UserID,
		session.ExpiresAt,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session: %w", err)
	}

	return nil
}

// GetSessionByID retrieves a session row. Expiry is checked by the caller —
// this is a plain filtered read.
func (db *DB) GetSessionByID(ctx context.Context, id string) (*model.Session, error) {
	var s model.Session

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, token, user_id, expires_at, ip_address, user_agent, created_at, updated_at
		 FROM session WHERE id = ?`,
		id,
	).Scan(
		&s.ID, &s.Token, &s.UserID, &s.ExpiresAt, &s.IPAddress, &s.UserAgent,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session %s: %w", id, err)
	}

	return &s, nil
}

// DeleteSession removes a session row, revoking it.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM session WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting session %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("session", id)
	}

	return nil
}

// DeleteExpiredSessions sweeps rows whose expiry is in the past. Called
// opportunistically; sessions are also rejected at resolve time, so this is
// housekeeping rather than enforcement.
func (db *DB) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM session WHERE expires_at < ?`, now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: sweeping expired sessions: %w", err)
	}
	return nil
}

// CreateVerification stores a short-lived single-use value.
func (db *DB) CreateVerification(ctx context.Context, v *model.Verification) error {
	v.ID = xid.New().String()

	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO verification (id, identifier, value, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID,
		v.Identifier,
		v.Value,
		v.ExpiresAt,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting verification: %w", err)
	}

	return nil
}

// ConsumeVerification fetches and deletes the row matching
// (identifier, value). Expired or missing rows both report NotFound, so a
// replayed or stale value is indistinguishable from one that never existed.
func (db *DB) ConsumeVerification(ctx context.Context, identifier, value string) (*model.Verification, error) {
	var v model.Verification

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, identifier, value, expires_at, created_at, updated_at
		 FROM verification WHERE identifier = ? AND value = ?`,
		identifier, value,
	).Scan(
		&v.ID, &v.Identifier, &v.Value, &v.ExpiresAt, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("verification", value)
		}
		return nil, fmt.Errorf("sqlite: getting verification: %w", err)
	}

	// Single use: delete regardless of expiry so the value can't be retried.
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM verification WHERE id = ?`, v.ID,
	); err != nil {
		return nil, fmt.Errorf("sqlite: consuming verification: %w", err)
	}

	if time.Now().After(v.ExpiresAt) {
		return nil, apperror.NotFound("verification", value)
	}

	return &v, nil
}
