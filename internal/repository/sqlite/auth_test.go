package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/model"
)

// =========================================================================
// USER TESTS
// =========================================================================

func TestCreateUser_DuplicateEmailConflicts(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	err := db.CreateUser(context.Background(), &model.User{
		Name:  "Second",
		Email: "dup@example.com",
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() duplicate email error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "byemail@example.com")

	found, err := db.GetUserByEmail(context.Background(), "byemail@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}

	if _, err := db.GetUserByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() for unknown email error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ACCOUNT TESTS
// =========================================================================

func TestAccountLookups(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "accounts@example.com")

	cred := &model.Account{
		AccountID:  "accounts@example.com",
		ProviderID: model.ProviderCredential,
		UserID:     user.ID,
		Password:   "bcrypt-hash-here",
	}
	if err := db.CreateAccount(context.Background(), cred); err != nil {
		t.Fatalf("CreateAccount(credential) error = %v", err)
	}

	google := &model.Account{
		AccountID:  "google-subject-123",
		ProviderID: model.ProviderGoogle,
		UserID:     user.ID,
	}
	if err := db.CreateAccount(context.Background(), google); err != nil {
		t.Fatalf("CreateAccount(google) error = %v", err)
	}

	found, err := db.GetAccountByProvider(context.Background(), model.ProviderGoogle, "google-subject-123")
	if err != nil {
		t.Fatalf("GetAccountByProvider() error = %v", err)
	}
	if found.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", found.UserID, user.ID)
	}

	credFound, err := db.GetCredentialAccount(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetCredentialAccount() error = %v", err)
	}
	if credFound.Password != "bcrypt-hash-here" {
		t.Errorf("Password = %q, want stored hash", credFound.Password)
	}
}

func TestCreateAccount_DuplicateProviderIdentityConflicts(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "dupacct@example.com")

	account := &model.Account{
		AccountID:  "google-dup",
		ProviderID: model.ProviderGoogle,
		UserID:     user.ID,
	}
	if err := db.CreateAccount(context.Background(), account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}

	err := db.CreateAccount(context.Background(), &model.Account{
		AccountID:  "google-dup",
		ProviderID: model.ProviderGoogle,
		UserID:     user.ID,
	})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateAccount() duplicate identity error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// SESSION TESTS
// =========================================================================

func TestSessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "session@example.com")

	session := &model.Session{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
		IPAddress: "127.0.0.1",
		UserAgent: "test",
	}
	if err := db.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if session.ID == "" {
		t.Fatal("CreateSession() did not set session.ID")
	}

	found, err := db.GetSessionByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("GetSessionByID() error = %v", err)
	}
	if found.UserID != user.ID {
		t.Errorf("UserID = %q, want %q", found.UserID, user.ID)
	}

	if err := db.DeleteSession(context.Background(), session.ID); err != nil {
		t.Fatalf("DeleteSession() error = %v", err)
	}
	if _, err := db.GetSessionByID(context.Background(), session.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetSessionByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteExpiredSessions(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "sweep@example.com")

	stale := &model.Session{UserID: user.ID, ExpiresAt: time.Now().Add(-time.Hour)}
	live := &model.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	for _, s := range []*model.Session{stale, live} {
		if err := db.CreateSession(context.Background(), s); err != nil {
			t.Fatalf("CreateSession() error = %v", err)
		}
	}

	if err := db.DeleteExpiredSessions(context.Background(), time.Now()); err != nil {
		t.Fatalf("DeleteExpiredSessions() error = %v", err)
	}

	if _, err := db.GetSessionByID(context.Background(), stale.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("expired session survived the sweep: err = %v", err)
	}
	if _, err := db.GetSessionByID(context.Background(), live.ID); err != nil {
		t.Errorf("live session was swept: err = %v", err)
	}
}

func TestUserDelete_CascadesToSessions(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "usercascade@example.com")

	session := &model.Session{UserID: user.ID, ExpiresAt: time.Now().Add(time.Hour)}
	if err := db.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if _, err := db.conn.Exec(`DELETE FROM user WHERE id = ?`, user.ID); err != nil {
		t.Fatalf("deleting user: %v", err)
	}

	if _, err := db.GetSessionByID(context.Background(), session.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("session survived user deletion: err = %v", err)
	}
}

// =========================================================================
// VERIFICATION TESTS
// =========================================================================

func TestConsumeVerification_SingleUse(t *testing.T) {
	db := newTestDB(t)

	v := &model.Verification{
		Identifier: "oauth_state",
		Value:      "state-abc",
		ExpiresAt:  time.Now().Add(10 * time.Minute),
	}
	if err := db.CreateVerification(context.Background(), v); err != nil {
		t.Fatalf("CreateVerification() error = %v", err)
	}

	if _, err := db.ConsumeVerification(context.Background(), "oauth_state", "state-abc"); err != nil {
		t.Fatalf("ConsumeVerification() first use error = %v", err)
	}

	// Replays fail: the row is gone.
	if _, err := db.ConsumeVerification(context.Background(), "oauth_state", "state-abc"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ConsumeVerification() replay error = %v, want ErrNotFound", err)
	}
}

func TestConsumeVerification_ExpiredReportsNotFoundAndBurns(t *testing.T) {
	db := newTestDB(t)

	v := &model.Verification{
		Identifier: "oauth_state",
		Value:      "state-old",
		ExpiresAt:  time.Now().Add(-time.Minute),
	}
	if err := db.CreateVerification(context.Background(), v); err != nil {
		t.Fatalf("CreateVerification() error = %v", err)
	}

	if _, err := db.ConsumeVerification(context.Background(), "oauth_state", "state-old"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ConsumeVerification() expired error = %v, want ErrNotFound", err)
	}

	// Expired consumption still deletes the row.
	var count int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM verification WHERE value = ?`, "state-old").Scan(&count); err != nil {
		t.Fatalf("counting verifications: %v", err)
	}
	if count != 0 {
		t.Error("expired verification row was not deleted on consume")
	}
}
