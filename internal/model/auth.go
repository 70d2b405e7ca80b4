package model

import "time"

// Credential account providers. ProviderCredential rows carry a bcrypt
// password hash; OAuth rows carry the provider's stable account ID instead.
const (
	ProviderCredential = "credential"
	ProviderGoogle     = "google"
)

// Session is a server-side login session.
//
// The browser never sees the Token value directly — it receives a signed JWT
// whose "sid" claim names this row. Deleting the row revokes the session
// even if the JWT has not expired yet.
type Session struct {
	ID        string    `json:"id"        db:"id"`
	Token     string    `json:"-"         db:"token"` // opaque, unique, never serialized
	UserID    string    `json:"userId"    db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	IPAddress string    `json:"ipAddress" db:"ip_address"`
	UserAgent string    `json:"userAgent" db:"user_agent"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Account links a user to one authentication method.
//
// For ProviderCredential, AccountID equals the user's email and Password
// holds the bcrypt hash. For ProviderGoogle, AccountID is Google's stable
// subject identifier and Password is empty.
type Account struct {
	ID         string    `json:"id"         db:"id"`
	AccountID  string    `json:"accountId"  db:"account_id"`
	ProviderID string    `json:"providerId" db:"provider_id"`
	UserID     string    `json:"userId"     db:"user_id"`
	Password   string    `json:"-"          db:"password"` // bcrypt hash, credential accounts only
	Scope      string    `json:"scope"      db:"scope"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}

// Verification is a short-lived, single-use server-side value.
// Used for OAuth state during the Google login flow: the state parameter is
// written here before the redirect and consumed (deleted) on callback.
type Verification struct {
	ID         string    `json:"id"         db:"id"`
	Identifier string    `json:"identifier" db:"identifier"` // what the value is for, e.g. "oauth_state"
	Value      string    `json:"value"      db:"value"`
	ExpiresAt  time.Time `json:"expiresAt"  db:"expires_at"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt"  db:"updated_at"`
}
