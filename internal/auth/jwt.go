// Package auth provides the building blocks of session handling: JWT
// signing, the Google OAuth provider, bcrypt password hashing, and the HTTP
// middleware that resolves a request to a caller identity.
//
// SESSION MODEL:
// The browser cookie holds a signed JWT, but the JWT is not the session —
// it names one. Its "sid" claim points at a row in the session table, and
// resolution checks both the signature and the row's expiry. That keeps the
// fast path cheap (signature check, one indexed read) while still allowing
// sign-out to revoke a session before the token expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "snippethub"

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used to sign and verify tokens; the same secret must be used for
// both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// claims is the JWT payload: the standard registered claims plus the id of
// the session row this token represents. "sub" carries the user id.
type claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Generate creates and signs a token binding userID to sessionID for the
// given duration. The duration should match the session row's expiry so the
// two invariably lapse together.
func (s *TokenService) Generate(userID, sessionID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the user id and the
// session id it names.
//
// The jwt library checks the signature, expiry and issuer; restricting the
// accepted algorithms to HS256 blocks algorithm-confusion attacks where a
// forged token claims to be signed with "none".
func (s *TokenService) Validate(tokenStr string) (userID, sessionID string, err error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "", fmt.Errorf("auth: token expired")
		}
		return "", "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", "", fmt.Errorf("auth: token has no subject")
	}
	if c.SessionID == "" {
		return "", "", fmt.Errorf("auth: token has no session id")
	}

	return c.Subject, c.SessionID, nil
}
