package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/auth"
	"github.com/sakif/snippethub/internal/model"
	"github.com/sakif/snippethub/internal/repository"
	"github.com/sakif/snippethub/internal/validation"
)

const (
	// SessionLifetime is how long a login session lasts. The session row
	// and the JWT expire together.
	SessionLifetime = 7 * 24 * time.Hour

	// oauthStateTTL bounds how long a pending Google login may take.
	oauthStateTTL = 10 * time.Minute

	oauthStateIdentifier = "oauth_state"
)

// AuthService implements sign-up, sign-in (credentials and Google), session
// issuance and caller-identity resolution. It satisfies auth.IdentityResolver,
// which is the only surface the HTTP middleware sees.
type AuthService struct {
	users     repository.UserRepository
	accounts  repository.AuthRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	validate  *validation.Validator
	logger    *slog.Logger
}

var _ auth.IdentityResolver = (*AuthService)(nil)

// NewAuthService creates an AuthService.
func NewAuthService(
	users repository.UserRepository,
	accounts repository.AuthRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		accounts:  accounts,
		tokens:    tokens,
		passwords: passwords,
		validate:  validation.New(),
		logger:    logger,
	}
}

// SignUpInput is the strict shape for credential registration.
// The bcrypt 72-byte input limit caps the password length.
type SignUpInput struct {
	Name     string `json:"name"     validate:"required,max=100"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInInput is the strict shape for credential login.
type SignInInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignUp registers a new user with an email/password credential account and
// opens their first session. Returns the user and the signed session token
// for the cookie.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput, ip, userAgent string) (*model.User, string, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, "", err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("signing up: %w", err)
	}

	user := &model.User{
		Name:  strings.TrimSpace(in.Name),
		Email: email,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, "", apperror.Conflict("user", email)
		}
		s.logger.Error("sign-up failed", slog.String("error", err.Error()))
		return nil, "", fmt.Errorf("signing up: %w", err)
	}

	account := &model.Account{
		AccountID:  email,
		ProviderID: model.ProviderCredential,
		UserID:     user.ID,
		Password:   hash,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		s.logger.Error("sign-up account creation failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, "", fmt.Errorf("signing up: %w", err)
	}

	token, err := s.startSession(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, token, nil
}

// SignIn authenticates an email/password pair and opens a session.
// Wrong email and wrong password produce the same Unauthorized error, so a
// caller can't probe which addresses are registered.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput, ip, userAgent string) (*model.User, string, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, "", err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, "", apperror.Unauthorized("invalid email or password")
		}
		return nil, "", fmt.Errorf("signing in: %w", err)
	}

	account, err := s.accounts.GetCredentialAccount(ctx, user.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// OAuth-only user with no password set.
			return nil, "", apperror.Unauthorized("invalid email or password")
		}
		return nil, "", fmt.Errorf("signing in: %w", err)
	}

	if err := s.passwords.Verify(account.Password, in.Password); err != nil {
		return nil, "", apperror.Unauthorized("invalid email or password")
	}

	token, err := s.startSession(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed in", slog.String("userID", user.ID))
	return user, token, nil
}

// SignInWithGoogle upserts the user behind a Google profile and opens a
// session. Three cases:
//   - the google account is known → plain sign-in
//   - the email matches an existing user → link a google account to them
//   - otherwise → brand new user
func (s *AuthService) SignInWithGoogle(ctx context.Context, gu *auth.GoogleUser, ip, userAgent string) (*model.User, string, error) {
	account, err := s.accounts.GetAccountByProvider(ctx, model.ProviderGoogle, gu.ID)
	switch {
	case err == nil:
		user, err := s.users.GetUserByID(ctx, account.UserID)
		if err != nil {
			return nil, "", fmt.Errorf("google sign-in: %w", err)
		}
		token, err := s.startSession(ctx, user.ID, ip, userAgent)
		if err != nil {
			return nil, "", err
		}
		return user, token, nil

	case errors.Is(err, apperror.ErrNotFound):
		// fall through to link-or-create

	default:
		return nil, "", fmt.Errorf("google sign-in: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(gu.Email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, apperror.ErrNotFound) {
		user = &model.User{
			Name:          gu.Name,
			Email:         email,
			EmailVerified: gu.VerifiedEmail,
			Image:         gu.Picture,
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			s.logger.Error("google sign-in user creation failed", slog.String("error", err.Error()))
			return nil, "", fmt.Errorf("google sign-in: %w", err)
		}
	} else if err != nil {
		return nil, "", fmt.Errorf("google sign-in: %w", err)
	}

	if err := s.accounts.CreateAccount(ctx, &model.Account{
		AccountID:  gu.ID,
		ProviderID: model.ProviderGoogle,
		UserID:     user.ID,
	}); err != nil {
		s.logger.Error("google sign-in account link failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, "", fmt.Errorf("google sign-in: %w", err)
	}

	token, err := s.startSession(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed in via google", slog.String("userID", user.ID))
	return user, token, nil
}

// Resolve implements auth.IdentityResolver: signed token in, user id out.
// The signature proves the token wasn't forged; the session row proves it
// wasn't revoked. An expired row is deleted on sight.
func (s *AuthService) Resolve(ctx context.Context, credential string) (string, error) {
	userID, sessionID, err := s.tokens.Validate(credential)
	if err != nil {
		return "", apperror.Unauthorized("invalid session")
	}

	session, err := s.accounts.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.Unauthorized("session revoked")
		}
		return "", fmt.Errorf("resolving session: %w", err)
	}

	if time.Now().After(session.ExpiresAt) {
		// Housekeeping; resolution fails either way.
		_ = s.accounts.DeleteSession(ctx, session.ID)
		return "", apperror.Unauthorized("session expired")
	}

	if session.UserID != userID {
		// Token and row disagree — treat as forgery.
		return "", apperror.Unauthorized("invalid session")
	}

	return userID, nil
}

// SignOut revokes the session named by the credential. A credential that no
// longer resolves is fine — signing out twice is not an error.
func (s *AuthService) SignOut(ctx context.Context, credential string) error {
	_, sessionID, err := s.tokens.Validate(credential)
	if err != nil {
		return nil
	}

	if err := s.accounts.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("signing out: %w", err)
	}

	s.logger.Info("session revoked", slog.String("sessionID", sessionID))
	return nil
}

// CurrentUser returns the profile of an already-resolved caller.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// NewOAuthState mints a random single-use state value for the Google login
// redirect and records it server-side with a short expiry.
func (s *AuthService) NewOAuthState(ctx context.Context) (string, error) {
	state := xid.New().String()

	err := s.accounts.CreateVerification(ctx, &model.Verification{
		Identifier: oauthStateIdentifier,
		Value:      state,
		ExpiresAt:  time.Now().Add(oauthStateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("creating oauth state: %w", err)
	}

	return state, nil
}

// ConsumeOAuthState validates and burns a state value from a Google
// callback. Unknown, replayed and expired states all fail the same way.
func (s *AuthService) ConsumeOAuthState(ctx context.Context, state string) error {
	_, err := s.accounts.ConsumeVerification(ctx, oauthStateIdentifier, state)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return apperror.Unauthorized("invalid OAuth state")
		}
		return fmt.Errorf("consuming oauth state: %w", err)
	}
	return nil
}

// startSession creates a session row and signs the matching token.
func (s *AuthService) startSession(ctx context.Context, userID, ip, userAgent string) (string, error) {
	session := &model.Session{
		UserID:    userID,
		ExpiresAt: time.Now().Add(SessionLifetime),
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.accounts.CreateSession(ctx, session); err != nil {
		s.logger.Error("session creation failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("starting session: %w", err)
	}

	token, err := s.tokens.Generate(userID, session.ID, SessionLifetime)
	if err != nil {
		return "", fmt.Errorf("starting session: %w", err)
	}

	return token, nil
}
