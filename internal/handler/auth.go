package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/snippethub/internal/apperror"
	"github.com/sakif/snippethub/internal/auth"
	"github.com/sakif/snippethub/internal/service"
)

// AuthHandler exposes sign-up, sign-in (credentials and Google), sign-out
// and the current-user endpoint. It owns the session cookie: services mint
// tokens, only this handler puts them on the wire.
type AuthHandler struct {
	auth        *service.AuthService
	google      *auth.GoogleProvider
	frontendURL string
	secure      bool
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler. frontendURL is where the Google
// callback redirects after completing a login; secure controls the cookie's
// Secure flag and should be true everywhere except local development.
func NewAuthHandler(authSvc *service.AuthService, google *auth.GoogleProvider, frontendURL string, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:        authSvc,
		google:      google,
		frontendURL: frontendURL,
		secure:      secure,
		logger:      logger,
	}
}

// setSessionCookie installs the signed session token. HttpOnly keeps it away
// from scripts; SameSite=Lax still sends it on the OAuth top-level redirect.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(service.SessionLifetime / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie expires the cookie immediately.
func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleSignUp registers a new user with email and password and signs them
// in straight away.
//
// HTTP: POST /auth/signup
// BODY: {"name": "...", "email": "...", "password": "..."}
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var in service.SignUpInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.auth.SignUp(r.Context(), in, r.RemoteAddr, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, user)
}

// HandleSignIn authenticates an email/password pair.
//
// HTTP: POST /auth/signin
// BODY: {"email": "...", "password": "..."}
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	var in service.SignInInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.auth.SignIn(r.Context(), in, r.RemoteAddr, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, user)
}

// HandleSignOut revokes the caller's session and clears the cookie. Always
// succeeds; signing out without a valid session is not an error.
//
// HTTP: POST /auth/signout
func (h *AuthHandler) HandleSignOut(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := h.auth.SignOut(r.Context(), cookie.Value); err != nil {
			writeError(w, err)
			return
		}
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe returns the signed-in user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleGoogleLogin begins the Google Authorization Code flow: mints a
// single-use state value and redirects the browser to Google.
//
// HTTP: GET /auth/google/login
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := h.auth.NewOAuthState(r.Context())
	if err != nil {
		h.logger.Error("failed to create oauth state", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the flow: verifies the state, exchanges the
// code for a Google profile, signs the user in and bounces the browser back
// to the front-end.
//
// HTTP: GET /auth/google/callback?state=...&code=...
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		// User declined on Google's consent screen.
		writeError(w, apperror.Unauthorized("Google sign-in was cancelled"))
		return
	}

	state := query.Get("state")
	code := query.Get("code")
	if state == "" || code == "" {
		writeError(w, apperror.ValidationFailed("state", "missing state or code parameter"))
		return
	}

	if err := h.auth.ConsumeOAuthState(r.Context(), state); err != nil {
		writeError(w, err)
		return
	}

	gu, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google code exchange failed", slog.String("error", err.Error()))
		writeError(w, apperror.Unauthorized("Google sign-in failed"))
		return
	}

	_, token, err := h.auth.SignInWithGoogle(r.Context(), gu, r.RemoteAddr, r.UserAgent())
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, token)
	http.Redirect(w, r, h.frontendURL, http.StatusTemporaryRedirect)
}
