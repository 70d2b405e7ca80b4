package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie carrying the signed
// session token.
const SessionCookie = "session"

// IdentityResolver turns a request credential into a caller identity.
// This is the entire contract between the HTTP layer and the auth
// subsystem: one operation, credential in, optional user id out. The
// AuthService implements it; tests substitute a stub.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (userID string, err error)
}

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the values we store.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth enforces authentication on protected routes. It reads the
// session cookie, resolves it, and stores the user id in the request
// context; a missing or invalid credential stops the chain with 401.
//
// Every request therefore lands in exactly one of two states before a
// handler runs: Anonymous (no context value) or Authenticated (user id in
// context).
func RequireAuth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := resolveRequest(r, resolver)
			if err != nil || userID == "" {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the caller identity when a valid credential is
// present but never blocks the request. Handlers on these routes treat a
// missing identity as the anonymous view.
func OptionalAuth(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := resolveRequest(r, resolver); err == nil && userID != "" {
				r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext retrieves the authenticated user's id from the request
// context. Returns ("", false) for anonymous requests.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// resolveRequest reads the session cookie and hands it to the resolver.
func resolveRequest(r *http.Request, resolver IdentityResolver) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous.
		return "", err
	}
	return resolver.Resolve(r.Context(), cookie.Value)
}
