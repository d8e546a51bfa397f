package auth

import (
	"context"
	"net/http"
)

// CookieName is the cookie that carries the session JWT.
const CookieName = "token"

// contextKey is an unexported type for context keys in this package, so no
// other package can read or shadow the user ID stored by the middlewares.
type contextKey string

const userIDKey contextKey = "userID"

// RequireAuth guards pages that only make sense for a logged-in player.
//
// It reads the JWT from the "token" cookie, validates it and stores the user
// ID in the request context. Anonymous or expired sessions are sent back to
// loginPath with 303 See Other; these are browser pages, so a redirect is
// what the player should see, not a 401 body.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(tokens *TokenService, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// OptionalAuth extracts the user identity when a valid token is present but
// never blocks the request. The dashboard uses it: anonymous visitors see the
// login and register forms, players see their tasks.
func OptionalAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, err := extractUserID(r, tokens); err == nil {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a copy of ctx carrying userID, as the middlewares do.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the context.
//
// Returns ("", false) if the request is anonymous.
//
//	userID, ok := auth.UserIDFromContext(r.Context())
//	if !ok {
//	    // anonymous visitor
//	}
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie: anonymous, not a failure.
		return "", err
	}
	return tokens.Validate(cookie.Value)
}
