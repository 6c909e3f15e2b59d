package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package.
// A package-private key type means only this package can read or write
// the identity value — no other package can collide with or shadow it.
type contextKey string

const userKey contextKey = "telegramUser"

// SessionCookie is the name of the HttpOnly cookie carrying the session
// token. HttpOnly keeps the token out of reach of page script.
const SessionCookie = "session"

// RequireAuth enforces a valid session on protected routes. It reads the
// session cookie, validates the token and stores the verified user in the
// request context. Missing or invalid sessions answer 401 and stop the
// chain — handlers behind this middleware can assume an identity exists.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := userFromRequest(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid session required"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext returns the verified user stored by RequireAuth.
// The second return is false on routes that did not pass through it.
func UserFromContext(ctx context.Context) (*TelegramUser, bool) {
	user, ok := ctx.Value(userKey).(*TelegramUser)
	return user, ok
}

func userFromRequest(r *http.Request, tokens *TokenService) (*TelegramUser, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, err
	}
	return tokens.Validate(cookie.Value)
}
