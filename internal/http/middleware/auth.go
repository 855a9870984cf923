package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/princekumarofficial/portfolio-engagement/internal/utils/jwt"
	"github.com/princekumarofficial/portfolio-engagement/internal/utils/response"
)

type contextKey string

const UserEmailKey contextKey = "userEmail"

// AuthMiddleware validates the bearer token and stores the caller's email in
// the request context. Role checks happen in the handlers, which own the
// user lookup.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.Error("Authorization header required"))
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.WriteJSON(w, http.StatusUnauthorized, response.Error("Invalid authorization header format"))
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				response.WriteJSON(w, http.StatusUnauthorized, response.Error("Token not provided"))
				return
			}

			email, err := jwt.ExtractEmailFromToken(token, jwtSecret)
			if err != nil {
				response.WriteJSON(w, http.StatusUnauthorized, response.Error("Invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserEmailKey, email)
			r = r.WithContext(ctx)

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserEmailFromContext extracts the authenticated email from the request context
func GetUserEmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(UserEmailKey).(string)
	return email, ok
}
