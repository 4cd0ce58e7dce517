package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	jwtutil "github.com/gymbuddy/gymbuddy-backend/pkg/jwt"
	"github.com/gymbuddy/gymbuddy-backend/pkg/logger"
)

type contextKey string

// UserContextKey is where authenticated claims live in the request context.
const UserContextKey contextKey = "user"

// AuthMiddleware validates the bearer token and stores its claims in context.
// Each credential failure mode gets its own 401 message so clients can tell
// a missing token from an expired or tampered one.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Invalid authentication credentials", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := jwtutil.ValidateToken(tokenString, secret)
			if err != nil {
				switch {
				case errors.Is(err, jwt.ErrTokenExpired):
					http.Error(w, "Expired authentication token", http.StatusUnauthorized)
				case errors.Is(err, jwt.ErrTokenSignatureInvalid):
					http.Error(w, "Invalid token signature", http.StatusUnauthorized)
				default:
					http.Error(w, "Invalid authentication token", http.StatusUnauthorized)
				}
				logger.Log.WithError(err).Warn("Token validation failed")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the authenticated claims, or nil.
func GetUserFromContext(ctx context.Context) *jwtutil.Claims {
	claims, ok := ctx.Value(UserContextKey).(*jwtutil.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RequireRole rejects requests whose token role is not in the allowed set.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.Log.WithFields(map[string]interface{}{
				"accountID": claims.AccountID,
				"role":      claims.Role,
			}).Warn("Role not allowed for this route")
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}
