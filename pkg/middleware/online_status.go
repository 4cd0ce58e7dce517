package middleware

import (
	"net/http"

	"github.com/gymbuddy/gymbuddy-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OnlineStatusMiddleware marks the calling account online and stamps its
// last-active time on every authenticated request.
func OnlineStatusMiddleware(accountService *services.AccountService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r.Context())
			if claims != nil {
				accountID, err := primitive.ObjectIDFromHex(claims.AccountID)
				if err == nil {
					_ = accountService.SetOnlineStatus(r.Context(), accountID, true)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
