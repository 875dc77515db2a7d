package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-storefront/models"
	"go-storefront/repository"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// UserFromContext returns the user attached by Protect
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	return user, ok && user != nil
}

// WithUser attaches user to ctx the way Protect does
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// Protect verifies the bearer JWT and attaches the stored user to the request context
func Protect(tokens *utils.TokenIssuer, users repository.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(tokenStr) == "" {
				utils.RespondError(w, http.StatusUnauthorized, "Not authorized, no token")
				return
			}

			claims, err := tokens.ParseJWT(strings.TrimSpace(tokenStr))
			if err != nil {
				logrus.WithError(err).Debug("Rejected bearer token")
				utils.RespondError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}
			userID, err := claims.UserObjectID()
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			user, err := users.FindByID(r.Context(), userID)
			if errors.Is(err, repository.ErrNotFound) {
				utils.RespondError(w, http.StatusUnauthorized, "User not found")
				return
			}
			if err != nil {
				logrus.WithError(err).WithField("user_id", claims.UserID).Error("Failed to load user for token")
				utils.RespondError(w, http.StatusUnauthorized, "Not authorized, token failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// Admin ensures that the user has admin privileges
func Admin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || !user.IsAdmin {
			utils.RespondError(w, http.StatusUnauthorized, "Not authorized as an admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}
