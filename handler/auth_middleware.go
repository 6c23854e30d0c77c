package handler

import (
	"context"
	"go-auth-api/common"
	"go-auth-api/model"
	"net/http"
	"strings"
)

type contextKey string

const accountKey contextKey = "account"

// Authenticator resolves an access token to the account it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.Account, error)
}

// AuthMiddleware requires a valid Bearer access token and stores the account
// in the request context.
func AuthMiddleware(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				err := common.NewAppError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Authorization header is required", nil)
				err.Send(w, r)
				return
			}

			headerParts := strings.Fields(authHeader)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				err := common.NewAppError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Invalid authorization header format", nil)
				err.Send(w, r)
				return
			}

			account, err := auth.Authenticate(r.Context(), headerParts[1])
			if err != nil {
				toAppError(err).Send(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), accountKey, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok {
				err := common.NewAppError(http.StatusUnauthorized, "NOT_AUTHENTICATED", "Not authenticated", nil)
				err.Send(w, r)
				return
			}
			for _, role := range roles {
				if account.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			err := common.NewAppError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
			err.Send(w, r)
		})
	}
}

func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	account, ok := ctx.Value(accountKey).(*model.Account)
	return account, ok && account != nil
}
