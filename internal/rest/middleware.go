package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/plefebvre/task-api/internal"
)

type ctxKey string

const ctxKeyUserID ctxKey = "userID"

// ContextWithUserID returns a context carrying the authenticated user id.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext extracts the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKeyUserID).(int64)

	return id, ok
}

// RequireAuth guards routes behind a valid bearer access token.
func RequireAuth(tokens TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")

			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				renderErrorResponse(r.Context(), w,
					internal.NewErrorf(internal.ErrorCodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := tokens.ParseAccess(strings.TrimSpace(header[len(prefix):]))
			if err != nil {
				renderErrorResponse(r.Context(), w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.UserID)))
		})
	}
}
