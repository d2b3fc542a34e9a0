package middleware

import (
	"context"
	"net/http"
	"strings"
)

type userKey string

const userIDKey userKey = "user_id"

// Identity trusts the user identity resolved by the upstream auth layer and
// carried in X-User-ID. Session verification happens before requests reach
// this service.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get("X-User-ID"))
		if userID != "" {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the resolved user identity, or empty when absent.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
