package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// Identity reads the caller's user ID from the X-User-ID header, set by the
// authenticating reverse proxy in front of this service, and puts it into
// the request context. Requests without a valid ID are rejected.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("X-User-ID")
		if raw == "" {
			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing X-User-ID header"}`, http.StatusUnauthorized)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"invalid X-User-ID header"}`, http.StatusUnauthorized)
			return
		}

		ctx := contextWithUserID(r.Context(), userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
