package middleware

import (
	"net/http"

	"dealdesk/internal/permissions"
)

// RequirePermission rejects requests whose authenticated user lacks
// the given permission tag. Must run after Authenticate.
func RequirePermission(tag string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r)
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "User not authenticated")
				return
			}

			if !permissions.HasPermission(user, tag) {
				respondWithError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
