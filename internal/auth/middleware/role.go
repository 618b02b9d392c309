package middleware

import (
	"net/http"
	"slices"
)

// RoleMiddleware allows the request only if the role claim set by AuthMiddleware is one of roles.
// The role claim is the display role label, so "Admin" or a capitalized author pseudonym.
func RoleMiddleware(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				respondUnauthorized(w, `{"error":"authentication required"}`)
				return
			}

			if !slices.Contains(roles, claims.Role) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"error":"insufficient permissions"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
