package auth

import (
	"context"
	"net/http"
	"strings"
)

// IsAdmin reports whether the authenticated caller has role=admin or the admin cap.
func IsAdmin(ctx context.Context) bool {
	role, _ := RoleFromContext(ctx)
	if strings.ToLower(strings.TrimSpace(role)) == "admin" {
		return true
	}
	for _, c := range CapsFromContext(ctx) {
		if strings.ToLower(strings.TrimSpace(c)) == "admin" {
			return true
		}
	}
	return false
}

// RequireAdmin allows request only if RequireUser already injected an admin identity into context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
