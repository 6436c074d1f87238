// Package middleware provides HTTP middleware for the admin API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmarchetti/vetrina/internal/api/auth"
	"github.com/dmarchetti/vetrina/internal/api/handlers"
)

type contextKey string

// claimsKey stores the validated JWT claims in the request context.
const claimsKey contextKey = "jwt-claims"

// JWTAuth validates the Bearer token on every request and stores the
// claims in the request context.
func JWTAuth(service *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handlers.Unauthorized(w, "missing Authorization header")
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				handlers.Unauthorized(w, "Authorization header must be 'Bearer <token>'")
				return
			}

			claims, err := service.ValidateToken(parts[1])
			if err != nil {
				handlers.Unauthorized(w, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose claims do not carry the admin role.
// Must run after JWTAuth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				handlers.Unauthorized(w, "authentication required")
				return
			}
			if !claims.IsAdmin() {
				handlers.Forbidden(w, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the validated claims, or nil if the request
// was not authenticated.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}
