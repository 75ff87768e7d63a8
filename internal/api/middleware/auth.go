package middleware

import (
	"context"
	"net/http"

	"github.com/expopass/server/internal/api/problem"
	"github.com/expopass/server/internal/auth"
)

type contextKeyAuth string

const adminClaimsKey contextKeyAuth = "adminClaims"

// AdminAuth validates Bearer JWTs on the admin API and requires the
// admin role.
func AdminAuth(manager *auth.JWTManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, problem.Unauthorized, problem.ErrUnauthorized, env)
				return
			}

			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				problem.Write(w, r, problem.Unauthorized, err, env,
					problem.WithTitle("Missing or malformed authorization header"))
				return
			}

			claims, err := manager.Validate(token)
			if err != nil {
				problem.Write(w, r, problem.Unauthorized, err, env,
					problem.WithTitle("Invalid token"))
				return
			}
			if claims.Role != "admin" {
				problem.Write(w, r, problem.Forbidden, problem.ErrForbidden, env)
				return
			}

			ctx := context.WithValue(r.Context(), adminClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminClaims returns the validated claims set by AdminAuth, or nil.
func AdminClaims(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(adminClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
