package middleware

import (
	"net/http"
	"slices"
	"strings"

	"talent-escrow/pkg/auth"
	"talent-escrow/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const ServiceKeyHeader = "X-Service-Key"

// Auth validates the bearer token and puts the actor on the request context.
func Auth(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := auth.ParseValidate(secret, token)
			if err != nil {
				logger.Warn("Rejected bearer token", zap.String("path", r.URL.Path), zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			switch claims.Role {
			case utils.RoleClient, utils.RoleProvider, utils.RoleAdmin:
			default:
				utils.ResponseForbidden(w, "Unknown role")
				return
			}

			ctx := utils.SetActorContext(r.Context(), utils.Actor{ID: claims.Sub, Role: claims.Role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets the request through only for the listed roles.
func RequireRole(logger *zap.Logger, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := utils.GetActorFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}
			if !slices.Contains(roles, actor.Role) {
				logger.Warn("Role check failed",
					zap.String("actor", actor.String()),
					zap.Strings("allowed", roles),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ServiceKey authenticates internal callers by comparing X-Service-Key with a bcrypt hash.
func ServiceKey(hash string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(ServiceKeyHeader)
			if hash == "" || key == "" {
				utils.ResponseUnauthorized(w, "Missing service key")
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				logger.Warn("Invalid service key", zap.String("path", r.URL.Path), zap.String("ip", r.RemoteAddr))
				utils.ResponseUnauthorized(w, "Invalid service key")
				return
			}

			ctx := utils.SetActorContext(r.Context(), utils.Actor{ID: "scheduler", Role: utils.RoleService})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
