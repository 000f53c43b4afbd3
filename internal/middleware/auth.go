package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
)

type contextKey string

const (
	ContextKeyAdminID  contextKey = "admin_id"
	ContextKeyUsername contextKey = "username"
	ContextKeyRole     contextKey = "role"
	ContextKeyName     contextKey = "name"
)

// Authenticate memvalidasi access token dari Authorization header
func Authenticate(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, "Token tidak ditemukan")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				response.Unauthorized(w, "Format token tidak valid, gunakan: Bearer <token>")
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret, utils.TokenTypeAccess)
			if err != nil {
				response.Unauthorized(w, "Token tidak valid atau sudah expired")
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, ContextKeyAdminID, claims.AdminID)
			ctx = context.WithValue(ctx, ContextKeyUsername, claims.Username)
			ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
			ctx = context.WithValue(ctx, ContextKeyName, claims.Name)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole memastikan admin memiliki salah satu dari role yang diizinkan
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRoleFromContext(r.Context())
			if role == "" {
				response.Unauthorized(w, "Role tidak ditemukan dalam token")
				return
			}

			for _, allowed := range roles {
				if strings.EqualFold(role, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Anda tidak memiliki akses ke resource ini")
		})
	}
}

func GetAdminIDFromContext(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyAdminID).(string)
	return val
}

func GetRoleFromContext(ctx context.Context) string {
	val, _ := ctx.Value(ContextKeyRole).(string)
	return val
}
