package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/auth"
	"github.com/nhm-india/fund-tracker/internal/http/respond"
	"github.com/nhm-india/fund-tracker/internal/models"
)

// TokenParser verifies a bearer token and returns its claims.
type TokenParser interface {
	Parse(raw string) (auth.Claims, error)
}

// RequireAdmin guards admin-only routes. When enforce is false every request
// passes through unchecked, matching deployments whose clients never send a
// token. When enforce is true the request needs a valid bearer token whose
// role is admin.
func RequireAdmin(tokens TokenParser, enforce bool, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enforce {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				log.Info("rejected admin token", zap.String("path", r.URL.Path), zap.Error(err))
				respond.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != models.RoleAdmin {
				log.Warn("non-admin attempted admin route",
					zap.String("path", r.URL.Path), zap.String("username", claims.Username))
				respond.Error(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
