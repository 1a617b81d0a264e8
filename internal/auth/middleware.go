package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-movies-go/internal/httpx"
)

// TokenParser is the part of TokenIssuer the middleware needs.
type TokenParser interface {
	Parse(token string) (*Claims, error)
}

type claimsKey struct{}

// ContextWithClaims stores verified claims on ctx.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext returns the claims stored by RequireRole, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// bearerToken extracts the token from an "Authorization: Bearer ..." header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("bearer "):])
	return token, token != ""
}

// RequireRole rejects requests without a valid bearer token (401) or whose
// role claim differs from role (403).
func RequireRole(p TokenParser, logger *zap.SugaredLogger, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, "missing token")
				return
			}
			claims, err := p.Parse(token)
			if err != nil {
				logger.Debugw("bearer token rejected", "path", r.URL.Path, "err", err)
				httpx.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			if claims.Role != role {
				logger.Debugw("role check failed", "path", r.URL.Path, "user", claims.Name, "role", claims.Role, "want", role)
				httpx.WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
		})
	}
}
