package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/httpx"
	"github.com/objaverse/platform/internal/metrics"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/internal/token"
)

type claimsKey struct{}
type bearerKey struct{}

// ClaimsFrom returns the verified claims stored by RequireAuth, or nil.
func ClaimsFrom(ctx context.Context) *token.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*token.Claims)
	return claims
}

// BearerFrom returns the raw token string that RequireAuth verified. Logout
// needs it to revoke the presented token.
func BearerFrom(ctx context.Context) string {
	raw, _ := ctx.Value(bearerKey{}).(string)
	return raw
}

// RequireAuth rejects requests without a valid bearer token. The response is
// deliberately generic: it never reveals which verification step failed.
func RequireAuth(verifier token.Service, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				metrics.TokenVerifications.WithLabelValues("malformed").Inc()
				writeUnauthorized(w)
				return
			}

			claims, err := verifier.Verify(r.Context(), raw)
			if err != nil {
				switch {
				case errors.Is(err, token.ErrBadSignature):
					metrics.TokenVerifications.WithLabelValues("bad_signature").Inc()
				case errors.Is(err, token.ErrExpired):
					metrics.TokenVerifications.WithLabelValues("expired").Inc()
				case errors.Is(err, token.ErrRevoked):
					metrics.TokenVerifications.WithLabelValues("revoked").Inc()
				case errors.Is(err, token.ErrMalformed):
					metrics.TokenVerifications.WithLabelValues("malformed").Inc()
				default:
					// Denylist store unreachable: retryable, not a 401.
					metrics.TokenVerifications.WithLabelValues("error").Inc()
					logger.Error("token verification dependency failure", zap.Error(err))
					httpx.WriteError(w, http.StatusServiceUnavailable, httpx.ErrorResponse[any]{
						Code:    httpx.ErrUnavailable,
						Message: "temporarily unable to verify credentials",
					})
					return
				}
				logger.Warn("rejected bearer token", zap.Error(err))
				writeUnauthorized(w)
				return
			}

			metrics.TokenVerifications.WithLabelValues("ok").Inc()
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = context.WithValue(ctx, bearerKey{}, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates a route on Authorize. Must be mounted inside RequireAuth.
func RequireRole(required principal.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				writeUnauthorized(w)
				return
			}
			if !token.Authorize(claims, required) {
				httpx.WriteError(w, http.StatusForbidden, httpx.ErrorResponse[any]{
					Code:    httpx.ErrForbidden,
					Message: "insufficient privileges",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrorResponse[any]{
		Code:    httpx.ErrUnauthorized,
		Message: "invalid or missing credentials",
	})
}
