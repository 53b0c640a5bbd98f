package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/objaverse/platform/internal/config"
	"github.com/objaverse/platform/internal/principal"
	"github.com/objaverse/platform/internal/token"
	"github.com/objaverse/platform/pkg/id"
)

type failingDenylist struct{}

func (failingDenylist) Revoke(context.Context, id.TokenID, time.Duration) error {
	return errors.New("store unreachable")
}

func (failingDenylist) IsRevoked(context.Context, id.TokenID) (bool, error) {
	return false, errors.New("store unreachable")
}

func testTokenService(t *testing.T, dl token.Denylist) token.Service {
	t.Helper()
	return token.NewService(zap.NewNop(), &config.TokenConfig{
		Secret:   "test-secret-test-secret-test-secret",
		TTL:      time.Hour,
		Issuer:   "auth-service",
		Audience: "objaverse",
	}, dl)
}

func issueFor(t *testing.T, tokens token.Service, role principal.Role) string {
	t.Helper()
	result, err := tokens.Issue(context.Background(), &principal.Principal{
		PublicID: id.NewPublicID(),
		Role:     role,
	})
	require.NoError(t, err)
	return result.Token
}

func echoClaims(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFrom(r.Context())
		require.NotNil(t, claims)
		require.NotEmpty(t, BearerFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthMissingHeader(t *testing.T) {
	tokens := testTokenService(t, token.NewMemoryDenylist())
	h := RequireAuth(tokens, zap.NewNop())(echoClaims(t))

	for _, header := range []string{"", "Bearer ", "Basic dXNlcjpwYXNz", "bearer lowercase-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "header %q", header)
		assert.Equal(t, "Bearer", rr.Header().Get("WWW-Authenticate"))
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens := testTokenService(t, token.NewMemoryDenylist())
	h := RequireAuth(tokens, zap.NewNop())(echoClaims(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, principal.RoleResearcher))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	tokens := testTokenService(t, token.NewMemoryDenylist())
	h := RequireAuth(tokens, zap.NewNop())(echoClaims(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAuthDenylistOutageIsNot401(t *testing.T) {
	tokens := testTokenService(t, failingDenylist{})
	h := RequireAuth(tokens, zap.NewNop())(echoClaims(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, principal.RoleResearcher))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRequireRole(t *testing.T) {
	tokens := testTokenService(t, token.NewMemoryDenylist())
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAuth(tokens, zap.NewNop())(RequireRole(principal.RoleAdmin)(ok))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, principal.RoleResearcher))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+issueFor(t, tokens, principal.RoleAdmin))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRequireRoleWithoutClaims(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireRole(principal.RoleAdmin)(ok)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
