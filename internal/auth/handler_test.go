package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, tokens, _ := newTestService(t)
	h := NewHandler(svc, tokens, zap.NewNop())
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, bearer string, body any) (int, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()

	code, _ := doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, code)

	var login struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.Equal(t, "bearer", login.TokenType)
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	code, env := doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"email": "alice@example.com", "password": "correct horse battery",
	})
	require.Equal(t, http.StatusCreated, code)

	var resp struct {
		PublicID string `json:"public_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.NotEmpty(t, resp.PublicID)

	code, env = doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"email": "alice@example.com", "password": "correct horse battery",
	})
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "conflict", env.Error.Code)
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t)

	code, env := doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"email": "not-an-email", "password": "short",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "validation_failed", env.Error.Code)

	// Admin accounts cannot be self-registered.
	code, _ = doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"email": "root@example.com", "password": "correct horse battery", "role": "admin",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestRegisterRejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t)

	code, env := doJSON(t, srv, http.MethodPost, "/register", "", map[string]string{
		"email": "alice@example.com", "password": "correct horse battery", "extra": "field",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid_json", env.Error.Code)
}

func TestRegisterRequiresJSONContentType(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/register", bytes.NewBufferString("email=a"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestLoginRejectionsShareOneBody(t *testing.T) {
	srv := newTestServer(t)
	registerAndLogin(t, srv, "alice@example.com", "correct horse battery")

	// Wrong password, unknown account, and a locked account all get the same
	// 401 body so the endpoint cannot be used for enumeration.
	var bodies []string
	for _, creds := range []map[string]string{
		{"email": "alice@example.com", "password": "wrong password"},
		{"email": "nobody@example.com", "password": "wrong password"},
	} {
		code, env := doJSON(t, srv, http.MethodPost, "/login", "", creds)
		require.Equal(t, http.StatusUnauthorized, code)
		require.NotNil(t, env.Error)
		bodies = append(bodies, env.Error.Code+"|"+env.Error.Message)
	}

	// Two more failures lock the account; the locked response matches too.
	doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong password",
	})
	doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong password",
	})
	code, env := doJSON(t, srv, http.MethodPost, "/login", "", map[string]string{
		"email": "alice@example.com", "password": "correct horse battery",
	})
	require.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	bodies = append(bodies, env.Error.Code+"|"+env.Error.Message)

	assert.Equal(t, bodies[0], bodies[1])
	assert.Equal(t, bodies[0], bodies[2])
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tkn := registerAndLogin(t, srv, "alice@example.com", "correct horse battery")

	code, env := doJSON(t, srv, http.MethodGet, "/me", tkn, nil)
	require.Equal(t, http.StatusOK, code)

	var me struct {
		PublicID string `json:"public_id"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, "researcher", me.Role)
	assert.NotEmpty(t, me.PublicID)
}

func TestMeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	code, env := doJSON(t, srv, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "unauthorized", env.Error.Code)

	code, _ = doJSON(t, srv, http.MethodGet, "/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestVerifyEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tkn := registerAndLogin(t, srv, "alice@example.com", "correct horse battery")

	code, env := doJSON(t, srv, http.MethodGet, "/verify", tkn, nil)
	require.Equal(t, http.StatusOK, code)

	var verify struct {
		Sub  string `json:"sub"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &verify))
	assert.NotEmpty(t, verify.Sub)
	assert.Equal(t, "researcher", verify.Role)
}

func TestLogoutInvalidatesToken(t *testing.T) {
	srv := newTestServer(t)
	tkn := registerAndLogin(t, srv, "alice@example.com", "correct horse battery")

	code, _ := doJSON(t, srv, http.MethodPost, "/logout", tkn, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = doJSON(t, srv, http.MethodGet, "/me", tkn, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}
