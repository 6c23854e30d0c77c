// file: router/router_test.go

package router_test

import (
	"encoding/json"
	"fmt"
	"go-auth-api/app"
	"go-auth-api/config"
	"go-auth-api/logger"
	"go-auth-api/model"
	"go-auth-api/repository/repositorytest"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

type testServer struct {
	router   http.Handler
	accounts *repositorytest.Accounts
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "router-test-secret-0123456789abcdef"
	cfg.JWT.Algorithm = "HS256"
	cfg.JWT.AccessExpiresMin = 30
	cfg.JWT.RefreshExpiresDays = 14
	cfg.JWT.RetiredTTLDays = 3
	cfg.Security.BcryptCost = bcrypt.MinCost

	accounts := repositorytest.NewAccounts()
	application, err := app.New(cfg, accounts, client)
	require.NoError(t, err)
	return &testServer{router: application.Router, accounts: accounts}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) signup(t *testing.T, email, password string) int64 {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/v1/auth/signup", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var body struct {
		Data model.SignupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Data.ID
}

func (s *testServer) login(t *testing.T, email, password string) model.TokenPair {
	t.Helper()
	rr := s.do(t, http.MethodPost, "/api/v1/auth/login", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decodePair(t, rr)
}

func (s *testServer) refresh(t *testing.T, refreshToken string) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(t, http.MethodPost, "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh_token":%q}`, refreshToken), "")
}

func decodePair(t *testing.T, rr *httptest.ResponseRecorder) model.TokenPair {
	t.Helper()
	var body struct {
		Data model.TokenPair `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.AccessToken)
	require.NotEmpty(t, body.Data.RefreshToken)
	return body.Data
}

func problemCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Code
}

func TestHealthCheck_Integration(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestMembersPing_Integration(t *testing.T) {
	s := newTestServer(t)

	rr := s.do(t, http.MethodGet, "/api/v1/members/ping", "", "")

	assert.Equal(t, http.StatusOK, rr.Code, "ping needs no token")
	assert.JSONEq(t, `{"data":{"ok":true,"domain":"members"}}`, rr.Body.String())

	rr = s.do(t, http.MethodGet, "/api/v1/members/ping", "", "not-a-token")
	assert.Equal(t, http.StatusOK, rr.Code, "ping ignores the Authorization header")
}

func TestSignupAndLogin_Integration(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@x.com", "password123")

	t.Run("duplicate signup", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/auth/signup", `{"email":"a@x.com","password":"password123"}`, "")
		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "EMAIL_ALREADY_EXISTS", problemCode(t, rr))
	})

	t.Run("successful login", func(t *testing.T) {
		pair := s.login(t, "a@x.com", "password123")
		assert.Equal(t, "bearer", pair.TokenType)
	})

	t.Run("wrong password and unknown email look the same", func(t *testing.T) {
		wrong := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"a@x.com","password":"wrongpassword"}`, "")
		unknown := s.do(t, http.MethodPost, "/api/v1/auth/login", `{"email":"b@x.com","password":"password123"}`, "")
		assert.Equal(t, http.StatusUnauthorized, wrong.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", problemCode(t, wrong))
		assert.Equal(t, "INVALID_CREDENTIALS", problemCode(t, unknown))
	})
}

func TestRefreshRotationAndReplay_Integration(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@x.com", "password123")
	first := s.login(t, "a@x.com", "password123")

	rr := s.refresh(t, first.RefreshToken)
	require.Equal(t, http.StatusOK, rr.Code)
	second := decodePair(t, rr)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", second.AccessToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = s.refresh(t, first.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "REFRESH_REUSE_DETECTED", problemCode(t, rr))

	rr = s.refresh(t, second.RefreshToken)
	assert.Equal(t, "TOKEN_REVOKED", problemCode(t, rr))

	rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", second.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "TOKEN_REVOKED", problemCode(t, rr))

	fresh := s.login(t, "a@x.com", "password123")
	rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", fresh.AccessToken)
	assert.Equal(t, http.StatusOK, rr.Code, "a new login starts a new session family")
}

func TestLogout_Integration(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@x.com", "password123")
	pair := s.login(t, "a@x.com", "password123")
	body := fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken)

	rr := s.do(t, http.MethodPost, "/api/v1/auth/logout", body, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"data":{"ok":true}}`, rr.Body.String())

	rr = s.do(t, http.MethodPost, "/api/v1/auth/logout", body, "")
	assert.Equal(t, http.StatusOK, rr.Code, "logout is idempotent")

	rr = s.refresh(t, pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "TOKEN_REVOKED", problemCode(t, rr))

	rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMalformedTokens_Integration(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@x.com", "password123")
	pair := s.login(t, "a@x.com", "password123")

	rr := s.refresh(t, "not.a.jwt")
	assert.Equal(t, "TOKEN_MALFORMED", problemCode(t, rr))

	rr = s.refresh(t, pair.AccessToken)
	assert.Equal(t, "TOKEN_MALFORMED", problemCode(t, rr), "access token is not a refresh token")

	rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", pair.RefreshToken)
	assert.Equal(t, "TOKEN_MALFORMED", problemCode(t, rr), "refresh token is not an access token")

	rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminRoutes_Integration(t *testing.T) {
	s := newTestServer(t)
	adminID := s.signup(t, "admin@x.com", "password123")
	userID := s.signup(t, "user@x.com", "password123")
	s.accounts.SetRole(adminID, model.RoleAdmin)

	adminPair := s.login(t, "admin@x.com", "password123")
	userPair := s.login(t, "user@x.com", "password123")

	t.Run("admin can access admin routes", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/members/admin-only", "", adminPair.AccessToken)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"data":{"ok":true,"admin":"admin@x.com"}}`, rr.Body.String())
	})

	t.Run("regular user is forbidden from admin routes", func(t *testing.T) {
		rr := s.do(t, http.MethodGet, "/api/v1/members/admin-only", "", userPair.AccessToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)

		rr = s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/members/%d/sessions/revoke", adminID), "", userPair.AccessToken)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin revokes a user's sessions", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, fmt.Sprintf("/api/v1/members/%d/sessions/revoke", userID), "", adminPair.AccessToken)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = s.do(t, http.MethodGet, "/api/v1/members/me", "", userPair.AccessToken)
		assert.Equal(t, "TOKEN_REVOKED", problemCode(t, rr))
		rr = s.refresh(t, userPair.RefreshToken)
		assert.Equal(t, "TOKEN_REVOKED", problemCode(t, rr))
	})

	t.Run("unknown account", func(t *testing.T) {
		rr := s.do(t, http.MethodPost, "/api/v1/members/999/sessions/revoke", "", adminPair.AccessToken)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestMetricsExposed_Integration(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@x.com", "password123")
	s.login(t, "a@x.com", "password123")

	rr := s.do(t, http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `auth_operations_total{operation="login",outcome="success"} 1`)
}

func TestConcurrentRefresh_Integration(t *testing.T) {
	s := newTestServer(t)
	s.signup(t, "a@x.com", "password123")
	pair := s.login(t, "a@x.com", "password123")

	const workers = 8
	codes := make(chan int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			codes <- s.refresh(t, pair.RefreshToken).Code
		}()
	}
	wg.Wait()
	close(codes)

	ok := 0
	for code := range codes {
		if code == http.StatusOK {
			ok++
		}
	}
	assert.Equal(t, 1, ok)

	assert.Equal(t, int64(1), s.accounts.Version(1))
}
