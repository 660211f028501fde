package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/account-service/internal/api/http/handlers"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/config"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/observability"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
)

type testServer struct {
	app    *fiber.App
	resets chan string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	resets := make(chan string, 4)
	dispatcher.Subscribe(events.EventPasswordResetRequested, func(_ context.Context, e events.Event) error {
		resets <- e.Token
		return nil
	})

	accounts := service.NewAccountService(config.AuthConfig{
		JWTSecret:               "router-test",
		AccessTokenTTLMinutes:   5,
		PasswordResetTTLMinutes: 60,
		ResetTokenBytes:         16,
		BcryptCost:              bcrypt.MinCost,
	}, service.AccountDependencies{
		UserRepo:  repository.NewMemoryUserRepository(),
		Publisher: dispatcher,
		Logger:    logger,
	})

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("account-service", "test", nil, nil, metrics),
		Users:          handlers.NewUsersHandler(accounts),
		Account:        handlers.NewAccountHandler(accounts),
		AuthMiddleware: auth.NewAuthMiddleware(accounts),
	})
	return &testServer{app: app, resets: resets}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/register", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]any)
	return user["id"].(string)
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, status, body)
	return body["token"].(string)
}

func errorCode(body map[string]any) string {
	errBody, _ := body["error"].(map[string]any)
	code, _ := errBody["code"].(string)
	return code
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodPost, "/register", "", map[string]string{"email": "  Jane@Example.com ", "password": "secret1"})
	require.Equal(t, http.StatusCreated, status)
	user := body["user"].(map[string]any)
	assert.Equal(t, "jane@example.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "PasswordHash")

	status, body = s.do(t, http.MethodPost, "/register", "", map[string]string{"email": "jane@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "jane@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, user["id"], body["userId"])
	assert.NotEmpty(t, body["token"])

	status, body = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "jane@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))
}

func TestValidationFailures(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name string
		path string
		body any
	}{
		{"bad email", "/register", map[string]string{"email": "not-an-email", "password": "secret1"}},
		{"short password", "/register", map[string]string{"email": "a@b.io", "password": "abc"}},
		{"missing password", "/login", map[string]string{"email": "a@b.io"}},
		{"forgot without email", "/forgot", map[string]string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodPost, tc.path, "", tc.body)
			assert.Equal(t, http.StatusUnprocessableEntity, status)
			assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
		})
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	s := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/account"},
		{http.MethodPut, "/account"},
		{http.MethodDelete, "/account"},
		{http.MethodPut, "/account/password"},
		{http.MethodGet, "/profile"},
		{http.MethodGet, "/users/9b2f7f0e-3c1a-4a57-9f0e-1f4d1f7b6a10"},
		{http.MethodGet, "/users?email=a@b.io"},
	} {
		status, body := s.do(t, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, route.path)
		assert.Equal(t, "UNAUTHORIZED", errorCode(body))

		status, _ = s.do(t, route.method, route.path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, status, route.path)
	}
}

func TestAccountLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.register(t, "jane@example.com", "secret1")
	s.register(t, "john@example.com", "secret2")
	token := s.login(t, "jane@example.com", "secret1")

	status, body := s.do(t, http.MethodGet, "/account", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"id": id, "email": "jane@example.com"}, body)

	status, body = s.do(t, http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["id"])

	status, body = s.do(t, http.MethodGet, "/users/"+id, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "jane@example.com", body["email"])

	status, body = s.do(t, http.MethodGet, "/users/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = s.do(t, http.MethodGet, "/users?email=john@example.com", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "john@example.com", body["email"])

	status, _ = s.do(t, http.MethodGet, "/users?email=ghost@example.com", token, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = s.do(t, http.MethodPut, "/account", token, map[string]string{"email": "john@example.com"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONFLICT", errorCode(body))

	status, _ = s.do(t, http.MethodPut, "/account", token, map[string]string{"email": "jane.doe@example.com"})
	assert.Equal(t, http.StatusNoContent, status)

	status, body = s.do(t, http.MethodPut, "/account/password", token, map[string]string{"oldPassword": "wrong-old", "newPassword": "brand-new"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))

	status, _ = s.do(t, http.MethodPut, "/account/password", token, map[string]string{"oldPassword": "secret1", "newPassword": "brand-new"})
	assert.Equal(t, http.StatusNoContent, status)
	s.login(t, "jane.doe@example.com", "brand-new")

	status, _ = s.do(t, http.MethodDelete, "/account", token, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = s.do(t, http.MethodGet, "/account", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "jane.doe@example.com", "password": "brand-new"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))
}

func TestForgotAndResetPassword(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jane@example.com", "secret1")

	status, body := s.do(t, http.MethodPost, "/forgot", "", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	status, body = s.do(t, http.MethodPost, "/forgot", "", map[string]string{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["message"], "jane@example.com")

	var token string
	select {
	case token = <-s.resets:
	default:
		t.Fatal("no reset event published")
	}

	status, body = s.do(t, http.MethodPut, "/account/password/ffffffffffffffffffffffffffffffff", "", map[string]string{"password": "brand-new"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "RESET_TOKEN_EXPIRED", errorCode(body))

	status, _ = s.do(t, http.MethodPut, "/account/password/"+token, "", map[string]string{"password": "brand-new"})
	assert.Equal(t, http.StatusNoContent, status)
	s.login(t, "jane@example.com", "brand-new")

	status, _ = s.do(t, http.MethodPut, "/account/password/"+token, "", map[string]string{"password": "another-one"})
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = s.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "disabled", deps["postgres"])
	assert.Equal(t, "disabled", deps["redis"])

	status, body = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, status)
	requests := body["requests"].(map[string]any)
	assert.Contains(t, requests, "/health/live|GET|200")
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	s := newTestServer(t)

	status, body := s.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestMetricsNeverExposeResetToken(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "jane@example.com", "secret1")

	status, _ := s.do(t, http.MethodPost, "/forgot", "", map[string]string{"email": "jane@example.com"})
	require.Equal(t, http.StatusOK, status)
	token := <-s.resets

	status, body := s.do(t, http.MethodPut, "/account/password/"+token, "", map[string]string{"password": "ab"})
	require.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), token)
	assert.Contains(t, string(raw), "/account/password/:token|PUT|VALIDATION_FAILED")
}

func TestMultibytePasswordOverBcryptLimitIsRejected(t *testing.T) {
	s := newTestServer(t)
	// 40 runes, 80 bytes.
	password := strings.Repeat("é", 40)

	status, body := s.do(t, http.MethodPost, "/register", "", map[string]string{"email": "jane@example.com", "password": password})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	s.register(t, "john@example.com", "secret1")
	token := s.login(t, "john@example.com", "secret1")
	status, body = s.do(t, http.MethodPut, "/account", token, map[string]string{"password": password})
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, _ = s.do(t, http.MethodPost, "/register", "", map[string]string{"email": "ok@example.com", "password": strings.Repeat("é", 36)})
	assert.Equal(t, http.StatusCreated, status)
}
