package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/lockbox/internal/auth"
	"github.com/BradenHooton/lockbox/internal/handlers"
	"github.com/BradenHooton/lockbox/internal/middleware"
	"github.com/BradenHooton/lockbox/internal/repositories"
	"github.com/BradenHooton/lockbox/internal/routes"
	"github.com/BradenHooton/lockbox/internal/services"
	pkgauth "github.com/BradenHooton/lockbox/pkg/auth"
	pkglogger "github.com/BradenHooton/lockbox/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminToken = "test-admin-token"

// newTestServer wires the full stack against a temp storage directory
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	repo, err := repositories.NewAccountRepository(t.TempDir(), logger)
	require.NoError(t, err)

	limiter := services.NewRateLimitService(services.DefaultRateLimitConfig(), logger)
	accountService := services.NewAccountService(
		repo,
		limiter,
		pkgauth.NewBcryptHasher(bcrypt.MinCost),
		auth.DefaultLockoutPolicy(),
		nil,
		logger,
		pkglogger.NewAuditLogger(logger),
	)

	router := chi.NewRouter()
	routes.RegisterRoutes(router, routes.Deps{
		AccountHandler: handlers.NewAccountHandler(accountService, nil),
		AdminHandler:   handlers.NewAdminHandler(accountService),
		Health:         repo,
		AdminToken:     testAdminToken,
		AdminRateLimit: middleware.DefaultAdminRateLimit(),
		Logger:         logger,
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, server *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getUsers(t *testing.T, server *httptest.Server, token string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, server.URL+"/users", nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set(middleware.AdminTokenHeader, token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestRoutes_RegisterLoginLockout(t *testing.T) {
	server := newTestServer(t)
	creds := map[string]string{"email": "a@b.com", "password": "pw1"}
	wrong := map[string]string{"email": "a@b.com", "password": "wrong"}

	resp, body := postJSON(t, server, "/register", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])

	resp, _ = postJSON(t, server, "/register", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, body = postJSON(t, server, "/login", creds)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), user["id"])

	for i := 0; i < 4; i++ {
		resp, _ = postJSON(t, server, "/login", wrong)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, body = postJSON(t, server, "/login", wrong)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, true, body["locked"])
	assert.NotEmpty(t, body["locked_until"])

	resp, _ = postJSON(t, server, "/login", creds)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRoutes_InvalidInput(t *testing.T) {
	server := newTestServer(t)

	resp, body := postJSON(t, server, "/register", map[string]string{"email": "nodomain", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid email format.", body["message"])
}

func TestRoutes_AdminListing(t *testing.T) {
	server := newTestServer(t)
	postJSON(t, server, "/register", map[string]string{"email": "a@b.com", "password": "pw1"})

	resp, body := getUsers(t, server, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", body["message"])

	resp, body = getUsers(t, server, "nope")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = getUsers(t, server, testAdminToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	users, ok := body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1)

	first := users[0].(map[string]any)
	assert.Equal(t, "a@b.com", first["email"])
	assert.NotContains(t, first, "password_hash")
}

func TestRoutes_RateLimitedWithRetryAfter(t *testing.T) {
	server := newTestServer(t)
	creds := map[string]string{"email": "ghost@b.com", "password": "pw"}

	for i := 0; i < services.DefaultMaxPerWindow; i++ {
		resp, _ := postJSON(t, server, "/login", creds)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "request %d", i+1)
	}

	resp, body := postJSON(t, server, "/login", creds)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Contains(t, body["message"], "Too many requests.")
}

func TestRoutes_HealthAndAnalyze(t *testing.T) {
	server := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, server, "/analyze", map[string]string{"email": "Please verify your password", "url": "https://example.com"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MEDIUM", body["risk"])
}
