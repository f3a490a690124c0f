package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/lockbox/internal/models"
	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAccountService implements AccountServiceInterface and AccountLister for testing
type MockAccountService struct {
	RegisterFunc     func(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error)
	LoginFunc        func(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error)
	ListAccountsFunc func(ctx context.Context) ([]models.AccountSummary, error)
}

func (m *MockAccountService) Register(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterFunc(ctx, sourceKey, email, password)
}

func (m *MockAccountService) Login(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.LoginFunc(ctx, sourceKey, email, password)
}

func (m *MockAccountService) ListAccounts(ctx context.Context) ([]models.AccountSummary, error) {
	if m.ListAccountsFunc == nil {
		return []models.AccountSummary{}, nil
	}
	return m.ListAccountsFunc(ctx)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
