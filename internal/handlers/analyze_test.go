package handlers_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/lockbox/internal/analysis"
	"github.com/BradenHooton/lockbox/internal/handlers"
	"github.com/stretchr/testify/assert"
)

func TestAnalyze_Handler(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.Analyze(w, handlers.NewTestRequest(t, http.MethodPost, "/analyze", handlers.AnalyzeRequest{
		URL: "http://192.168.1.1/login",
	}))

	var report analysis.Report
	handlers.AssertJSONResponse(t, w, http.StatusOK, &report)
	assert.Equal(t, 45, report.Score)
	assert.Equal(t, analysis.RiskMedium, report.Risk)
	assert.Len(t, report.Findings, 2)
}

func TestAnalyze_EmptyBody(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.Analyze(w, httptest.NewRequest(http.MethodPost, "/analyze", http.NoBody))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"score":0,"risk":"LOW","findings":[]}`, w.Body.String())
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	handlers.Health(&handlers.MockHealthChecker{})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handlers.Health(&handlers.MockHealthChecker{Err: errors.New("gone")})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy")
}
