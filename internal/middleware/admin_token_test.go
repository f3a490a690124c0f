package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireAdminToken(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	tests := []struct {
		name       string
		configured string
		header     string
		want       int
	}{
		{"matching token", "s3cret", "s3cret", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusForbidden},
		{"wrong token", "s3cret", "s3cre", http.StatusForbidden},
		{"empty configured token never matches", "", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdminToken(tt.configured, nil, logger)(okHandler())

			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tt.header != "" {
				req.Header.Set(AdminTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), "Forbidden")
			}
		})
	}
}
