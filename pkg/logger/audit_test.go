package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestAuditLogger_LogAuthAttempt_Failure(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAuthAttempt(AuditEvent{
		EventType:     "login_failed",
		AccountID:     7,
		Email:         "alice@example.com",
		Source:        "10.0.0.1",
		FailureReason: "invalid_credentials",
	})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "auth", entry["audit_type"])
	assert.Equal(t, "login_failed", entry["event_type"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, float64(7), entry["account_id"])
	assert.Equal(t, "a****@*******.com", entry["email"])
	assert.Equal(t, "10.0.0.1", entry["source"])
	assert.Equal(t, "invalid_credentials", entry["failure_reason"])

	_, err := uuid.Parse(entry["event_id"].(string))
	assert.NoError(t, err)
}

func TestAuditLogger_LogAuthAttempt_SuccessIsInfo(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAuthAttempt(AuditEvent{EventType: "login_success", AccountID: 1, Success: true})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.NotContains(t, entry, "failure_reason")
	assert.NotContains(t, entry, "email")
}

func TestAuditLogger_LogAccountAction(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAccountAction("account_locked", 3, "10.0.0.2", map[string]string{"locked_until": "2025-01-01T00:15:00Z"})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "account", entry["audit_type"])
	assert.Equal(t, "account_locked", entry["event_type"])
	assert.Equal(t, "3", entry["account_id"])
	assert.Equal(t, "2025-01-01T00:15:00Z", entry["locked_until"])
}

func TestAuditLogger_NilIsNoop(t *testing.T) {
	var al *AuditLogger
	al.LogAuthAttempt(AuditEvent{EventType: "x"})
	al.LogAccountAction("x", 1, "", nil)
}
