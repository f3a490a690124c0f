package logger

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	AccountID     int64
	Email         string // masked before it is written
	Source        string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security events as structured log records
type AuditLogger struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		now:    time.Now,
	}
}

// LogAuthAttempt logs a register or login outcome. Failures are logged at WARN.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	if al == nil {
		return
	}

	attrs := al.baseAttrs("auth", event.EventType)
	attrs = append(attrs, slog.Bool("success", event.Success))

	if event.AccountID > 0 {
		attrs = append(attrs, slog.Int64("account_id", event.AccountID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}

// LogAccountAction logs state changes on an account such as creation or lockout
func (al *AuditLogger) LogAccountAction(eventType string, accountID int64, source string, metadata map[string]string) {
	if al == nil {
		return
	}

	attrs := al.baseAttrs("account", eventType)
	attrs = append(attrs, slog.String("account_id", strconv.FormatInt(accountID, 10)))

	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

func (al *AuditLogger) baseAttrs(auditType, eventType string) []slog.Attr {
	return []slog.Attr{
		slog.String("event_id", uuid.NewString()),
		slog.String("audit_type", auditType),
		slog.String("event_type", eventType),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}
}
