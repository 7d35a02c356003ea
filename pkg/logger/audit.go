package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Auth event types
const (
	EventSignup = "signup"
	EventLogin  = "login"
)

// AuditEvent represents an authentication audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Username      string
	Success       bool
	FailureReason string
}

// StatusChange records an officer moving a report between statuses
type StatusChange struct {
	ReportID  string
	OfficerID string
	From      string
	To        string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
	env    string
	now    func() time.Time
}

// NewAuditLogger creates a new audit logger. Usernames are redacted when env is "production".
func NewAuditLogger(logger *slog.Logger, env string) *AuditLogger {
	return &AuditLogger{
		logger: logger,
		env:    env,
		now:    time.Now,
	}
}

// LogAuthAttempt logs signup and login attempts
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Username != "" {
		attrs = append(attrs, RedactedAttr("username", event.Username, al.env))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", withRequestID(ctx, attrs)...)
}

// LogStatusChange logs a report status update
func (al *AuditLogger) LogStatusChange(ctx context.Context, change StatusChange) {
	attrs := []slog.Attr{
		slog.String("audit_type", "report"),
		slog.String("event_type", "status_change"),
		slog.String("report_id", change.ReportID),
		slog.String("officer_id", change.OfficerID),
		slog.String("from", change.From),
		slog.String("to", change.To),
		slog.String("timestamp", al.now().UTC().Format(time.RFC3339)),
	}

	al.logger.LogAttrs(ctx, slog.LevelInfo, "audit", withRequestID(ctx, attrs)...)
}

// withRequestID ties an audit record to the access log line of the same request
func withRequestID(ctx context.Context, attrs []slog.Attr) []slog.Attr {
	if id := middleware.GetReqID(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	return attrs
}
