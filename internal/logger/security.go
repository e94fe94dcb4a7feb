// Package logger provides secure logging functionality for the Reply backend.
package logger

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// New creates the application logger with JSON output at the given level.
func New(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: lvl,
	})
	return slog.New(handler)
}

// SecurityLogger provides methods for logging security-related events.
// It ensures sensitive data (credentials, object keys) is never logged.
type SecurityLogger struct {
	logger *slog.Logger
}

// NewSecurityLogger creates a new SecurityLogger with JSON output.
func NewSecurityLogger() *SecurityLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// NewSecurityLoggerWithHandler creates a SecurityLogger with a custom handler.
func NewSecurityLoggerWithHandler(handler slog.Handler) *SecurityLogger {
	return &SecurityLogger{
		logger: slog.New(handler),
	}
}

// SecurityLoggerFrom wraps an existing application logger so security
// events land in the same output stream.
func SecurityLoggerFrom(logger *slog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger}
}

// AuthFailure logs a failed identity resolution.
// Never logs header values beyond the username that failed to resolve.
func (s *SecurityLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a client exceeds rate limits.
func (s *SecurityLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// ForbiddenAccess logs an attempt to reach a message the user cannot see.
func (s *SecurityLogger) ForbiddenAccess(ip, path string, userID, messageID uint) {
	s.logger.Warn("forbidden_access",
		slog.String("event_type", "forbidden"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Uint64("user_id", uint64(userID)),
		slog.Uint64("message_id", uint64(messageID)),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// InvalidOrigin logs a rejected WebSocket connection due to invalid origin.
func (s *SecurityLogger) InvalidOrigin(ip, origin string) {
	s.logger.Warn("invalid_origin",
		slog.String("event_type", "invalid_origin"),
		slog.String("ip", ip),
		slog.String("origin", origin),
		slog.Time("timestamp", time.Now().UTC()),
	)
}
