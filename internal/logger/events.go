// Package logger provides structured event logging for security and
// delivery telemetry. It ensures sensitive data is never logged.
package logger

import (
	"log/slog"
	"os"
	"time"
)

// EventLogger provides methods for logging security and delivery events.
type EventLogger struct {
	logger *slog.Logger
}

// NewEventLogger creates a new EventLogger with JSON output.
func NewEventLogger() *EventLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &EventLogger{
		logger: slog.New(handler),
	}
}

// NewEventLoggerWithHandler creates an EventLogger with a custom handler.
func NewEventLoggerWithHandler(handler slog.Handler) *EventLogger {
	return &EventLogger{
		logger: slog.New(handler),
	}
}

// AuthFailure logs a failed authentication attempt.
// Never logs the actual credentials.
func (s *EventLogger) AuthFailure(ip, path, reason string) {
	s.logger.Warn("authentication_failure",
		slog.String("event_type", "auth_failure"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// RateLimitExceeded logs when a client exceeds rate limits.
func (s *EventLogger) RateLimitExceeded(ip, path string) {
	s.logger.Warn("rate_limit_exceeded",
		slog.String("event_type", "rate_limit"),
		slog.String("ip", ip),
		slog.String("path", path),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// InvalidOrigin logs a rejected WebSocket connection due to invalid origin.
func (s *EventLogger) InvalidOrigin(ip, origin string) {
	s.logger.Warn("invalid_origin",
		slog.String("event_type", "invalid_origin"),
		slog.String("ip", ip),
		slog.String("origin", origin),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// BlockedFileUpload logs a blocked file upload attempt.
func (s *EventLogger) BlockedFileUpload(ip, filename, reason string) {
	s.logger.Warn("blocked_file_upload",
		slog.String("event_type", "blocked_upload"),
		slog.String("ip", ip),
		slog.String("filename", filename),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// PartialDelivery logs a recipient-copy persistence failure that occurred
// after the sender copy was already committed. Copies written before the
// failure are not rolled back, so the event carries enough context for
// manual reconciliation.
func (s *EventLogger) PartialDelivery(senderCopyID uint, subject, failedRecipient string, err error) {
	s.logger.Error("partial_delivery",
		slog.String("event_type", "partial_delivery"),
		slog.Uint64("sender_copy_id", uint64(senderCopyID)),
		slog.String("subject", subject),
		slog.String("failed_recipient", failedRecipient),
		slog.Any("error", err),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// NotificationDropped logs a notification emission failure. Notification
// delivery is best-effort and never escalates to a pipeline error.
func (s *EventLogger) NotificationDropped(identity string, messageID uint, reason string) {
	s.logger.Warn("notification_dropped",
		slog.String("event_type", "notification_dropped"),
		slog.String("identity", identity),
		slog.Uint64("message_id", uint64(messageID)),
		slog.String("reason", reason),
		slog.Time("timestamp", time.Now().UTC()),
	)
}

// SecurityEvent logs a generic security event.
func (s *EventLogger) SecurityEvent(eventType, ip string, details map[string]string) {
	attrs := []any{
		slog.String("event_type", eventType),
		slog.String("ip", ip),
		slog.Time("timestamp", time.Now().UTC()),
	}

	for k, v := range details {
		// Filter out sensitive keys
		if isSensitiveKey(k) {
			continue
		}
		attrs = append(attrs, slog.String(k, v))
	}

	s.logger.Warn("security_event", attrs...)
}

// Info logs an informational message.
func (s *EventLogger) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Error logs an error message.
func (s *EventLogger) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// GetLogger returns the underlying slog.Logger for use with middleware.
func (s *EventLogger) GetLogger() *slog.Logger {
	return s.logger
}

// isSensitiveKey checks if a key might contain sensitive data.
func isSensitiveKey(key string) bool {
	sensitiveKeys := map[string]bool{
		"password":      true,
		"api_key":       true,
		"apikey":        true,
		"token":         true,
		"secret":        true,
		"authorization": true,
		"auth":          true,
		"credential":    true,
		"credentials":   true,
		"session":       true,
		"cookie":        true,
	}
	return sensitiveKeys[key]
}
