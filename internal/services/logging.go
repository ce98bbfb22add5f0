package services

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, service string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", service),
	}
}

// LogOperation logs the outcome of one service call. Expected client errors
// are logged below error level.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation, userID, resourceID string, start time.Time, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err):
			level, status = slog.LevelWarn, "validation_error"
		case IsForbidden(err), IsUnauthorized(err):
			level, status = slog.LevelWarn, "denied"
		case IsNotFound(err):
			level, status = slog.LevelInfo, "not_found"
		case IsConflict(err):
			level, status = slog.LevelWarn, "conflict"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("user_id", userID),
		slog.String("resource_id", resourceID),
		slog.String("status", status),
		slog.Duration("duration", time.Since(start)),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var permErr *PermissionError
		var validationErr ValidationErrors
		if errors.As(err, &permErr) {
			attrs = append(attrs, slog.String("permission_action", permErr.Action))
		} else if errors.As(err, &validationErr) {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		}
	}

	l.logger.LogAttrs(ctx, level, operation+" "+status, attrs...)
}

func (l *ServiceLogger) Logger() *slog.Logger {
	return l.logger
}
