package logger

import (
	"context"
	"log/slog"
	"time"
)

// ContextKey is the type for context keys used in logging.
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
	OperationKey ContextKey = "operation"

	// Business context keys, prefixed per OTel semantic-convention style.
	ArticleIDKey ContextKey = "search.article.id"
	RunIDKey     ContextKey = "search.run.id"
	StageKey     ContextKey = "search.stage"
)

// GlobalContext is the global ContextLogger instance, set by Init.
var GlobalContext *ContextLogger

// ContextLogger wraps a slog.Logger to lift known context values into
// log attributes.
type ContextLogger struct {
	logger *slog.Logger
}

func NewContextLogger(logger *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: logger}
}

// WithContext returns a logger carrying every known key present in ctx.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	args := make([]any, 0)

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		args = append(args, string(RequestIDKey), requestID)
	}
	if operation, ok := ctx.Value(OperationKey).(string); ok {
		args = append(args, string(OperationKey), operation)
	}
	if articleID, ok := ctx.Value(ArticleIDKey).(string); ok {
		args = append(args, string(ArticleIDKey), articleID)
	}
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		args = append(args, string(RunIDKey), runID)
	}
	if stage, ok := ctx.Value(StageKey).(string); ok {
		args = append(args, string(StageKey), stage)
	}

	return cl.logger.With(args...)
}

// LogDuration logs an operation completion with duration in milliseconds.
func (cl *ContextLogger) LogDuration(ctx context.Context, operation string, durationMs int64) {
	cl.WithContext(ctx).Info("operation completed",
		"operation", operation,
		"duration_ms", durationMs,
	)
}

// LogDurationTime is a convenience wrapper taking a time.Duration.
func (cl *ContextLogger) LogDurationTime(ctx context.Context, operation string, duration time.Duration) {
	cl.LogDuration(ctx, operation, duration.Milliseconds())
}

// LogError logs an operation failure with error details.
func (cl *ContextLogger) LogError(ctx context.Context, operation string, err error) {
	cl.WithContext(ctx).Error("operation failed",
		"operation", operation,
		"error", err,
	)
}

// WithRequestID adds a request ID to context for observability.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithArticleID adds an article ID to context for observability.
func WithArticleID(ctx context.Context, articleID string) context.Context {
	return context.WithValue(ctx, ArticleIDKey, articleID)
}

// WithRunID adds a reindex run ID to context for observability.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// WithStage adds a pipeline stage to context for observability.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
