// Package logger provides structured logging utilities for slipway.
// It includes context-aware logging and log level management.
package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/slipway/slipway/internal/constants"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
)

// ContextExtractor pulls a request ID out of a context populated by some
// runtime other than our own middleware. Extractors are tried in
// registration order after the context value set by WithRequestID.
type ContextExtractor interface {
	ExtractRequestID(ctx context.Context) (string, bool)
}

var contextExtractors []ContextExtractor

// RegisterContextExtractor appends an extractor to the lookup chain.
func RegisterContextExtractor(e ContextExtractor) {
	contextExtractors = append(contextExtractors, e)
}

// ClearContextExtractors removes all registered extractors.
func ClearContextExtractors() {
	contextExtractors = nil
}

// WithRequestID returns a context carrying the given request ID.
// Server middleware sets this for every incoming request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, requestID)
}

// GetRequestID extracts the request ID from the context.
// The request ID is set by server middleware when available.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDContextKey).(string); ok {
		return requestID
	}

	return ""
}

// ExtractRequestIDFromContext returns the request ID from the context value
// if set, otherwise the first registered extractor that finds one.
func ExtractRequestIDFromContext(ctx context.Context) string {
	if requestID := GetRequestID(ctx); requestID != "" {
		return requestID
	}

	for _, e := range contextExtractors {
		if requestID, ok := e.ExtractRequestID(ctx); ok && requestID != "" {
			return requestID
		}
	}

	return ""
}

// DeriveRequestLogger returns a logger enriched with request-scoped fields
// available in the provided context.
func DeriveRequestLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	if base == nil {
		return slog.Default()
	}

	if requestID := ExtractRequestIDFromContext(ctx); requestID != "" {
		return base.With(constants.RequestIDLogField, requestID)
	}

	return base
}

// GetDeadlineInfo returns logging attributes for context deadline information.
// Returns the absolute deadline time and remaining duration if set, or "none" if no deadline.
func GetDeadlineInfo(ctx context.Context) []any {
	deadline, ok := ctx.Deadline()
	if !ok {
		return []any{"deadline", "none", "deadline_remaining", "none"}
	}

	remaining := time.Until(deadline)
	return []any{
		"deadline", deadline.Format(time.RFC3339),
		"deadline_remaining", remaining.String(),
	}
}

// SliceToMap converts a slice of alternating key-value pairs to a map[string]any.
// It expects the slice to have an even number of elements with string keys.
// Non-string keys are skipped.
func SliceToMap(args []any) map[string]any {
	argsMap := make(map[string]any)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			if key, ok := args[i].(string); ok {
				argsMap[key] = args[i+1]
			}
		}
	}
	return argsMap
}
