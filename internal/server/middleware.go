package server

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/slipway/slipway/internal/constants"
	loggerPkg "github.com/slipway/slipway/internal/logger"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// generateRequestID generates a random request ID using crypto/rand
func generateRequestID() string {
	b := make([]byte, constants.RequestIDByteSize)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}

// requestIDMiddleware extracts the request ID from the context (if present)
// or generates a random one, and stores a request-scoped logger alongside it.
func (r *Router) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := loggerPkg.GetRequestID(req.Context())
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := loggerPkg.WithRequestID(req.Context(), requestID)
		log := r.logger.With("requestID", requestID)
		ctx = context.WithValue(ctx, loggerContextKey, log)

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requestTimeoutMiddleware creates a context with timeout for each request.
// The timeout starts when the request is received, ensuring each request has
// a fair timeout regardless of connection reuse.
func (r *Router) requestTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			req = req.WithContext(ctx)

			next.ServeHTTP(w, req)

			if ctx.Err() == context.DeadlineExceeded {
				logger := r.GetLoggerFromContext(req.Context())
				logger.Warn("request timeout exceeded", "request", map[string]any{
					"method":  req.Method,
					"path":    req.URL.Path,
					"timeout": timeout,
				})
			}
		})
	}
}

// setContentTypeJSONMiddleware sets Content-Type to application/json for all responses
func setContentTypeJSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set(constants.ContentTypeHeader, "application/json")
		next.ServeHTTP(w, req)
	})
}

// requestLoggingMiddleware logs incoming requests and their responses
// Uses logger from context (includes request ID if available)
func (r *Router) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger := r.GetLoggerFromContext(req.Context())
		start := time.Now()
		deadlineString := ""
		if deadline, ok := req.Context().Deadline(); ok {
			deadlineString = deadline.Format(time.RFC3339)
		}

		// Wrap the response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		logger.Info("processing incoming client request", "request", map[string]string{
			"method":     req.Method,
			"path":       req.URL.Path,
			"remoteAddr": req.RemoteAddr,
			"deadline":   deadlineString,
		})

		next.ServeHTTP(wrapped, req)
		duration := time.Since(start)

		logger.Info("response sent to client", "response", map[string]any{
			"status":   wrapped.statusCode,
			"duration": duration.String(),
		})
	})
}

// responseWriter captures the status code written by a handler. The stream
// endpoint hijacks the connection, so http.Hijacker must pass through.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the hijackable writer underneath.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack delegates to the underlying writer so WebSocket upgrades work
// through the logging wrapper. gorilla asserts http.Hijacker directly
// rather than going through http.ResponseController.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying response writer does not implement http.Hijacker")
	}
	return hj.Hijack()
}

// GetLoggerFromContext extracts the logger from request context
// Returns the request-scoped logger (with request ID if available) or falls back to the base logger
func (r *Router) GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok && logger != nil {
		return logger
	}

	return r.logger
}
