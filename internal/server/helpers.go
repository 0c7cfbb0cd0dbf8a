package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/constants"
	apperrors "github.com/slipway/slipway/internal/errors"
	"github.com/slipway/slipway/internal/registry"

	"github.com/go-chi/chi/v5"
)

// extractErrorInfo extracts statusCode, errorCode, and errorDetails from an error.
// Returns the HTTP status code, error code, and error details.
func extractErrorInfo(err error) (statusCode int, errorCode, errorDetails string) {
	return apperrors.GetStatusCode(err),
		apperrors.GetErrorCode(err),
		apperrors.GetErrorDetails(err)
}

// writeJSON encodes v as the response body with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes an error payload without a machine-readable code.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeErrorResponseWithCode(w, statusCode, "", message, details)
}

// writeErrorResponseWithCode writes the standardized error payload.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, errorCode, message, details string) {
	w.Header().Set(constants.ContentTypeHeader, "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{
		Error:   message,
		Code:    errorCode,
		Details: details,
	})
}

// decodeRequestBody decodes JSON request body into the provided value.
// If decoding fails, writes an error response and returns the error.
// Returns nil on success.
func decodeRequestBody(w http.ResponseWriter, req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid request body", err.Error())
		return fmt.Errorf("failed to decode request body: %w", err)
	}
	return nil
}

// getRequiredURLParam extracts and validates a required URL parameter.
// If the parameter is missing or empty, writes a bad request error response and returns "", false.
// Returns the parameter value and true on success.
func getRequiredURLParam(w http.ResponseWriter, req *http.Request, name string) (string, bool) {
	param := strings.TrimSpace(chi.URLParam(req, name))
	if param == "" {
		writeErrorResponse(w, http.StatusBadRequest, "invalid "+name, name+" is required")
		return "", false
	}
	return param, true
}

// handleAndLogError logs an error and writes a standardized error response.
// Extracts HTTP status code, error code, and error details from the error,
// logs them with context, and writes a formatted error response.
// Use this for all engine and registry call failures in handlers.
func (r *Router) handleAndLogError(
	w http.ResponseWriter,
	req *http.Request,
	err error,
	operationName string,
) {
	logger := r.GetLoggerFromContext(req.Context())
	statusCode, errorCode, errorDetails := extractErrorInfo(err)

	logger.Error(
		"operation failed",
		"operation", operationName,
		"error", err,
		"status_code", statusCode,
		"error_code", errorCode,
	)

	writeErrorResponseWithCode(w, statusCode, errorCode, "failed to "+operationName, errorDetails)
}

// streamURL builds the WebSocket URL clients use to follow a deploy's logs.
func streamURL(req *http.Request, deployID string) string {
	return "ws://" + req.Host + "/api/v1/deploys/" + deployID + "/logs/stream"
}

// toAPIFindings converts validation findings to their wire form.
func toAPIFindings(findings blueprint.Findings) []api.ValidationFinding {
	if len(findings) == 0 {
		return nil
	}
	out := make([]api.ValidationFinding, 0, len(findings))
	for _, f := range findings {
		out = append(out, api.ValidationFinding{
			Severity: string(f.Severity),
			Field:    f.Field,
			Code:     f.Code,
			Message:  f.Message,
		})
	}
	return out
}

// toServiceResponses converts registry entries to their wire form.
func toServiceResponses(entries []*registry.Entry) []*api.ServiceResponse {
	out := make([]*api.ServiceResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, &api.ServiceResponse{
			Name:          entry.Name,
			Path:          entry.Path,
			BlueprintPath: entry.BlueprintPath,
			Type:          entry.Type,
			Repo:          entry.Repo,
			Branch:        entry.Branch,
			RegisteredAt:  entry.RegisteredAt,
			UpdatedAt:     entry.UpdatedAt,
		})
	}
	return out
}
