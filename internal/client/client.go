// Package client provides HTTP client functionality for the slipway daemon
// API. It handles request/response serialization and error handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/config"
	"github.com/slipway/slipway/internal/constants"
	apperrors "github.com/slipway/slipway/internal/errors"
	"github.com/slipway/slipway/internal/logger"
)

// Client provides a generic HTTP client for daemon API operations
type Client struct {
	baseURL string
	logger  *slog.Logger
}

// New creates a new API client
func New(cfg *config.Config, log *slog.Logger) *Client {
	return &Client{
		baseURL: cfg.APIBaseURL(),
		logger:  log,
	}
}

// Request represents an API request
type Request struct {
	Method string
	Path   string
	Body   any
}

// Response represents an API response
type Response struct {
	StatusCode int
	Body       []byte
}

// buildURL constructs the full API URL from path and query string
func (c *Client) buildURL(path string) (string, error) {
	// Split path and query string if present
	var pathPart, queryString string
	if idx := strings.Index(path, "?"); idx != -1 {
		pathPart = path[:idx]
		queryString = path[idx+1:]
	} else {
		pathPart = path
	}

	apiURL, err := url.JoinPath(c.baseURL, pathPart)
	if err != nil {
		return "", err
	}

	if queryString != "" {
		apiURL = apiURL + "?" + queryString
	}

	return apiURL, nil
}

// Do makes an HTTP request to the daemon API
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		jsonData, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	apiURL, err := c.buildURL(req.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid API endpoint: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(constants.ContentTypeHeader, "application/json")

	logArgs := []any{
		"operation", "HTTP.Request",
		"method", req.Method,
		"url", apiURL,
	}
	logArgs = append(logArgs, logger.GetDeadlineInfo(ctx)...)
	c.logger.Debug("calling daemon API", logArgs...)

	httpClient := &http.Client{}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("received HTTP response",
		"status", resp.StatusCode,
		"bodySize", len(body),
		"method", req.Method,
		"url", apiURL)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}

// decodeErrorResponse turns an error payload into a Go error.
func decodeErrorResponse(resp *Response) error {
	var errorResp api.ErrorResponse
	if err := json.Unmarshal(resp.Body, &errorResp); err != nil || errorResp.Error == "" {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(resp.Body))
	}
	if errorResp.Details != "" {
		return fmt.Errorf("[%d] %s: %s", resp.StatusCode, errorResp.Error, errorResp.Details)
	}
	return fmt.Errorf("[%d] %s", resp.StatusCode, errorResp.Error)
}

// DoJSON makes a request and unmarshals the response into the provided interface
func (c *Client) DoJSON(ctx context.Context, req Request, result any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeErrorResponse(resp)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err = json.Unmarshal(resp.Body, result); err != nil {
		c.logger.Debug("response body", "body", string(resp.Body))
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

// GetHealth checks the daemon health status
func (c *Client) GetHealth(ctx context.Context) (*api.HealthResponse, error) {
	var resp api.HealthResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   "/healthz",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateBlueprint submits a blueprint document for validation
func (c *Client) ValidateBlueprint(ctx context.Context, document string) (*api.ValidateResponse, error) {
	var resp api.ValidateResponse
	err := c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/blueprints/validate",
		Body:   api.ValidateRequest{Blueprint: document},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// NotifyPush delivers a push event to the daemon. Matching services deploy
// asynchronously; the response reports what happened per service.
func (c *Client) NotifyPush(ctx context.Context, event *api.PushEvent) (*api.PushResponse, error) {
	var resp api.PushResponse
	err := c.DoJSON(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/hooks/push",
		Body:   event,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListServices lists the services the daemon tracks
func (c *Client) ListServices(ctx context.Context) ([]*api.ServiceResponse, error) {
	var resp []*api.ServiceResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   "/api/v1/services",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// RegisterServices asks the daemon to track the services declared by a blueprint.
// When the daemon rejects the blueprint (422) the returned response still
// carries the validation findings so callers can display them.
func (c *Client) RegisterServices(
	ctx context.Context,
	req api.RegisterServiceRequest,
) (*api.RegisterServicesResponse, error) {
	httpResp, err := c.Do(ctx, Request{
		Method: "POST",
		Path:   "/api/v1/services/register",
		Body:   req,
	})
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode == http.StatusUnprocessableEntity {
		var resp api.RegisterServicesResponse
		if err = json.Unmarshal(httpResp.Body, &resp); err == nil && len(resp.Findings) > 0 {
			return &resp, apperrors.ErrBlueprintInvalid("blueprint has validation errors", nil)
		}
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, decodeErrorResponse(httpResp)
	}

	var resp api.RegisterServicesResponse
	if err = json.Unmarshal(httpResp.Body, &resp); err != nil {
		c.logger.Debug("response body", "body", string(httpResp.Body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// ListDeploys fetches deploys with optional filtering and pagination.
// Parameters:
//   - limit: maximum number of deploys to return (0 lets the daemon decide)
//   - statuses: comma-separated list of deploy statuses to filter by (e.g., "BUILDING,LIVE")
func (c *Client) ListDeploys(ctx context.Context, limit int, statuses string) ([]*api.Deploy, error) {
	var resp []*api.Deploy

	u, err := url.Parse("/api/v1/deploys")
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if statuses != "" {
		params.Set("status", statuses)
	}

	u.RawQuery = params.Encode()

	err = c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   u.String(),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetDeploy fetches one deploy by ID
func (c *Client) GetDeploy(ctx context.Context, deployID string) (*api.Deploy, error) {
	var resp api.Deploy
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   fmt.Sprintf("/api/v1/deploys/%s", deployID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// StopDeploy terminates a running deploy by its ID
// Returns nil response if the deploy already reached a terminal status (204 No Content)
func (c *Client) StopDeploy(ctx context.Context, deployID string) (*api.StopDeployResponse, error) {
	httpResp, err := c.Do(ctx, Request{
		Method: "POST",
		Path:   fmt.Sprintf("/api/v1/deploys/%s/stop", deployID),
	})
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, decodeErrorResponse(httpResp)
	}

	var resp api.StopDeployResponse
	if err = json.Unmarshal(httpResp.Body, &resp); err != nil {
		c.logger.Debug("response body", "body", string(httpResp.Body))
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

// GetLogs gets the retained log events for a deploy
// The response includes a WebSocketURL field for streaming while the deploy is active
func (c *Client) GetLogs(ctx context.Context, deployID string) (*api.LogsResponse, error) {
	var resp api.LogsResponse
	err := c.DoJSON(ctx, Request{
		Method: "GET",
		Path:   fmt.Sprintf("/api/v1/deploys/%s/logs", deployID),
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
