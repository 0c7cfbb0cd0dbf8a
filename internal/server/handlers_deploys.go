package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/slipway/slipway/internal/constants"
	apperrors "github.com/slipway/slipway/internal/errors"
)

// handleListDeploys handles GET /api/v1/deploys to list deploys with optional filtering.
// Query parameters:
//   - limit: maximum number of deploys to return (default: 20, use 0 to return all)
//   - status: comma-separated list of deploy statuses to filter by (e.g., "BUILDING,LIVE")
//
// Example: GET /api/v1/deploys?limit=5&status=BUILDING,LIVE
func (r *Router) handleListDeploys(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())

	limit := constants.DefaultDeployListLimit
	if limitParam := req.URL.Query().Get("limit"); limitParam != "" {
		parsedLimit, err := strconv.Atoi(limitParam)
		if err != nil {
			logger.Debug("invalid limit parameter", "error", err, "limit", limitParam)
			writeErrorResponseWithCode(w, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "invalid limit parameter", "")
			return
		}
		if parsedLimit < 0 {
			logger.Debug("invalid limit parameter", "error", "limit must be >= 0", "limit", limitParam)
			writeErrorResponseWithCode(w, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "invalid limit parameter", "")
			return
		}
		limit = parsedLimit
	}

	var statuses []string
	if statusParam := req.URL.Query().Get("status"); statusParam != "" {
		statuses = strings.Split(statusParam, ",")
		for i, s := range statuses {
			statuses[i] = strings.TrimSpace(s)
		}
	}

	deploys := r.deployer.ListDeploys(limit, statuses)

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(deploys)
}

// handleGetDeploy handles GET /api/v1/deploys/{deployID} to fetch one deploy.
func (r *Router) handleGetDeploy(w http.ResponseWriter, req *http.Request) {
	deployID, ok := getRequiredURLParam(w, req, "deployID")
	if !ok {
		return
	}

	deploy, err := r.deployer.GetDeploy(deployID)
	if err != nil {
		r.handleAndLogError(w, req, err, "get deploy")
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(deploy)
}

// handleStopDeploy handles POST /api/v1/deploys/{deployID}/stop to terminate
// a running deploy. Stopping a deploy that already reached a terminal status
// is a no-op and answers 204.
func (r *Router) handleStopDeploy(w http.ResponseWriter, req *http.Request) {
	deployID, ok := getRequiredURLParam(w, req, "deployID")
	if !ok {
		return
	}

	resp, err := r.deployer.StopDeploy(req.Context(), deployID)
	if err != nil {
		r.handleAndLogError(w, req, err, "stop deploy")
		return
	}

	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// handleGetDeployLogs handles GET /api/v1/deploys/{deployID}/logs to fetch
// the retained log events for a deploy. While the deploy is still producing
// output the response carries the WebSocket URL for live streaming.
func (r *Router) handleGetDeployLogs(w http.ResponseWriter, req *http.Request) {
	deployID, ok := getRequiredURLParam(w, req, "deployID")
	if !ok {
		return
	}

	resp, err := r.deployer.Logs(deployID)
	if err != nil {
		r.handleAndLogError(w, req, err, "get deploy logs")
		return
	}

	if !r.deployer.LogsClosed(deployID) {
		resp.WebSocketURL = streamURL(req, deployID)
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
