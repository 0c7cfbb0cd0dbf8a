package server

import (
	"encoding/json"
	"net/http"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/constants"
)

// handleHealth returns a simple health check response
func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(constants.ContentTypeHeader, "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(api.HealthResponse{
		Status:  "ok",
		Version: *constants.GetVersion(),
	})
}
