package server

import (
	"encoding/json"
	"net/http"

	"github.com/slipway/slipway/internal/api"
)

// handlePushHook handles POST /api/v1/hooks/push to notify the daemon of a
// code push. Matching services deploy asynchronously; the response reports
// per service whether a deploy started or why it was skipped.
func (r *Router) handlePushHook(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())

	var event api.PushEvent
	if err := decodeRequestBody(w, req, &event); err != nil {
		return
	}

	resp, err := r.deployer.HandlePush(req.Context(), &event)
	if err != nil {
		r.handleAndLogError(w, req, err, "handle push event")
		return
	}

	deployed := 0
	for _, result := range resp.Results {
		if result.Action == api.PushActionDeployed {
			deployed++
		}
	}
	logger.Info("push event processed", "push", map[string]any{
		"repo":     event.Repo,
		"branch":   event.Branch,
		"commit":   event.Commit,
		"matched":  len(resp.Results),
		"deployed": deployed,
	})

	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(resp)
}
