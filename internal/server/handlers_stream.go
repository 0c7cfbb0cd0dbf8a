package server

import (
	"net/http"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/constants"

	"github.com/gorilla/websocket"
)

// handleStreamDeployLogs handles GET /api/v1/deploys/{deployID}/logs/stream.
// It upgrades the connection to a WebSocket, replays the retained log events,
// and forwards new ones as they arrive. When the deploy reaches a terminal
// status the server sends a disconnect message and closes the connection.
func (r *Router) handleStreamDeployLogs(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())

	deployID, ok := getRequiredURLParam(w, req, "deployID")
	if !ok {
		return
	}

	backlog, live, cancel, err := r.deployer.Follow(deployID)
	if err != nil {
		r.handleAndLogError(w, req, err, "stream deploy logs")
		return
	}
	defer cancel()

	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.Error("websocket upgrade failed", "deploy_id", deployID, "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	logger.Debug("log stream opened", "deploy_id", deployID, "backlog", len(backlog))

	// Reads only serve to detect the client going away.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	writeMessage := func(msg api.StreamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(constants.StreamWriteTimeout))
		return conn.WriteJSON(msg)
	}

	for i := range backlog {
		if writeErr := writeMessage(api.StreamMessage{Type: api.StreamMessageTypeLog, Event: &backlog[i]}); writeErr != nil {
			return
		}
	}

	for {
		select {
		case <-clientGone:
			logger.Debug("log stream client disconnected", "deploy_id", deployID)
			return
		case event, open := <-live:
			if !open {
				reason := api.StreamDisconnectReasonDeployFinished
				_ = writeMessage(api.StreamMessage{Type: api.StreamMessageTypeDisconnect, Reason: &reason})
				_ = conn.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, string(reason)),
					time.Now().Add(constants.StreamWriteTimeout),
				)
				return
			}
			if writeErr := writeMessage(api.StreamMessage{Type: api.StreamMessageTypeLog, Event: &event}); writeErr != nil {
				return
			}
		}
	}
}
