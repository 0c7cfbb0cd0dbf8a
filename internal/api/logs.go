package api

// Log streams a LogEvent can originate from.
const (
	LogStreamStdout = "stdout"
	LogStreamStderr = "stderr"
	LogStreamSystem = "system"
)

// Deploy phases a LogEvent can belong to.
const (
	LogPhaseBuild = "build"
	LogPhaseRun   = "run"
)

// LogEvent represents a single log event.
// Events are ordered by timestamp. Clients should sort by timestamp
// and compute line numbers as needed for display purposes.
type LogEvent struct {
	Timestamp int64  `json:"timestamp"` // Unix timestamp in milliseconds
	Message   string `json:"message"`   // The actual log message text
	Stream    string `json:"stream,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Step      int    `json:"step,omitempty"` // 1-based build command index
}

// LogsResponse contains the retained log events for a deploy
type LogsResponse struct {
	DeployID string     `json:"deploy_id"`
	Events   []LogEvent `json:"events"`

	// Current deploy status (PENDING, BUILDING, STARTING, LIVE, ...)
	Status string `json:"status"`

	// WebSocket URL for streaming logs (provided while the deploy is
	// still producing output)
	WebSocketURL string `json:"websocket_url,omitempty"`
}
