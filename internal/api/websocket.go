package api

// StreamMessageType represents the type of log stream message
type StreamMessageType string

const (
	// StreamMessageTypeLog represents a log event message
	StreamMessageTypeLog StreamMessageType = "log"
	// StreamMessageTypeDisconnect represents a disconnect notification message
	StreamMessageTypeDisconnect StreamMessageType = "disconnect"
)

// StreamDisconnectReason represents the reason for a disconnect
type StreamDisconnectReason string

const (
	// StreamDisconnectReasonDeployFinished indicates the deploy reached a
	// terminal status and no further log events will arrive
	StreamDisconnectReasonDeployFinished StreamDisconnectReason = "deploy_finished"
)

// StreamMessage represents a message sent to log stream clients
type StreamMessage struct {
	Type   StreamMessageType       `json:"type"`
	Event  *LogEvent               `json:"event,omitempty"`
	Reason *StreamDisconnectReason `json:"reason,omitempty"`
}
