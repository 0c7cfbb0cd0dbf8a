// Package constants defines global constants used throughout slipway.
package constants

import "time"

// MaxConcurrentSends is the maximum number of concurrent sends to WebSocket connections
const MaxConcurrentSends = 10

// StreamWriteTimeout is the deadline for a single WebSocket write.
const StreamWriteTimeout = 10 * time.Second
