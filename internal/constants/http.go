package constants

import "time"

// ContentTypeHeader is the HTTP Content-Type header name.
const ContentTypeHeader = "Content-Type"

// ServerReadTimeout is the HTTP server read timeout
const ServerReadTimeout = 15 * time.Second

// ServerWriteTimeout is the HTTP server write timeout
const ServerWriteTimeout = 15 * time.Second

// ServerIdleTimeout is the HTTP server idle timeout
const ServerIdleTimeout = 60 * time.Second

// ServerShutdownTimeout is the timeout for graceful server shutdown
const ServerShutdownTimeout = 5 * time.Second

// RequestTimeout bounds how long a single API request may run. Streaming
// endpoints opt out.
const RequestTimeout = 30 * time.Second

// RequestIDByteSize is the number of random bytes used to generate request IDs
const RequestIDByteSize = 16

// DefaultDeployListLimit is the number of deploys list endpoints return when
// the request carries no limit parameter. Zero means no limit.
const DefaultDeployListLimit = 20
