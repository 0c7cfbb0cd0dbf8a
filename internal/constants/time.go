package constants

import "time"

// DefaultContextTimeout is the default timeout for context operations.
const DefaultContextTimeout = 10 * time.Second

// TestContextTimeout is the timeout for test contexts.
const TestContextTimeout = 5 * time.Second

// SpinnerTickerInterval is the interval between spinner frame updates.
const SpinnerTickerInterval = 80 * time.Millisecond

// StopGracePeriod is how long a service process gets between SIGTERM and SIGKILL.
const StopGracePeriod = 10 * time.Second

// WatchDebounceInterval batches rapid file save events into one change set.
const WatchDebounceInterval = 400 * time.Millisecond

// HealthProbeInterval is the pause between health check attempts after a
// service goes live.
const HealthProbeInterval = 2 * time.Second

// HealthProbeTimeout is the per-request timeout for a health check probe.
const HealthProbeTimeout = 3 * time.Second

// HealthProbeAttempts is how many times the health check path is probed
// before giving up.
const HealthProbeAttempts = 15
