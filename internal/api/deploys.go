package api

import (
	"time"
)

// Deploy represents one build-and-run cycle of a declared service.
type Deploy struct {
	ID            string `json:"id"`
	Service       string `json:"service"`
	BlueprintPath string `json:"blueprint_path,omitempty"`
	Trigger       string `json:"trigger"`
	Status        string `json:"status"`
	Branch        string `json:"branch,omitempty"`
	Commit        string `json:"commit,omitempty"`

	// Port is the port injected into the service process as $PORT.
	// Zero for services that do not bind a port.
	Port int `json:"port,omitempty"`

	// Error carries the failure reason for deploys that ended FAILED.
	Error string `json:"error,omitempty"`

	// FailedStep is the 1-based index of the build command that aborted
	// the pipeline, when the failure happened during the build phase.
	FailedStep int `json:"failed_step,omitempty"`

	// ExitCode is only populated once the service process has exited.
	ExitCode *int `json:"exit_code,omitempty"`

	// MissingSecrets lists secret-marked environment variables that had no
	// value in the secret store at resolve time. The deploy proceeds
	// without them; the service is expected to fail on its own terms.
	MissingSecrets []string `json:"missing_secrets,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// DeployResponse represents the response to a deploy trigger request
type DeployResponse struct {
	DeployID string `json:"deploy_id"`
	Service  string `json:"service"`
	Status   string `json:"status"`

	// WebSocket URL for streaming logs (returned at trigger time so
	// clients can connect immediately)
	WebSocketURL string `json:"websocket_url,omitempty"`
}

// StopDeployResponse represents the response after stopping a deploy
type StopDeployResponse struct {
	DeployID string `json:"deploy_id"`
	Message  string `json:"message"`
}

// PushEvent represents a code push notification delivered to the hooks
// endpoint. ChangedPaths carries the repo-relative paths touched by the
// push; an empty list means the diff could not be determined.
type PushEvent struct {
	Repo         string   `json:"repo"`
	Branch       string   `json:"branch"`
	Commit       string   `json:"commit,omitempty"`
	ChangedPaths []string `json:"changed_paths,omitempty"`
}

// Push actions reported per service in a PushResponse.
const (
	PushActionDeployed = "deployed"
	PushActionSkipped  = "skipped"
)

// PushResult describes what a push event did for one registered service.
type PushResult struct {
	Service  string `json:"service"`
	Action   string `json:"action"`
	Reason   string `json:"reason,omitempty"`
	DeployID string `json:"deploy_id,omitempty"`
}

// PushResponse summarizes the outcome of a push event across all
// registered services matching the repo.
type PushResponse struct {
	Results []PushResult `json:"results"`
}
