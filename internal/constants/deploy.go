// Package constants defines global constants used throughout slipway.
package constants

import "slices"

// DeployStatus represents the business-level status of a deploy.
// A deploy covers one build-and-run cycle of a declared service.
// Deploy statuses are used throughout the API and stored in the state file.
type DeployStatus string

const (
	// DeployPending indicates the deploy has been accepted and is queued
	DeployPending DeployStatus = "PENDING"
	// DeployBuilding indicates build commands are executing in order
	DeployBuilding DeployStatus = "BUILDING"
	// DeployStarting indicates the build phase passed and the start command is launching
	DeployStarting DeployStatus = "STARTING"
	// DeployLive indicates the service process is running
	DeployLive DeployStatus = "LIVE"
	// DeploySucceeded indicates the service process exited cleanly
	DeploySucceeded DeployStatus = "SUCCEEDED"
	// DeployFailed indicates a build command or the service process failed
	DeployFailed DeployStatus = "FAILED"
	// DeployStopped indicates the deploy was manually terminated
	DeployStopped DeployStatus = "STOPPED"
	// DeployStopping indicates a stop request is in progress
	DeployStopping DeployStatus = "STOPPING"
)

// TerminalDeployStatuses returns all statuses that represent completed deploys
func TerminalDeployStatuses() []DeployStatus {
	return []DeployStatus{
		DeployFailed,
		DeployStopped,
		DeploySucceeded,
		DeployStopping,
	}
}

// IsTerminalDeployStatus reports whether status represents a completed deploy.
func IsTerminalDeployStatus(status DeployStatus) bool {
	return slices.Contains(TerminalDeployStatuses(), status)
}

// validTransitions defines the allowed state transitions for deploy statuses.
// Each key represents a source status, and the value is a slice of allowed destination statuses.
var validTransitions = map[DeployStatus][]DeployStatus{
	DeployPending:  {DeployBuilding, DeployFailed, DeployStopping},
	DeployBuilding: {DeployStarting, DeployFailed, DeployStopping},
	DeployStarting: {DeployLive, DeployFailed, DeployStopping},
	DeployLive:     {DeploySucceeded, DeployFailed, DeployStopping},
	DeployStopping: {DeployStopped},
	// Terminal states (SUCCEEDED, FAILED, STOPPED) have no valid transitions
	DeploySucceeded: {},
	DeployFailed:    {},
	DeployStopped:   {},
}

// CanTransition checks if a status transition from 'from' to 'to' is valid.
// Returns true if the transition is allowed, false otherwise.
// If the source status is not in the validTransitions map, returns false.
func CanTransition(from, to DeployStatus) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(allowed, to)
}

// DeployTrigger identifies what initiated a deploy.
type DeployTrigger string

const (
	// TriggerPush marks deploys initiated by a push event.
	TriggerPush DeployTrigger = "push"
	// TriggerManual marks deploys initiated by an operator.
	TriggerManual DeployTrigger = "manual"
	// TriggerWatch marks deploys initiated by the local watch loop.
	TriggerWatch DeployTrigger = "watch"
)
