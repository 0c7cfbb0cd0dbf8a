package api

import "time"

// RegisterServiceRequest asks the daemon to track the services declared by
// a blueprint in a local working copy. BlueprintPath is relative to Path
// and optional; the daemon probes the standard file names when empty.
type RegisterServiceRequest struct {
	Path          string `json:"path"`
	BlueprintPath string `json:"blueprint_path,omitempty"`
}

// ServiceResponse represents one registered service
type ServiceResponse struct {
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	BlueprintPath string    `json:"blueprint_path,omitempty"`
	Type          string    `json:"type,omitempty"`
	Repo          string    `json:"repo,omitempty"`
	Branch        string    `json:"branch,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RegisterServicesResponse lists the services registered from one
// blueprint, plus any validation warnings the blueprint carried.
type RegisterServicesResponse struct {
	Services []*ServiceResponse  `json:"services"`
	Findings []ValidationFinding `json:"findings,omitempty"`
}
