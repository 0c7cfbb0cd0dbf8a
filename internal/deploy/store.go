// Package deploy runs the platform lifecycle for registered services: a
// push or manual trigger becomes a deploy, the deploy builds and starts
// the service, and its status and logs are queryable while it runs.
package deploy

import (
	"fmt"
	"sync"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/constants"
	apperrors "github.com/slipway/slipway/internal/errors"
)

// Store holds deploy records in memory for the lifetime of the daemon.
type Store struct {
	mu      sync.Mutex
	deploys map[string]*api.Deploy
	order   []string // insertion order, oldest first
}

// NewStore returns an empty deploy store.
func NewStore() *Store {
	return &Store{deploys: make(map[string]*api.Deploy)}
}

// Create records a new deploy.
func (s *Store) Create(dep *api.Deploy) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *dep
	s.deploys[dep.ID] = &stored
	s.order = append(s.order, dep.ID)
}

// Get returns a copy of the deploy with the given ID.
func (s *Store) Get(id string) (*api.Deploy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dep, ok := s.deploys[id]
	if !ok {
		return nil, apperrors.ErrDeployNotFound(fmt.Sprintf("deploy %q not found", id), nil)
	}
	found := *dep
	return &found, nil
}

// Update mutates a deploy record under the store lock and returns a copy.
func (s *Store) Update(id string, fn func(*api.Deploy)) (*api.Deploy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dep, ok := s.deploys[id]
	if !ok {
		return nil, apperrors.ErrDeployNotFound(fmt.Sprintf("deploy %q not found", id), nil)
	}
	fn(dep)
	updated := *dep
	return &updated, nil
}

// Transition moves a deploy to a new status when the state machine allows
// it, stamping StartedAt on the first build and CompletedAt on the final
// statuses. The second return reports whether the transition happened.
func (s *Store) Transition(id string, to constants.DeployStatus) (*api.Deploy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dep, ok := s.deploys[id]
	if !ok {
		return nil, false
	}
	if !constants.CanTransition(constants.DeployStatus(dep.Status), to) {
		current := *dep
		return &current, false
	}

	now := time.Now().UTC()
	dep.Status = string(to)
	switch to {
	case constants.DeployBuilding:
		if dep.StartedAt == nil {
			dep.StartedAt = &now
		}
	case constants.DeploySucceeded, constants.DeployFailed, constants.DeployStopped:
		dep.CompletedAt = &now
	}

	updated := *dep
	return &updated, true
}

// List returns deploys newest first, optionally filtered by status.
// A limit of zero or less means no limit.
func (s *Store) List(limit int, statuses []string) []*api.Deploy {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		wanted[status] = true
	}

	deploys := make([]*api.Deploy, 0, constants.DeploysSliceInitialCapacity)
	for i := len(s.order) - 1; i >= 0; i-- {
		dep := s.deploys[s.order[i]]
		if len(wanted) > 0 && !wanted[dep.Status] {
			continue
		}
		found := *dep
		deploys = append(deploys, &found)
		if limit > 0 && len(deploys) >= limit {
			break
		}
	}
	return deploys
}

// ActiveForService returns the non-terminal deploys for a service,
// oldest first.
func (s *Store) ActiveForService(service string) []*api.Deploy {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active []*api.Deploy
	for _, id := range s.order {
		dep := s.deploys[id]
		if dep.Service != service {
			continue
		}
		if constants.IsTerminalDeployStatus(constants.DeployStatus(dep.Status)) {
			continue
		}
		found := *dep
		active = append(active, &found)
	}
	return active
}
