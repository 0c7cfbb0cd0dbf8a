// Package registry tracks the services the daemon knows about: which local
// working copy each service lives in and which blueprint file declares it.
// State persists in a JSON file under the data directory.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/slipway/slipway/internal/blueprint"
	apperrors "github.com/slipway/slipway/internal/errors"
	"github.com/slipway/slipway/internal/git"
)

// Entry is one registered service: the blueprint declares it, the path is
// the working copy the daemon builds and runs it from.
type Entry struct {
	Name          string    `json:"name"`
	Path          string    `json:"path"`
	BlueprintPath string    `json:"blueprint_path"`
	Type          string    `json:"type,omitempty"`
	Repo          string    `json:"repo,omitempty"`
	Branch        string    `json:"branch,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Registry is a mutex-guarded view over the services file. All mutations
// persist before returning.
type Registry struct {
	path string

	mu      sync.Mutex
	loaded  bool
	entries map[string]*Entry

	// now is a clock seam for tests.
	now func() time.Time
}

type registryFile struct {
	Services map[string]*Entry `json:"services"`
}

// New returns a registry backed by the file at path. The file is created on
// first registration.
func New(path string) *Registry {
	return &Registry{path: path, now: time.Now}
}

// Register adds a service or refreshes an existing registration. A name
// already registered from a different path is a conflict; re-registering
// from the same path updates the entry in place.
func (r *Registry) Register(entry Entry) (*Entry, error) {
	if entry.Name == "" {
		return nil, apperrors.ErrBadRequest("service name is required", nil)
	}
	if entry.Path == "" {
		return nil, apperrors.ErrBadRequest("service path is required", nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if existing, ok := r.entries[entry.Name]; ok {
		if existing.Path != entry.Path {
			return nil, apperrors.ErrConflict(
				fmt.Sprintf("service %q is already registered from %s", entry.Name, existing.Path), nil)
		}
		existing.BlueprintPath = entry.BlueprintPath
		existing.Type = entry.Type
		existing.Repo = entry.Repo
		existing.Branch = entry.Branch
		existing.UpdatedAt = now
		if err := r.persist(); err != nil {
			return nil, err
		}
		saved := *existing
		return &saved, nil
	}

	entry.RegisteredAt = now
	entry.UpdatedAt = now
	stored := entry
	r.entries[entry.Name] = &stored
	if err := r.persist(); err != nil {
		return nil, err
	}

	saved := stored
	return &saved, nil
}

// Sync upserts a registration for every service a blueprint declares.
// path is the working copy root; blueprintPath is the declaring file,
// relative to it. Syncing stops at the first conflict.
func (r *Registry) Sync(bp *blueprint.Blueprint, path, blueprintPath string) ([]*Entry, error) {
	synced := make([]*Entry, 0, len(bp.Services))
	for _, svc := range bp.Services {
		if svc == nil {
			continue
		}
		entry, err := r.Register(Entry{
			Name:          svc.Name,
			Path:          path,
			BlueprintPath: blueprintPath,
			Type:          string(svc.Type),
			Repo:          svc.Repo,
			Branch:        svc.BranchOrDefault(),
		})
		if err != nil {
			return synced, err
		}
		synced = append(synced, entry)
	}
	return synced, nil
}

// Get returns the registration for a service name.
func (r *Registry) Get(name string) (*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	entry, ok := r.entries[name]
	if !ok {
		return nil, apperrors.ErrServiceNotFound(fmt.Sprintf("service %q is not registered", name), nil)
	}
	found := *entry
	return &found, nil
}

// List returns all registrations sorted by name.
func (r *Registry) List() ([]*Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		found := *entry
		entries = append(entries, &found)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Remove drops a registration. Removing an unknown name is an error so the
// CLI can tell the user instead of silently succeeding.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(); err != nil {
		return err
	}

	if _, ok := r.entries[name]; !ok {
		return apperrors.ErrServiceNotFound(fmt.Sprintf("service %q is not registered", name), nil)
	}
	delete(r.entries, name)
	return r.persist()
}

// FindByRepo returns the registrations whose remote matches repo, in name
// order. Spelling differences (scp vs https, .git suffix) don't matter.
func (r *Registry) FindByRepo(repo string) ([]*Entry, error) {
	entries, err := r.List()
	if err != nil {
		return nil, err
	}

	matched := make([]*Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.Repo != "" && git.RemotesEqual(entry.Repo, repo) {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

// load reads the backing file once. A missing file is an empty registry.
func (r *Registry) load() error {
	if r.loaded {
		return nil
	}

	r.entries = make(map[string]*Entry)

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.loaded = true
			return nil
		}
		return apperrors.ErrStorageError("failed to read service registry", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return apperrors.ErrStorageError("service registry is corrupt", err)
	}
	if file.Services != nil {
		r.entries = file.Services
	}

	r.loaded = true
	return nil
}

// persist writes the registry atomically: marshal, write a temp file in
// the same directory, rename over the old file.
func (r *Registry) persist() error {
	data, err := json.MarshalIndent(registryFile{Services: r.entries}, "", "  ")
	if err != nil {
		return apperrors.ErrStorageError("failed to encode service registry", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return apperrors.ErrStorageError("failed to create registry directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".tmp.*")
	if err != nil {
		return apperrors.ErrStorageError("failed to stage registry write", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return apperrors.ErrStorageError("failed to write registry", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return apperrors.ErrStorageError("failed to set registry permissions", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.ErrStorageError("failed to flush registry", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		return apperrors.ErrStorageError("failed to commit registry write", err)
	}
	committed = true

	return nil
}
