package secrets

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"sync"

	"github.com/slipway/slipway/internal/constants"

	"gopkg.in/yaml.v3"
)

// Store persists secret values out-of-band in an owner-only YAML file,
// keyed by service name then variable name. A blueprint marks an entry
// sync: false and the value lives here instead.
type Store struct {
	path string

	mu       sync.Mutex
	loaded   bool
	services map[string]map[string]string
}

type storeFile struct {
	Services map[string]map[string]string `yaml:"services"`
}

// NewStore returns a store backed by the file at path. The file is created
// on first write.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultStorePath returns the secret store location under the user's
// config directory.
func DefaultStorePath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}
	return constants.SecretsFilePath(currentUser.HomeDir), nil
}

// OpenDefault returns the store at the default location.
func OpenDefault() (*Store, error) {
	path, err := DefaultStorePath()
	if err != nil {
		return nil, err
	}
	return NewStore(path), nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Set stores a secret value for a service variable.
func (s *Store) Set(service, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	if s.services[service] == nil {
		s.services[service] = make(map[string]string)
	}
	s.services[service][key] = value

	return s.persist()
}

// Unset removes a stored secret. Removing the last secret of a service
// drops the service entry entirely.
func (s *Store) Unset(service, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return err
	}

	vars, ok := s.services[service]
	if !ok {
		return nil
	}
	delete(vars, key)
	if len(vars) == 0 {
		delete(s.services, service)
	}

	return s.persist()
}

// Lookup returns the stored value for a service variable.
func (s *Store) Lookup(service, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return "", false, err
	}

	value, ok := s.services[service][key]
	return value, ok, nil
}

// Keys returns the stored variable names for a service, sorted, without
// their values.
func (s *Store) Keys(service string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(s.services[service]))
	for key := range s.services[service] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ServiceNames returns the services with stored secrets, sorted.
func (s *Store) ServiceNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.services))
	for name := range s.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// load reads the backing file once. A missing file is an empty store.
func (s *Store) load() error {
	if s.loaded {
		return nil
	}

	s.services = make(map[string]map[string]string)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loaded = true
			return nil
		}
		return fmt.Errorf("error reading secret store: %w", err)
	}

	var file storeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("error parsing secret store: %w", err)
	}
	if file.Services != nil {
		s.services = file.Services
	}

	s.loaded = true
	return nil
}

func (s *Store) persist() error {
	data, err := yaml.Marshal(storeFile{Services: s.services})
	if err != nil {
		return fmt.Errorf("error encoding secret store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, constants.SecretsFilePermissions); err != nil {
		return fmt.Errorf("error writing secret store: %w", err)
	}
	// WriteFile only applies the mode on create; tighten pre-existing files.
	if err := os.Chmod(s.path, constants.SecretsFilePermissions); err != nil {
		return fmt.Errorf("error setting secret store permissions: %w", err)
	}

	return nil
}
