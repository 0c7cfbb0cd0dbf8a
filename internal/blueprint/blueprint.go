// Package blueprint defines the service blueprint format: the YAML file a
// repository carries to tell the platform how to build and run its services.
// It covers parsing, canonical encoding, and schema validation.
package blueprint

import (
	"fmt"
	"path/filepath"

	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/secrets"

	"gopkg.in/yaml.v3"
)

// Blueprint is the root of a blueprint file. A file declares one or more
// services under the top-level services key.
type Blueprint struct {
	Services []*Service `yaml:"services"`
}

// Service declares how the platform builds and runs one service: where its
// code lives, the runtime it needs, the ordered build commands, and the
// process to start once the whole build phase passes.
type Service struct {
	Type            constants.ServiceType `yaml:"type"`
	Name            string                `yaml:"name"`
	Env             string                `yaml:"env"`
	Repo            string                `yaml:"repo"`
	Branch          string                `yaml:"branch,omitempty"`
	RootDir         string                `yaml:"rootDir,omitempty"`
	Plan            string                `yaml:"plan,omitempty"`
	AutoDeploy      *bool                 `yaml:"autoDeploy,omitempty"`
	HealthCheckPath string                `yaml:"healthCheckPath,omitempty"`
	BuildFilter     *BuildFilter          `yaml:"buildFilter,omitempty"`
	BuildCommands   CommandList           `yaml:"buildCommands,omitempty"`
	StartCommand    string                `yaml:"startCommand"`
	EnvVars         []EnvVar              `yaml:"envVars,omitempty"`

	// Runtime is the newer spelling of Env. Accepted on input, folded
	// into Env by normalization, never emitted.
	Runtime string `yaml:"runtime,omitempty"`
	// BuildCommand is the legacy single-command form. Accepted on input,
	// folded into BuildCommands by normalization, never emitted.
	BuildCommand CommandList `yaml:"buildCommand,omitempty"`
}

// BuildFilter narrows which changed paths trigger a rebuild. Patterns are
// doublestar globs relative to the repository root. A path triggers when it
// matches some entry in Paths and no entry in IgnoredPaths.
type BuildFilter struct {
	Paths        []string `yaml:"paths,omitempty"`
	IgnoredPaths []string `yaml:"ignoredPaths,omitempty"`
}

// EnvVar declares one environment variable for a service. sync: false marks
// the entry as a secret reference: the platform stores the value out-of-band
// and the blueprint carries only the key name.
type EnvVar struct {
	Key           string `yaml:"key"`
	Value         string `yaml:"value,omitempty"`
	Sync          *bool  `yaml:"sync,omitempty"`
	GenerateValue bool   `yaml:"generateValue,omitempty"`
}

// Secret reports whether the entry is a secret reference (sync: false).
func (e *EnvVar) Secret() bool {
	return e.Sync != nil && !*e.Sync
}

// EnvRefs converts the service's declared environment into the resolver's
// input form, preserving declaration order.
func (s *Service) EnvRefs() []secrets.EnvRef {
	refs := make([]secrets.EnvRef, 0, len(s.EnvVars))
	for _, ev := range s.EnvVars {
		refs = append(refs, secrets.EnvRef{
			Key:      ev.Key,
			Value:    ev.Value,
			Secret:   ev.Secret(),
			Generate: ev.GenerateValue,
		})
	}
	return refs
}

// CommandList is an ordered list of shell commands. It accepts either a YAML
// sequence or a single scalar command on input and always emits the sequence
// form.
type CommandList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CommandList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*c = nil
			return nil
		}
		var single string
		if err := value.Decode(&single); err != nil {
			return err
		}
		*c = CommandList{single}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*c = CommandList(list)
		return nil
	default:
		return fmt.Errorf("line %d: commands must be a string or a list of strings", value.Line)
	}
}

// FindService returns the named service, or nil if the blueprint does not
// declare it.
func (b *Blueprint) FindService(name string) *Service {
	for _, svc := range b.Services {
		if svc != nil && svc.Name == name {
			return svc
		}
	}
	return nil
}

// ServiceNames returns the declared service names in declaration order.
func (b *Blueprint) ServiceNames() []string {
	names := make([]string, 0, len(b.Services))
	for _, svc := range b.Services {
		if svc != nil {
			names = append(names, svc.Name)
		}
	}
	return names
}

// BranchOrDefault returns the branch the service tracks, defaulting to main.
func (s *Service) BranchOrDefault() string {
	if s.Branch == "" {
		return constants.DefaultGitRef
	}
	return s.Branch
}

// AutoDeployEnabled reports whether push events may trigger deploys for this
// service. Defaults to true when the blueprint does not say otherwise.
func (s *Service) AutoDeployEnabled() bool {
	return s.AutoDeploy == nil || *s.AutoDeploy
}

// WorkDir returns the service's working directory under the given checkout.
func (s *Service) WorkDir(checkout string) string {
	if s.RootDir == "" {
		return checkout
	}
	return filepath.Join(checkout, filepath.FromSlash(s.RootDir))
}
