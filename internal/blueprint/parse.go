package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/slipway/slipway/internal/constants"

	"gopkg.in/yaml.v3"
)

// Parse decodes blueprint YAML. Unknown fields are rejected so typos like
// "buildComands" surface at parse time instead of being silently ignored.
// Accepted input aliases (runtime, buildCommand) are folded into their
// canonical fields before the blueprint is returned.
func Parse(data []byte) (*Blueprint, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var bp Blueprint
	if err := dec.Decode(&bp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("blueprint is empty")
		}
		return nil, fmt.Errorf("failed to parse blueprint YAML: %w", err)
	}

	bp.normalize()
	return &bp, nil
}

// ParseFile reads and parses the blueprint at path.
func ParseFile(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint file: %w", err)
	}

	bp, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bp, nil
}

// Discover probes dir for a blueprint file, trying the known file names in
// order, and returns the path of the first one present.
func Discover(dir string) (string, error) {
	for _, name := range constants.BlueprintFileNames {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no blueprint found in %s (looked for %s)", dir, strings.Join(constants.BlueprintFileNames, ", "))
}

// Encode renders the blueprint in canonical form: two-space indent, stable
// field order, sequence-form build commands, aliases folded away. Parsing
// the output yields a blueprint equal to the receiver after normalization.
func (b *Blueprint) Encode() ([]byte, error) {
	b.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return nil, fmt.Errorf("failed to encode blueprint: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode blueprint: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the blueprint and writes it to path.
func (b *Blueprint) WriteFile(path string) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, constants.BlueprintFilePermissions); err != nil {
		return fmt.Errorf("failed to write blueprint file: %w", err)
	}
	return nil
}

// normalize folds accepted input aliases into their canonical fields so the
// rest of the codebase only ever sees one spelling.
func (b *Blueprint) normalize() {
	for _, svc := range b.Services {
		if svc == nil {
			continue
		}
		if svc.Env == "" && svc.Runtime != "" {
			svc.Env = svc.Runtime
		}
		svc.Runtime = ""
		if len(svc.BuildCommands) == 0 && len(svc.BuildCommand) > 0 {
			svc.BuildCommands = svc.BuildCommand
		}
		svc.BuildCommand = nil
	}
}
