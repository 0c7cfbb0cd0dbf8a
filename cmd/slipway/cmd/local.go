package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/deploy"
	"github.com/slipway/slipway/internal/output"
	"github.com/slipway/slipway/internal/secrets"

	"github.com/joho/godotenv"
)

// resolveBlueprintPath returns the blueprint file to operate on: the
// explicit argument when given, otherwise the first known file name found
// in the current directory.
func resolveBlueprintPath(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to determine working directory: %w", err)
	}
	return blueprint.Discover(cwd)
}

// loadService parses the blueprint at path and picks the named service.
// When name is empty the blueprint must declare exactly one service.
func loadService(path, name string) (*blueprint.Blueprint, *blueprint.Service, error) {
	bp, err := blueprint.ParseFile(path)
	if err != nil {
		return nil, nil, err
	}

	if name == "" {
		if len(bp.Services) != 1 {
			return nil, nil, fmt.Errorf(
				"%s declares %d services; name one of: %v",
				path, len(bp.Services), bp.ServiceNames())
		}
		return bp, bp.Services[0], nil
	}

	svc := bp.FindService(name)
	if svc == nil {
		return nil, nil, fmt.Errorf("service %q is not declared in %s (services: %v)",
			name, path, bp.ServiceNames())
	}
	return bp, svc, nil
}

// requireValidService fails when the service carries error-level findings,
// printing them first. Mirrors the platform rejecting a blueprint before
// any build step runs.
func requireValidService(svc *blueprint.Service) error {
	findings := svc.Validate()
	for _, f := range findings.Errors() {
		output.Errorf("%s", f.String())
	}
	for _, f := range findings.Warnings() {
		output.Warningf("%s", f.String())
	}
	if findings.HasErrors() {
		return fmt.Errorf("service %q failed blueprint validation", svc.Name)
	}
	return nil
}

// buildRunSpec assembles a fully resolved run spec for a local run: the
// service's declared environment, an optional .env overlay, secret
// references from the store with the process environment as fallback, and
// the PORT injection for web services.
func buildRunSpec(
	svc *blueprint.Service,
	checkout string,
	envFile string,
	port int,
) (*deploy.RunSpec, *secrets.Resolution, error) {
	store, err := secrets.OpenDefault()
	if err != nil {
		return nil, nil, err
	}

	resolver := &secrets.Resolver{Store: store}
	res, err := resolver.Resolve(svc.Name, svc.EnvRefs())
	if err != nil {
		return nil, nil, err
	}

	if envFile != "" {
		overlay, readErr := godotenv.Read(envFile)
		if readErr != nil {
			return nil, nil, fmt.Errorf("failed to read env file %s: %w", envFile, readErr)
		}
		for key, value := range overlay {
			res.Env[key] = value
			res.Missing = slices.DeleteFunc(res.Missing, func(k string) bool { return k == key })
			if secrets.LooksSecret(key) && !slices.Contains(res.SecretKeys, key) {
				res.SecretKeys = append(res.SecretKeys, key)
			}
		}
	}

	for _, key := range res.Missing {
		output.Warningf("secret %s has no stored value; starting without it", key)
	}

	return deploy.NewRunSpec(svc, checkout, res, port), res, nil
}

// consoleSink prints deploy log events to the terminal, masking any
// resolved secret values first.
type consoleSink struct {
	masker *secrets.Masker
}

func newConsoleSink(res *secrets.Resolution) *consoleSink {
	return &consoleSink{masker: secrets.MaskerForResolution(res)}
}

// Emit implements deploy.Sink.
func (s *consoleSink) Emit(ev api.LogEvent) {
	message := s.masker.Mask(ev.Message)
	switch ev.Stream {
	case api.LogStreamSystem:
		output.Infof("%s", message)
	default:
		output.Printf("%s %s\n", output.Gray(logPrefix(ev)), message)
	}
}

// logPrefix renders the phase tag shown before each command output line.
func logPrefix(ev api.LogEvent) string {
	if ev.Phase == api.LogPhaseBuild && ev.Step > 0 {
		return fmt.Sprintf("[build %d]", ev.Step)
	}
	if ev.Phase == api.LogPhaseRun {
		return "[run]"
	}
	return "[" + ev.Stream + "]"
}

// checkoutDir returns the directory the blueprint file lives in, which
// stands in for the repository checkout on local runs.
func checkoutDir(blueprintPath string) (string, error) {
	abs, err := filepath.Abs(blueprintPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve blueprint path: %w", err)
	}
	return filepath.Dir(abs), nil
}
