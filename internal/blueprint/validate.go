package blueprint

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/secrets"

	"github.com/bmatcuk/doublestar/v4"
)

// Severity classifies a validation finding.
type Severity string

const (
	// SeverityError findings make the blueprint unusable; the platform
	// rejects the file before any build step runs.
	SeverityError Severity = "error"
	// SeverityWarning findings flag declarations the platform still
	// accepts but that rarely mean what the author intended.
	SeverityWarning Severity = "warning"
)

// Finding codes, stable for programmatic handling.
const (
	CodeParseError         = "parse-error"
	CodeNoServices         = "no-services"
	CodeMissingField       = "missing-field"
	CodeDuplicateService   = "duplicate-service-name"
	CodeUnsafeRootDir      = "unsafe-root-dir"
	CodeEmptyBuildCommands = "empty-build-commands"
	CodeEmptyBuildCommand  = "empty-build-command"
	CodeMissingEnvKey      = "missing-env-key"
	CodeSecretWithValue    = "secret-with-value"
	CodeInvalidGlob        = "invalid-glob"

	CodeUnknownType       = "unknown-type"
	CodeUnknownRuntime    = "unknown-runtime"
	CodeUnknownPlan       = "unknown-plan"
	CodeDuplicateEnvKey   = "duplicate-env-key"
	CodePlaintextSecret   = "plaintext-secret"
	CodeGenerateWithValue = "generate-with-value"
	CodeEmptyBuildFilter  = "empty-build-filter"
	CodeNoPortReference   = "no-port-reference"
	CodeHealthCheckScope  = "health-check-non-web"
)

// Finding is one validation result with enough context to locate the
// offending field, e.g. services[0].envVars[2].value.
type Finding struct {
	Severity Severity `json:"severity"`
	Field    string   `json:"field"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Field, f.Message)
}

// Findings is the full result of validating a blueprint.
type Findings []Finding

// HasErrors reports whether any finding carries error severity.
func (fs Findings) HasErrors() bool {
	for _, f := range fs {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the error-severity findings.
func (fs Findings) Errors() Findings {
	return fs.filter(SeverityError)
}

// Warnings returns the warning-severity findings.
func (fs Findings) Warnings() Findings {
	return fs.filter(SeverityWarning)
}

func (fs Findings) filter(sev Severity) Findings {
	var out Findings
	for _, f := range fs {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

// Validate checks the blueprint against the platform schema. A blueprint
// with error findings is rejected before any build runs; warnings are
// surfaced but do not block a deploy.
func (b *Blueprint) Validate() Findings {
	if len(b.Services) == 0 {
		return Findings{{
			Severity: SeverityError,
			Field:    "services",
			Code:     CodeNoServices,
			Message:  "blueprint declares no services",
		}}
	}

	var fs Findings
	seen := make(map[string]int, len(b.Services))
	for i, svc := range b.Services {
		ref := fmt.Sprintf("services[%d]", i)
		if svc == nil {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    ref,
				Code:     CodeMissingField,
				Message:  "service entry is empty",
			})
			continue
		}

		fs = append(fs, svc.validate(ref)...)

		if svc.Name == "" {
			continue
		}
		if first, dup := seen[svc.Name]; dup {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    ref + ".name",
				Code:     CodeDuplicateService,
				Message:  fmt.Sprintf("service name %q already declared at services[%d]; names must be unique", svc.Name, first),
			})
			continue
		}
		seen[svc.Name] = i
	}

	return fs
}

// Validate checks a single service declaration outside a blueprint context.
func (s *Service) Validate() Findings {
	return s.validate("service")
}

func (s *Service) validate(ref string) Findings {
	var fs Findings
	addError := func(field, code, message string) {
		fs = append(fs, Finding{Severity: SeverityError, Field: field, Code: code, Message: message})
	}
	addWarning := func(field, code, message string) {
		fs = append(fs, Finding{Severity: SeverityWarning, Field: field, Code: code, Message: message})
	}

	if s.Type == "" {
		addError(ref+".type", CodeMissingField, "type is required")
	} else if !constants.IsKnownServiceType(s.Type) {
		addWarning(ref+".type", CodeUnknownType, fmt.Sprintf("unrecognized service type %q", s.Type))
	}

	if s.Name == "" {
		addError(ref+".name", CodeMissingField, "name is required")
	}

	if s.Env == "" {
		addError(ref+".env", CodeMissingField, "env is required")
	} else if !constants.IsKnownRuntime(s.Env) {
		addWarning(ref+".env", CodeUnknownRuntime, fmt.Sprintf("unrecognized runtime %q", s.Env))
	}

	if s.Repo == "" {
		addError(ref+".repo", CodeMissingField, "repo is required")
	}

	if strings.TrimSpace(s.StartCommand) == "" {
		addError(ref+".startCommand", CodeMissingField, "startCommand is required")
	} else if s.Type == constants.WebService && !referencesPort(s.StartCommand) {
		addWarning(ref+".startCommand", CodeNoPortReference,
			"web services receive their port in $PORT but the start command never references it")
	}

	if s.Plan != "" && !constants.IsKnownPlan(s.Plan) {
		addWarning(ref+".plan", CodeUnknownPlan, fmt.Sprintf("unrecognized plan %q", s.Plan))
	}

	if s.RootDir != "" && !safeRelativeDir(s.RootDir) {
		addError(ref+".rootDir", CodeUnsafeRootDir, "rootDir must be a relative path inside the repository")
	}

	if s.HealthCheckPath != "" && s.Type != "" && s.Type != constants.WebService {
		addWarning(ref+".healthCheckPath", CodeHealthCheckScope,
			"healthCheckPath only applies to web services")
	}

	fs = append(fs, s.validateBuildCommands(ref)...)
	fs = append(fs, s.validateEnvVars(ref)...)
	fs = append(fs, s.BuildFilter.validate(ref+".buildFilter")...)

	return fs
}

// validateBuildCommands enforces the build phase contract: the list may be
// absent (no build phase), but a declared list must hold at least one
// command and every command must be non-empty. Order is preserved as
// written; commands run in sequence and the first failure stops the build.
func (s *Service) validateBuildCommands(ref string) Findings {
	var fs Findings

	if s.BuildCommands != nil && len(s.BuildCommands) == 0 {
		fs = append(fs, Finding{
			Severity: SeverityError,
			Field:    ref + ".buildCommands",
			Code:     CodeEmptyBuildCommands,
			Message:  "buildCommands must not be empty when declared",
		})
		return fs
	}

	for j, cmd := range s.BuildCommands {
		if strings.TrimSpace(cmd) == "" {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    fmt.Sprintf("%s.buildCommands[%d]", ref, j),
				Code:     CodeEmptyBuildCommand,
				Message:  "build command must not be empty",
			})
		}
	}

	return fs
}

func (s *Service) validateEnvVars(ref string) Findings {
	var fs Findings
	seen := make(map[string]int, len(s.EnvVars))

	for j, ev := range s.EnvVars {
		evRef := fmt.Sprintf("%s.envVars[%d]", ref, j)

		if ev.Key == "" {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    evRef + ".key",
				Code:     CodeMissingEnvKey,
				Message:  "environment variable key is required",
			})
			continue
		}

		if ev.Secret() && ev.Value != "" {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    evRef + ".value",
				Code:     CodeSecretWithValue,
				Message:  fmt.Sprintf("%s is marked sync: false; secret values live in the secret store, not the blueprint", ev.Key),
			})
		}

		if ev.GenerateValue && ev.Value != "" {
			fs = append(fs, Finding{
				Severity: SeverityWarning,
				Field:    evRef + ".value",
				Code:     CodeGenerateWithValue,
				Message:  fmt.Sprintf("%s sets generateValue; the declared value is ignored", ev.Key),
			})
		}

		if !ev.Secret() && !ev.GenerateValue && ev.Value != "" && secrets.LooksSecret(ev.Key) {
			fs = append(fs, Finding{
				Severity: SeverityWarning,
				Field:    evRef + ".value",
				Code:     CodePlaintextSecret,
				Message:  fmt.Sprintf("%s looks like a secret but carries a literal value; mark it sync: false and store the value out-of-band", ev.Key),
			})
		}

		if first, dup := seen[ev.Key]; dup {
			fs = append(fs, Finding{
				Severity: SeverityWarning,
				Field:    evRef + ".key",
				Code:     CodeDuplicateEnvKey,
				Message:  fmt.Sprintf("%s already declared at %s.envVars[%d]; the last occurrence wins", ev.Key, ref, first),
			})
			continue
		}
		seen[ev.Key] = j
	}

	return fs
}

func (bf *BuildFilter) validate(ref string) Findings {
	if bf == nil {
		return nil
	}

	var fs Findings

	if len(bf.Paths) == 0 && len(bf.IgnoredPaths) == 0 {
		fs = append(fs, Finding{
			Severity: SeverityWarning,
			Field:    ref,
			Code:     CodeEmptyBuildFilter,
			Message:  "buildFilter is declared but empty; every push will trigger a build",
		})
		return fs
	}

	for j, pattern := range bf.Paths {
		if !doublestar.ValidatePattern(pattern) {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    fmt.Sprintf("%s.paths[%d]", ref, j),
				Code:     CodeInvalidGlob,
				Message:  fmt.Sprintf("invalid glob pattern %q", pattern),
			})
		}
	}
	for j, pattern := range bf.IgnoredPaths {
		if !doublestar.ValidatePattern(pattern) {
			fs = append(fs, Finding{
				Severity: SeverityError,
				Field:    fmt.Sprintf("%s.ignoredPaths[%d]", ref, j),
				Code:     CodeInvalidGlob,
				Message:  fmt.Sprintf("invalid glob pattern %q", pattern),
			})
		}
	}

	return fs
}

// referencesPort reports whether the command mentions the injected port
// variable in either shell spelling.
func referencesPort(cmd string) bool {
	return strings.Contains(cmd, "$"+constants.PortEnvVar) ||
		strings.Contains(cmd, "${"+constants.PortEnvVar+"}")
}

// safeRelativeDir reports whether dir is a relative path that stays inside
// the repository checkout.
func safeRelativeDir(dir string) bool {
	if filepath.IsAbs(dir) || strings.HasPrefix(dir, "/") {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
