package deploy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/secrets"
)

// RunSpec is a fully resolved service, ready to execute: environment
// assembled, secrets looked up, port allocated, paths joined.
type RunSpec struct {
	Service       string
	WorkDir       string
	BuildCommands []string
	StartCommand  string
	Env           map[string]string

	// Port is the value injected as PORT, zero when none was allocated.
	Port int

	HealthCheckPath string
}

// NewRunSpec assembles the execution spec for a resolved service. A
// non-zero port is injected into the environment as PORT.
func NewRunSpec(svc *blueprint.Service, checkout string, res *secrets.Resolution, port int) *RunSpec {
	env := make(map[string]string, len(res.Env)+1)
	for key, value := range res.Env {
		env[key] = value
	}
	if port > 0 {
		env[constants.PortEnvVar] = strconv.Itoa(port)
	}

	return &RunSpec{
		Service:         svc.Name,
		WorkDir:         svc.WorkDir(checkout),
		BuildCommands:   append([]string(nil), svc.BuildCommands...),
		StartCommand:    svc.StartCommand,
		Env:             env,
		Port:            port,
		HealthCheckPath: svc.HealthCheckPath,
	}
}

// Sink receives log events from a running deploy.
type Sink interface {
	Emit(ev api.LogEvent)
}

// Process is a started service process.
type Process interface {
	// Wait blocks until the process exits and returns a non-nil error for
	// a non-zero exit.
	Wait() error

	// ExitCode is valid once Wait has returned; -1 when the process was
	// killed by a signal.
	ExitCode() int

	// Stop requests termination: SIGTERM now, SIGKILL once the grace
	// period passes. It does not wait for the process to die.
	Stop(grace time.Duration)
}

// Runner executes the two phases of a deploy. Build runs the build
// commands strictly in order and stops at the first failure; Start
// launches the start command and hands back the running process.
type Runner interface {
	Build(ctx context.Context, spec *RunSpec, sink Sink) error
	Start(spec *RunSpec, sink Sink) (Process, error)
}

// CommandError reports the build command that exited non-zero and aborted
// the pipeline.
type CommandError struct {
	Index    int // zero-based position in buildCommands
	Command  string
	ExitCode int
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("build command %d (%s) exited with code %d", e.Index+1, e.Command, e.ExitCode)
}
