// Package runner executes build commands and service processes on the
// local host. Commands run through sh -c in their own process group with
// an isolated environment, and their output streams line by line into the
// deploy log.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/deploy"
)

const shell = "sh"

// Output lines longer than the scanner default would abort the stream;
// build tools occasionally emit very long lines.
const (
	scanBufferBytes = 64 * 1024
	maxLineBytes    = 1024 * 1024
)

// Host variables handed through to every command. Everything else the
// service sees comes from its blueprint declarations.
var passthroughEnv = []string{"PATH", "HOME", "TMPDIR", "LANG"}

// Local runs commands directly on this machine.
type Local struct{}

// New returns a runner that executes on the local host.
func New() *Local {
	return &Local{}
}

// Build runs the spec's build commands in declaration order, stopping at
// the first failure. Cancelling ctx kills the running command's whole
// process group.
func (l *Local) Build(ctx context.Context, spec *deploy.RunSpec, sink deploy.Sink) error {
	total := len(spec.BuildCommands)
	for i, command := range spec.BuildCommands {
		step := i + 1
		sink.Emit(api.LogEvent{
			Message: fmt.Sprintf("Running build command %d/%d: %s", step, total, command),
			Stream:  api.LogStreamSystem,
			Phase:   api.LogPhaseBuild,
			Step:    step,
		})

		if err := l.runBuildCommand(ctx, spec, sink, i, command); err != nil {
			return err
		}
	}
	return nil
}

func (l *Local) runBuildCommand(ctx context.Context, spec *deploy.RunSpec, sink deploy.Sink, index int, command string) error {
	cmd := exec.Command(shell, "-c", command)
	cmd.Dir = spec.WorkDir
	cmd.Env = environ(spec.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	streams, err := streamOutput(cmd, sink, api.LogPhaseBuild, index+1)
	if err != nil {
		return fmt.Errorf("failed to wire command output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start build command %d: %w", index+1, err)
	}

	done := make(chan error, 1)
	go func() {
		streams.Wait()
		done <- cmd.Wait()
	}()

	select {
	case <-ctx.Done():
		killGroup(cmd, syscall.SIGKILL)
		<-done
		return ctx.Err()
	case err := <-done:
		if err == nil {
			return nil
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &deploy.CommandError{
				Index:    index,
				Command:  command,
				ExitCode: exitErr.ExitCode(),
			}
		}
		return fmt.Errorf("build command %d did not run: %w", index+1, err)
	}
}

// Start launches the spec's start command and returns a handle to the
// running process. The caller owns the process from here: Wait to observe
// the exit, Stop to terminate it.
func (l *Local) Start(spec *deploy.RunSpec, sink deploy.Sink) (deploy.Process, error) {
	cmd := exec.Command(shell, "-c", spec.StartCommand)
	cmd.Dir = spec.WorkDir
	cmd.Env = environ(spec.Env)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	streams, err := streamOutput(cmd, sink, api.LogPhaseRun, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to wire service output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start service: %w", err)
	}

	return &process{cmd: cmd, streams: streams, done: make(chan struct{})}, nil
}

// process is a running service command.
type process struct {
	cmd     *exec.Cmd
	streams *sync.WaitGroup
	done    chan struct{}

	waitOnce sync.Once
	waitErr  error
	stopOnce sync.Once
}

// Wait blocks until the process exits and its output is drained.
func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		p.streams.Wait()
		p.waitErr = p.cmd.Wait()
		close(p.done)
	})
	<-p.done
	return p.waitErr
}

// ExitCode reports the exit code once Wait has returned; -1 when the
// process was killed by a signal.
func (p *process) ExitCode() int {
	if state := p.cmd.ProcessState; state != nil {
		return state.ExitCode()
	}
	return -1
}

// Stop asks the process group to terminate and escalates to SIGKILL after
// the grace period. It returns without waiting for the exit.
func (p *process) Stop(grace time.Duration) {
	p.stopOnce.Do(func() {
		killGroup(p.cmd, syscall.SIGTERM)
		time.AfterFunc(grace, func() {
			select {
			case <-p.done:
			default:
				killGroup(p.cmd, syscall.SIGKILL)
			}
		})
	})
}

// killGroup signals the command's process group, falling back to the
// process itself when the group is already gone.
func killGroup(cmd *exec.Cmd, sig syscall.Signal) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, sig); err != nil {
		_ = cmd.Process.Signal(sig)
	}
}

// streamOutput wires the command's stdout and stderr into the sink, one
// event per line. The returned WaitGroup resolves once both pipes hit EOF;
// callers must wait on it before cmd.Wait.
func streamOutput(cmd *exec.Cmd, sink deploy.Sink, phase string, step int) (*sync.WaitGroup, error) {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go scanLines(&wg, stdout, sink, api.LogStreamStdout, phase, step)
	go scanLines(&wg, stderr, sink, api.LogStreamStderr, phase, step)
	return &wg, nil
}

func scanLines(wg *sync.WaitGroup, r io.Reader, sink deploy.Sink, stream, phase string, step int) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scanBufferBytes), maxLineBytes)
	for scanner.Scan() {
		sink.Emit(api.LogEvent{
			Message: scanner.Text(),
			Stream:  stream,
			Phase:   phase,
			Step:    step,
		})
	}
}

// environ builds the command environment: the passthrough host variables
// plus the resolved service variables, which win on collision.
func environ(env map[string]string) []string {
	out := make([]string, 0, len(passthroughEnv)+len(env))
	for _, key := range passthroughEnv {
		if _, declared := env[key]; declared {
			continue
		}
		if value, ok := os.LookupEnv(key); ok {
			out = append(out, key+"="+value)
		}
	}
	for key, value := range env {
		out = append(out, key+"="+value)
	}
	return out
}

// FreePort asks the kernel for an unused TCP port on the loopback
// interface.
func FreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("failed to allocate a port: %w", err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port, nil
}
