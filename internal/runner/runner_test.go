package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/deploy"
)

type recordSink struct {
	mu     sync.Mutex
	events []api.LogEvent
}

func (s *recordSink) Emit(ev api.LogEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordSink) messages(stream string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, ev := range s.events {
		if ev.Stream == stream {
			out = append(out, ev.Message)
		}
	}
	return out
}

func buildSpec(commands ...string) *deploy.RunSpec {
	return &deploy.RunSpec{
		Service:       "voice-chatbot-api",
		WorkDir:       os.TempDir(),
		BuildCommands: commands,
		Env:           map[string]string{},
	}
}

func TestLocal_BuildRunsCommandsInOrder(t *testing.T) {
	sink := &recordSink{}

	err := New().Build(context.Background(), buildSpec("echo first", "echo second"), sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, sink.messages(api.LogStreamStdout))

	system := sink.messages(api.LogStreamSystem)
	require.Len(t, system, 2)
	assert.Contains(t, system[0], "Running build command 1/2: echo first")
	assert.Contains(t, system[1], "Running build command 2/2: echo second")
}

func TestLocal_BuildFailsFast(t *testing.T) {
	sink := &recordSink{}

	err := New().Build(context.Background(), buildSpec("echo before", "exit 7", "echo after"), sink)
	require.Error(t, err)

	var cmdErr *deploy.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 1, cmdErr.Index)
	assert.Equal(t, "exit 7", cmdErr.Command)
	assert.Equal(t, 7, cmdErr.ExitCode)

	stdout := sink.messages(api.LogStreamStdout)
	assert.Contains(t, stdout, "before")
	assert.NotContains(t, stdout, "after", "commands after a failure must not run")
}

func TestLocal_BuildSeparatesStreams(t *testing.T) {
	sink := &recordSink{}

	err := New().Build(context.Background(), buildSpec("echo ok; echo oops >&2"), sink)
	require.NoError(t, err)

	assert.Equal(t, []string{"ok"}, sink.messages(api.LogStreamStdout))
	assert.Equal(t, []string{"oops"}, sink.messages(api.LogStreamStderr))
}

func TestLocal_BuildEnvironmentIsIsolated(t *testing.T) {
	t.Setenv("SLIPWAY_TEST_LEAK", "visible")

	spec := buildSpec(`echo "leak=[$SLIPWAY_TEST_LEAK] declared=[$DECLARED]"`)
	spec.Env = map[string]string{"DECLARED": "yes"}

	sink := &recordSink{}
	require.NoError(t, New().Build(context.Background(), spec, sink))

	stdout := sink.messages(api.LogStreamStdout)
	require.Len(t, stdout, 1)
	assert.Equal(t, "leak=[] declared=[yes]", stdout[0])
}

func TestLocal_BuildUsesWorkDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("fastapi\n"), 0o644))

	spec := buildSpec("test -f requirements.txt && echo found")
	spec.WorkDir = dir

	sink := &recordSink{}
	require.NoError(t, New().Build(context.Background(), spec, sink))
	assert.Equal(t, []string{"found"}, sink.messages(api.LogStreamStdout))
}

func TestLocal_BuildCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := New().Build(ctx, buildSpec("sleep 5"), &recordSink{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation must kill the command promptly")
}

func TestLocal_StartAndWait(t *testing.T) {
	sink := &recordSink{}
	spec := &deploy.RunSpec{
		Service:      "voice-chatbot-api",
		WorkDir:      os.TempDir(),
		StartCommand: "echo listening; exit 0",
		Env:          map[string]string{},
	}

	proc, err := New().Start(spec, sink)
	require.NoError(t, err)

	require.NoError(t, proc.Wait())
	assert.Equal(t, 0, proc.ExitCode())
	assert.Equal(t, []string{"listening"}, sink.messages(api.LogStreamStdout))
}

func TestLocal_StartPassesEnvironment(t *testing.T) {
	sink := &recordSink{}
	spec := &deploy.RunSpec{
		Service:      "voice-chatbot-api",
		WorkDir:      os.TempDir(),
		StartCommand: `echo "port=$PORT"`,
		Env:          map[string]string{"PORT": "43210"},
	}

	proc, err := New().Start(spec, sink)
	require.NoError(t, err)
	require.NoError(t, proc.Wait())

	assert.Equal(t, []string{"port=43210"}, sink.messages(api.LogStreamStdout))
}

func TestLocal_StartNonZeroExit(t *testing.T) {
	spec := &deploy.RunSpec{
		Service:      "voice-chatbot-api",
		WorkDir:      os.TempDir(),
		StartCommand: "exit 3",
		Env:          map[string]string{},
	}

	proc, err := New().Start(spec, &recordSink{})
	require.NoError(t, err)

	require.Error(t, proc.Wait())
	assert.Equal(t, 3, proc.ExitCode())
}

func TestLocal_StopTerminatesProcess(t *testing.T) {
	spec := &deploy.RunSpec{
		Service:      "voice-chatbot-api",
		WorkDir:      os.TempDir(),
		StartCommand: "sleep 10",
		Env:          map[string]string{},
	}

	proc, err := New().Start(spec, &recordSink{})
	require.NoError(t, err)

	start := time.Now()
	proc.Stop(5 * time.Second)
	require.Error(t, proc.Wait())
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, -1, proc.ExitCode(), "a signalled process reports no exit code")
}

func TestLocal_StopEscalatesToKill(t *testing.T) {
	spec := &deploy.RunSpec{
		Service:      "voice-chatbot-api",
		WorkDir:      os.TempDir(),
		StartCommand: `trap "" TERM; sleep 10`,
		Env:          map[string]string{},
	}

	proc, err := New().Start(spec, &recordSink{})
	require.NoError(t, err)

	start := time.Now()
	proc.Stop(100 * time.Millisecond)
	require.Error(t, proc.Wait())
	assert.Less(t, time.Since(start), 3*time.Second, "SIGKILL must follow once the grace period lapses")
}

func TestFreePort(t *testing.T) {
	port, err := FreePort()
	require.NoError(t, err)
	require.Greater(t, port, 0)

	// The port must actually be bindable.
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	require.NoError(t, err)
	require.NoError(t, l.Close())
}
