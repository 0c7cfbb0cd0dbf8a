package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/buildfilter"
	"github.com/slipway/slipway/internal/config"
	"github.com/slipway/slipway/internal/constants"
	apperrors "github.com/slipway/slipway/internal/errors"
	"github.com/slipway/slipway/internal/registry"
	"github.com/slipway/slipway/internal/secrets"
)

// Engine turns triggers into deploys. Each deploy re-reads its blueprint
// from disk, builds in a bounded worker slot, then starts the service and
// tracks the process until it exits or is stopped.
type Engine struct {
	registry *registry.Registry
	store    *Store
	logs     *LogStore
	runner   Runner
	resolver *secrets.Resolver
	logger   *slog.Logger

	ports     func() (int, error)
	stopGrace time.Duration
	sem       chan struct{}

	mu     sync.Mutex
	active map[string]*activeDeploy
	wg     sync.WaitGroup
	closed bool
}

type activeDeploy struct {
	cancel context.CancelFunc

	mu   sync.Mutex
	proc Process
}

func (ad *activeDeploy) setProcess(p Process) {
	ad.mu.Lock()
	ad.proc = p
	ad.mu.Unlock()
}

// stop cancels the deploy's context (aborting a build in progress) and
// terminates the service process when one is already running.
func (ad *activeDeploy) stop(grace time.Duration) {
	ad.cancel()
	ad.mu.Lock()
	proc := ad.proc
	ad.mu.Unlock()
	if proc != nil {
		proc.Stop(grace)
	}
}

// NewEngine creates a deploy engine. ports supplies the port injected into
// web services; resolver may carry a nil store, in which case secret
// references resolve from the environment only.
func NewEngine(
	cfg *config.Config,
	reg *registry.Registry,
	r Runner,
	resolver *secrets.Resolver,
	ports func() (int, error),
	log *slog.Logger,
) *Engine {
	return &Engine{
		registry:  reg,
		store:     NewStore(),
		logs:      NewLogStore(cfg.GetLogBufferSize()),
		runner:    r,
		resolver:  resolver,
		logger:    log,
		ports:     ports,
		stopGrace: cfg.GetStopGracePeriod(),
		sem:       make(chan struct{}, cfg.GetParallelism()),
		active:    make(map[string]*activeDeploy),
	}
}

// TriggerDeploy queues a deploy for a registered service. Any deploy still
// in flight for the same service is stopped first; the platform runs one
// deploy per service at a time.
func (e *Engine) TriggerDeploy(
	ctx context.Context,
	service string,
	trigger constants.DeployTrigger,
	commit string,
) (*api.DeployResponse, error) {
	entry, err := e.registry.Get(service)
	if err != nil {
		return nil, err
	}

	for _, old := range e.store.ActiveForService(service) {
		e.logger.Info("stopping superseded deploy", "deploy_id", old.ID, "service", service)
		e.stopDeploy(old.ID, "Superseded by a newer deploy")
	}

	dep := &api.Deploy{
		ID:            uuid.NewString(),
		Service:       service,
		BlueprintPath: entry.BlueprintPath,
		Trigger:       string(trigger),
		Status:        string(constants.DeployPending),
		Branch:        entry.Branch,
		Commit:        commit,
		CreatedAt:     time.Now().UTC(),
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, apperrors.ErrServiceUnavailable("daemon is shutting down", nil)
	}
	e.store.Create(dep)
	e.wg.Add(1)
	e.mu.Unlock()

	e.logger.Info("deploy queued", "context", map[string]string{
		"deploy_id": dep.ID,
		"service":   service,
		"trigger":   string(trigger),
	})

	go e.execute(dep.ID, entry)

	return &api.DeployResponse{DeployID: dep.ID, Service: service, Status: dep.Status}, nil
}

// HandlePush applies a push event to every registered service of the repo:
// branch match, then the build filter, then a deploy. Services that do not
// deploy get a skip reason in the response.
func (e *Engine) HandlePush(ctx context.Context, event *api.PushEvent) (*api.PushResponse, error) {
	if event == nil || event.Repo == "" {
		return nil, apperrors.ErrBadRequest("repo is required", nil)
	}

	entries, err := e.registry.FindByRepo(event.Repo)
	if err != nil {
		return nil, err
	}

	resp := &api.PushResponse{Results: make([]api.PushResult, 0, len(entries))}
	for _, entry := range entries {
		resp.Results = append(resp.Results, e.evaluatePush(ctx, entry, event))
	}
	return resp, nil
}

func (e *Engine) evaluatePush(ctx context.Context, entry *registry.Entry, event *api.PushEvent) api.PushResult {
	skip := func(reason string) api.PushResult {
		e.logger.Info("push skipped for service", "context", map[string]string{
			"service": entry.Name,
			"reason":  reason,
		})
		return api.PushResult{Service: entry.Name, Action: api.PushActionSkipped, Reason: reason}
	}

	bp, _, err := e.loadBlueprint(entry)
	if err != nil {
		return skip(fmt.Sprintf("blueprint could not be read: %v", err))
	}

	svc := bp.FindService(entry.Name)
	if svc == nil {
		return skip("service is no longer declared in the blueprint")
	}
	if !buildfilter.MatchesBranch(svc, event.Branch) {
		return skip(fmt.Sprintf("push is for branch %s; service tracks %s", event.Branch, svc.BranchOrDefault()))
	}
	if !svc.AutoDeployEnabled() {
		return skip("autoDeploy is disabled for this service")
	}

	decision := buildfilter.Evaluate(svc, event.ChangedPaths)
	if !decision.Triggered {
		return skip(decision.Reason)
	}

	resp, err := e.TriggerDeploy(ctx, entry.Name, constants.TriggerPush, event.Commit)
	if err != nil {
		return skip(fmt.Sprintf("deploy could not be started: %v", err))
	}

	return api.PushResult{
		Service:  entry.Name,
		Action:   api.PushActionDeployed,
		Reason:   decision.Reason,
		DeployID: resp.DeployID,
	}
}

// GetDeploy returns the deploy with the given ID.
func (e *Engine) GetDeploy(id string) (*api.Deploy, error) {
	return e.store.Get(id)
}

// ListDeploys returns deploys newest first, optionally filtered by status.
func (e *Engine) ListDeploys(limit int, statuses []string) []*api.Deploy {
	return e.store.List(limit, statuses)
}

// Logs returns the retained log events for a deploy.
func (e *Engine) Logs(id string) (*api.LogsResponse, error) {
	dep, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	return &api.LogsResponse{
		DeployID: id,
		Status:   dep.Status,
		Events:   e.logs.Events(id),
	}, nil
}

// Follow subscribes to a deploy's log events: the retained backlog plus a
// live channel that closes when the deploy finishes.
func (e *Engine) Follow(id string) ([]api.LogEvent, <-chan api.LogEvent, func(), error) {
	if _, err := e.store.Get(id); err != nil {
		return nil, nil, nil, err
	}
	backlog, ch, cancel := e.logs.Subscribe(id)
	return backlog, ch, cancel, nil
}

// LogsClosed reports whether a deploy's log stream has finished.
func (e *Engine) LogsClosed(id string) bool {
	return e.logs.Closed(id)
}

// StopDeploy cancels a deploy. Stopping a deploy that already reached a
// terminal status is a no-op and returns nil, nil.
func (e *Engine) StopDeploy(ctx context.Context, id string) (*api.StopDeployResponse, error) {
	dep, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}

	if !constants.CanTransition(constants.DeployStatus(dep.Status), constants.DeployStopping) {
		e.logger.Info("deploy already in terminal state, no action taken", "context", map[string]string{
			"deploy_id": id,
			"status":    dep.Status,
		})
		return nil, nil
	}

	if !e.stopDeploy(id, "Deploy stop requested") {
		return nil, nil
	}
	return &api.StopDeployResponse{DeployID: id, Message: "Deploy stop initiated"}, nil
}

// stopDeploy moves a deploy to STOPPING and unwinds its work. The deploy's
// own worker confirms the stop by moving it to STOPPED.
func (e *Engine) stopDeploy(id, message string) bool {
	if _, ok := e.store.Transition(id, constants.DeployStopping); !ok {
		return false
	}
	e.systemLog(id, message)

	e.mu.Lock()
	ad := e.active[id]
	e.mu.Unlock()
	if ad != nil {
		ad.stop(e.stopGrace)
	}
	return true
}

// Shutdown stops accepting deploys, terminates everything in flight, and
// waits for the workers to unwind or ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	for _, dep := range e.store.List(0, nil) {
		if !constants.IsTerminalDeployStatus(constants.DeployStatus(dep.Status)) {
			e.stopDeploy(dep.ID, "Daemon is shutting down")
		}
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timed out waiting for deploys to stop: %w", ctx.Err())
	}
}

// execute runs one deploy end to end. It owns every status transition
// after PENDING; concurrent stop requests only ever set STOPPING and this
// worker confirms them.
func (e *Engine) execute(id string, entry *registry.Entry) {
	defer e.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ad := &activeDeploy{cancel: cancel}
	e.mu.Lock()
	e.active[id] = ad
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.active, id)
		e.mu.Unlock()
	}()

	// Wait for a worker slot.
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		e.finalizeStopped(id)
		return
	}

	sink := &storeSink{logs: e.logs, deployID: id}

	if _, ok := e.store.Transition(id, constants.DeployBuilding); !ok {
		e.finalizeStopped(id)
		return
	}

	spec, err := e.prepare(id, entry, sink)
	if err != nil {
		e.fail(id, sink, err)
		return
	}

	if len(spec.BuildCommands) > 0 {
		if buildErr := e.runner.Build(ctx, spec, sink); buildErr != nil {
			if ctx.Err() != nil {
				e.finalizeStopped(id)
				return
			}
			e.fail(id, sink, buildErr)
			return
		}
	} else {
		sink.system("No build commands declared; skipping build phase")
	}

	if _, ok := e.store.Transition(id, constants.DeployStarting); !ok {
		e.finalizeStopped(id)
		return
	}
	sink.system(fmt.Sprintf("Starting service: %s", spec.StartCommand))

	proc, err := e.runner.Start(spec, sink)
	if err != nil {
		e.fail(id, sink, err)
		return
	}
	ad.setProcess(proc)

	if _, ok := e.store.Transition(id, constants.DeployLive); !ok {
		// Stop won the race while the process was launching.
		proc.Stop(e.stopGrace)
		_ = proc.Wait()
		e.finalizeStopped(id)
		return
	}
	if spec.Port > 0 {
		sink.system(fmt.Sprintf("Service is live on port %d", spec.Port))
	} else {
		sink.system("Service is live")
	}
	e.logger.Info("deploy live", "context", map[string]string{
		"deploy_id": id,
		"service":   entry.Name,
	})

	if spec.HealthCheckPath != "" && spec.Port > 0 {
		go e.probeHealth(ctx, sink, spec)
	}

	waitErr := proc.Wait()
	exit := proc.ExitCode()
	_, _ = e.store.Update(id, func(d *api.Deploy) { d.ExitCode = &exit })

	dep, getErr := e.store.Get(id)
	switch {
	case getErr == nil && dep.Status == string(constants.DeployStopping):
		e.finalizeStopped(id)
	case waitErr == nil:
		sink.system("Service exited cleanly")
		e.finalize(id, constants.DeploySucceeded)
	default:
		e.fail(id, sink, fmt.Errorf("service process exited: %w", waitErr))
	}
}

// prepare re-reads the blueprint, validates the service, resolves its
// environment, and allocates a port. Parse or validation errors fail the
// deploy before any build command runs.
func (e *Engine) prepare(id string, entry *registry.Entry, sink *storeSink) (*RunSpec, error) {
	bp, path, err := e.loadBlueprint(entry)
	if err != nil {
		return nil, err
	}
	sink.system(fmt.Sprintf("Using blueprint %s", path))

	svc := bp.FindService(entry.Name)
	if svc == nil {
		return nil, fmt.Errorf("service %q is not declared in %s", entry.Name, path)
	}

	if findings := svc.Validate(); findings.HasErrors() {
		for _, f := range findings.Errors() {
			sink.system("Blueprint error: " + f.String())
		}
		return nil, apperrors.ErrBlueprintInvalid(
			fmt.Sprintf("blueprint validation failed for service %q", entry.Name), nil)
	}

	res, err := e.resolver.Resolve(svc.Name, svc.EnvRefs())
	if err != nil {
		return nil, err
	}
	for _, key := range res.Missing {
		sink.system(fmt.Sprintf("WARNING: secret %s has no stored value; starting without it", key))
	}
	if len(res.Missing) > 0 {
		_, _ = e.store.Update(id, func(d *api.Deploy) { d.MissingSecrets = res.Missing })
	}

	// From here on, resolved secret values never reach the log buffer.
	sink.setMasker(secrets.MaskerForResolution(res))

	port := 0
	if svc.Type == constants.WebService {
		port, err = e.ports()
		if err != nil {
			return nil, fmt.Errorf("failed to allocate a port: %w", err)
		}
		_, _ = e.store.Update(id, func(d *api.Deploy) { d.Port = port })
	}

	return NewRunSpec(svc, entry.Path, res, port), nil
}

func (e *Engine) loadBlueprint(entry *registry.Entry) (*blueprint.Blueprint, string, error) {
	path := entry.BlueprintPath
	if path == "" {
		discovered, err := blueprint.Discover(entry.Path)
		if err != nil {
			return nil, "", err
		}
		path = discovered
	} else {
		path = filepath.Join(entry.Path, path)
	}

	bp, err := blueprint.ParseFile(path)
	if err != nil {
		return nil, "", err
	}
	return bp, path, nil
}

// probeHealth polls the service's health check path after it goes live.
// The outcome only shows up in the deploy log; a service that never passes
// stays LIVE and fails on its own terms.
func (e *Engine) probeHealth(ctx context.Context, sink *storeSink, spec *RunSpec) {
	path := spec.HealthCheckPath
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := fmt.Sprintf("http://127.0.0.1:%d%s", spec.Port, path)
	client := &http.Client{Timeout: constants.HealthProbeTimeout}

	for attempt := 0; attempt < constants.HealthProbeAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(constants.HealthProbeInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode < http.StatusBadRequest {
			sink.system(fmt.Sprintf("Health check passed: GET %s returned %d", path, resp.StatusCode))
			return
		}
	}
	sink.system(fmt.Sprintf("WARNING: health check GET %s did not pass after %d attempts",
		path, constants.HealthProbeAttempts))
}

// fail marks a deploy FAILED, recording the failing build step when the
// error came from one.
func (e *Engine) fail(id string, sink *storeSink, err error) {
	message := sink.mask(err.Error())
	sink.system("Deploy failed: " + err.Error())

	var cmdErr *CommandError
	step := 0
	if errors.As(err, &cmdErr) {
		step = cmdErr.Index + 1
	}

	_, _ = e.store.Update(id, func(d *api.Deploy) {
		d.Error = message
		if step > 0 {
			d.FailedStep = step
		}
	})
	e.finalize(id, constants.DeployFailed)

	e.logger.Warn("deploy failed", "context", map[string]string{
		"deploy_id": id,
		"error":     message,
	})
}

func (e *Engine) finalizeStopped(id string) {
	e.systemLog(id, "Deploy stopped")
	e.finalize(id, constants.DeployStopped)
	e.logger.Info("deploy stopped", "deploy_id", id)
}

// finalize applies a terminal status and closes the log stream. When a
// concurrent stop moved the deploy to STOPPING first, the stop wins.
func (e *Engine) finalize(id string, to constants.DeployStatus) {
	if _, ok := e.store.Transition(id, to); !ok {
		e.store.Transition(id, constants.DeployStopped)
	}
	e.logs.Close(id)
}

func (e *Engine) systemLog(id, message string) {
	e.logs.Append(id, api.LogEvent{Message: message, Stream: api.LogStreamSystem})
}

// storeSink forwards log events into the log store, scrubbing resolved
// secret values once a masker is set.
type storeSink struct {
	logs     *LogStore
	deployID string

	mu     sync.Mutex
	masker *secrets.Masker
}

func (s *storeSink) setMasker(m *secrets.Masker) {
	s.mu.Lock()
	s.masker = m
	s.mu.Unlock()
}

func (s *storeSink) mask(text string) string {
	s.mu.Lock()
	m := s.masker
	s.mu.Unlock()
	return m.Mask(text)
}

// Emit implements Sink.
func (s *storeSink) Emit(ev api.LogEvent) {
	ev.Message = s.mask(ev.Message)
	s.logs.Append(s.deployID, ev)
}

func (s *storeSink) system(message string) {
	s.Emit(api.LogEvent{Message: message, Stream: api.LogStreamSystem})
}
