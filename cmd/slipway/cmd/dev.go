package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/buildfilter"
	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/deploy"
	"github.com/slipway/slipway/internal/output"
	"github.com/slipway/slipway/internal/runner"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var (
	devFlagFile string
	devEnvFile  string
	devPort     int
)

var devCmd = &cobra.Command{
	Use:   "dev [service]",
	Short: "Run a service and redeploy on file changes",
	Long: `Run a service locally and watch its project tree. Saving a file acts
like a push event: the changed paths run through the service's build
filter, and when they match, the service is stopped, rebuilt, and
restarted. Changes the filter rejects are reported and skipped.`,
	RunE: devRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	devCmd.Flags().StringVarP(&devFlagFile, "file", "f", "", "Blueprint file (default: discovered in the current directory)")
	devCmd.Flags().StringVar(&devEnvFile, "env-file", "", "Env file overlaid on the blueprint's environment")
	devCmd.Flags().IntVar(&devPort, "port", 0, "Port injected as PORT (default: an ephemeral free port)")
	rootCmd.AddCommand(devCmd)
}

func devRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	path, err := resolveBlueprintPath([]string{devFlagFile})
	if err != nil {
		return err
	}
	blueprintPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	checkout := filepath.Dir(blueprintPath)

	session := &devSession{
		blueprintPath: blueprintPath,
		checkout:      checkout,
		serviceName:   name,
		envFile:       devEnvFile,
		port:          devPort,
		runner:        runner.New(),
	}
	return session.run(cmd.Context())
}

// devSession is one watch-and-redeploy loop for a single service.
type devSession struct {
	blueprintPath string
	checkout      string
	serviceName   string
	envFile       string
	port          int
	runner        *runner.Local

	svc  *blueprint.Service
	proc deploy.Process
}

func (d *devSession) run(ctx context.Context) error {
	if err := d.loadService(); err != nil {
		return err
	}

	if d.port == 0 && d.svc.Type == constants.WebService {
		port, err := runner.FreePort()
		if err != nil {
			return err
		}
		d.port = port
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err = watchTree(watcher, d.checkout); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	output.Infof("Watching %s for changes (Ctrl+C to stop)", output.Bold(d.checkout))
	if err = d.deploy(ctx); err != nil {
		output.Errorf("%v", err)
		output.Infof("Waiting for a change to retry...")
	}

	// Save events arrive in bursts; the debounce timer batches them into
	// one change set before the filter runs.
	pending := make(map[string]struct{})
	var debounce <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			d.stopProcess()
			output.Blank()
			output.Successf("Stopped")
			return nil

		case event, open := <-watcher.Events:
			if !open {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			rel, relErr := filepath.Rel(d.checkout, event.Name)
			if relErr != nil || skipWatchPath(rel) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watchTree(watcher, event.Name)
				}
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			debounce = time.After(constants.WatchDebounceInterval)

		case watchErr, open := <-watcher.Errors:
			if !open {
				return nil
			}
			output.Warningf("watch error: %v", watchErr)

		case <-debounce:
			changed := drainPending(pending)
			debounce = nil
			d.handleChanges(ctx, changed)
		}
	}
}

// handleChanges runs one change set through the build filter and redeploys
// when it matches.
func (d *devSession) handleChanges(ctx context.Context, changed []string) {
	blueprintChanged := false
	for _, p := range changed {
		if filepath.Join(d.checkout, filepath.FromSlash(p)) == d.blueprintPath {
			blueprintChanged = true
			break
		}
	}
	if blueprintChanged {
		output.Infof("Blueprint changed; reloading")
		if err := d.loadService(); err != nil {
			output.Errorf("%v", err)
			return
		}
	}

	decision := buildfilter.Evaluate(d.svc, changed)
	if !decision.Triggered && !blueprintChanged {
		output.Infof("Change skipped: %s", decision.Reason)
		return
	}

	if decision.Triggered {
		output.Infof("Change matched: %s", decision.Reason)
	}
	if err := d.deploy(ctx); err != nil {
		output.Errorf("%v", err)
		output.Infof("Waiting for a change to retry...")
	}
}

// deploy performs one build-and-start cycle, stopping the previous process
// first.
func (d *devSession) deploy(ctx context.Context) error {
	d.stopProcess()

	if err := requireValidService(d.svc); err != nil {
		return err
	}

	spec, res, err := buildRunSpec(d.svc, d.checkout, d.envFile, d.port)
	if err != nil {
		return err
	}
	sink := newConsoleSink(res)

	if len(spec.BuildCommands) > 0 {
		output.Infof("Building %s (%d command(s))", output.Bold(d.svc.Name), len(spec.BuildCommands))
		if err = d.runner.Build(ctx, spec, sink); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
	}

	output.Infof("Starting %s: %s", output.Bold(d.svc.Name), spec.StartCommand)
	if spec.Port > 0 {
		output.KeyValue("PORT", fmt.Sprintf("%d", spec.Port))
	}

	proc, err := d.runner.Start(spec, sink)
	if err != nil {
		return err
	}
	d.proc = proc
	return nil
}

func (d *devSession) loadService() error {
	_, svc, err := loadService(d.blueprintPath, d.serviceName)
	if err != nil {
		return err
	}
	d.svc = svc
	return nil
}

func (d *devSession) stopProcess() {
	if d.proc == nil {
		return
	}
	d.proc.Stop(constants.StopGracePeriod)
	_ = d.proc.Wait()
	d.proc = nil
}

// watchTree registers dir and every directory below it with the watcher,
// skipping hidden directories.
func watchTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if name := entry.Name(); strings.HasPrefix(name, ".") && path != dir {
			return filepath.SkipDir
		}
		if addErr := watcher.Add(path); addErr != nil {
			return fmt.Errorf("failed to watch %s: %w", path, addErr)
		}
		return nil
	})
}

// skipWatchPath reports whether a changed path should be ignored: hidden
// files and anything under a hidden directory.
func skipWatchPath(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

// drainPending empties the pending change set into a sorted slice.
func drainPending(pending map[string]struct{}) []string {
	changed := make([]string, 0, len(pending))
	for p := range pending {
		changed = append(changed, p)
		delete(pending, p)
	}
	sort.Strings(changed)
	return changed
}
