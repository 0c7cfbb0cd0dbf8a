package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/output"
	"github.com/slipway/slipway/internal/runner"

	"github.com/spf13/cobra"
)

var (
	upFlagFile string
	upEnvFile  string
	upPort     int
	upNoBuild  bool
)

var upCmd = &cobra.Command{
	Use:   "up [service]",
	Short: "Build and start a service",
	Long: `Build a service and start its process locally, the way the platform
would: build commands first, strictly in order and fail-fast, then the
start command with the resolved environment and PORT injected.

Ctrl+C sends the process SIGTERM and escalates to SIGKILL after the
grace period.`,
	RunE: upRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	upCmd.Flags().StringVarP(&upFlagFile, "file", "f", "", "Blueprint file (default: discovered in the current directory)")
	upCmd.Flags().StringVar(&upEnvFile, "env-file", "", "Env file overlaid on the blueprint's environment")
	upCmd.Flags().IntVar(&upPort, "port", 0, "Port injected as PORT (default: an ephemeral free port)")
	upCmd.Flags().BoolVar(&upNoBuild, "no-build", false, "Skip the build phase")
	rootCmd.AddCommand(upCmd)
}

func upRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	path, err := resolveBlueprintPath([]string{upFlagFile})
	if err != nil {
		return err
	}
	_, svc, err := loadService(path, name)
	if err != nil {
		return err
	}
	if err = requireValidService(svc); err != nil {
		return err
	}

	checkout, err := checkoutDir(path)
	if err != nil {
		return err
	}

	port := upPort
	if port == 0 && svc.Type == constants.WebService {
		port, err = runner.FreePort()
		if err != nil {
			return err
		}
	}

	spec, res, err := buildRunSpec(svc, checkout, upEnvFile, port)
	if err != nil {
		return err
	}

	sink := newConsoleSink(res)
	r := runner.New()

	if !upNoBuild && len(spec.BuildCommands) > 0 {
		output.Infof("Building %s (%d command(s))", output.Bold(svc.Name), len(spec.BuildCommands))
		if err = r.Build(cmd.Context(), spec, sink); err != nil {
			output.Errorf("%v", err)
			return fmt.Errorf("build failed")
		}
		output.Successf("Build succeeded")
	}

	output.Infof("Starting %s: %s", output.Bold(svc.Name), spec.StartCommand)
	if spec.Port > 0 {
		output.KeyValue("PORT", fmt.Sprintf("%d", spec.Port))
	}

	proc, err := r.Start(spec, sink)
	if err != nil {
		return err
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	waitDone := make(chan error, 1)
	go func() { waitDone <- proc.Wait() }()

	select {
	case sig := <-sigChan:
		output.Blank()
		output.Infof("Received %s, stopping %s...", sig, output.Bold(svc.Name))
		proc.Stop(constants.StopGracePeriod)
		<-waitDone
		output.Successf("Service stopped")
		return nil
	case err = <-waitDone:
		if err != nil {
			output.Errorf("service exited with code %d", proc.ExitCode())
			return fmt.Errorf("service failed")
		}
		output.Successf("Service exited cleanly")
		return nil
	}
}
