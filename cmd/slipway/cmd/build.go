package cmd

import (
	"fmt"

	"github.com/slipway/slipway/internal/output"
	"github.com/slipway/slipway/internal/runner"

	"github.com/spf13/cobra"
)

var (
	buildFlagFile string
	buildEnvFile  string
)

var buildCmd = &cobra.Command{
	Use:   "build [service]",
	Short: "Run a service's build commands",
	Long: `Run a service's build commands locally, strictly in declaration order.
The first command that exits non-zero aborts the pipeline.

The service name may be omitted when the blueprint declares exactly one
service.`,
	RunE: buildRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	buildCmd.Flags().StringVarP(&buildFlagFile, "file", "f", "", "Blueprint file (default: discovered in the current directory)")
	buildCmd.Flags().StringVar(&buildEnvFile, "env-file", "", "Env file overlaid on the blueprint's environment")
	rootCmd.AddCommand(buildCmd)
}

func buildRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	path, err := resolveBlueprintPath([]string{buildFlagFile})
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

	spec, res, err := buildRunSpec(svc, checkout, buildEnvFile, 0)
	if err != nil {
		return err
	}

	if len(spec.BuildCommands) == 0 {
		output.Infof("service %s declares no build commands", output.Bold(svc.Name))
		return nil
	}

	output.Infof("Building %s (%d command(s)) in %s",
		output.Bold(svc.Name), len(spec.BuildCommands), spec.WorkDir)

	sink := newConsoleSink(res)
	if err := runner.New().Build(cmd.Context(), spec, sink); err != nil {
		output.Errorf("%v", err)
		return fmt.Errorf("build failed")
	}

	output.Successf("Build succeeded for %s", output.Bold(svc.Name))
	return nil
}
