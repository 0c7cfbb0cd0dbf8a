package cmd

import (
	"log/slog"

	"github.com/slipway/slipway/internal/blueprint"
	"github.com/slipway/slipway/internal/client"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var servicesRegistered bool

var servicesCmd = &cobra.Command{
	Use:   "services [file]",
	Short: "List declared services",
	Long: `List the services a blueprint file declares.

With --registered the daemon's service registry is listed instead.`,
	RunE: servicesRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	servicesCmd.Flags().BoolVar(&servicesRegistered, "registered", false, "List services registered with the daemon")
	rootCmd.AddCommand(servicesCmd)
}

func servicesRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	if servicesRegistered {
		return listRegisteredServices(cmd)
	}

	path, err := resolveBlueprintPath(args)
	if err != nil {
		return err
	}

	bp, err := blueprint.ParseFile(path)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(bp.Services))
	for _, svc := range bp.Services {
		branch := svc.BranchOrDefault()
		rows = append(rows, []string{
			output.Bold(svc.Name),
			string(svc.Type),
			svc.Env,
			svc.Plan,
			branch,
			svc.RootDir,
		})
	}

	output.Table([]string{"Name", "Type", "Runtime", "Plan", "Branch", "Root Dir"}, rows)
	return nil
}

func listRegisteredServices(cmd *cobra.Command) error {
	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	c := client.New(cfg, slog.Default())
	services, err := c.ListServices(cmd.Context())
	if err != nil {
		return err
	}

	if len(services) == 0 {
		output.Infof("no services registered; run '%s register' in a project directory", rootCmd.Use)
		return nil
	}

	rows := make([][]string, 0, len(services))
	for _, svc := range services {
		rows = append(rows, []string{
			output.Bold(svc.Name),
			svc.Type,
			svc.Branch,
			svc.Path,
			svc.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	output.Table([]string{"Name", "Type", "Branch", "Path", "Updated"}, rows)
	return nil
}
