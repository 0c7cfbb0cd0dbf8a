package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/client"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var (
	deploysLimit  int
	deploysStatus string
)

var deploysCmd = &cobra.Command{
	Use:   "deploys [deploy-id]",
	Short: "List deploys or show one deploy",
	Example: "  - slipway deploys\n" +
		"  - slipway deploys --status BUILDING,LIVE\n" +
		"  - slipway deploys 4f7c21aa-0b1d-4a9e-8f3c-2d5e6a7b8c9d",
	RunE: deploysRun,
	Args: cobra.MaximumNArgs(1),
}

var stopCmd = &cobra.Command{
	Use:   "stop <deploy-id>",
	Short: "Stop a running deploy",
	Long: `Stop a running deploy. The service process receives SIGTERM and is
killed after the grace period. Stopping a finished deploy is a no-op.`,
	RunE: stopRun,
	Args: cobra.ExactArgs(1),
}

func init() {
	deploysCmd.Flags().IntVar(&deploysLimit, "limit", 0, "Maximum number of deploys to list (0 lets the daemon decide)")
	deploysCmd.Flags().StringVar(&deploysStatus, "status", "", "Comma-separated statuses to filter by (e.g., BUILDING,LIVE)")
	rootCmd.AddCommand(deploysCmd)
	rootCmd.AddCommand(stopCmd)
}

func deploysRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}
	c := client.New(cfg, slog.Default())

	if len(args) == 1 {
		dep, getErr := c.GetDeploy(cmd.Context(), args[0])
		if getErr != nil {
			return getErr
		}
		printDeploy(dep)
		return nil
	}

	deploys, err := c.ListDeploys(cmd.Context(), deploysLimit, deploysStatus)
	if err != nil {
		return err
	}
	if len(deploys) == 0 {
		output.Infof("no deploys yet")
		return nil
	}

	rows := make([][]string, 0, len(deploys))
	for _, dep := range deploys {
		rows = append(rows, []string{
			dep.ID,
			output.Bold(dep.Service),
			output.StatusBadge(dep.Status),
			dep.Trigger,
			deployAge(dep),
		})
	}
	output.Table([]string{"Deploy ID", "Service", "Status", "Trigger", "Age"}, rows)
	return nil
}

func stopRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	c := client.New(cfg, slog.Default())
	resp, err := c.StopDeploy(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if resp == nil {
		output.Infof("deploy %s already finished; nothing to stop", args[0])
		return nil
	}

	output.Successf("%s", resp.Message)
	output.KeyValue("Deploy ID", resp.DeployID)
	return nil
}

// printDeploy renders one deploy's details as key/value lines.
func printDeploy(dep *api.Deploy) {
	output.KeyValue("Deploy ID", dep.ID)
	output.KeyValue("Service", output.Bold(dep.Service))
	output.KeyValue("Status", output.StatusBadge(dep.Status))
	output.KeyValue("Trigger", dep.Trigger)
	if dep.Branch != "" {
		output.KeyValue("Branch", dep.Branch)
	}
	if dep.Commit != "" {
		output.KeyValue("Commit", dep.Commit)
	}
	if dep.Port > 0 {
		output.KeyValue("Port", fmt.Sprintf("%d", dep.Port))
	}
	output.KeyValue("Created", dep.CreatedAt.Local().Format(time.DateTime))
	if dep.CompletedAt != nil {
		output.KeyValue("Completed", dep.CompletedAt.Local().Format(time.DateTime))
	}
	if dep.FailedStep > 0 {
		output.KeyValue("Failed build step", fmt.Sprintf("%d", dep.FailedStep))
	}
	if dep.ExitCode != nil {
		output.KeyValue("Exit code", fmt.Sprintf("%d", *dep.ExitCode))
	}
	if dep.Error != "" {
		output.KeyValue("Error", output.Red(dep.Error))
	}
	for _, key := range dep.MissingSecrets {
		output.Warningf("secret %s had no stored value at launch", key)
	}
}

// deployAge renders how long ago a deploy was created.
func deployAge(dep *api.Deploy) string {
	if dep.CreatedAt.IsZero() {
		return ""
	}
	return output.Duration(time.Since(dep.CreatedAt))
}
