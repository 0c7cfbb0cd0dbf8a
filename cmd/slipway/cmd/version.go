package cmd

import (
	"log/slog"

	"github.com/slipway/slipway/internal/client"
	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the version of the CLI and the daemon",
	Run: func(cmd *cobra.Command, _ []string) {
		output.Header(constants.ProjectName)
		output.KeyValue("CLI version", *constants.GetVersion())

		cfg, err := getConfigFromContext(cmd)
		if err != nil {
			return
		}

		c := client.New(cfg, slog.Default())
		resp, err := c.GetHealth(cmd.Context())
		if err != nil {
			output.Warningf("daemon not reachable at %s", cfg.APIBaseURL())
			return
		}

		output.KeyValue("Daemon version", resp.Version)
		output.KeyValue("Daemon status", resp.Status)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
