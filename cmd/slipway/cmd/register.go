package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/client"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var registerBlueprintFile string

var registerCmd = &cobra.Command{
	Use:   "register [path]",
	Short: "Register a project's services with the daemon",
	Long: `Register the services declared by a project's blueprint with the
daemon, so push events and triggers can deploy them. The path defaults
to the current directory; the blueprint is discovered inside it unless
--file names one.`,
	RunE: registerRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	registerCmd.Flags().StringVarP(&registerBlueprintFile, "file", "f", "", "Blueprint file, relative to the project path")
	rootCmd.AddCommand(registerCmd)
}

func registerRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err = os.Stat(absPath); err != nil {
		return err
	}

	c := client.New(cfg, slog.Default())
	resp, err := c.RegisterServices(cmd.Context(), api.RegisterServiceRequest{
		Path:          absPath,
		BlueprintPath: registerBlueprintFile,
	})
	if resp != nil && len(resp.Findings) > 0 {
		printAPIFindings(resp.Findings)
	}
	if err != nil {
		return err
	}

	output.Successf("Registered %d service(s)", len(resp.Services))
	for _, svc := range resp.Services {
		output.KeyValue(svc.Name, svc.Path)
	}
	output.Infof("Run '%s deploys' to watch deploys, or push to trigger one", rootCmd.Use)
	return nil
}

// printAPIFindings renders findings returned by the daemon.
func printAPIFindings(findings []api.ValidationFinding) {
	for _, f := range findings {
		switch f.Severity {
		case "error":
			output.Errorf("%s: %s (%s)", f.Field, f.Message, f.Code)
		default:
			output.Warningf("%s: %s (%s)", f.Field, f.Message, f.Code)
		}
	}
}
