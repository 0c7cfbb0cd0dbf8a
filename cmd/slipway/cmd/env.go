package cmd

import (
	"slices"
	"sort"

	"github.com/slipway/slipway/internal/output"
	"github.com/slipway/slipway/internal/secrets"

	"github.com/spf13/cobra"
)

var (
	envFlagFile string
	envEnvFile  string
)

var envCmd = &cobra.Command{
	Use:   "env [service]",
	Short: "Show a service's resolved environment",
	Long: `Show the environment a service process would receive: blueprint
values, the optional env-file overlay, and secret references resolved
from the store. Secret values are masked.`,
	RunE: envRun,
	Args: cobra.MaximumNArgs(1),
}

func init() {
	envCmd.Flags().StringVarP(&envFlagFile, "file", "f", "", "Blueprint file (default: discovered in the current directory)")
	envCmd.Flags().StringVar(&envEnvFile, "env-file", "", "Env file overlaid on the blueprint's environment")
	rootCmd.AddCommand(envCmd)
}

func envRun(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	path, err := resolveBlueprintPath([]string{envFlagFile})
	if err != nil {
		return err
	}
	_, svc, err := loadService(path, name)
	if err != nil {
		return err
	}

	checkout, err := checkoutDir(path)
	if err != nil {
		return err
	}

	_, res, err := buildRunSpec(svc, checkout, envEnvFile, 0)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(res.Env))
	for key := range res.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys)+len(res.Missing))
	for _, key := range keys {
		value := res.Env[key]
		if slices.Contains(res.SecretKeys, key) {
			value = secrets.Preview(value)
		}
		rows = append(rows, []string{output.Bold(key), value})
	}
	for _, key := range res.Missing {
		rows = append(rows, []string{output.Bold(key), output.Red("(missing)")})
	}

	output.Table([]string{"Key", "Value"}, rows)
	return nil
}
