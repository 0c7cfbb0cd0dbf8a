package cmd

import (
	"fmt"

	"github.com/slipway/slipway/internal/constants"
	"github.com/slipway/slipway/internal/output"
	"github.com/slipway/slipway/internal/secrets"

	"github.com/spf13/cobra"
)

const setSecretArgCount = 3

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Manage the out-of-band secret store",
	Long: `Manage the values behind a blueprint's secret-marked environment
variables (sync: false). Values live in an owner-only file under the
slipway data directory, never in the blueprint itself.`,
}

var setSecretCmd = &cobra.Command{
	Use:   "set <service> <key> <value>",
	Short: "Store a secret value for a service",
	Example: fmt.Sprintf(
		"  - %s secrets set voice-chatbot-api ELEVENLABS_API_KEY \"sk_xxxxx\"\n"+
			"  - %s secrets set voice-chatbot-api GEMINI_API_KEY \"AIza_xxxxx\"",
		constants.ProjectName,
		constants.ProjectName,
	),
	RunE: runSetSecret,
	Args: cobra.ExactArgs(setSecretArgCount),
}

var unsetSecretCmd = &cobra.Command{
	Use:     "unset <service> <key>",
	Short:   "Remove a stored secret value",
	Example: fmt.Sprintf("  - %s secrets unset voice-chatbot-api GEMINI_API_KEY", constants.ProjectName),
	RunE:    runUnsetSecret,
	Args:    cobra.ExactArgs(2),
}

var listSecretsCmd = &cobra.Command{
	Use:     "list [service]",
	Short:   "List stored secrets",
	Long:    `List stored secret keys, with values masked. Values are never printed in full.`,
	Example: fmt.Sprintf("  - %s secrets list voice-chatbot-api", constants.ProjectName),
	RunE:    runListSecrets,
	Args:    cobra.MaximumNArgs(1),
}

func init() {
	secretsCmd.AddCommand(setSecretCmd)
	secretsCmd.AddCommand(unsetSecretCmd)
	secretsCmd.AddCommand(listSecretsCmd)
	rootCmd.AddCommand(secretsCmd)
}

func runSetSecret(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	service, key, value := args[0], args[1], args[2]

	store, err := secrets.OpenDefault()
	if err != nil {
		return err
	}
	if err := store.Set(service, key, value); err != nil {
		return err
	}

	output.Successf("Stored secret %s for service %s", output.Bold(key), output.Bold(service))
	return nil
}

func runUnsetSecret(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true
	service, key := args[0], args[1]

	store, err := secrets.OpenDefault()
	if err != nil {
		return err
	}
	if err := store.Unset(service, key); err != nil {
		return err
	}

	output.Successf("Removed secret %s for service %s", output.Bold(key), output.Bold(service))
	return nil
}

func runListSecrets(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	store, err := secrets.OpenDefault()
	if err != nil {
		return err
	}

	services := args
	if len(services) == 0 {
		services, err = store.ServiceNames()
		if err != nil {
			return err
		}
	}

	var rows [][]string
	for _, service := range services {
		keys, keysErr := store.Keys(service)
		if keysErr != nil {
			return keysErr
		}
		for _, key := range keys {
			value, ok, lookupErr := store.Lookup(service, key)
			if lookupErr != nil {
				return lookupErr
			}
			if !ok {
				continue
			}
			rows = append(rows, []string{output.Bold(service), key, secrets.Preview(value)})
		}
	}

	if len(rows) == 0 {
		output.Infof("no secrets stored")
		return nil
	}

	output.Table([]string{"Service", "Key", "Value"}, rows)
	return nil
}
