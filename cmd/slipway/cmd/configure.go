// Package cmd implements the CLI commands for the slipway tool.
package cmd

import (
	"github.com/slipway/slipway/internal/config"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Configure the daemon endpoint and CLI defaults",
	Long: `Configure where the CLI finds the slipway daemon.
This creates or updates the configuration file at ` + output.Bold("~/.slipway/config.yaml"),
	Run: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(_ *cobra.Command, _ []string) {
	existingConfig, err := config.Load()
	if err != nil {
		existingConfig = &config.Config{}
		output.Infof("Creating new configuration")
	} else {
		output.Successf("Found existing configuration")
	}

	endpoint := output.Prompt("Enter daemon API endpoint (empty keeps " + existingConfig.APIBaseURL() + ")")
	if endpoint == "" {
		endpoint = existingConfig.APIEndpoint
		output.Infof("Using endpoint: %s", existingConfig.APIBaseURL())
	}

	logLevel := output.Prompt("Enter log level (DEBUG, INFO, WARN, ERROR; empty keeps current)")
	if logLevel == "" {
		logLevel = existingConfig.LogLevel
	}

	cfg := &config.Config{
		APIEndpoint: endpoint,
		ListenAddr:  existingConfig.ListenAddr,
		Port:        existingConfig.Port,
		LogLevel:    logLevel,
		Parallelism: existingConfig.Parallelism,
	}

	if err := config.Save(cfg); err != nil {
		output.Fatalf("Failed to save configuration: %v", err)
	}

	configPath, err := config.GetConfigPath()
	if err != nil {
		output.Fatalf("Failed to get config path: %v", err)
	}

	output.Successf("Configuration saved successfully")
	output.KeyValue("Configuration path", configPath)
}
