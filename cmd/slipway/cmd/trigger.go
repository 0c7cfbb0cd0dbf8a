package cmd

import (
	"fmt"
	"log/slog"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/client"
	"github.com/slipway/slipway/internal/git"
	"github.com/slipway/slipway/internal/output"

	"github.com/spf13/cobra"
)

var (
	triggerRepo    string
	triggerBranch  string
	triggerCommit  string
	triggerChanged []string
)

var triggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "Deliver a push event to the daemon",
	Long: `Deliver a push event to the daemon, the way a repository webhook
would. Every registered service of the repository is checked: branch
match first, then the build filter against the changed paths. Matching
services deploy; the rest report why they were skipped.

Repo and branch default to the current git repository's remote and
branch.`,
	Example: "  - slipway trigger --changed voice_chatbot_api/main.py\n" +
		"  - slipway trigger --repo https://github.com/acme/voicebot --branch main --changed src/app.py",
	RunE: triggerRun,
}

func init() {
	triggerCmd.Flags().StringVar(&triggerRepo, "repo", "", "Repository URL (default: origin of the current git repository)")
	triggerCmd.Flags().StringVar(&triggerBranch, "branch", "", "Branch the push is for (default: current git branch)")
	triggerCmd.Flags().StringVar(&triggerCommit, "commit", "", "Commit SHA the push delivered")
	triggerCmd.Flags().StringArrayVar(&triggerChanged, "changed", nil, "Changed path, relative to the repository root (repeatable)")
	rootCmd.AddCommand(triggerCmd)
}

func triggerRun(cmd *cobra.Command, _ []string) error {
	cmd.SilenceUsage = true

	cfg, err := getConfigFromContext(cmd)
	if err != nil {
		return err
	}

	repo, branch := triggerRepo, triggerBranch
	if repo == "" || branch == "" {
		detectedRepo, detectedBranch, detectErr := git.RepositoryInfo(".")
		if detectErr != nil && repo == "" {
			return fmt.Errorf("not inside a git repository; pass --repo explicitly: %w", detectErr)
		}
		if repo == "" {
			repo = detectedRepo
		}
		if branch == "" {
			branch = detectedBranch
		}
	}

	event := &api.PushEvent{
		Repo:         repo,
		Branch:       branch,
		Commit:       triggerCommit,
		ChangedPaths: triggerChanged,
	}

	output.Infof("Delivering push event for %s (%s)", output.Bold(repo), branch)

	c := client.New(cfg, slog.Default())
	resp, err := c.NotifyPush(cmd.Context(), event)
	if err != nil {
		return err
	}

	if len(resp.Results) == 0 {
		output.Warningf("no registered services match this repository")
		return nil
	}

	rows := make([][]string, 0, len(resp.Results))
	for _, result := range resp.Results {
		action := output.Gray(result.Action)
		if result.Action == api.PushActionDeployed {
			action = output.Green(result.Action)
		}
		rows = append(rows, []string{output.Bold(result.Service), action, result.Reason, result.DeployID})
	}
	output.Table([]string{"Service", "Action", "Reason", "Deploy ID"}, rows)

	for _, result := range resp.Results {
		if result.DeployID != "" {
			output.Infof("Run '%s logs %s --follow' to stream logs", rootCmd.Use, output.Cyan(result.DeployID))
		}
	}
	return nil
}
